// Package undertow is a lightweight ORM that compiles structured criteria
// into parameterized SQL and materializes rows back into records.
//
// Models are declared with the schema package and registered on an ORM,
// which hands out repositories:
//
//	orm := undertow.New(undertow.WithDriver(drv))
//	err := orm.Register(
//		&schema.Model{
//			Name: "user",
//			Columns: []*schema.Column{
//				schema.Integer("id").Primary(),
//				schema.String("name"),
//				schema.Collection("pets", "pet").Via("owner"),
//			},
//		},
//		&schema.Model{
//			Name: "pet",
//			Columns: []*schema.Column{
//				schema.String("name"),
//				schema.BelongsTo("owner", "user"),
//			},
//		},
//	)
//
// Queries are deferred builders. Nothing touches the database until a
// terminal method runs, and each builder may run exactly once:
//
//	users, err := orm.MustRepository("user").
//		Find(undertow.Record{"name": "alice"}).
//		Populate("pets").
//		All(ctx)
//
// Criteria may be passed as a bare predicate or as a structured map with
// select, where, sort, skip and limit keys; see the criteria package for
// normalization rules.
package undertow
