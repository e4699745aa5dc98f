package undertow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/undertow-orm/undertow/schema"
)

// testModels returns a fresh model graph covering scalars, belongs-to,
// has-many and many-to-many. Registration mutates models, so every test gets
// its own set.
func testModels() []*schema.Model {
	return []*schema.Model{
		{
			Name: "user",
			Columns: []*schema.Column{
				schema.Integer("id").Primary(),
				schema.String("name"),
				schema.String("email"),
				schema.Integer("age"),
				schema.Bool("active"),
				schema.Collection("pets", "pet").Via("owner"),
			},
		},
		{
			Name: "pet",
			Columns: []*schema.Column{
				schema.Integer("id").Primary(),
				schema.String("name"),
				schema.BelongsTo("owner", "user").StorageKey("owner_id"),
			},
		},
		{
			Name: "product",
			Columns: []*schema.Column{
				schema.Integer("id").Primary(),
				schema.String("name"),
				schema.Float("price"),
				schema.Collection("categories", "category").Via("product").Through("productCategory"),
			},
		},
		{
			Name: "category",
			Columns: []*schema.Column{
				schema.Integer("id").Primary(),
				schema.String("name"),
				schema.Collection("products", "product").Via("category").Through("productCategory"),
			},
		},
		{
			Name:  "productCategory",
			Table: "product_categories",
			Columns: []*schema.Column{
				schema.Integer("id").Primary(),
				schema.BelongsTo("product", "product").StorageKey("product_id"),
				schema.BelongsTo("category", "category").StorageKey("category_id"),
			},
		},
	}
}

func newTestORM(t *testing.T, opts ...Option) *ORM {
	t.Helper()
	orm := New(opts...)
	require.NoError(t, orm.Register(testModels()...))
	return orm
}
