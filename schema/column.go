package schema

import "github.com/google/uuid"

// Type is the declared scalar type of a column. It drives numeric coercion
// during materialization and the element type of array membership casts.
type Type int

const (
	TypeOther Type = iota
	TypeString
	TypeInteger
	TypeFloat
	TypeBool
	TypeTime
)

// ArrayCast returns the Postgres array element type used for membership
// predicates ("col" = ANY($n::TEXT[])). Types without a better mapping fall
// back to TEXT.
func (t Type) ArrayCast() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "FLOAT8"
	case TypeBool:
		return "BOOLEAN"
	case TypeTime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// String returns the YAML/wire name of the type.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeTime:
		return "time"
	default:
		return "other"
	}
}

// Kind discriminates the column variants.
type Kind int

const (
	// KindScalar is a plain value column.
	KindScalar Kind = iota
	// KindBelongsTo is a foreign key to another model's primary key.
	KindBelongsTo
	// KindCollection is a to-many relation resolved through a foreign key
	// on the target (has-many) or through a join model (many-to-many).
	// Collection columns have no storage of their own.
	KindCollection
)

// Column describes a single column or relation of a model.
type Column struct {
	// Property is the name the column is exposed as on records and in
	// criteria.
	Property string

	// Storage is the database column name. Defaults to Property. Unused
	// for collection columns.
	Storage string

	// Type is the scalar type. For belongs-to columns it describes the
	// foreign key value.
	Type Type

	// IsPrimary marks the primary key column.
	IsPrimary bool

	// Kind is the column variant.
	Kind Kind

	// TargetModel names the related model for belongs-to and collection
	// columns. Resolved by name when the registry links.
	TargetModel string

	// ViaProperty is the foreign-key property on the target (has-many) or
	// on the join model (many-to-many) correlating the collection back to
	// its owner.
	ViaProperty string

	// ThroughModel names the join model mediating a many-to-many relation.
	ThroughModel string

	// DefaultValue, when set, is applied on create for absent properties.
	DefaultValue func() any
}

// String declares a string column.
func String(property string) *Column {
	return &Column{Property: property, Type: TypeString}
}

// Integer declares an integer column.
func Integer(property string) *Column {
	return &Column{Property: property, Type: TypeInteger}
}

// Float declares a floating point column.
func Float(property string) *Column {
	return &Column{Property: property, Type: TypeFloat}
}

// Bool declares a boolean column.
func Bool(property string) *Column {
	return &Column{Property: property, Type: TypeBool}
}

// Time declares a timestamp column.
func Time(property string) *Column {
	return &Column{Property: property, Type: TypeTime}
}

// Other declares a column of a type the ORM does not interpret.
func Other(property string) *Column {
	return &Column{Property: property, Type: TypeOther}
}

// BelongsTo declares a foreign key column referencing the target model's
// primary key.
func BelongsTo(property, target string) *Column {
	return &Column{Property: property, Kind: KindBelongsTo, TargetModel: target}
}

// Collection declares a to-many relation to the target model. Chain Via to
// name the correlating foreign key, and Through for many-to-many relations.
func Collection(property, target string) *Column {
	return &Column{Property: property, Kind: KindCollection, TargetModel: target}
}

// StorageKey sets the database column name.
func (c *Column) StorageKey(name string) *Column {
	c.Storage = name
	return c
}

// Primary marks the column as the primary key.
func (c *Column) Primary() *Column {
	c.IsPrimary = true
	return c
}

// Via sets the correlating foreign-key property for a collection column.
func (c *Column) Via(property string) *Column {
	c.ViaProperty = property
	return c
}

// Through sets the join model for a many-to-many collection column.
func (c *Column) Through(model string) *Column {
	c.ThroughModel = model
	return c
}

// Default sets a static default applied on create when the property is
// absent.
func (c *Column) Default(v any) *Column {
	c.DefaultValue = func() any { return v }
	return c
}

// DefaultFunc sets a computed default applied on create when the property is
// absent.
func (c *Column) DefaultFunc(f func() any) *Column {
	c.DefaultValue = f
	return c
}

// DefaultUUID defaults the column to a fresh UUID string on create.
func (c *Column) DefaultUUID() *Column {
	c.DefaultValue = func() any { return uuid.NewString() }
	return c
}

// StorageName returns the database column name, defaulting to the property
// name.
func (c *Column) StorageName() string {
	if c.Storage != "" {
		return c.Storage
	}
	return c.Property
}
