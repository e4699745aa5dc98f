// Package schema provides the declarative model descriptors the registry is
// built from.
//
// A model declares its table, its columns and relations, optional lifecycle
// hooks, and a set of shared instance methods:
//
//	product := &schema.Model{
//	    Name:  "product",
//	    Table: "products",
//	    Columns: []*schema.Column{
//	        schema.Integer("id").Primary(),
//	        schema.String("name"),
//	        schema.BelongsTo("owner", "user").StorageKey("owner_id"),
//	        schema.Collection("categories", "category").
//	            Via("product").Through("productCategory"),
//	    },
//	}
//
// Descriptors are plain values until they are registered; registration
// normalizes and links them, and they are immutable afterwards.
package schema

import (
	"context"

	"github.com/go-openapi/inflect"
)

// Record is a materialized row: property names mapped to column values.
// Records hold data only; instance methods declared on a model are shared
// through the model's method set and never copied onto records.
type Record map[string]any

// Method is an instance function declared on a model. All records of the
// model share the same method values.
type Method func(rec Record) any

// Hook transforms a values object before it is compiled into a statement.
// Hooks may block (e.g. hash a password, fetch a sequence value); the given
// context is the one the operation was started with.
type Hook func(ctx context.Context, values Record) (Record, error)

// Model describes one registered entity.
type Model struct {
	// Name is the logical model name. Lookups are case-insensitive.
	Name string

	// Table is the table name. Defaults to the Rails-style tableized form
	// of Name ("productCategory" -> "product_categories").
	Table string

	// Columns holds the ordered column declarations.
	Columns []*Column

	// Methods holds the shared instance functions, keyed by name.
	Methods map[string]Method

	// BeforeCreate and BeforeUpdate run right before statement compilation
	// for the respective operation.
	BeforeCreate Hook
	BeforeUpdate Hook
}

// TableName returns the declared table name, or the default derived from the
// model name.
func (m *Model) TableName() string {
	if m.Table != "" {
		return m.Table
	}
	return inflect.Tableize(m.Name)
}

// Column returns the column declared for the given property name.
func (m *Model) Column(property string) (*Column, bool) {
	for _, c := range m.Columns {
		if c.Property == property {
			return c, true
		}
	}
	return nil, false
}

// PrimaryKey returns the model's primary key column: the column flagged as
// primary, or the column named "id". Returns nil if neither exists; the
// registry synthesizes a default in that case.
func (m *Model) PrimaryKey() *Column {
	for _, c := range m.Columns {
		if c.IsPrimary {
			return c
		}
	}
	for _, c := range m.Columns {
		if c.Kind == KindScalar && c.Property == "id" {
			return c
		}
	}
	return nil
}
