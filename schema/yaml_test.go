package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undertow-orm/undertow/schema"
)

const modelsYAML = `
- name: product
  tableName: products
  columns:
    - {property: id, type: integer, primaryKey: true}
    - {property: name, type: string}
    - {property: price, type: float}
    - {property: owner, target: user, columnName: owner_id}
    - {property: categories, target: category, via: product, through: productCategory}
- name: user
  columns:
    - {property: id, type: integer, primaryKey: true}
    - {property: name, type: text}
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	models, err := schema.LoadYAML([]byte(modelsYAML))
	require.NoError(t, err)
	require.Len(t, models, 2)

	product := models[0]
	assert.Equal(t, "product", product.Name)
	assert.Equal(t, "products", product.TableName())
	require.Len(t, product.Columns, 5)

	id, ok := product.Column("id")
	require.True(t, ok)
	assert.True(t, id.IsPrimary)
	assert.Equal(t, schema.TypeInteger, id.Type)

	price, ok := product.Column("price")
	require.True(t, ok)
	assert.Equal(t, schema.TypeFloat, price.Type)

	owner, ok := product.Column("owner")
	require.True(t, ok)
	assert.Equal(t, schema.KindBelongsTo, owner.Kind)
	assert.Equal(t, "user", owner.TargetModel)
	assert.Equal(t, "owner_id", owner.StorageName())

	categories, ok := product.Column("categories")
	require.True(t, ok)
	assert.Equal(t, schema.KindCollection, categories.Kind)
	assert.Equal(t, "category", categories.TargetModel)
	assert.Equal(t, "product", categories.ViaProperty)
	assert.Equal(t, "productCategory", categories.ThroughModel)

	user := models[1]
	assert.Equal(t, "users", user.TableName())
	name, ok := user.Column("name")
	require.True(t, ok)
	assert.Equal(t, schema.TypeString, name.Type)
}

func TestLoadYAMLErrors(t *testing.T) {
	t.Parallel()
	t.Run("Malformed", func(t *testing.T) {
		_, err := schema.LoadYAML([]byte("{"))
		assert.Error(t, err)
	})

	t.Run("MissingName", func(t *testing.T) {
		_, err := schema.LoadYAML([]byte("- columns: [{property: id}]"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing name")
	})

	t.Run("MissingProperty", func(t *testing.T) {
		_, err := schema.LoadYAML([]byte("- name: user\n  columns: [{type: string}]"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing property")
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := schema.LoadYAML([]byte("- name: user\n  columns: [{property: a, type: blob}]"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown type "blob"`)
	})
}
