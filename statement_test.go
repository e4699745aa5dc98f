package undertow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undertow-orm/undertow/criteria"
)

func TestCompileSelect(t *testing.T) {
	orm := newTestORM(t)
	users := orm.MustRepository("user")
	pets := orm.MustRepository("pet")

	t.Run("AllColumns", func(t *testing.T) {
		stmt, err := users.compileSelect(criteria.New())
		require.NoError(t, err)
		assert.Equal(t, `SELECT "id","name","email","age","active" FROM "users"`, stmt.Text)
		assert.Empty(t, stmt.Params)
	})

	t.Run("SelectAppendsPrimaryKey", func(t *testing.T) {
		c := &criteria.Criteria{Select: []string{"name"}}
		stmt, err := users.compileSelect(c)
		require.NoError(t, err)
		assert.Equal(t, `SELECT "name","id" FROM "users"`, stmt.Text)
	})

	t.Run("SelectWithPrimaryKey", func(t *testing.T) {
		c := &criteria.Criteria{Select: []string{"id", "name"}}
		stmt, err := users.compileSelect(c)
		require.NoError(t, err)
		assert.Equal(t, `SELECT "id","name" FROM "users"`, stmt.Text)
	})

	t.Run("BelongsToAliased", func(t *testing.T) {
		stmt, err := pets.compileSelect(criteria.New())
		require.NoError(t, err)
		assert.Equal(t, `SELECT "id","name","owner_id" AS "owner" FROM "pets"`, stmt.Text)
	})

	t.Run("SelectCollectionRejected", func(t *testing.T) {
		c := &criteria.Criteria{Select: []string{"pets"}}
		_, err := users.compileSelect(c)
		assert.True(t, IsValidation(err))
	})

	t.Run("SelectUnknownRejected", func(t *testing.T) {
		c := &criteria.Criteria{Select: []string{"nope"}}
		_, err := users.compileSelect(c)
		assert.True(t, IsValidation(err))
	})

	t.Run("WhereOrderLimitOffset", func(t *testing.T) {
		c := &criteria.Criteria{
			Where: criteria.Predicate{"active": true},
			Sorts: []criteria.Sort{{Property: "name", Descending: true}, {Property: "id"}},
			Skip:  10,
			Limit: 5,
		}
		stmt, err := users.compileSelect(c)
		require.NoError(t, err)
		assert.Equal(t,
			`SELECT "id","name","email","age","active" FROM "users" WHERE "active" = $1 ORDER BY "name" DESC, "id" LIMIT 5 OFFSET 10`,
			stmt.Text)
		assert.Equal(t, []any{true}, stmt.Params)
	})

	// Zero skip and limit emit no clause at all.
	t.Run("ZeroSkipLimitOmitted", func(t *testing.T) {
		c := &criteria.Criteria{Skip: 0, Limit: 0}
		stmt, err := users.compileSelect(c)
		require.NoError(t, err)
		assert.NotContains(t, stmt.Text, "LIMIT")
		assert.NotContains(t, stmt.Text, "OFFSET")
	})

	t.Run("SortStorageName", func(t *testing.T) {
		c := &criteria.Criteria{Sorts: []criteria.Sort{{Property: "owner"}}}
		stmt, err := pets.compileSelect(c)
		require.NoError(t, err)
		assert.Contains(t, stmt.Text, ` ORDER BY "owner_id"`)
	})

	t.Run("SortCollectionRejected", func(t *testing.T) {
		c := &criteria.Criteria{Sorts: []criteria.Sort{{Property: "pets"}}}
		_, err := users.compileSelect(c)
		assert.True(t, IsValidation(err))
	})

	t.Run("SortUnknownRejected", func(t *testing.T) {
		c := &criteria.Criteria{Sorts: []criteria.Sort{{Property: "nope"}}}
		_, err := users.compileSelect(c)
		assert.True(t, IsValidation(err))
	})
}

func TestCompileSelectProj(t *testing.T) {
	orm := newTestORM(t)
	joins := orm.MustRepository("productCategory")

	// Join-table lookups project only the requested foreign key.
	c := &criteria.Criteria{
		Select: []string{"category"},
		Where:  criteria.Predicate{"product": 1},
	}
	stmt, err := joins.compileSelectProj(c, false)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "category_id" AS "category" FROM "product_categories" WHERE "product_id" = $1`, stmt.Text)
	assert.Equal(t, []any{1}, stmt.Params)
}

func TestCompileCount(t *testing.T) {
	orm := newTestORM(t)
	users := orm.MustRepository("user")

	t.Run("NoPredicate", func(t *testing.T) {
		stmt, err := users.compileCount(criteria.New())
		require.NoError(t, err)
		assert.Equal(t, `SELECT count(*) AS "count" FROM "users"`, stmt.Text)
		assert.Empty(t, stmt.Params)
	})

	t.Run("Predicate", func(t *testing.T) {
		c := &criteria.Criteria{Where: criteria.Predicate{"age": map[string]any{">": 21}}}
		stmt, err := users.compileCount(c)
		require.NoError(t, err)
		assert.Equal(t, `SELECT count(*) AS "count" FROM "users" WHERE "age" > $1`, stmt.Text)
		assert.Equal(t, []any{21}, stmt.Params)
	})
}

func TestCompileInsert(t *testing.T) {
	orm := newTestORM(t)
	users := orm.MustRepository("user")
	pets := orm.MustRepository("pet")

	// Parameters bind column-major over the sorted union of columns; rows
	// missing a property bind NULL.
	t.Run("MultiRowColumnMajor", func(t *testing.T) {
		rows := []Record{
			{"name": "alice", "email": "alice@example.com"},
			{"name": "bob"},
		}
		stmt, err := users.compileInsert(rows, false, nil)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "users" ("email","name") VALUES ($1,$3),($2,$4)`, stmt.Text)
		assert.Equal(t, []any{"alice@example.com", nil, "alice", "bob"}, stmt.Params)
	})

	t.Run("Returning", func(t *testing.T) {
		stmt, err := users.compileInsert([]Record{{"name": "alice"}}, true, nil)
		require.NoError(t, err)
		assert.Equal(t,
			`INSERT INTO "users" ("name") VALUES ($1) RETURNING "id","name","email","age","active"`,
			stmt.Text)
	})

	t.Run("ReturningSubset", func(t *testing.T) {
		stmt, err := users.compileInsert([]Record{{"name": "alice"}}, true, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "users" ("name") VALUES ($1) RETURNING "name","id"`, stmt.Text)
	})

	t.Run("BelongsToValue", func(t *testing.T) {
		stmt, err := pets.compileInsert([]Record{{"name": "rex", "owner": 7}}, false, nil)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "pets" ("name","owner_id") VALUES ($1,$2)`, stmt.Text)
		assert.Equal(t, []any{"rex", 7}, stmt.Params)
	})

	// A nested object on a belongs-to column collapses to its id value.
	t.Run("BelongsToObjectCollapses", func(t *testing.T) {
		stmt, err := pets.compileInsert([]Record{{"owner": Record{"id": 7}}}, false, nil)
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "pets" ("owner_id") VALUES ($1)`, stmt.Text)
		assert.Equal(t, []any{7}, stmt.Params)
	})

	t.Run("BelongsToObjectRejected", func(t *testing.T) {
		_, err := pets.compileInsert([]Record{{"owner": Record{"name": "alice"}}}, false, nil)
		assert.True(t, IsValidation(err))
	})

	t.Run("EmptyValuesRejected", func(t *testing.T) {
		_, err := users.compileInsert([]Record{{}}, false, nil)
		assert.True(t, IsValidation(err))
	})

	t.Run("CollectionValueRejected", func(t *testing.T) {
		_, err := users.compileInsert([]Record{{"pets": []any{1}}}, false, nil)
		assert.True(t, IsValidation(err))
	})

	t.Run("UnknownPropertyRejected", func(t *testing.T) {
		_, err := users.compileInsert([]Record{{"nope": 1}}, false, nil)
		assert.True(t, IsValidation(err))
	})
}

func TestCompileUpdate(t *testing.T) {
	orm := newTestORM(t)
	users := orm.MustRepository("user")

	t.Run("SetThenWhere", func(t *testing.T) {
		c := &criteria.Criteria{Where: criteria.Predicate{"id": 1}}
		stmt, err := users.compileUpdate(c, Record{"name": "z", "age": 31}, false, nil)
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "users" SET "age"=$1, "name"=$2 WHERE "id" = $3`, stmt.Text)
		assert.Equal(t, []any{31, "z", 1}, stmt.Params)
	})

	t.Run("Returning", func(t *testing.T) {
		stmt, err := users.compileUpdate(criteria.New(), Record{"name": "z"}, true, []string{"name"})
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "users" SET "name"=$1 RETURNING "name","id"`, stmt.Text)
	})

	t.Run("EmptyValuesRejected", func(t *testing.T) {
		_, err := users.compileUpdate(criteria.New(), Record{}, false, nil)
		assert.True(t, IsValidation(err))
	})
}

func TestCompileDelete(t *testing.T) {
	orm := newTestORM(t)
	users := orm.MustRepository("user")

	// No predicate compiles to a full-table delete with zero parameters.
	t.Run("NoPredicate", func(t *testing.T) {
		stmt, err := users.compileDelete(criteria.New(), false, nil)
		require.NoError(t, err)
		assert.Equal(t, `DELETE FROM "users"`, stmt.Text)
		assert.Empty(t, stmt.Params)
	})

	t.Run("PredicateAndReturning", func(t *testing.T) {
		c := &criteria.Criteria{Where: criteria.Predicate{"name": "alice"}}
		stmt, err := users.compileDelete(c, true, nil)
		require.NoError(t, err)
		assert.Equal(t,
			`DELETE FROM "users" WHERE "name" = $1 RETURNING "id","name","email","age","active"`,
			stmt.Text)
		assert.Equal(t, []any{"alice"}, stmt.Params)
	})
}
