package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pgError struct{ state string }

func (e pgError) Error() string    { return "pq: constraint violation" }
func (e pgError) SQLState() string { return e.state }

type pgCodeError struct{ code string }

func (e pgCodeError) Error() string { return "pg: constraint violation" }
func (e pgCodeError) Code() string  { return e.code }

type mysqlError struct{ number uint16 }

func (e mysqlError) Error() string  { return "mysql: constraint violation" }
func (e mysqlError) Number() uint16 { return e.number }

func TestConstraintError(t *testing.T) {
	cause := errors.New("duplicate key")
	err := NewConstraintError("users_email_key", cause)

	assert.Equal(t, "constraint failed: users_email_key", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsConstraintError(err))
	assert.True(t, IsConstraintError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsConstraintError(errors.New("other")))
	assert.False(t, IsConstraintError(nil))
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"PostgresSQLState", pgError{"23505"}, true},
		{"PostgresCode", pgCodeError{"23505"}, true},
		{"PostgresOtherState", pgError{"23503"}, false},
		{"MySQLNumber", mysqlError{1062}, true},
		{"MySQLOtherNumber", mysqlError{1451}, false},
		{"PostgresString", errors.New(`duplicate key value violates unique constraint "users_email_key"`), true},
		{"MySQLString", errors.New("Error 1062: Duplicate entry"), true},
		{"SQLiteString", errors.New("UNIQUE constraint failed: users.email"), true},
		{"Wrapped", fmt.Errorf("insert: %w", pgError{"23505"}), true},
		{"Unrelated", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueConstraintError(tt.err))
		})
	}
}

func TestIsForeignKeyConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"PostgresSQLState", pgError{"23503"}, true},
		{"MySQLParent", mysqlError{1451}, true},
		{"MySQLChild", mysqlError{1452}, true},
		{"PostgresString", errors.New(`insert or update on table "pets" violates foreign key constraint`), true},
		{"SQLiteString", errors.New("FOREIGN KEY constraint failed"), true},
		{"Unique", pgError{"23505"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsForeignKeyConstraintError(tt.err))
		})
	}
}

func TestIsCheckConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"PostgresSQLState", pgError{"23514"}, true},
		{"MySQLNumber", mysqlError{3819}, true},
		{"PostgresString", errors.New(`new row for relation "users" violates check constraint "age_positive"`), true},
		{"SQLiteString", errors.New("CHECK constraint failed: age_positive"), true},
		{"ForeignKey", pgError{"23503"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCheckConstraintError(tt.err))
		})
	}
}

func TestIsConstraintErrorClassified(t *testing.T) {
	// Any classified violation reports as a constraint error without
	// wrapping.
	assert.True(t, IsConstraintError(pgError{"23505"}))
	assert.True(t, IsConstraintError(mysqlError{1452}))
	assert.True(t, IsConstraintError(pgError{"23514"}))
	assert.False(t, IsConstraintError(pgError{"42601"}))
}
