package sql

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undertow-orm/undertow/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := NewStatsDriver(OpenDB(dialect.Postgres, db), WithSlowThreshold(time.Minute))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())

	mock.ExpectExec("DELETE FROM pets").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM pets", []any{}, nil))

	mock.ExpectQuery("SELECT boom").WillReturnError(errors.New("boom"))
	assert.Error(t, drv.Query(context.Background(), "SELECT boom", []any{}, rows))

	snap := drv.QueryStats().Stats()
	assert.Equal(t, int64(2), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.TotalExecs)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(0), snap.SlowQueries)
	assert.Greater(t, snap.TotalDuration, time.Duration(0))
	assert.Greater(t, snap.AvgQueryDuration(), time.Duration(0))
	assert.Contains(t, snap.String(), "queries=2")

	drv.QueryStats().Reset()
	assert.Equal(t, int64(0), drv.QueryStats().Stats().TotalQueries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsDriverOpLabels(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := NewStatsDriver(OpenDB(dialect.Postgres, db), WithSlowThreshold(time.Minute))

	findCtx := dialect.WithOpLabel(context.Background(), "user.find")
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(findCtx, "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())
	mock.ExpectQuery("SELECT boom").WillReturnError(errors.New("boom"))
	assert.Error(t, drv.Query(findCtx, "SELECT boom", []any{}, rows))

	mock.ExpectExec("DELETE FROM pets").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(dialect.WithOpLabel(context.Background(), "pet.destroy"),
		"DELETE FROM pets", []any{}, nil))

	// Unlabeled statements count only in the aggregate figures.
	mock.ExpectExec("DELETE FROM pets").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "DELETE FROM pets", []any{}, nil))

	find := drv.QueryStats().Op("user.find")
	assert.Equal(t, int64(2), find.Count)
	assert.Equal(t, int64(1), find.Errors)
	assert.Greater(t, find.Duration, time.Duration(0))
	assert.Equal(t, int64(1), drv.QueryStats().Op("pet.destroy").Count)
	assert.Zero(t, drv.QueryStats().Op("ghost.find"))

	snap := drv.QueryStats().Stats()
	require.Len(t, snap.Ops, 2)
	assert.Equal(t, int64(2), snap.Ops["user.find"].Count)
	assert.Equal(t, int64(2), snap.TotalExecs)
	assert.Contains(t, snap.String(), "user.find{n=2 errors=1")

	drv.QueryStats().Reset()
	assert.Empty(t, drv.QueryStats().Stats().Ops)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsDriverSlowQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.Postgres, db),
		WithSlowThreshold(0),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	assert.Equal(t, time.Duration(0), drv.SlowThreshold())

	mock.ExpectExec("UPDATE pets").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "UPDATE pets", []any{}, nil))

	assert.Equal(t, int64(1), drv.QueryStats().Stats().SlowQueries)
	require.Len(t, slow, 1)
	assert.Equal(t, "UPDATE pets", slow[0])

	drv.SetSlowThreshold(time.Minute)
	assert.Equal(t, time.Minute, drv.SlowThreshold())
	mock.ExpectExec("UPDATE pets").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(context.Background(), "UPDATE pets", []any{}, nil))
	assert.Len(t, slow, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	drv := NewStatsDriver(OpenDB(dialect.Postgres, db), WithSlowThreshold(time.Minute))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pets").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO pets", []any{}, nil))
	rows := &Rows{}
	require.NoError(t, tx.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, tx.Commit())

	snap := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), snap.TotalQueries)
	assert.Equal(t, int64(1), snap.TotalExecs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	var logged []string
	drv := NewDebugDriver(OpenDB(dialect.Postgres, db), DebugWithLog(func(_ context.Context, v ...any) {
		var b strings.Builder
		for _, item := range v {
			b.WriteString(item.(string))
		}
		logged = append(logged, b.String())
	}))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM pets").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "DELETE FROM pets", []any{}, nil))
	require.NoError(t, tx.Commit())

	// Repository statements carry their operation label into the log.
	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, drv.Exec(dialect.WithOpLabel(context.Background(), "user.destroy"),
		"DELETE FROM users", []any{}, nil))

	require.Len(t, logged, 5)
	assert.Contains(t, logged[0], "query: SELECT 1")
	assert.Equal(t, "begin transaction", logged[1])
	assert.Contains(t, logged[2], "tx exec: DELETE FROM pets")
	assert.Equal(t, "commit transaction", logged[3])
	assert.Contains(t, logged[4], "user.destroy exec: DELETE FROM users")
	require.NoError(t, mock.ExpectationsWereMet())
}
