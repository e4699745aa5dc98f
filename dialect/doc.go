// Package dialect provides the database abstraction used by undertow.
//
// It defines the Driver, Tx and ExecQuerier contracts that separate statement
// compilation from statement transport. The sql sub-package implements them on
// top of database/sql.
//
// Opening a connection:
//
//	import (
//	    "github.com/undertow-orm/undertow/dialect"
//	    "github.com/undertow-orm/undertow/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
package dialect
