package database

import (
	"database/sql"
	"errors"
)

// querier is satisfied by *sql.DB and *sql.Tx, so handler operations can run
// either directly on the connection or inside the per-chapter reindex
// transaction.
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// isNoRows reports whether err wraps sql.ErrNoRows
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
