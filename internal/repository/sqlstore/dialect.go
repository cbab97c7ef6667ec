package sqlstore

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported DB_DRIVER values. Each matches the name its driver registers
// with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// dialect captures everything that differs between the supported engines.
// Queries in this package are written once with `?` placeholders.
type dialect struct {
	name string

	// dollarPlaceholders rewrites `?` to `$1, $2, ...` before execution.
	dollarPlaceholders bool

	// returningID fetches generated keys with INSERT ... RETURNING id
	// instead of sql.Result.LastInsertId.
	returningID bool

	// schema is executed statement by statement on startup. Every statement
	// must be idempotent.
	schema []string

	isUniqueViolation func(error) bool
}

var dialects = map[string]dialect{
	DriverSQLite: {
		name: DriverSQLite,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id       INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password TEXT NOT NULL,
				email    TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				task        VARCHAR(255) NOT NULL,
				description VARCHAR(255) NOT NULL,
				user_id     INTEGER
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id)`,
		},
		isUniqueViolation: sqliteUniqueViolation,
	},
	DriverPostgres: {
		name:               DriverPostgres,
		dollarPlaceholders: true,
		returningID:        true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id       BIGSERIAL PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				password TEXT NOT NULL,
				email    TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id          BIGSERIAL PRIMARY KEY,
				task        VARCHAR(255) NOT NULL,
				description VARCHAR(255) NOT NULL,
				user_id     BIGINT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id)`,
		},
		isUniqueViolation: postgresUniqueViolation,
	},
	DriverMySQL: {
		name: DriverMySQL,
		// MySQL has no CREATE INDEX IF NOT EXISTS, so the index is inline.
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id       BIGINT AUTO_INCREMENT PRIMARY KEY,
				username VARCHAR(255) NOT NULL UNIQUE,
				password VARCHAR(255) NOT NULL,
				email    VARCHAR(255) NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id          BIGINT AUTO_INCREMENT PRIMARY KEY,
				task        VARCHAR(255) NOT NULL,
				description VARCHAR(255) NOT NULL,
				user_id     BIGINT NULL,
				INDEX idx_tasks_user_id (user_id)
			)`,
		},
		isUniqueViolation: mysqlUniqueViolation,
	},
}

func (d dialect) rebind(query string) string {
	if !d.dollarPlaceholders {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteUniqueViolation accepts both the extended result code and the
// primary SQLITE_CONSTRAINT code, depending on how the connection reports.
func sqliteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch code := se.Code(); {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

// unique_violation, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const pgUniqueViolation = "23505"

func postgresUniqueViolation(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == pgUniqueViolation
}

// ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

func mysqlUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
