package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDriver is returned for a DATABASE_DRIVER value no backend
// answers to.
var ErrUnknownDriver = errors.New("unknown database driver")

// Driver names a storage backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// ParseDriver normalizes a configured driver name. Empty and "auto"
// return the empty Driver, meaning DetectDriver decides.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return "", nil
	case "postgres", "postgresql", "pg", "pgx":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDriver, name)
}

// DetectDriver picks the backend from a connection string. No URL means
// local mode. File paths and sqlite schemes go to SQLite; anything else,
// including key=value DSNs, goes to PostgreSQL, whose parser reports
// malformed input.
func DetectDriver(url string) Driver {
	u := strings.ToLower(strings.TrimSpace(url))
	switch {
	case u == "":
		return DriverSQLite
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(u, "sqlite://"), strings.HasPrefix(u, "sqlite3://"), strings.HasPrefix(u, "file:"):
		return DriverSQLite
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(u, ext) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}
