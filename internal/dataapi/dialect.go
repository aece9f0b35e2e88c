package dataapi

import "aurora-dataapi/internal/typecast"

// Dialect describes a database family reachable through the Data API.
type Dialect struct {
	Name string
	// ProbeSQL is the statement Connect issues to confirm reachability.
	ProbeSQL    string
	DefaultPort int
	// Parsers returns the type parsers installed at manager construction.
	Parsers func() map[string]typecast.DecodeFunc
}

var (
	MySQL = Dialect{
		Name:        "mysql",
		ProbeSQL:    "SELECT VERSION()",
		DefaultPort: 3306,
		Parsers:     typecast.MySQLParsers,
	}
	Postgres = Dialect{
		Name:        "postgres",
		ProbeSQL:    "SELECT version()",
		DefaultPort: 5432,
		Parsers:     typecast.PostgresParsers,
	}
)

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, bool) {
	switch name {
	case MySQL.Name, "":
		return MySQL, true
	case Postgres.Name, "postgresql":
		return Postgres, true
	}
	return Dialect{}, false
}
