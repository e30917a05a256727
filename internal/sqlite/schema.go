package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL. JSON-valued columns hold the encoded slices of the record.
const (
	createContracts = `CREATE TABLE contracts (
    contract_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    extends TEXT,
    operations TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createTypes = `CREATE TABLE types (
    type_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    implements TEXT,
    methods TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL for lookups by name.
const (
	idxContractsName = `CREATE INDEX idx_contracts_name ON contracts(name);`
	idxTypesName     = `CREATE INDEX idx_types_name ON types(name);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createContracts,
	createTypes,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxContractsName,
	idxTypesName,
}

// createSchema executes every table and index statement.
func createSchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}
