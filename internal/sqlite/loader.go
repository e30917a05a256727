// This file implements JSONL loading at attach time.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL filenames to their SQLite tables and column
// lists.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{contractsJSONL, "contracts", []string{"contract_id", "name", "extends", "operations", "created_at", "updated_at"}},
	{typesJSONL, "types", []string{"type_id", "name", "implements", "methods", "created_at", "updated_at"}},
}

// loadAllJSONL reads each JSONL file from dataDir and inserts its records
// into the corresponding table. Loading is transactional: either every file
// loads or the database stays empty. Malformed lines and records that
// violate constraints are skipped; unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	total := 0
	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if len(records) == 0 {
			continue
		}
		n, err := insertRecords(tx, mapping.table, mapping.columns, records)
		if err != nil {
			return 0, fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return total, nil
}

// insertRecords inserts parsed JSONL records into a table. Only the mapped
// columns are extracted; nested arrays and objects are stored as JSON text.
// It returns the number of rows inserted.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) (int, error) {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			val, ok := obj[col]
			if !ok {
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					continue
				}
				args[i] = string(b)
			default:
				args[i] = val
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
		inserted++
	}
	return inserted, nil
}
