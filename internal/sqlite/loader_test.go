// Unit tests for JSONL loading.
package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traits/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, createSchema(db))
	return db
}

func TestLoadJSONLUnknownFields(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		jsonl    string
		countSQL string
		wantRows int
	}{
		{
			name:     "contracts with unknown fields load",
			file:     contractsJSONL,
			jsonl:    `{"contract_id":"c-1","name":"Duck","extends":[],"operations":[{"name":"quack"}],"created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z","future":"x"}` + "\n",
			countSQL: "SELECT COUNT(*) FROM contracts",
			wantRows: 1,
		},
		{
			name:     "types with unknown fields load",
			file:     typesJSONL,
			jsonl:    `{"type_id":"t-1","name":"RubberDuck","implements":["Duck"],"methods":null,"created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z","score":3}` + "\n",
			countSQL: "SELECT COUNT(*) FROM types",
			wantRows: 1,
		},
		{
			name:     "records missing required columns are skipped",
			file:     contractsJSONL,
			jsonl:    `{"contract_id":"c-2","extends":[]}` + "\n",
			countSQL: "SELECT COUNT(*) FROM contracts",
			wantRows: 0,
		},
		{
			name:     "duplicate names keep the first record",
			file:     typesJSONL,
			jsonl:    `{"type_id":"t-1","name":"A","created_at":"x","updated_at":"x"}` + "\n" + `{"type_id":"t-2","name":"A","created_at":"x","updated_at":"x"}` + "\n",
			countSQL: "SELECT COUNT(*) FROM types",
			wantRows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, initJSONLFiles(dir))
			require.NoError(t, os.WriteFile(filepath.Join(dir, tt.file), []byte(tt.jsonl), 0o644))

			db := openTestDB(t)
			loaded, err := loadAllJSONL(db, dir)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, loaded)

			var n int
			require.NoError(t, db.QueryRow(tt.countSQL).Scan(&n))
			assert.Equal(t, tt.wantRows, n)
		})
	}
}

func TestLoadJSONLMissingFiles(t *testing.T) {
	db := openTestDB(t)
	_, err := loadAllJSONL(db, t.TempDir())
	assert.Error(t, err, "files are created by Attach before loading")
}

func TestBackendAttachReadsHandWrittenJSONL(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, contractsJSONL), []byte(
		`{"contract_id":"c-1","name":"Flyable","operations":[{"name":"fly"}],"created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}`+"\n",
	), 0o644))

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	c, err := b.GetContract("Flyable")
	require.NoError(t, err)
	assert.Nil(t, c.Extends)
	assert.Equal(t, []types.Operation{{Name: "fly"}}, c.Operations)
}
