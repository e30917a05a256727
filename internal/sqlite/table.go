package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/traits/pkg/types"
)

// contractRecord is the stored form of a contract, one per JSONL line.
type contractRecord struct {
	ContractID string            `json:"contract_id"`
	Name       string            `json:"name"`
	Extends    []string          `json:"extends"`
	Operations []types.Operation `json:"operations"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
}

// typeRecord is the stored form of a concrete type, one per JSONL line.
type typeRecord struct {
	TypeID     string         `json:"type_id"`
	Name       string         `json:"name"`
	Implements []string       `json:"implements"`
	Methods    []types.Method `json:"methods"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// encodeColumn stores a slice as JSON text; nil becomes an empty array.
func encodeColumn[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeColumn reads JSON text written by encodeColumn. NULL and empty
// arrays decode to nil.
func decodeColumn[T any](col sql.NullString) ([]T, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var v []T
	if err := json.Unmarshal([]byte(col.String), &v); err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

// PutContract creates or replaces the contract with c's name.
func (b *Backend) PutContract(c types.Contract) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return "", types.ErrRegistryDetached
	}

	id, err := upsertContract(b.db, c)
	if err != nil {
		return "", err
	}
	if err := b.persistContracts(); err != nil {
		return "", err
	}
	b.log.WithField("contract", c.Name).WithField("contract_id", id).Debug("contract stored")
	return id, nil
}

// GetContract returns ErrNotFound if no contract has the name.
func (b *Backend) GetContract(name string) (types.Contract, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.Contract{}, types.ErrRegistryDetached
	}

	rows, err := b.contractRecords("WHERE name = ?", name)
	if err != nil {
		return types.Contract{}, err
	}
	if len(rows) == 0 {
		return types.Contract{}, fmt.Errorf("contract %q: %w", name, types.ErrNotFound)
	}
	return rows[0].contract(), nil
}

// DeleteContract removes the named contract. Types implementing it are kept
// and will fail validation until the contract is stored again.
func (b *Backend) DeleteContract(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrRegistryDetached
	}

	res, err := b.db.Exec("DELETE FROM contracts WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting contract %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contract %q: %w", name, types.ErrNotFound)
	}
	if err := b.persistContracts(); err != nil {
		return err
	}
	b.log.WithField("contract", name).Debug("contract deleted")
	return nil
}

// ListContracts returns all contracts sorted by name.
func (b *Backend) ListContracts() ([]types.Contract, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrRegistryDetached
	}
	return b.listContracts()
}

// PutType creates or replaces the type with t's name.
func (b *Backend) PutType(t types.ConcreteType) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return "", types.ErrRegistryDetached
	}

	id, err := upsertType(b.db, t)
	if err != nil {
		return "", err
	}
	if err := b.persistTypes(); err != nil {
		return "", err
	}
	b.log.WithField("type", t.Name).WithField("type_id", id).Debug("type stored")
	return id, nil
}

// PutDeclarations stores every contract and type of d in one transaction.
// If any entry fails, nothing is stored and the JSONL files are untouched.
func (b *Backend) PutDeclarations(d types.Declarations) error {
	for _, c := range d.Contracts {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, t := range d.Types {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrRegistryDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning store transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range d.Contracts {
		if _, err := upsertContract(tx, c); err != nil {
			return err
		}
	}
	for _, t := range d.Types {
		if _, err := upsertType(tx, t); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing store transaction: %w", err)
	}

	if err := b.persistContracts(); err != nil {
		return err
	}
	if err := b.persistTypes(); err != nil {
		return err
	}
	b.log.WithField("contracts", len(d.Contracts)).
		WithField("types", len(d.Types)).
		Debug("declarations stored")
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// upsertContract inserts c or updates the row with its name, keeping the
// record ID. It returns the ID.
func upsertContract(db execer, c types.Contract) (string, error) {
	extends, err := encodeColumn(c.Extends)
	if err != nil {
		return "", fmt.Errorf("encoding extends: %w", err)
	}
	ops, err := encodeColumn(c.Operations)
	if err != nil {
		return "", fmt.Errorf("encoding operations: %w", err)
	}

	now := timestamp()
	id, err := lookupID(db, "SELECT contract_id FROM contracts WHERE name = ?", c.Name)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = newUUID()
		_, err = db.Exec(
			`INSERT INTO contracts (contract_id, name, extends, operations, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, c.Name, extends, ops, now, now,
		)
	} else {
		_, err = db.Exec(
			`UPDATE contracts SET extends = ?, operations = ?, updated_at = ? WHERE contract_id = ?`,
			extends, ops, now, id,
		)
	}
	if err != nil {
		return "", fmt.Errorf("storing contract %q: %w", c.Name, err)
	}
	return id, nil
}

// upsertType is upsertContract for concrete types.
func upsertType(db execer, t types.ConcreteType) (string, error) {
	implements, err := encodeColumn(t.Implements)
	if err != nil {
		return "", fmt.Errorf("encoding implements: %w", err)
	}
	methods, err := encodeColumn(t.Methods)
	if err != nil {
		return "", fmt.Errorf("encoding methods: %w", err)
	}

	now := timestamp()
	id, err := lookupID(db, "SELECT type_id FROM types WHERE name = ?", t.Name)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = newUUID()
		_, err = db.Exec(
			`INSERT INTO types (type_id, name, implements, methods, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, t.Name, implements, methods, now, now,
		)
	} else {
		_, err = db.Exec(
			`UPDATE types SET implements = ?, methods = ?, updated_at = ? WHERE type_id = ?`,
			implements, methods, now, id,
		)
	}
	if err != nil {
		return "", fmt.Errorf("storing type %q: %w", t.Name, err)
	}
	return id, nil
}

// GetType returns ErrNotFound if no type has the name.
func (b *Backend) GetType(name string) (types.ConcreteType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ConcreteType{}, types.ErrRegistryDetached
	}

	rows, err := b.typeRecords("WHERE name = ?", name)
	if err != nil {
		return types.ConcreteType{}, err
	}
	if len(rows) == 0 {
		return types.ConcreteType{}, fmt.Errorf("type %q: %w", name, types.ErrNotFound)
	}
	return rows[0].concreteType(), nil
}

// DeleteType removes the named type.
func (b *Backend) DeleteType(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrRegistryDetached
	}

	res, err := b.db.Exec("DELETE FROM types WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting type %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("type %q: %w", name, types.ErrNotFound)
	}
	if err := b.persistTypes(); err != nil {
		return err
	}
	b.log.WithField("type", name).Debug("type deleted")
	return nil
}

// ListTypes returns all types sorted by name.
func (b *Backend) ListTypes() ([]types.ConcreteType, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrRegistryDetached
	}
	return b.listTypes()
}

// lookupID returns the record ID selected by query, or "" when none exists.
func lookupID(db execer, query, name string) (string, error) {
	var id string
	err := db.QueryRow(query, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up %q: %w", name, err)
	}
	return id, nil
}

func (b *Backend) listContracts() ([]types.Contract, error) {
	rows, err := b.contractRecords("")
	if err != nil {
		return nil, err
	}
	out := make([]types.Contract, len(rows))
	for i, r := range rows {
		out[i] = r.contract()
	}
	return out, nil
}

func (b *Backend) listTypes() ([]types.ConcreteType, error) {
	rows, err := b.typeRecords("")
	if err != nil {
		return nil, err
	}
	out := make([]types.ConcreteType, len(rows))
	for i, r := range rows {
		out[i] = r.concreteType()
	}
	return out, nil
}

// contractRecords selects contract rows ordered by name. where is an
// optional WHERE clause using args.
func (b *Backend) contractRecords(where string, args ...any) ([]contractRecord, error) {
	rows, err := b.db.Query(
		"SELECT contract_id, name, extends, operations, created_at, updated_at FROM contracts "+where+" ORDER BY name",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contracts: %w", err)
	}
	defer rows.Close()

	var out []contractRecord
	for rows.Next() {
		var (
			r        contractRecord
			ext, ops sql.NullString
		)
		if err := rows.Scan(&r.ContractID, &r.Name, &ext, &ops, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning contract: %w", err)
		}
		if r.Extends, err = decodeColumn[string](ext); err != nil {
			return nil, fmt.Errorf("decoding extends of %q: %w", r.Name, err)
		}
		if r.Operations, err = decodeColumn[types.Operation](ops); err != nil {
			return nil, fmt.Errorf("decoding operations of %q: %w", r.Name, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// typeRecords selects type rows ordered by name.
func (b *Backend) typeRecords(where string, args ...any) ([]typeRecord, error) {
	rows, err := b.db.Query(
		"SELECT type_id, name, implements, methods, created_at, updated_at FROM types "+where+" ORDER BY name",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying types: %w", err)
	}
	defer rows.Close()

	var out []typeRecord
	for rows.Next() {
		var (
			r             typeRecord
			impl, methods sql.NullString
		)
		if err := rows.Scan(&r.TypeID, &r.Name, &impl, &methods, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning type: %w", err)
		}
		if r.Implements, err = decodeColumn[string](impl); err != nil {
			return nil, fmt.Errorf("decoding implements of %q: %w", r.Name, err)
		}
		if r.Methods, err = decodeColumn[types.Method](methods); err != nil {
			return nil, fmt.Errorf("decoding methods of %q: %w", r.Name, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// persistContracts rewrites contracts.jsonl from the database.
func (b *Backend) persistContracts() error {
	rows, err := b.contractRecords("")
	if err != nil {
		return err
	}
	records, err := marshalRecords(rows)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.config.DataDir, contractsJSONL), records)
}

// persistTypes rewrites types.jsonl from the database.
func (b *Backend) persistTypes() error {
	rows, err := b.typeRecords("")
	if err != nil {
		return err
	}
	records, err := marshalRecords(rows)
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.config.DataDir, typesJSONL), records)
}

func (r contractRecord) contract() types.Contract {
	return types.Contract{Name: r.Name, Extends: r.Extends, Operations: r.Operations}
}

func (r typeRecord) concreteType() types.ConcreteType {
	return types.ConcreteType{Name: r.Name, Implements: r.Implements, Methods: r.Methods}
}
