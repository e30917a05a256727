// Package sqlite implements the declaration registry on SQLite. JSONL files
// in the data directory are the source of truth; the SQLite database is
// rebuilt from them on every Attach and serves queries while attached.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/traits/pkg/types"
)

// dbFileName is the SQLite file created inside the data directory.
const dbFileName = "traits.db"

// Backend implements types.Registry.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *logrus.Entry
}

var _ types.Registry = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the entry the backend logs through.
func WithLogger(log *logrus.Entry) Option {
	return func(b *Backend) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{log: logrus.NewEntry(logrus.StandardLogger())}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithField("backend", types.BackendSQLite)
	return b
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, creates a fresh SQLite schema and
// loads the JSONL files into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start from scratch.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}

	loaded, err := loadAllJSONL(db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.attached = true

	b.log.WithField("data_dir", dataDir).
		WithField("records", loaded).
		Debug("registry attached")
	return nil
}

// Detach releases all resources held by the backend. After Detach every
// operation returns ErrRegistryDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.log.Debug("registry detached")
	return nil
}

// Declarations returns every stored contract and type as one set.
func (b *Backend) Declarations() (types.Declarations, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Declarations{}, types.ErrRegistryDetached
	}

	contracts, err := b.listContracts()
	if err != nil {
		return types.Declarations{}, err
	}
	concrete, err := b.listTypes()
	if err != nil {
		return types.Declarations{}, err
	}
	return types.Declarations{
		Version:   types.DefaultVersion,
		Contracts: contracts,
		Types:     concrete,
	}, nil
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
