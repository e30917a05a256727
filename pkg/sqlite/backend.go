// Package sqlite exposes the SQLite declaration registry while keeping the
// implementation internal.
package sqlite

import (
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/traits/internal/sqlite"
	"github.com/mesh-intelligence/traits/pkg/types"
)

// Option configures a backend created by NewBackend.
type Option = sqlite.Option

// WithLogger sets the logrus entry the backend logs through. The default is
// the standard logger.
func WithLogger(log *logrus.Entry) Option {
	return sqlite.WithLogger(log)
}

// NewBackend creates a new SQLite registry.
// The registry is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	reg := sqlite.NewBackend()
//	err := reg.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".traits-db",
//	})
//	defer reg.Detach()
func NewBackend(opts ...Option) types.Registry {
	return sqlite.NewBackend(opts...)
}
