package types

import "errors"

// Config holds backend selection and parameters for Registry.Attach.
type Config struct {
	Backend      string `json:"backend" yaml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	MaxCallDepth int    `json:"max_call_depth,omitempty" yaml:"max_call_depth,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultMaxCallDepth bounds nested operation calls when Config.MaxCallDepth
// is zero.
const DefaultMaxCallDepth = 64

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrCallDepthInvalid = errors.New("max call depth must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.MaxCallDepth < 0 {
		return ErrCallDepthInvalid
	}
	return nil
}

// CallDepth returns the effective call depth limit.
func (c Config) CallDepth() int {
	if c.MaxCallDepth == 0 {
		return DefaultMaxCallDepth
	}
	return c.MaxCallDepth
}
