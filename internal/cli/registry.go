package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mesh-intelligence/traits/internal/decl"
	"github.com/mesh-intelligence/traits/pkg/sqlite"
	"github.com/mesh-intelligence/traits/pkg/types"
)

// attachRegistry resolves the data directory, creates the configured
// backend and attaches it. The caller must Detach the returned registry.
func attachRegistry() (types.Registry, error) {
	cfg, err := registryConfig()
	if err != nil {
		return nil, err
	}

	reg := sqlite.NewBackend(sqlite.WithLogger(log))
	if err := reg.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach registry: %w", err)
	}
	return reg, nil
}

// withRegistry attaches the registry, runs fn and detaches again.
func withRegistry(fn func(types.Registry) error) (err error) {
	reg, err := attachRegistry()
	if err != nil {
		return err
	}
	defer func() {
		if derr := reg.Detach(); derr != nil && err == nil {
			err = fmt.Errorf("detach registry: %w", derr)
		}
	}()
	return fn(reg)
}

// readDeclarations returns the declarations named by --from, or the
// registry contents when no file is given.
func readDeclarations() (types.Declarations, error) {
	if len(flags.from) > 0 {
		decls, err := decl.LoadFiles(flags.from...)
		if err != nil {
			return types.Declarations{}, userError{err}
		}
		log.WithField("files", flags.from).Debug("declarations read from files")
		return decls, nil
	}

	var decls types.Declarations
	err := withRegistry(func(reg types.Registry) error {
		d, err := reg.Declarations()
		decls = d
		return err
	})
	return decls, err
}

// loadDeclarations is readDeclarations rejecting structurally invalid sets,
// so callers resolve only well-formed declarations.
func loadDeclarations() (types.Declarations, error) {
	decls, err := readDeclarations()
	if err != nil {
		return types.Declarations{}, err
	}
	if err := decls.Validate(); err != nil {
		return types.Declarations{}, fmt.Errorf("validate declarations: %w", err)
	}
	return decls, nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
