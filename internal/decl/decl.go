// Package decl reads declaration documents. A document is YAML (JSON is
// accepted as a YAML subset) with a format version, a list of contracts and
// a list of concrete types.
package decl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/traits/pkg/types"
)

// SupportedVersions is the range of document versions Parse accepts.
const SupportedVersions = "^1.0.0"

var supported = mustConstraint(SupportedVersions)

// ErrMultipleDocuments is returned for a stream with more than one YAML
// document. Split such input into separate files and load them together.
var ErrMultipleDocuments = errors.New("more than one YAML document")

func mustConstraint(raw string) *semver.Constraints {
	c, err := semver.NewConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a declaration document and checks its version. It does not
// validate the declarations; call Validate on the result for that.
func Parse(r io.Reader) (types.Declarations, error) {
	var d types.Declarations
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			d.Version = types.DefaultVersion
			return d, nil
		}
		return types.Declarations{}, fmt.Errorf("decode declarations: %w", err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return types.Declarations{}, fmt.Errorf("decode declarations: %w", err)
		}
		return types.Declarations{}, ErrMultipleDocuments
	}

	if d.Version == "" {
		d.Version = types.DefaultVersion
	}
	if err := CheckVersion(d.Version); err != nil {
		return types.Declarations{}, err
	}
	return d, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(data []byte) (types.Declarations, error) {
	return Parse(bytes.NewReader(data))
}

// CheckVersion returns types.ErrUnsupportedVersion unless raw is a semantic
// version within SupportedVersions.
func CheckVersion(raw string) error {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("version %q: %w", raw, types.ErrUnsupportedVersion)
	}
	if !supported.Check(v) {
		return fmt.Errorf("version %q outside %s: %w", raw, SupportedVersions, types.ErrUnsupportedVersion)
	}
	return nil
}

// LoadFile parses the document at path.
func LoadFile(path string) (types.Declarations, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Declarations{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return types.Declarations{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// LoadFiles parses each path in turn and merges the results, later files
// replacing same-named declarations of earlier ones.
func LoadFiles(paths ...string) (types.Declarations, error) {
	out := types.Declarations{Version: types.DefaultVersion}
	for _, p := range paths {
		d, err := LoadFile(p)
		if err != nil {
			return types.Declarations{}, err
		}
		out = out.Merge(d)
	}
	return out, nil
}

// Encode writes decls as a YAML document.
func Encode(w io.Writer, decls types.Declarations) error {
	if decls.Version == "" {
		decls.Version = types.DefaultVersion
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(decls); err != nil {
		return fmt.Errorf("encode declarations: %w", err)
	}
	return enc.Close()
}

// WriteFile encodes decls to path.
func WriteFile(path string, decls types.Declarations) error {
	var buf bytes.Buffer
	if err := Encode(&buf, decls); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
