package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traits/internal/decl"
	"github.com/mesh-intelligence/traits/internal/resolver"
	"github.com/mesh-intelligence/traits/pkg/types"
)

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE...",
		Short: "Store declarations from files in the registry",
		Long: `Load reads YAML or JSON declaration documents and stores their contracts
and types in the registry. Entries replace stored entries of the same name.
The combined declarations must be structurally valid, and all entries are
stored in one transaction; nothing is stored otherwise. Types that fail to
resolve are stored and reported as warnings.

Example:
  traits load ducks.yaml
  traits load base.yaml overrides.json`,
		Args: minimumArgs(1),
		RunE: runLoad,
	}
}

// loadResult is the JSON output of load.
type loadResult struct {
	Contracts   []string           `json:"contracts"`
	Types       []string           `json:"types"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
}

func runLoad(cmd *cobra.Command, args []string) error {
	incoming, err := decl.LoadFiles(args...)
	if err != nil {
		return userError{err}
	}

	var result loadResult
	err = withRegistry(func(reg types.Registry) error {
		stored, err := reg.Declarations()
		if err != nil {
			return fmt.Errorf("read registry: %w", err)
		}
		merged := stored.Merge(incoming)
		if err := merged.Validate(); err != nil {
			return fmt.Errorf("validate declarations: %w", err)
		}

		if err := reg.PutDeclarations(incoming); err != nil {
			return fmt.Errorf("store declarations: %w", err)
		}
		for _, c := range incoming.Contracts {
			result.Contracts = append(result.Contracts, c.Name)
		}
		for _, t := range incoming.Types {
			result.Types = append(result.Types, t.Name)
		}

		result.Diagnostics = resolver.Resolve(merged).Diagnostics
		return nil
	})
	if err != nil {
		return err
	}

	for _, d := range result.Diagnostics {
		log.WithFields(logrus.Fields{
			"type":      d.Type,
			"operation": d.Operation,
			"kind":      d.Kind,
		}).Warn(d.Error())
	}
	log.WithField("files", len(args)).Info("declarations loaded")

	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d contracts and %d types\n", len(result.Contracts), len(result.Types))
	return nil
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write the stored declarations to a file",
		Long: `Export writes every stored contract and type as one YAML declaration
document. Use "-" to write to standard output.`,
		Args: exactArgs(1),
		RunE: runExport,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	decls, err := readDeclarations()
	if err != nil {
		return err
	}

	if args[0] == "-" {
		return decl.Encode(cmd.OutOrStdout(), decls)
	}
	if err := decl.WriteFile(args[0], decls); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	log.WithField("file", args[0]).Info("declarations exported")
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d contracts and %d types to %s\n", len(decls.Contracts), len(decls.Types), args[0])
	return nil
}
