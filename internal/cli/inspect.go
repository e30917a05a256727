package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/traits/pkg/types"
)

// Declaration kinds accepted by list, show and delete.
const (
	kindContract  = "contract"
	kindContracts = "contracts"
	kindType      = "type"
	kindTypes     = "types"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list contracts|types",
		Short:     "List stored contracts or types",
		ValidArgs: []string{kindContracts, kindTypes},
		Args:      wrapArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		RunE:      runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	decls, err := readDeclarations()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch args[0] {
	case kindContracts:
		if flags.jsonMode {
			return writeJSON(out, nonNil(decls.Contracts))
		}
		for _, c := range decls.Contracts {
			fmt.Fprintf(out, "%s\t%d operations%s\n", c.Name, len(c.Operations), listSuffix("extends", c.Extends))
		}
	default:
		if flags.jsonMode {
			return writeJSON(out, nonNil(decls.Types))
		}
		for _, t := range decls.Types {
			fmt.Fprintf(out, "%s\t%d methods%s\n", t.Name, len(t.Methods), listSuffix("implements", t.Implements))
		}
	}
	return nil
}

// listSuffix renders "\tlabel: a, b" or nothing for an empty list.
func listSuffix(label string, names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "\t" + label + ": " + strings.Join(names, ", ")
}

// nonNil keeps empty JSON lists as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "show contract|type NAME",
		Short:     "Show one contract or type",
		ValidArgs: []string{kindContract, kindType},
		Args:      wrapArgs(cobra.MatchAll(cobra.ExactArgs(2), validKind)),
		RunE:      runShow,
	}
}

// validKind accepts "contract" or "type" as the first argument.
func validKind(_ *cobra.Command, args []string) error {
	if args[0] != kindContract && args[0] != kindType {
		return fmt.Errorf("invalid kind %q (valid: %s, %s)", args[0], kindContract, kindType)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	decls, err := readDeclarations()
	if err != nil {
		return err
	}
	name := args[1]

	var v any
	switch args[0] {
	case kindContract:
		c, ok := decls.Contract(name)
		if !ok {
			return fmt.Errorf("contract %q: %w", name, types.ErrNotFound)
		}
		v = c
	default:
		t, ok := decls.Type(name)
		if !ok {
			return fmt.Errorf("type %q: %w", name, types.ErrNotFound)
		}
		v = t
	}

	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	return writeYAML(cmd.OutOrStdout(), v)
}

// writeYAML writes v as a YAML document.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete contract|type NAME",
		Short: "Remove a contract or type from the registry",
		Long: `Delete removes one stored contract or type. Deleting a contract leaves
types that implement it in place; check reports them afterwards.`,
		ValidArgs: []string{kindContract, kindType},
		Args:      wrapArgs(cobra.MatchAll(cobra.ExactArgs(2), validKind)),
		RunE:      runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	if len(flags.from) > 0 {
		return userError{fmt.Errorf("delete works on the registry; --from is not supported")}
	}
	kind, name := args[0], args[1]

	err := withRegistry(func(reg types.Registry) error {
		if kind == kindContract {
			return reg.DeleteContract(name)
		}
		return reg.DeleteType(name)
	})
	if err != nil {
		return err
	}

	log.WithField(kind, name).Info("declaration deleted")
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, name)
	return nil
}
