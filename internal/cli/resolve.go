package cli

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traits/internal/dispatch"
	"github.com/mesh-intelligence/traits/internal/resolver"
	"github.com/mesh-intelligence/traits/pkg/types"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [TYPE...]",
		Short: "Resolve types and report conflicts and unimplemented operations",
		Long: `Check resolves every operation of the named types, or of all types when
none is named. It exits with status 1 when any operation has conflicting
inherited defaults or no implementation at all.

Example:
  traits check
  traits check --from ducks.yaml RubberDuck`,
		RunE: runCheck,
	}
}

// typeReport is the check result for one type.
type typeReport struct {
	Type        string             `json:"type"`
	OK          bool               `json:"ok"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	decls, err := loadDeclarations()
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		for _, t := range decls.Types {
			names = append(names, t.Name)
		}
	}

	var reports []typeReport
	var all []types.Diagnostic
	for _, name := range names {
		_, diags, err := resolver.ResolveType(decls, name)
		if err != nil {
			return fmt.Errorf("check %q: %w", name, err)
		}
		reports = append(reports, typeReport{Type: name, OK: len(diags) == 0, Diagnostics: diags})
		all = append(all, diags...)
	}
	log.WithFields(logrus.Fields{"types": len(reports), "diagnostics": len(all)}).Debug("check finished")

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		if err := writeJSON(out, nonNil(reports)); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			if r.OK {
				fmt.Fprintf(out, "%s: ok\n", r.Type)
				continue
			}
			for _, d := range r.Diagnostics {
				fmt.Fprintf(out, "%s: %s %s (%s)\n", r.Type, d.Kind, d.Operation, strings.Join(d.Contracts, ", "))
			}
		}
	}

	if len(all) > 0 {
		return &types.DefinitionError{Diagnostics: all}
	}
	return nil
}

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table TYPE",
		Short: "Print the dispatch table of a type",
		Long: `Table prints, for every operation of the type, whether the type's own
method or an inherited default is selected and who supplies it.
Operations that cannot be resolved are reported and the command exits
with status 1.`,
		Args: exactArgs(1),
		RunE: runTable,
	}
}

// tableReport is the JSON output of table.
type tableReport struct {
	types.DispatchTable
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
}

func runTable(cmd *cobra.Command, args []string) error {
	decls, err := loadDeclarations()
	if err != nil {
		return err
	}

	table, diags, err := resolver.ResolveType(decls, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		if err := writeJSON(out, tableReport{DispatchTable: table, Diagnostics: diags}); err != nil {
			return err
		}
	} else if err := writeTable(out, table); err != nil {
		return err
	}

	if len(diags) > 0 {
		return &types.DefinitionError{Diagnostics: diags}
	}
	return nil
}

// writeTable renders a dispatch table as aligned columns.
func writeTable(w io.Writer, table types.DispatchTable) error {
	fmt.Fprintf(w, "Type:      %s\n", table.Type)
	fmt.Fprintf(w, "Contracts: %s\n\n", strings.Join(table.Contracts, ", "))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATION\tSOURCE\tOWNER")
	for _, op := range table.Operations() {
		impl := table.Entries[op]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", op, impl.Source, impl.Owner)
	}
	return tw.Flush()
}

func newCallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call TYPE OP",
		Short: "Invoke an operation on an instance of a type",
		Long: `Call defines an instance of the type and runs the implementation the
operation dispatches to. Definition fails when any operation of the type
is in conflict or unimplemented. OP is an operation key such as
"area(float64)" or a bare name when only one operation has it.

Example:
  traits call --from ducks.yaml RubberDuck push`,
		Args: exactArgs(2),
		RunE: runCall,
	}
}

// callResult is the JSON output of call.
type callResult struct {
	Type      string   `json:"type"`
	Operation string   `json:"operation"`
	Output    []string `json:"output"`
}

func runCall(cmd *cobra.Command, args []string) error {
	typeName, op := args[0], args[1]

	decls, err := loadDeclarations()
	if err != nil {
		return err
	}

	inst, err := dispatch.Define(decls, typeName, dispatch.WithMaxCallDepth(settings.maxCallDepth))
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"type": typeName, "operation": op}).Debug("calling operation")

	if !flags.jsonMode {
		return inst.Call(cmd.OutOrStdout(), op)
	}

	var buf bytes.Buffer
	if err := inst.Call(&buf, op); err != nil {
		return err
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if buf.Len() == 0 {
		lines = []string{}
	}
	return writeJSON(cmd.OutOrStdout(), callResult{Type: typeName, Operation: op, Output: lines})
}

func newImplementersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "implementers CONTRACT",
		Short: "List types that implement a contract directly or through extension",
		Args:  exactArgs(1),
		RunE:  runImplementers,
	}
}

func runImplementers(cmd *cobra.Command, args []string) error {
	decls, err := loadDeclarations()
	if err != nil {
		return err
	}

	name := args[0]
	if _, ok := decls.Contract(name); !ok {
		return fmt.Errorf("contract %q: %w", name, types.ErrUnknownContract)
	}

	impls := resolver.Implementers(decls, name)
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), nonNil(impls))
	}
	for _, t := range impls {
		fmt.Fprintln(cmd.OutOrStdout(), t)
	}
	return nil
}
