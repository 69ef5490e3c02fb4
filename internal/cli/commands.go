package cli

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/specialistvlad/voxelflow/internal/app"
	"github.com/specialistvlad/voxelflow/internal/compiler"
	"github.com/spf13/cobra"
	"github.com/zclconf/go-cty/cty"
)

func newCompileCommand(opts *globalOptions) *cobra.Command {
	var asset string
	cmd := &cobra.Command{
		Use:   "compile PATH",
		Short: "Compile every terminal graph and report diagnostics",
		Long: heading("voxelflow compile <path> [--asset name]") + "\n\n" +
			"Lowers every terminal graph of the loaded assets and prints the\n" +
			"diagnostics. Exits non-zero when any terminal fails to compile.\n",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.Compile(cmd.Context(), asset, compiler.Options{})
			printDiagnostics(cmd.ErrOrStderr(), a.Diagnostics())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), success("Compilation succeeded."))
			return nil
		},
	}
	cmd.Flags().StringVar(&asset, "asset", "", "Compile only this asset")
	return cmd
}

type evalOptions struct {
	asset    string
	outputs  []string
	params   []string
	position string
	preview  string
	debug    []string
	ranges   []string
}

func newEvalCommand(opts *globalOptions) *cobra.Command {
	var eo evalOptions
	cmd := &cobra.Command{
		Use:   "eval PATH",
		Short: "Evaluate the outputs of an asset",
		Long: heading("voxelflow eval <path> --asset name [--output o]... [--param k=v]...") + "\n\n" +
			"Evaluates outputs of the asset's main terminal and prints one\n" +
			"`name = value` line per output.\n\n" +
			"Examples:\n" +
			"  # Evaluate every output at a position\n" +
			"  voxelflow eval graphs/ --asset terrain --position 1,2,3\n\n" +
			"  # Override a parameter and preview a pin\n" +
			"  voxelflow eval graphs/ --asset terrain --param height=81 --preview terrain.main.s:Result\n",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := eo.request()
			if err != nil {
				return usageError(err)
			}
			a, err := opts.open(cmd, args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Eval(cmd.Context(), req)
			printDiagnostics(cmd.ErrOrStderr(), a.Diagnostics())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&eo.asset, "asset", "", "Asset to evaluate")
	f.StringSliceVar(&eo.outputs, "output", nil, "Output to evaluate; repeatable. Defaults to all outputs.")
	f.StringArrayVar(&eo.params, "param", nil, "Parameter override as name=value; repeatable")
	f.StringVar(&eo.position, "position", "", "Query position as x,y,z")
	f.StringVar(&eo.preview, "preview", "", "Also evaluate the value at <asset>.<terminal>.<node>:<pin>")
	f.StringArrayVar(&eo.debug, "debug-pin", nil, "Report values flowing through a pin; repeatable")
	f.StringArrayVar(&eo.ranges, "range-pin", nil, "Report the value range of a pin; repeatable")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func (eo evalOptions) request() (app.EvalRequest, error) {
	req := app.EvalRequest{Asset: eo.asset, Outputs: eo.outputs}
	if len(eo.params) > 0 {
		req.Parameters = make(map[string]cty.Value, len(eo.params))
		for _, p := range eo.params {
			name, v, err := parseParam(p)
			if err != nil {
				return req, err
			}
			req.Parameters[name] = v
		}
	}
	if eo.position != "" {
		pos, err := parsePosition(eo.position)
		if err != nil {
			return req, err
		}
		req.Position = &pos
	}
	if eo.preview != "" {
		addr, err := compiler.ParsePinAddress(eo.preview)
		if err != nil {
			return req, err
		}
		req.Preview = &addr
	}
	var err error
	if req.Debug, err = parsePinAddresses(eo.debug); err != nil {
		return req, err
	}
	if req.Range, err = parsePinAddresses(eo.ranges); err != nil {
		return req, err
	}
	return req, nil
}

func parsePinAddresses(ss []string) ([]compiler.PinAddress, error) {
	var out []compiler.PinAddress
	for _, s := range ss {
		addr, err := compiler.ParsePinAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func newDumpCommand(opts *globalOptions) *cobra.Command {
	var asset, terminal, stopAfter string
	cmd := &cobra.Command{
		Use:   "dump PATH",
		Short: "Print a compiled terminal graph as HCL",
		Long: heading("voxelflow dump <path> --asset name [--terminal t] [--stop-after pass]") + "\n\n" +
			"Prints the lowered graph of a terminal. --stop-after shows the graph\n" +
			"as it was after an intermediate pass; see `voxelflow passes`.\n",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stopAfter != "" && !slices.Contains(compiler.PassNames(), stopAfter) {
				return usageError(fmt.Errorf("unknown pass %q", stopAfter))
			}
			a, err := opts.open(cmd, args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Dump(cmd.Context(), asset, terminal, stopAfter)
			printDiagnostics(cmd.ErrOrStderr(), a.Diagnostics())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&asset, "asset", "", "Asset to dump")
	cmd.Flags().StringVar(&terminal, "terminal", "", "Terminal graph to dump. Defaults to main.")
	cmd.Flags().StringVar(&stopAfter, "stop-after", "", "Stop the pipeline after this pass")
	_ = cmd.MarkFlagRequired("asset")
	return cmd
}

func newPassesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passes",
		Short: "List the compiler passes in pipeline order",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, _ []string) {
			for i, name := range compiler.PassNames() {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, name)
			}
		},
	}
}

// sortedKeys is used to print results deterministically.
func sortedKeys(res app.EvalResult) []string {
	keys := lo.Keys(res)
	slices.Sort(keys)
	return keys
}
