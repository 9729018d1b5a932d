package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"callsim/internal/scenario"
)

var scenariosYAML bool

// scenariosCmd lists the built-in scenarios
var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List built-in scenarios",
	Long: `Lists the built-in scenarios that replay runs by default.

Use --yaml to dump them in the scenario file format, as a starting point for
custom scenario files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		builtins := scenario.Builtins()

		if scenariosYAML {
			data, err := scenario.Marshal(builtins)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tMODE\tEXPECT\tDESCRIPTION")
		for _, s := range builtins {
			expect := s.Expect.State
			if expect == "" {
				expect = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.ScenarioMode(), expect, s.Description)
		}
		return w.Flush()
	},
}

func init() {
	scenariosCmd.Flags().BoolVar(&scenariosYAML, "yaml", false, "Print scenarios as YAML")
}
