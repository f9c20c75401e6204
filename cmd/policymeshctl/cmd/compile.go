package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policymesh/engine/cmd/policymeshctl/internal/fixture"
	"github.com/policymesh/engine/internal/config"
	"github.com/policymesh/engine/internal/domain/compile"
)

var compileCmd = &cobra.Command{
	Use:   "compile [policy-fixture.yaml]",
	Short: "Compile a policy fixture and print its checksum/counts",
	Long: `compile loads a policy fixture (tenant, version metadata, and a rule
list) and runs it through the C5 compiler, printing the resulting
checksum and rule counts. Rules that fail structural validation are
reported as diagnostics rather than failing the whole compilation,
unless every rule in the fixture is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		f, err := fixture.LoadPolicy(args[0])
		if err != nil {
			return err
		}

		cp, err := compile.Compile(f.TenantID, f.Version(), f.RulesInto(), cfg.Evaluation.MaxConditionDepth)
		if err != nil {
			return err
		}

		fmt.Printf("checksum:      %s\n", cp.Checksum)
		fmt.Printf("scope slots:   %d\n", cp.Counts.ScopeSlots)
		fmt.Printf("total rules:   %d\n", cp.Counts.TotalRules)
		fmt.Printf("invalid rules: %d\n", cp.Counts.InvalidRules)
		for _, d := range cp.Diagnostics {
			fmt.Printf("  - %s: %s\n", d.RuleID, d.Reason)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
