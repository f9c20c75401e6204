package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policymesh/engine/cmd/policymeshctl/internal/fixture"
	"github.com/policymesh/engine/internal/config"
	"github.com/policymesh/engine/internal/domain/compile"
)

var validateCmd = &cobra.Command{
	Use:   "validate [policy-fixture.yaml]",
	Short: "Validate rule/condition structure without compiling",
	Long: `validate runs each rule in a policy fixture through C5's structural
validation step standalone, without building a compiled index. Useful
for a policy-authoring tool that wants fast per-rule feedback before
committing to a full compile.`,
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

		rules := f.RulesInto()
		failed := 0
		for i, r := range rules {
			r.Conditions.HydrateValues()
			if err := compile.ValidateRule(r, cfg.Evaluation.MaxConditionDepth); err != nil {
				failed++
				fmt.Printf("rule[%d] %s: INVALID: %v\n", i, r.RuleID, err)
				continue
			}
			fmt.Printf("rule[%d] %s: ok\n", i, r.RuleID)
		}

		fmt.Printf("\n%d/%d rules valid\n", len(rules)-failed, len(rules))
		if failed > 0 {
			return fmt.Errorf("%d rule(s) failed validation", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
