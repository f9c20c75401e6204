// Package cmd provides the CLI commands for policymeshctl.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/policymesh/engine/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "policymeshctl",
	Short: "policymeshctl - multi-tenant ABAC policy decision engine tooling",
	Long: `policymeshctl compiles, validates, and evaluates ABAC policy fixtures
against the policy engine without standing up a service.

Configuration:
  Config is loaded from policymesh.yaml in the current directory,
  $HOME/.policymesh/, or /etc/policymesh/.

  Environment variables can override config values with the POLICYMESH_ prefix.
  Example: POLICYMESH_EVALUATION_MAX_CONDITION_DEPTH=5

Commands:
  compile   Compile a policy fixture and print its checksum/counts
  validate  Validate rule/condition structure without compiling
  evaluate  Evaluate a request fixture against a policy fixture
  version   Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./policymesh.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
