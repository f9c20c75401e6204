package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/policymesh/engine/cmd/policymeshctl/internal/fixture"
	"github.com/policymesh/engine/internal/adapter/outbound/memory"
	"github.com/policymesh/engine/internal/config"
	"github.com/policymesh/engine/internal/domain/facts"
	"github.com/policymesh/engine/internal/domain/policy"
	"github.com/policymesh/engine/internal/service"
	"github.com/policymesh/engine/internal/telemetry"
)

var evaluateExplain bool

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [policy-fixture.yaml] [request-fixture.yaml]",
	Short: "Evaluate a request fixture against a policy fixture",
	Long: `evaluate loads a policy fixture and a request fixture, runs the full
C9 orchestration pipeline (resolve, compile, match, evaluate conditions,
resolve conflicts) against an in-process repository seeded from the
fixture, and prints the resulting decision as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		policyFixture, err := fixture.LoadPolicy(args[0])
		if err != nil {
			return err
		}
		requestFixture, err := fixture.LoadRequest(args[1])
		if err != nil {
			return err
		}

		repo := memory.NewPolicyRepository()
		repo.PutPolicy(policyFixture.Policy())
		repo.PutVersion(policyFixture.Version(), policyFixture.RulesInto())

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		metrics := telemetry.NewMetrics(prometheus.NewRegistry())

		meterProvider, err := telemetry.NewMeterProvider(io.Discard)
		if err != nil {
			return err
		}
		defer func() { _ = meterProvider.Shutdown(context.Background()) }()
		evalCounter, err := telemetry.NewEvaluationCounter(meterProvider.Meter("policymeshctl"))
		if err != nil {
			return err
		}
		metrics.SetOTelEvaluationCounter(evalCounter)

		factsSource := memory.NewFactsSource()
		fp := facts.NewProvider(factsSource)
		fp.SetCacheObserver(metrics)
		cc := service.NewCompiledCache(repo, cfg.Evaluation.MaxConditionDepth, logger)
		cc.SetMetrics(metrics)
		sink := memory.NewDecisionSink(cfg.DecisionLog.CacheSize)

		evaluator := service.NewEvaluator(repo, fp, cc, sink, logger)
		evaluator.SetMetrics(metrics)

		input := requestFixture.Into()
		opts := policy.EvaluationOptions{
			ConflictResolution: policy.ConflictStrategy(cfg.Evaluation.ConflictResolution),
			Explain:            evaluateExplain,
			MaxConditionDepth:  cfg.Evaluation.MaxConditionDepth,
		}

		decision, err := evaluator.Evaluate(context.Background(), input, policy.Published(), opts)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	evaluateCmd.Flags().BoolVar(&evaluateExplain, "explain", false, "include the evaluation explain trace in the decision output")
	rootCmd.AddCommand(evaluateCmd)
}
