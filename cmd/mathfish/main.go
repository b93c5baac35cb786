// Package main provides the MathFish workflow CLI: assignment setup,
// standards lookup, retrieval and LLM benchmarks, and inter-rater
// agreement analysis.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mathfish/mathfish/internal/annotations"
	"github.com/mathfish/mathfish/internal/baseline"
	"github.com/mathfish/mathfish/internal/benchmark"
	"github.com/mathfish/mathfish/internal/bus"
	"github.com/mathfish/mathfish/internal/codes"
	"github.com/mathfish/mathfish/internal/config"
	"github.com/mathfish/mathfish/internal/evaluation"
	"github.com/mathfish/mathfish/internal/irr"
	"github.com/mathfish/mathfish/internal/llm"
	"github.com/mathfish/mathfish/internal/pkg/logger"
	"github.com/mathfish/mathfish/internal/pkg/security"
	"github.com/mathfish/mathfish/internal/problems"
	"github.com/mathfish/mathfish/internal/taxonomy"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mathfish",
		Short: "MathFish standards annotation toolkit",
		Long: `MathFish manages CCSS math standards annotation: assignment setup,
standards lookup, retrieval and LLM benchmarks, and inter-rater
agreement.

A typical workflow:

  mathfish setup --annotators alice,bob,carol
  mathfish-server --name alice
  mathfish baseline --k 3
  mathfish eval --preds preds/tfidf_k3.jsonl
  mathfish irr`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		setupCmd(),
		treeCmd(),
		searchCmd(),
		baselineCmd(),
		evalCmd(),
		llmCmd(),
		irrCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// cliEnv loads the configuration and builds the logger shared by every
// subcommand.
func cliEnv(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := cfg.Log.Level
	if verbose {
		logLevel = "debug"
	}
	return cfg, logger.New(logLevel, cfg.Log.Format), nil
}

// splitList splits a comma-separated flag value, dropping empty parts.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// publishEvents emits CLI lifecycle events over one bus connection. A
// broken bus is logged, never fatal.
func publishEvents(cfg *config.Config, log *logger.Logger, topic string, payloads ...map[string]any) {
	if len(payloads) == 0 {
		return
	}

	b, err := bus.NewBus(cfg.Bus)
	if err != nil {
		log.WithError(err).Warn("event bus unavailable")
		return
	}
	defer b.Close()

	ctx := context.Background()
	for _, payload := range payloads {
		event := bus.NewEvent(topic, "mathfish-cli", payload)
		if err := b.Publish(ctx, topic, event); err != nil {
			log.WithError(err).Warn("failed to publish event", "topic", topic)
		}
	}
}

func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create annotation assignments",
		Long: `Create the assignment plan. Every annotator gets the shared overlap
problems (used for inter-rater reliability) plus a unique slice, drawn
from the eligible training problems with a fixed seed.`,
		RunE: runSetup,
	}

	cmd.Flags().String("annotators", "", "comma-separated annotator names (required)")
	cmd.Flags().Int("overlap", 20, "shared problems for IRR")
	cmd.Flags().Int("unique", 5, "unique problems per annotator")
	cmd.Flags().Int64("seed", 42, "shuffle seed")
	cmd.Flags().String("data", "", "training data path (default from config)")
	cmd.Flags().Bool("force", false, "overwrite an existing plan without asking")
	_ = cmd.MarkFlagRequired("annotators")

	return cmd
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, log, err := cliEnv(cmd)
	if err != nil {
		return err
	}

	names, _ := cmd.Flags().GetString("annotators")
	overlap, _ := cmd.Flags().GetInt("overlap")
	unique, _ := cmd.Flags().GetInt("unique")
	seed, _ := cmd.Flags().GetInt64("seed")
	dataPath, _ := cmd.Flags().GetString("data")
	force, _ := cmd.Flags().GetBool("force")

	if !cmd.Flags().Changed("overlap") {
		overlap = cfg.Annotation.OverlapCount
	}
	if !cmd.Flags().Changed("unique") {
		unique = cfg.Annotation.UniqueCount
	}
	if !cmd.Flags().Changed("seed") {
		seed = cfg.Annotation.Seed
	}
	if dataPath == "" {
		dataPath = cfg.Data.TrainFile
	}

	annotators := splitList(names)
	if len(annotators) == 0 {
		return fmt.Errorf("at least one annotator name is required")
	}
	for _, name := range annotators {
		if err := security.ValidateAnnotatorName(name); err != nil {
			return fmt.Errorf("invalid annotator name %q: %w", name, err)
		}
	}

	if !force {
		if _, err := os.Stat(cfg.Data.AssignmentsFile); err == nil {
			fmt.Printf("%s already exists. Overwrite? [y/N] ", cfg.Data.AssignmentsFile)
			resp, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(resp)) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}
	}

	fmt.Println("Loading eligible problems...")
	all, err := problems.LoadTrain(dataPath)
	if err != nil {
		return err
	}
	eligible := problems.FilterEligible(all, cfg.Annotation.MinTextLength, cfg.Annotation.MaxTextLength)
	fmt.Printf("  Found %d eligible problems (labeled, no images, not duplicate)\n", len(eligible))

	if annotations.Shortfall(len(eligible), len(annotators), overlap, unique) > 0 {
		fmt.Printf("Warning: only %d problems, need %d\n", len(eligible), overlap+len(annotators)*unique)
	}

	plan, assigned := annotations.BuildPlan(eligible, annotators, overlap, unique, seed)

	if err := problems.WriteAssigned(cfg.Data.ProblemsFile, assigned); err != nil {
		return err
	}
	if err := annotations.WritePlan(cfg.Data.AssignmentsFile, plan); err != nil {
		return err
	}

	publishEvents(cfg, log, bus.TopicAssignmentCreated, map[string]any{
		"problem_count": len(assigned),
	})

	fmt.Printf("\nCreated assignments for %d annotators:\n", len(annotators))
	fmt.Printf("  %d shared problems (for IRR)\n", overlap)
	fmt.Printf("  %d unique problems per annotator\n", unique)
	fmt.Printf("  %d total unique problems\n", len(assigned))
	fmt.Printf("\nSaved to %s/\n", cfg.Data.AnnotationsDir)
	for _, name := range annotators {
		fmt.Printf("  %s: %d problems\n", name, len(plan.Assignments[name].AllIDs))
	}
	fmt.Printf("\nEach annotator runs:\n")
	fmt.Printf("  mathfish-server --name <their_name>\n")

	return nil
}

func treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <grade>",
		Short: "Print the standards hierarchy for a grade",
		Long: `Print the full standards hierarchy for a grade.

Grades: K, 1-8, HS, or an HS category (A=Algebra, N=Number & Quantity,
F=Functions, G=Geometry, S=Statistics & Probability). Category names
work too, e.g. "mathfish tree algebra".`,
		Args: cobra.ExactArgs(1),
		RunE: runTree,
	}
}

func runTree(cmd *cobra.Command, args []string) error {
	cfg, _, err := cliEnv(cmd)
	if err != nil {
		return err
	}

	store, err := taxonomy.Load(cfg.Data.StandardsFile)
	if err != nil {
		return err
	}

	rootID, ok := taxonomy.ResolveGradeArg(store, args[0])
	if !ok {
		return fmt.Errorf("'%s' is not a recognized grade or HS category\n"+
			"Valid grades: K, 1, 2, 3, 4, 5, 6, 7, 8, HS\n"+
			"Valid HS categories: A (Algebra), N (Number & Quantity), "+
			"F (Functions), G (Geometry), S (Statistics & Probability)", args[0])
	}

	text, err := store.RenderTree(rootID)
	if err != nil {
		return err
	}
	fmt.Print(text)
	return nil
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search standard descriptions by keyword",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, _, err := cliEnv(cmd)
	if err != nil {
		return err
	}

	store, err := taxonomy.Load(cfg.Data.StandardsFile)
	if err != nil {
		return err
	}

	fmt.Print(store.RenderSearch(args[0]))
	return nil
}

func baselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Run the retrieval baseline over assigned problems",
		Long: `Predict standards for every assigned problem by lexical similarity
between problem text and standard descriptions, then write a
predictions JSONL file for eval.`,
		RunE: runBaseline,
	}

	cmd.Flags().IntP("k", "k", 3, "predictions per problem")
	cmd.Flags().StringP("output", "o", "", "predictions output path (default <preds_dir>/tfidf_k<k>.jsonl)")

	return cmd
}

func runBaseline(cmd *cobra.Command, _ []string) error {
	cfg, log, err := cliEnv(cmd)
	if err != nil {
		return err
	}

	k, _ := cmd.Flags().GetInt("k")
	output, _ := cmd.Flags().GetString("output")
	if !cmd.Flags().Changed("k") {
		k = cfg.Baseline.TopK
	}
	if output == "" {
		output = filepath.Join(cfg.Data.PredictionsDir, fmt.Sprintf("tfidf_k%d.jsonl", k))
	}

	probs, err := problems.LoadAssigned(cfg.Data.ProblemsFile)
	if err != nil {
		return fmt.Errorf("loading assigned problems (run setup first): %w", err)
	}
	store, err := taxonomy.Load(cfg.Data.StandardsFile)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	predictor, err := baseline.New(ctx, cfg, store.Candidates(codes.Scope{}), log)
	if err != nil {
		return err
	}
	defer predictor.Close()

	preds, err := predictor.Predict(ctx, probs, k)
	if err != nil {
		return err
	}

	if err := benchmark.WritePredictions(output, preds); err != nil {
		return err
	}
	fmt.Printf("Wrote predictions to %s\n", output)
	fmt.Printf("Run: mathfish eval --preds %s\n", output)
	return nil
}

func evalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score predictions against publisher labels",
		Long: `Score a predictions JSONL file against the publisher labels of the
assigned problems, at standard, cluster, and domain granularity.`,
		RunE: runEval,
	}

	cmd.Flags().String("preds", "", "predictions JSONL file (required)")
	_ = cmd.MarkFlagRequired("preds")

	return cmd
}

func runEval(cmd *cobra.Command, _ []string) error {
	cfg, _, err := cliEnv(cmd)
	if err != nil {
		return err
	}

	predsPath, _ := cmd.Flags().GetString("preds")

	probs, err := problems.LoadAssigned(cfg.Data.ProblemsFile)
	if err != nil {
		return fmt.Errorf("loading assigned problems (run setup first): %w", err)
	}
	preds, err := benchmark.LoadPredictions(predsPath)
	if err != nil {
		return err
	}

	report := evaluation.EvaluateAll(preds, problems.GoldLabels(probs))
	fmt.Print(benchmark.FormatReport(report))
	return nil
}

func llmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "llm",
		Short: "Benchmark LLM providers against publisher labels",
		Long: `Ask each provider to tag every assigned problem with standard codes,
write one predictions file per provider, and score each against the
publisher labels.

API keys come from the environment: GOOGLE_API_KEY, OPENAI_API_KEY,
ANTHROPIC_API_KEY.`,
		RunE: runLLM,
	}

	cmd.Flags().String("providers", "google,openai,anthropic", "comma-separated providers to run")
	cmd.Flags().String("output-dir", "", "predictions directory (default from config)")
	cmd.Flags().String("results", "", "results output path (default <results_dir>/llm_results.json)")

	return cmd
}

func runLLM(cmd *cobra.Command, _ []string) error {
	cfg, log, err := cliEnv(cmd)
	if err != nil {
		return err
	}

	providersCSV, _ := cmd.Flags().GetString("providers")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	resultsPath, _ := cmd.Flags().GetString("results")
	if outputDir == "" {
		outputDir = cfg.Data.PredictionsDir
	}
	if resultsPath == "" {
		resultsPath = filepath.Join(cfg.Data.ResultsDir, "llm_results.json")
	}

	names := splitList(providersCSV)
	if len(names) == 0 {
		return fmt.Errorf("no providers selected")
	}
	providers, err := llm.ProvidersFromConfig(cfg, names)
	if err != nil {
		return err
	}

	probs, err := problems.LoadAssigned(cfg.Data.ProblemsFile)
	if err != nil {
		return fmt.Errorf("loading assigned problems (run setup first): %w", err)
	}
	store, err := taxonomy.Load(cfg.Data.StandardsFile)
	if err != nil {
		return err
	}

	runner := llm.NewRunner(cfg, providers, store, log)
	results, err := runner.Run(cmd.Context(), probs, problems.GoldLabels(probs), outputDir)
	if err != nil {
		return err
	}

	if err := llm.WriteResults(resultsPath, results); err != nil {
		return err
	}

	keys := make([]string, 0, len(results))
	for key := range results {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var payloads []map[string]any
	for _, key := range keys {
		res := results[key]
		if res.Error != "" {
			continue
		}
		f1 := make(map[string]float64, len(res.Metrics))
		for g, m := range res.Metrics {
			f1[string(g)] = m.F1
		}
		payloads = append(payloads, map[string]any{"provider": key, "f1": f1})
	}
	publishEvents(cfg, log, bus.TopicBenchmarkCompleted, payloads...)

	fmt.Printf("Wrote results to %s\n", resultsPath)
	return nil
}

func irrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "irr",
		Short: "Compute inter-rater reliability on shared problems",
		Long: `Compute Krippendorff's alpha over the shared problems at standard,
cluster, and domain granularity.`,
		RunE: runIRR,
	}

	cmd.Flags().StringP("output", "o", "", "results output path (default <results_dir>/irr.json)")

	return cmd
}

func runIRR(cmd *cobra.Command, _ []string) error {
	cfg, log, err := cliEnv(cmd)
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = filepath.Join(cfg.Data.ResultsDir, "irr.json")
	}

	plan, err := annotations.LoadPlan(cfg.Data.AssignmentsFile)
	if err != nil {
		return fmt.Errorf("loading assignments (run setup first): %w", err)
	}

	records, annotators, err := annotations.LoadAll(annotations.NewFileStorage(cfg.Data.AnnotationsDir))
	if err != nil {
		return err
	}
	if len(annotators) == 0 {
		return fmt.Errorf("no annotation files found in %s/", cfg.Data.AnnotationsDir)
	}

	res := irr.Analyze(records, annotators, plan.SharedIDs)
	if err := irr.WriteResults(output, res); err != nil {
		return err
	}

	alpha := make(map[string]float64)
	for level, lr := range map[string]*irr.LevelResult{
		"standard": res.Standard,
		"cluster":  res.Cluster,
		"domain":   res.Domain,
	} {
		if lr != nil && lr.Error == "" {
			alpha[level] = lr.Alpha
		}
	}
	publishEvents(cfg, log, bus.TopicIRRCompleted, map[string]any{"alpha": alpha})

	fmt.Printf("Wrote IRR results to %s\n", output)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mathfish %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
