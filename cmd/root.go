package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/flux-sim/flux-sim/sim"
	"github.com/flux-sim/flux-sim/sim/mastery"
	"github.com/flux-sim/flux-sim/sim/policy"
)

// Execute runs the CLI root command. Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	var (
		logLevel string // Log verbosity level
		noColor  bool
	)
	root := &cobra.Command{
		Use:          "flux-sim",
		Short:        "Adaptive simulation engine for OS and DBMS learning challenges",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				logrus.Fatalf("Invalid log level: %s", logLevel)
			}
			logrus.SetLevel(level)
			if noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.AddCommand(newRunCmd(), newRecommendCmd())
	return root
}

type runOptions struct {
	scenarios   []string
	configPath  string
	contentPath string
	masteryPath string
	snapshotDir string
	metricsAddr string
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play scripted learner sessions and report adaptive decisions",
		Long: `Play one or more scenario files concurrently. Each scenario drives a
session step by step; afterwards the outcomes update BKT mastery and the
policy engine recommends difficulty, challenge format and the next competency.

With --snapshot-dir every session is snapshotted halfway and finished on the
restored copy. With --metrics-addr the step metrics stay available on
/metrics until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), opts, cmd)
		},
	}
	cmd.Flags().StringArrayVar(&opts.scenarios, "scenario", nil, "Scenario YAML file (repeatable)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Engine/mastery/policy config YAML")
	cmd.Flags().StringVar(&opts.contentPath, "content", "", "Competency graph and hint content YAML")
	cmd.Flags().StringVar(&opts.masteryPath, "mastery", "", "Starting mastery map YAML (slug: p)")
	cmd.Flags().StringVar(&opts.snapshotDir, "snapshot-dir", "", "Snapshot every session halfway into this directory and resume from it")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address after the run")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runScenarios(ctx context.Context, opts runOptions, cmd *cobra.Command) error {
	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	graph, content, err := LoadContent(opts.contentPath)
	if err != nil {
		return err
	}
	seed, err := LoadMastery(opts.masteryPath)
	if err != nil {
		return err
	}
	scenarios := make([]Scenario, 0, len(opts.scenarios))
	for _, path := range opts.scenarios {
		sc, err := LoadScenario(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}
	if opts.snapshotDir != "" {
		if err := os.MkdirAll(opts.snapshotDir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot dir: %w", err)
		}
	}

	r := newRunner(cfg, content, opts.snapshotDir)
	start := time.Now()
	logrus.Infof("Starting %d scenario(s)", len(scenarios))
	report, err := r.run(ctx, scenarios, graph, seed)
	if err != nil {
		return err
	}
	renderRun(cmd.OutOrStdout(), report)
	logrus.Infof("Run complete in %s.", time.Since(start))

	if opts.metricsAddr == "" {
		return nil
	}
	logrus.Infof("Serving metrics on %s/metrics until interrupted", opts.metricsAddr)
	return serveMetrics(ctx, opts.metricsAddr, r.collector.Handler())
}

// serveMetrics serves h on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type recommendOptions struct {
	configPath     string
	contentPath    string
	masteryPath    string
	domain         string
	competency     string
	recentAccuracy float64 // negative means unknown
}

func newRecommendCmd() *cobra.Command {
	var opts recommendOptions
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend the next competency, difficulty and challenge format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return recommend(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Engine/mastery/policy config YAML")
	cmd.Flags().StringVar(&opts.contentPath, "content", "", "Competency graph and hint content YAML")
	cmd.Flags().StringVar(&opts.masteryPath, "mastery", "", "Mastery map YAML (slug: p)")
	cmd.Flags().StringVar(&opts.domain, "domain", "", "Restrict the competency graph to a domain (OS, DBMS)")
	cmd.Flags().StringVar(&opts.competency, "competency", "", "Competency to plan for (default: the recommended one)")
	cmd.Flags().Float64Var(&opts.recentAccuracy, "recent-accuracy", -1, "Accuracy over recent sessions in [0,1]; negative when unknown")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func recommend(opts recommendOptions, cmd *cobra.Command) error {
	if opts.domain != "" {
		if _, err := sim.ParseDomain(opts.domain); err != nil {
			return err
		}
	}
	if opts.recentAccuracy > 1 {
		return fmt.Errorf("--recent-accuracy %v is above 1", opts.recentAccuracy)
	}
	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	graph, content, err := LoadContent(opts.contentPath)
	if err != nil {
		return err
	}
	mm, err := LoadMastery(opts.masteryPath)
	if err != nil {
		return err
	}

	model := mastery.NewModel(cfg.Mastery)
	engine := policy.NewEngine(cfg.Policy, content)
	w := cmd.OutOrStdout()

	next, ok := model.RecommendNext(mm, graph, opts.domain)
	if ok {
		titleColor.Fprintf(w, "next competency: %s\n", next)
	} else {
		fmt.Fprintln(w, "next competency: none (everything unlocked is mastered)")
	}

	slug := opts.competency
	if slug == "" {
		slug = next
	}
	if slug == "" {
		renderMastery(w, mm)
		return nil
	}
	if _, known := graph.Get(slug); !known {
		return fmt.Errorf("unknown competency %q", slug)
	}
	var recent policy.Accuracy
	if opts.recentAccuracy >= 0 {
		recent = policy.KnownAccuracy(opts.recentAccuracy)
	}
	level := engine.TargetDifficulty(mm, slug, recent)
	fmt.Fprintf(w, "competency %s:\n", slug)
	fmt.Fprintf(w, "  difficulty: %d (%s)\n", level, policy.DifficultyLabel(level))
	fmt.Fprintf(w, "  challenge type: %s\n", engine.NextChallengeType(mm, slug, recent))
	fmt.Fprintf(w, "  show visualization: %v\n", engine.ShouldShowVisualization(recent))
	renderMastery(w, mm)
	return nil
}
