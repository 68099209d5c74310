// Package commands implements the buildsched cobra subcommands: sync,
// set-commit-running, set-commit-finished, show-state, show-history, and
// show-proposals. No business logic lives here - each command builds the
// core collaborators from Config and calls straight into internal/*.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildsched/buildsched/internal/annotation"
	"github.com/buildsched/buildsched/internal/config"
	"github.com/buildsched/buildsched/internal/obslog"
	"github.com/buildsched/buildsched/internal/scheduler"
	"github.com/buildsched/buildsched/internal/tracker"
	"github.com/buildsched/buildsched/internal/transition"
	"github.com/buildsched/buildsched/internal/vcsref"
	"github.com/buildsched/buildsched/pkg/version"
)

// globalFlags holds the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	repo       string
	branch     string
	platform   string
	builder    string
}

// RegisterPersistentFlags attaches the shared --config/--repo/--branch/
// --platform/--builder flags to root.
func RegisterPersistentFlags(root *cobra.Command, gf *globalFlags) {
	root.PersistentFlags().StringVar(&gf.configPath, "config", "", "path to .buildsched.yaml")
	root.PersistentFlags().StringVar(&gf.repo, "repo", "", "path to the version-control repository")
	root.PersistentFlags().StringVar(&gf.branch, "branch", "", "branch to operate on")
	root.PersistentFlags().StringVar(&gf.platform, "platform", "", "build platform identifier")
	root.PersistentFlags().StringVar(&gf.builder, "builder", "", "builder identifier recorded on state transitions")
}

// app bundles the core collaborators every subcommand needs.
type app struct {
	cfg        *config.Config
	repo       *vcsref.Repo
	adapter    vcsref.Adapter
	store      *annotation.Store
	tracker    *tracker.Tracker
	engine     *transition.Engine
	mergeSched *scheduler.MergeStrategy

	logger            *slog.Logger
	proposalMetrics   *obslog.ProposalMetrics
	adapterMetrics    *obslog.AdapterMetrics
	transitionMetrics *obslog.TransitionMetrics
	obsShutdown       func()
}

// newApp loads Config (flags override file/env) and wires every core
// collaborator from it, including structured logging and metrics.
func newApp(gf *globalFlags) (*app, error) {
	cfg, err := config.LoadConfig(gf.configPath)
	if err != nil {
		return nil, err
	}

	applyOverrides(cfg, gf)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers, err := initObservability(cfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	repo, err := vcsref.Open(cfg.Repo)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", cfg.Repo, err)
	}

	store := annotation.New(repo, repo, cfg.NotesPrefix, cfg.Platform)
	trk := &tracker.Tracker{Adapter: repo, Prefix: cfg.RefPrefix, Platform: cfg.Platform, Branch: cfg.Branch}

	engine := transition.New(repo, store, trk)
	engine.MinEstimate = cfg.MinEstimatedDuration

	merged := scheduler.NewMergeStrategy()
	merged.Add(scheduler.NewHeadStrategy(repo, store, trk, cfg.Platform, cfg.Branch), 1.0)
	merged.Add(scheduler.NewBisectStrategy(repo, store, trk, cfg.Platform, cfg.Branch), 1.0)

	proposalMetrics, err := obslog.NewProposalMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("init proposal metrics: %w", err)
	}

	adapterMetrics, err := obslog.NewAdapterMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("init adapter metrics: %w", err)
	}

	transitionMetrics, err := obslog.NewTransitionMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("init transition metrics: %w", err)
	}

	return &app{
		cfg:               cfg,
		repo:              repo,
		adapter:           repo,
		store:             store,
		tracker:           trk,
		engine:            engine,
		mergeSched:        merged,
		logger:            providers.Logger,
		proposalMetrics:   proposalMetrics,
		adapterMetrics:    adapterMetrics,
		transitionMetrics: transitionMetrics,
		obsShutdown: func() {
			_ = providers.Shutdown(context.Background())
		},
	}, nil
}

// initObservability builds obslog.Config from Config and the standard OTel
// env vars, mirroring the teacher's CLI observability bootstrap.
func initObservability(cfg *config.Config) (obslog.Providers, error) {
	oc := obslog.DefaultConfig()
	oc.ServiceVersion = version.Version
	oc.OTLPEndpoint = cfg.OTLPEndpoint
	oc.PrometheusAddr = cfg.PrometheusAddr
	oc.LogJSON = cfg.LogJSON

	if oc.OTLPEndpoint == "" {
		oc.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	oc.OTLPHeaders = obslog.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	oc.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"

	return obslog.Init(oc)
}

func applyOverrides(cfg *config.Config, gf *globalFlags) {
	if gf.repo != "" {
		cfg.Repo = gf.repo
	}

	if gf.branch != "" {
		cfg.Branch = gf.branch
	}

	if gf.platform != "" {
		cfg.Platform = gf.platform
	}

	if gf.builder != "" {
		cfg.Builder = gf.builder
	}
}
