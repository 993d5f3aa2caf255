// Package pipeline runs the fraud-graph analysis end to end: claims ingest,
// heterogeneous graph, provider projection, centrality metrics,
// representation learners, a downstream classifier per learner, artifacts
// and the optional external sinks.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-fraudgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-fraudgraph/pkg/claimgraph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/metrics"
)

// Stage names, used in logs, metrics and StageError.
const (
	StageLoad      = "load"
	StageHetero    = "heterogeneous"
	StageProject   = "projection"
	StageMetrics   = "metrics"
	StageFeatures  = "features"
	StageLearn     = "learn"
	StageClassify  = "classify"
	StageLayout    = "layout"
	StageArtifacts = "artifacts"
	StageSinkNeo4j = "sink_neo4j"
	StageSinkPG    = "sink_postgres"
	StageSinkS3    = "sink_s3"
)

const (
	graphHetero     = "heterogeneous"
	graphProjection = "projection"
)

// StageError reports which stage aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options injects collaborators. A nil Logger selects the process default
// logger. Nil sinks are opened from the configuration when enabled there.
type Options struct {
	Logger   logging.Logger
	Registry *metrics.Registry
	RunID    string
	Now      func() time.Time

	Uploader   ArtifactUploader
	Embeddings EmbeddingWriter
	Exporter   GraphExporter
}

// Pipeline holds the state of one run. It is not reusable.
type Pipeline struct {
	cfg      config.Config
	logger   logging.Logger
	registry *metrics.Registry
	runID    string
	now      func() time.Time
	sinks    sinks

	dataset    *claims.Dataset
	hetero     *graph.Graph
	projection *claimgraph.Projection
	providers  *graph.Graph
	metrics    *algorithms.MetricsResult
	labels     map[string]int
	results    []*learnerResult
	artifacts  []string
	report     *Report
}

// New validates cfg and prepares a run.
func New(cfg config.Config, opts Options) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger()
	}
	if opts.Registry == nil {
		opts.Registry = metrics.NewRegistry()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   opts.Logger.With(logging.RunID(opts.RunID)),
		registry: opts.Registry,
		runID:    opts.RunID,
		now:      opts.Now,
		sinks: sinks{
			uploader:   opts.Uploader,
			embeddings: opts.Embeddings,
			exporter:   opts.Exporter,
		},
	}, nil
}

// Run executes one pipeline run with default options.
func Run(ctx context.Context, cfg config.Config, logger logging.Logger) (*Report, error) {
	p, err := New(cfg, Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

func (p *Pipeline) RunID() string { return p.runID }

// Registry exposes the run's metrics registry.
func (p *Pipeline) Registry() *metrics.Registry { return p.registry }

// Run executes every stage in order. The first failing stage aborts the run
// and is returned as a *StageError.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := p.now()
	p.registry.MarkRun(p.runID)
	p.report = newReport(p.runID, started, p.cfg)
	p.logger.Info("pipeline started",
		logging.Any("learners", p.cfg.Learners),
		logging.String("projector", p.cfg.Projector.Kind),
		logging.Path(p.cfg.Output.Dir))

	if err := os.MkdirAll(p.cfg.Output.Dir, 0o755); err != nil {
		return nil, &StageError{Stage: StageArtifacts, Err: fmt.Errorf("create output dir: %w", err)}
	}

	if err := p.sinks.open(ctx, p.cfg.Sinks, p.logger); err != nil {
		return nil, err
	}
	defer p.sinks.close(ctx)

	stages := []struct {
		name string
		fn   func(context.Context) error
		skip bool
	}{
		{StageLoad, p.load, false},
		{StageHetero, p.buildHetero, false},
		{StageProject, p.project, false},
		{StageMetrics, p.computeMetrics, false},
		{StageFeatures, p.attachFeatures, false},
		{StageLearn, p.learn, false},
		{StageClassify, p.evaluate, false},
		{StageLayout, p.writeLayout, !p.cfg.Output.Layout},
		{StageSinkNeo4j, p.exportGraph, p.sinks.exporter == nil},
		{StageSinkPG, p.writeEmbeddings, p.sinks.embeddings == nil},
		{StageArtifacts, p.writeArtifacts, false},
		{StageSinkS3, p.upload, p.sinks.uploader == nil},
	}
	for _, s := range stages {
		if s.skip {
			continue
		}
		if err := p.stage(ctx, s.name, s.fn); err != nil {
			p.logger.Error("pipeline failed", logging.Stage(s.name), logging.Error(err))
			return nil, err
		}
	}

	p.logger.Info("pipeline finished",
		logging.Duration("elapsed", p.now().Sub(started)),
		logging.Int("artifacts", len(p.artifacts)))
	return p.report, nil
}

// stage runs fn with timing, logging and metrics.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: name, Err: err}
	}
	timer := logging.StartTimer(p.logger, "stage finished", logging.Stage(name))
	err := fn(ctx)
	var d time.Duration
	if err != nil {
		d = timer.EndError(err)
	} else {
		d = timer.End()
	}
	p.registry.RecordStage(name, err, d)
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}
	return nil
}

func (p *Pipeline) outPath(name string) string {
	return filepath.Join(p.cfg.Output.Dir, name)
}
