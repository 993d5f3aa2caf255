package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/dd0wney/cluso-fraudgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-fraudgraph/pkg/claimgraph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
	"github.com/dd0wney/cluso-fraudgraph/pkg/classify"
	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding/node2vec"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding/sage"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/visualization"
)

// Artifact file names inside the output directory.
const (
	ReportFile  = "report.json"
	MetricsFile = "metrics.prom"
	ModelFile   = "sage_model.snappy"
	LayoutFile  = "hetero_layout.json"
)

// EmbeddingsFile names the CSV holding one learner's embedding table.
func EmbeddingsFile(learner string) string {
	return "embeddings_" + learner + ".csv"
}

type learnerResult struct {
	name   string
	table  *embedding.Table
	sage   *sage.Result
	report *LearnerReport
}

func (p *Pipeline) load(ctx context.Context) error {
	ds, err := claims.Load(p.cfg.Data.Paths(), p.cfg.Data.LabelEncoder())
	if err != nil {
		return err
	}
	p.dataset = ds

	in := &p.report.Input
	for _, c := range ds.Claims {
		if c.Source == claims.SourceInpatient {
			in.InpatientClaims++
		} else {
			in.OutpatientClaims++
		}
	}
	in.Beneficiaries = len(ds.Beneficiaries)
	in.Labels = len(ds.Labels)
	in.Providers = len(ds.Providers())

	p.registry.InputRecords.WithLabelValues(string(claims.SourceInpatient)).Set(float64(in.InpatientClaims))
	p.registry.InputRecords.WithLabelValues(string(claims.SourceOutpatient)).Set(float64(in.OutpatientClaims))
	p.registry.InputRecords.WithLabelValues("beneficiary").Set(float64(in.Beneficiaries))
	p.registry.InputRecords.WithLabelValues("labels").Set(float64(in.Labels))

	p.logger.Info("claims loaded",
		logging.Int("inpatient", in.InpatientClaims),
		logging.Int("outpatient", in.OutpatientClaims),
		logging.Int("beneficiaries", in.Beneficiaries),
		logging.Int("labels", in.Labels))
	return nil
}

func (p *Pipeline) buildHetero(ctx context.Context) error {
	g, stats, err := claimgraph.BuildHeterogeneous(p.dataset.Claims, claimgraph.HeteroOptions{
		IncludeAllPhysicians: p.cfg.Hetero.IncludeAllPhysicians,
	})
	if err != nil {
		return err
	}
	p.hetero = g

	kinds := make(map[string]int)
	for k, n := range g.KindCounts() {
		kinds[string(k)] = n
	}
	p.report.Heterogeneous = HeteroSummary{
		Nodes:         g.NodeCount(),
		Edges:         g.EdgeCount(),
		Kinds:         kinds,
		SkippedClaims: stats.SkippedClaims,
		DroppedEdges:  stats.DroppedEdges,
	}
	p.registry.SetGraphSize(graphHetero, g.NodeCount(), g.EdgeCount())
	p.registry.SetKindCounts(graphHetero, kinds)
	p.registry.DroppedEdgeTotal.Add(float64(stats.DroppedEdges))

	p.logger.Info("heterogeneous graph built",
		logging.Nodes(g.NodeCount()), logging.Edges(g.EdgeCount()),
		logging.Int("dropped_edges", stats.DroppedEdges))
	return nil
}

// projector returns the configured projection backend.
func projector(cfg config.ProjectorConfig) claimgraph.Projector {
	mode := claimgraph.SymmetricMode(cfg.Symmetric)
	if cfg.Kind == "duckdb" {
		return claimgraph.DuckDBProjector{Mode: mode, DSN: cfg.DuckDBDSN}
	}
	return claimgraph.MemoryProjector{Mode: mode}
}

func (p *Pipeline) project(ctx context.Context) error {
	pj := projector(p.cfg.Projector)
	proj, err := pj.Project(ctx, p.dataset.Claims)
	if err != nil {
		return fmt.Errorf("%s projector: %w", pj.Name(), err)
	}
	g, err := proj.Graph()
	if err != nil {
		return err
	}
	p.projection = proj
	p.providers = g

	via := make(map[string]int)
	for _, pair := range proj.Pairs {
		via[pair.Via.String()]++
	}
	for rel, n := range via {
		p.registry.ProjectionPairs.WithLabelValues(rel).Set(float64(n))
	}
	p.registry.SetGraphSize(graphProjection, g.NodeCount(), g.EdgeCount())

	p.report.Projection = ProjectionSummary{
		Projector: pj.Name(),
		Symmetric: string(proj.Mode),
		Nodes:     g.NodeCount(),
		Edges:     g.EdgeCount(),
		Pairs:     len(proj.Pairs),
		Via:       via,
		Isolated:  p.report.Input.Providers - g.NodeCount(),
	}
	p.logger.Info("provider projection built",
		logging.String("projector", pj.Name()),
		logging.Nodes(g.NodeCount()), logging.Edges(g.EdgeCount()),
		logging.Int("pairs", len(proj.Pairs)))
	return nil
}

func (p *Pipeline) computeMetrics(ctx context.Context) error {
	res, err := algorithms.ComputeAll(p.providers, p.cfg.Metrics.MetricsOptions())
	if err != nil {
		return err
	}
	p.metrics = res
	p.report.Centrality = CentralitySummary{
		Policy:      p.cfg.Metrics.Closeness,
		Degree:      res.TopByDegree,
		Betweenness: res.TopByBetweenness,
		Closeness:   res.TopByCloseness,
		PageRank:    res.TopByPageRank,
	}
	return nil
}

// AggregateFeatureNames lists the provider feature columns used in
// aggregate mode: claim aggregates then structural metrics.
func AggregateFeatureNames() []string {
	names := append(slices.Clone(claims.ProviderFeatureNames), sage.StructuralFeatureNames...)
	return append(names, "clustering")
}

// attachFeatures sets node features on the projection in aggregate mode.
// Structural mode leaves nodes bare and the deep learner derives them.
func (p *Pipeline) attachFeatures(ctx context.Context) error {
	if p.cfg.Features != config.FeaturesAggregate {
		return nil
	}
	agg := p.dataset.ProviderFeatures()
	for _, key := range p.providers.Keys() {
		row, ok := agg[key]
		if !ok {
			return &graph.GraphError{Op: "attachFeatures", Key: key, Cause: graph.ErrUnmappedKey}
		}
		features := append(slices.Clone(row), float64(p.metrics.Degree[key]), p.metrics.Betweenness[key], p.metrics.Clustering[key])
		if err := p.providers.SetFeatures(key, features); err != nil {
			return err
		}
	}
	p.logger.Debug("provider features attached", logging.Int("width", len(AggregateFeatureNames())))
	return nil
}

// labelledProviders keeps the labels of providers present in the
// projection. Providers absent from it have no embedding.
func labelledProviders(labels map[string]int, g *graph.Graph) (map[string]int, int) {
	out := make(map[string]int, len(labels))
	for k, v := range labels {
		if _, ok := g.Node(k); ok {
			out[k] = v
		}
	}
	return out, len(labels) - len(out)
}

func (p *Pipeline) newLearner(name string) (embedding.Learner, error) {
	switch name {
	case "node2vec":
		return node2vec.New(p.cfg.Node2Vec, p.logger)
	case "sage":
		return sage.New(p.cfg.Sage, p.logger)
	}
	return nil, fmt.Errorf("unknown learner %q", name)
}

func (p *Pipeline) learn(ctx context.Context) error {
	labels, unmatched := labelledProviders(p.dataset.Labels, p.providers)
	p.labels = labels
	if unmatched > 0 {
		p.logger.Warn("labels without a projected provider", logging.Int("count", unmatched))
	}
	p.report.Split.Labelled = len(labels)
	p.report.Split.Unmatched = unmatched

	for _, name := range p.cfg.Learners {
		learner, err := p.newLearner(name)
		if err != nil {
			return err
		}
		table, err := learner.Embed(ctx, embedding.Input{Graph: p.providers, Labels: labels})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		r := &learnerResult{
			name:  name,
			table: table,
			report: &LearnerReport{
				Learner:    name,
				Dimensions: table.Dim(),
				Embedded:   table.Len(),
				Embeddings: EmbeddingsFile(name),
			},
		}
		if s, ok := learner.(*sage.Learner); ok {
			r.sage = s.Last()
			eval := r.sage.Eval
			r.report.Encoder = &eval
			r.report.Loss = r.sage.Loss
			r.report.Model = ModelFile
			p.registry.SetEvaluation(name, "encoder", evaluationScores(eval))
		}
		p.registry.LearnerEmbeddingDim.WithLabelValues(name).Set(float64(table.Dim()))

		if err := p.writeTable(r); err != nil {
			return err
		}
		p.results = append(p.results, r)
	}
	return nil
}

func (p *Pipeline) writeTable(r *learnerResult) error {
	path := p.outPath(EmbeddingsFile(r.name))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := r.table.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	p.artifacts = append(p.artifacts, path)

	if r.sage == nil {
		return nil
	}
	path = p.outPath(ModelFile)
	f, err = os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := r.sage.Model.WriteSnapshot(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	p.artifacts = append(p.artifacts, path)
	return nil
}

// evaluate fits one forest per learner on its embeddings of the labelled
// providers. Every learner uses the same split, which matches the deep
// learner's own train/test masks.
func (p *Pipeline) evaluate(ctx context.Context) error {
	keys := make([]string, 0, len(p.labels))
	for k := range p.labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if len(keys) < 2 {
		return fmt.Errorf("%w: %d labelled providers in the projection", sage.ErrNotEnoughLabels, len(keys))
	}
	y := make([]int, len(keys))
	for i, k := range keys {
		y[i] = p.labels[k]
	}

	train, test := classify.Split(len(keys), p.cfg.Sage.TrainFraction, p.cfg.Sage.Seed)
	p.report.Split.Train = len(train)
	p.report.Split.Test = len(test)
	p.report.Split.Fraction = p.cfg.Sage.TrainFraction
	p.report.Split.Seed = p.cfg.Sage.Seed

	for _, r := range p.results {
		x, err := r.table.Rows(keys)
		if err != nil {
			return fmt.Errorf("%s embeddings: %w", r.name, err)
		}
		forest := classify.NewForest(p.cfg.Forest)
		m, _, err := forest.FitEvaluate(ctx, x, y, train, test)
		if err != nil {
			return fmt.Errorf("%s forest: %w", r.name, err)
		}
		r.report.Forest = m
		p.report.Results = append(p.report.Results, *r.report)
		p.registry.SetEvaluation(r.name, "forest", evaluationScores(m))
		p.logger.Info("classifier evaluated",
			logging.Learner(r.name),
			logging.Float64("accuracy", m.Accuracy),
			logging.Float64("f1", m.F1),
			logging.Float64("roc_auc", m.AUC))
	}
	return nil
}

func (p *Pipeline) writeLayout(ctx context.Context) error {
	viz, err := visualization.Build(p.hetero, p.cfg.Output.LayoutAlgorithm, visualization.DefaultLayoutConfig())
	if err != nil {
		return err
	}
	path := p.outPath(LayoutFile)
	if err := viz.WriteFile(path); err != nil {
		return err
	}
	p.artifacts = append(p.artifacts, path)
	return nil
}

func (p *Pipeline) exportGraph(ctx context.Context) error {
	stats, err := p.sinks.exporter.Export(ctx, p.runID, p.hetero)
	if err != nil {
		return err
	}
	p.report.Sinks.Neo4j = &stats
	p.logger.Info("graph exported", logging.Nodes(stats.Nodes), logging.Edges(stats.Edges))
	return nil
}

func (p *Pipeline) writeEmbeddings(ctx context.Context) error {
	p.report.Sinks.Postgres = make(map[string]int, len(p.results))
	for _, r := range p.results {
		n, err := p.sinks.embeddings.Write(ctx, p.runID, r.name, r.table)
		if err != nil {
			return err
		}
		p.report.Sinks.Postgres[r.name] = n
	}
	return nil
}

// writeArtifacts writes report.json and metrics.prom. The run counts as
// successful from here on.
func (p *Pipeline) writeArtifacts(ctx context.Context) error {
	p.report.FinishedAt = p.now()
	p.registry.MarkSuccess(p.report.FinishedAt)

	reportPath := p.outPath(ReportFile)
	metricsPath := p.outPath(MetricsFile)
	p.artifacts = append(p.artifacts, reportPath, metricsPath)
	p.report.Artifacts = make([]string, len(p.artifacts))
	for i, a := range p.artifacts {
		p.report.Artifacts[i] = filepath.Base(a)
	}

	if err := writeJSON(reportPath, p.report); err != nil {
		return err
	}
	if err := p.registry.WriteTextfile(metricsPath); err != nil {
		return fmt.Errorf("write %s: %w", metricsPath, err)
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context) error {
	keys, err := p.sinks.uploader.Upload(ctx, p.runID, p.artifacts)
	if err != nil {
		return err
	}
	p.report.Sinks.S3Keys = keys
	p.logger.Info("artifacts uploaded", logging.Int("objects", len(keys)))
	return nil
}
