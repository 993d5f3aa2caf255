package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding"
	"github.com/dd0wney/cluso-fraudgraph/pkg/embedding/sage"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
	"github.com/dd0wney/cluso-fraudgraph/pkg/health"
	"github.com/dd0wney/cluso-fraudgraph/pkg/logging"
	"github.com/dd0wney/cluso-fraudgraph/pkg/sink"
	"github.com/dd0wney/cluso-fraudgraph/pkg/visualization"
)

func TestMain(m *testing.M) {
	logging.SetDefaultLogger(logging.NewNopLogger())
	os.Exit(m.Run())
}

const claimsHeader = "BeneID,ClaimID,ClaimStartDt,ClaimEndDt,Provider,InscClaimAmtReimbursed,AttendingPhysician,OperatingPhysician,OtherPhysician,DeductibleAmtPaid\n"

// writeDataset lays out eight providers sharing five patients and three
// physicians, plus one labelled provider that never files a claim.
func writeDataset(t *testing.T, dir string) {
	t.Helper()
	var in, out strings.Builder
	in.WriteString(claimsHeader)
	out.WriteString(claimsHeader)
	for i := 0; i < 24; i++ {
		line := fmt.Sprintf("BENE%d,CLM%d,2009-01-01,2009-01-0%d,PRV%d,%d,PHY%d,NA,,0\n",
			i%5, i, 1+i%7, i%8, 100*(1+i%4), i%3)
		if i%3 == 0 {
			in.WriteString(line)
		} else {
			out.WriteString(line)
		}
	}

	var bene strings.Builder
	bene.WriteString("BeneID,DOB,DOD,Gender,State\n")
	for i := 0; i < 5; i++ {
		dod := "NA"
		if i == 0 {
			dod = "2009-06-01"
		}
		fmt.Fprintf(&bene, "BENE%d,1940-01-01,%s,%d,10\n", i, dod, 1+i%2)
	}

	var labels strings.Builder
	labels.WriteString("Provider,PotentialFraud\n")
	for i := 0; i < 8; i++ {
		v := "No"
		if i%2 == 0 {
			v = "Yes"
		}
		fmt.Fprintf(&labels, "PRV%d,%s\n", i, v)
	}
	labels.WriteString("PRV99,Yes\n")

	for name, content := range map[string]string{
		"inpatient.csv":   in.String(),
		"outpatient.csv":  out.String(),
		"beneficiary.csv": bene.String(),
		"labels.csv":      labels.String(),
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dataDir := t.TempDir()
	writeDataset(t, dataDir)

	cfg := config.Default()
	cfg.Data.Dir = dataDir
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Output.Layout = true

	cfg.Node2Vec.WalksPerNode = 2
	cfg.Node2Vec.WalkLength = 10
	cfg.Node2Vec.WindowSize = 3
	cfg.Node2Vec.Dimensions = 8
	cfg.Node2Vec.Workers = 2

	cfg.Sage.Hidden = 8
	cfg.Sage.Dimensions = 4
	cfg.Sage.Epochs = 20

	cfg.Forest.Trees = 10
	cfg.Forest.Workers = 2
	return cfg
}

type fakeUploader struct {
	files []string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, runID string, files []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.files = files
	keys := make([]string, len(files))
	for i, file := range files {
		keys[i] = sink.ObjectKey("fraudgraph", runID, file)
	}
	return keys, nil
}

type fakeEmbeddings struct {
	rows map[string]int
}

func (f *fakeEmbeddings) Write(ctx context.Context, runID, learner string, t *embedding.Table) (int, error) {
	if f.rows == nil {
		f.rows = make(map[string]int)
	}
	f.rows[learner] = t.Len()
	return t.Len(), nil
}

type fakeExporter struct {
	nodes int
}

func (f *fakeExporter) Export(ctx context.Context, runID string, g *graph.Graph) (sink.ExportStats, error) {
	f.nodes = g.NodeCount()
	return sink.ExportStats{Nodes: g.NodeCount(), Edges: g.EdgeCount(), Batches: 1}, nil
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return at }
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	up := &fakeUploader{}
	pg := &fakeEmbeddings{}
	neo := &fakeExporter{}

	p, err := New(cfg, Options{
		RunID:      "run-1",
		Now:        fixedClock(),
		Uploader:   up,
		Embeddings: pg,
		Exporter:   neo,
	})
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 8, report.Input.InpatientClaims)
	assert.Equal(t, 16, report.Input.OutpatientClaims)
	assert.Equal(t, 5, report.Input.Beneficiaries)
	assert.Equal(t, 9, report.Input.Labels)
	assert.Equal(t, 8, report.Input.Providers)

	// 24 claims + 8 providers + 5 patients + 3 physicians, three edges per claim
	assert.Equal(t, 40, report.Heterogeneous.Nodes)
	assert.Equal(t, 72, report.Heterogeneous.Edges)
	assert.Equal(t, 24, report.Heterogeneous.Kinds[string(graph.KindClaim)])

	assert.Equal(t, "memory", report.Projection.Projector)
	assert.Equal(t, 8, report.Projection.Nodes)
	assert.Zero(t, report.Projection.Isolated)

	assert.Equal(t, 8, report.Split.Labelled)
	assert.Equal(t, 1, report.Split.Unmatched)
	assert.Equal(t, report.Split.Labelled, report.Split.Train+report.Split.Test)

	require.Len(t, report.Results, 2)
	assert.Equal(t, "node2vec", report.Results[0].Learner)
	assert.Equal(t, 8, report.Results[0].Dimensions)
	assert.Nil(t, report.Results[0].Encoder)
	assert.Equal(t, "sage", report.Results[1].Learner)
	assert.Equal(t, 4, report.Results[1].Dimensions)
	require.NotNil(t, report.Results[1].Encoder)
	assert.Equal(t, report.Split.Test, report.Results[1].Encoder.Support)
	for _, r := range report.Results {
		assert.Equal(t, 8, r.Embedded)
		assert.Equal(t, report.Split.Test, r.Forest.Support)
		assert.GreaterOrEqual(t, r.Forest.AUC, 0.0)
		assert.LessOrEqual(t, r.Forest.AUC, 1.0)
	}

	for _, name := range []string{
		EmbeddingsFile("node2vec"), EmbeddingsFile("sage"), ModelFile, LayoutFile, ReportFile, MetricsFile,
	} {
		assert.FileExists(t, filepath.Join(cfg.Output.Dir, name))
		assert.Contains(t, report.Artifacts, name)
	}

	assert.Equal(t, 40, neo.nodes)
	assert.Equal(t, map[string]int{"node2vec": 8, "sage": 8}, pg.rows)
	assert.Len(t, up.files, len(report.Artifacts))
	assert.Contains(t, report.Sinks.S3Keys, "fraudgraph/run-1/report.json")

	written, err := ReadReport(filepath.Join(cfg.Output.Dir, ReportFile))
	require.NoError(t, err)
	assert.Equal(t, report.Results, written.Results)
	assert.Equal(t, 8, written.Sinks.Postgres["sage"])

	f, err := os.Open(filepath.Join(cfg.Output.Dir, ModelFile))
	require.NoError(t, err)
	defer f.Close()
	model, err := sage.ReadSnapshot(f)
	require.NoError(t, err)
	assert.Equal(t, 4, model.Dimensions)

	prom, err := os.ReadFile(filepath.Join(cfg.Output.Dir, MetricsFile))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `fraudgraph_graph_nodes{graph="projection"} 8`)
	assert.Contains(t, string(prom), `fraudgraph_run_info{run_id="run-1"} 1`)

	viz := readLayout(t, filepath.Join(cfg.Output.Dir, LayoutFile))
	assert.Equal(t, visualization.LayoutHierarchical, viz.Layout)
	assert.Len(t, viz.Nodes, 40)
	assert.Len(t, viz.Edges, 72)
}

func readLayout(t *testing.T, path string) visualization.Visualization {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var viz visualization.Visualization
	require.NoError(t, json.Unmarshal(data, &viz))
	return viz
}

func TestRunLayoutAlgorithm(t *testing.T) {
	for _, name := range []string{visualization.LayoutForce, visualization.LayoutCircular} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Learners = []string{"node2vec"}
			cfg.Output.LayoutAlgorithm = name

			_, err := Run(context.Background(), cfg, nil)
			require.NoError(t, err)

			viz := readLayout(t, filepath.Join(cfg.Output.Dir, LayoutFile))
			assert.Equal(t, name, viz.Layout)
			assert.Len(t, viz.Nodes, 40)
		})
	}
}

func TestRunDeterministic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Layout = false

	run := func(out string) []byte {
		c := cfg
		c.Output.Dir = out
		p, err := New(c, Options{RunID: "same"})
		require.NoError(t, err)
		_, err = p.Run(context.Background())
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(out, EmbeddingsFile("node2vec")))
		require.NoError(t, err)
		return data
	}

	first := run(t.TempDir())
	second := run(t.TempDir())
	assert.Equal(t, first, second)

	table, err := embedding.ReadCSV(strings.NewReader(string(first)))
	require.NoError(t, err)
	assert.Equal(t, 8, table.Len())
}

func TestRunAggregateFeatures(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features = config.FeaturesAggregate
	cfg.Learners = []string{"sage"}
	cfg.Output.Layout = false

	p, err := New(cfg, Options{})
	require.NoError(t, err)
	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "aggregate", report.Features)

	names := AggregateFeatureNames()
	assert.Len(t, names, len(claims.ProviderFeatureNames)+3)
	assert.Equal(t, "clustering", names[len(names)-1])
	for _, node := range p.providers.Nodes() {
		require.Len(t, node.Features, len(names))
		assert.Equal(t, p.metrics.Clustering[node.Key], node.Features[len(names)-1])
	}
}

func TestRunMissingInput(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Data.Dir, "labels.csv")))

	_, err := Run(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, claims.ErrInputFile)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageLoad, se.Stage)
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, ReportFile))
}

func TestRunLogsToDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	logging.SetDefaultLogger(logging.NewJSONLogger(&buf, logging.InfoLevel))
	defer logging.SetDefaultLogger(logging.NewNopLogger())

	cfg := testConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Data.Dir, "labels.csv")))

	p, err := New(cfg, Options{RunID: "run-log"})
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.Error(t, err)

	assert.Contains(t, buf.String(), `"msg":"pipeline failed"`)
	assert.Contains(t, buf.String(), `"run_id":"run-log"`)
	assert.Contains(t, buf.String(), `"stage":"load"`)
}

func TestRunSinkFailureAborts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Learners = []string{"node2vec"}
	cfg.Output.Layout = false
	boom := errors.New("bucket unavailable")

	p, err := New(cfg, Options{Uploader: &fakeUploader{err: boom}})
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageSinkS3, se.Stage)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testConfig(t), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Learners = []string{"word2vec"}
	_, err := New(cfg, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestProjectorSelection(t *testing.T) {
	assert.Equal(t, "memory", projector(config.ProjectorConfig{Kind: "memory", Symmetric: "collapse"}).Name())
	assert.Equal(t, "duckdb", projector(config.ProjectorConfig{Kind: "duckdb", Symmetric: "keep"}).Name())
}

func TestLabelledProviders(t *testing.T) {
	g := graph.New()
	_, err := g.AddNode("PRV1", graph.KindProvider)
	require.NoError(t, err)

	got, unmatched := labelledProviders(map[string]int{"PRV1": 1, "PRV2": 0}, g)
	assert.Equal(t, map[string]int{"PRV1": 1}, got)
	assert.Equal(t, 1, unmatched)
}

func TestPreflight(t *testing.T) {
	cfg := testConfig(t)

	resp := Preflight(context.Background(), cfg)
	assert.True(t, resp.Healthy())
	require.Len(t, resp.Checks, 8)
	assert.Equal(t, "input.inpatient", resp.Checks[0].Name)
	assert.DirExists(t, cfg.Output.Dir)

	require.NoError(t, os.Remove(filepath.Join(cfg.Data.Dir, "beneficiary.csv")))
	resp = Preflight(context.Background(), cfg)
	assert.False(t, resp.Healthy())
	assert.Equal(t, health.StatusUnhealthy, resp.Checks[2].Status)
}
