package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dd0wney/cluso-fraudgraph/pkg/algorithms"
	"github.com/dd0wney/cluso-fraudgraph/pkg/classify"
	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/sink"
)

// Report is the run summary written to report.json.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Learners   []string  `json:"learners"`
	Features   string    `json:"features"`

	Input         InputSummary      `json:"input"`
	Heterogeneous HeteroSummary     `json:"heterogeneous"`
	Projection    ProjectionSummary `json:"projection"`
	Centrality    CentralitySummary `json:"centrality"`
	Split         SplitSummary      `json:"split"`
	Results       []LearnerReport   `json:"results"`
	Sinks         SinkSummary       `json:"sinks"`
	Artifacts     []string          `json:"artifacts"`
}

type InputSummary struct {
	InpatientClaims  int `json:"inpatient_claims"`
	OutpatientClaims int `json:"outpatient_claims"`
	Beneficiaries    int `json:"beneficiaries"`
	Labels           int `json:"labels"`
	Providers        int `json:"providers"`
}

type HeteroSummary struct {
	Nodes         int            `json:"nodes"`
	Edges         int            `json:"edges"`
	Kinds         map[string]int `json:"kinds"`
	SkippedClaims int            `json:"skipped_claims"`
	DroppedEdges  int            `json:"dropped_edges"`
}

type ProjectionSummary struct {
	Projector string         `json:"projector"`
	Symmetric string         `json:"symmetric"`
	Nodes     int            `json:"nodes"`
	Edges     int            `json:"edges"`
	Pairs     int            `json:"pairs"`
	Via       map[string]int `json:"via"`
	Isolated  int            `json:"isolated_providers"`
}

// CentralitySummary lists the top providers of the projection per metric.
type CentralitySummary struct {
	Policy      string                  `json:"closeness_policy"`
	Degree      []algorithms.RankedNode `json:"degree"`
	Betweenness []algorithms.RankedNode `json:"betweenness"`
	Closeness   []algorithms.RankedNode `json:"closeness"`
	PageRank    []algorithms.RankedNode `json:"pagerank"`
}

type SplitSummary struct {
	Labelled  int     `json:"labelled"`
	Unmatched int     `json:"unmatched_labels"`
	Train     int     `json:"train"`
	Test      int     `json:"test"`
	Fraction  float64 `json:"train_fraction"`
	Seed      uint64  `json:"seed"`
}

// LearnerReport holds one learner's outputs and held-out scores. Encoder is
// set for learners that train their own classification head.
type LearnerReport struct {
	Learner    string            `json:"learner"`
	Dimensions int               `json:"dimensions"`
	Embedded   int               `json:"embedded"`
	Embeddings string            `json:"embeddings"`
	Model      string            `json:"model,omitempty"`
	Forest     classify.Metrics  `json:"forest"`
	Encoder    *classify.Metrics `json:"encoder,omitempty"`
	Loss       float64           `json:"loss,omitempty"`
}

type SinkSummary struct {
	Neo4j    *sink.ExportStats `json:"neo4j,omitempty"`
	Postgres map[string]int    `json:"postgres,omitempty"`
	S3Keys   []string          `json:"s3_keys,omitempty"`
}

func newReport(runID string, started time.Time, cfg config.Config) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: started,
		Learners:  append([]string(nil), cfg.Learners...),
		Features:  cfg.Features,
	}
}

// evaluationScores flattens metrics for the learner evaluation gauge.
func evaluationScores(m classify.Metrics) map[string]float64 {
	return map[string]float64{
		"accuracy":  m.Accuracy,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1":        m.F1,
		"roc_auc":   m.AUC,
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadReport loads a report.json written by a previous run.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &r, nil
}
