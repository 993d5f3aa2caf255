package sink

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dd0wney/cluso-fraudgraph/pkg/config"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

const defaultBatchSize = 500

// Relationship types written for claim edges.
const (
	RelBilledBy   = "BILLED_BY"
	RelForPatient = "FOR_PATIENT"
	RelTreatedBy  = "TREATED_BY"
	RelRelatedTo  = "RELATED_TO"
)

// ExportStats counts what one export wrote.
type ExportStats struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Batches int `json:"batches"`
}

// Neo4jExporter writes a graph to Neo4j with UNWIND batches.
type Neo4jExporter struct {
	driver    neo4j.DriverWithContext
	dbName    string
	batchSize int
}

// NewNeo4jExporter opens a driver and verifies connectivity.
func NewNeo4jExporter(ctx context.Context, cfg config.Neo4jConfig) (*Neo4jExporter, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j: %w", err)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Neo4jExporter{driver: driver, dbName: cfg.Database, batchSize: batch}, nil
}

func (e *Neo4jExporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// Export merges every node and edge of g, tagging nodes with runID.
func (e *Neo4jExporter) Export(ctx context.Context, runID string, g *graph.Graph) (ExportStats, error) {
	var stats ExportStats
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.dbName})
	defer session.Close(ctx)

	run := func(query string, params map[string]any) error {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			res, err := tx.Run(ctx, query, params)
			if err != nil {
				return nil, err
			}
			return res.Consume(ctx)
		})
		return err
	}

	nodeGroups := groupNodesByLabel(g, runID)
	labels := sortedKeys(nodeGroups)
	for _, label := range labels {
		if err := run(buildConstraintQuery(label), nil); err != nil {
			return stats, fmt.Errorf("create constraint for %s: %w", label, err)
		}
	}
	for _, label := range labels {
		for _, batch := range chunk(nodeGroups[label], e.batchSize) {
			if err := run(buildNodeQuery(label), map[string]any{"batch": batch}); err != nil {
				return stats, fmt.Errorf("load %s nodes: %w", label, err)
			}
			stats.Nodes += len(batch)
			stats.Batches++
		}
	}

	edgeGroups := groupEdgesByType(g)
	for _, et := range sortedEdgeTypes(edgeGroups) {
		for _, batch := range chunk(edgeGroups[et], e.batchSize) {
			if err := run(buildEdgeQuery(et), map[string]any{"batch": batch}); err != nil {
				return stats, fmt.Errorf("load %s edges: %w", et, err)
			}
			stats.Edges += len(batch)
			stats.Batches++
		}
	}
	return stats, nil
}

// labelFor maps a node kind to a capitalised node label.
func labelFor(kind graph.Kind) string {
	s := sanitizeLabel(string(kind))
	if s == "" {
		return "Node"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// relationFor orients an edge from its claim endpoint and names it after the
// other endpoint's kind. Edges without a claim endpoint keep their order.
func relationFor(from, to *graph.Node) (src, dst *graph.Node, rel string) {
	if to.Kind == graph.KindClaim && from.Kind != graph.KindClaim {
		from, to = to, from
	}
	if from.Kind != graph.KindClaim {
		return from, to, RelRelatedTo
	}
	switch to.Kind {
	case graph.KindProvider:
		return from, to, RelBilledBy
	case graph.KindPatient:
		return from, to, RelForPatient
	case graph.KindPhysician:
		return from, to, RelTreatedBy
	}
	return from, to, RelRelatedTo
}

func groupNodesByLabel(g *graph.Graph, runID string) map[string][]map[string]any {
	adj := g.Adjacency()
	batches := make(map[string][]map[string]any)
	for _, n := range g.Nodes() {
		label := labelFor(n.Kind)
		batches[label] = append(batches[label], map[string]any{
			"key":    n.Key,
			"degree": int64(len(adj[n.ID])),
			"run_id": runID,
		})
	}
	return batches
}

// edgeType is a relationship type with the labels of both endpoints, so
// edge batches match nodes through the per-label key constraint.
type edgeType struct {
	Source string
	Rel    string
	Target string
}

func (t edgeType) String() string {
	return fmt.Sprintf("(:%s)-[:%s]->(:%s)", t.Source, t.Rel, t.Target)
}

func groupEdgesByType(g *graph.Graph) map[edgeType][]map[string]any {
	batches := make(map[edgeType][]map[string]any)
	for _, e := range g.Edges() {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		src, dst, rel := relationFor(from, to)
		et := edgeType{Source: labelFor(src.Kind), Rel: rel, Target: labelFor(dst.Kind)}
		batches[et] = append(batches[et], map[string]any{
			"source": src.Key,
			"target": dst.Key,
		})
	}
	return batches
}

func buildConstraintQuery(label string) string {
	return fmt.Sprintf("CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.key IS UNIQUE", sanitizeLabel(label))
}

func buildNodeQuery(label string) string {
	return fmt.Sprintf(`
			UNWIND $batch AS row
			MERGE (n:%s {key: row.key})
			SET n.degree = row.degree, n.run_id = row.run_id
		`, sanitizeLabel(label))
}

func buildEdgeQuery(et edgeType) string {
	return fmt.Sprintf(`
			UNWIND $batch AS row
			MATCH (source:%s {key: row.source})
			MATCH (target:%s {key: row.target})
			MERGE (source)-[r:%s]->(target)
		`, sanitizeLabel(et.Source), sanitizeLabel(et.Target), sanitizeLabel(et.Rel))
}

func sanitizeLabel(label string) string {
	return strings.ReplaceAll(label, "`", "")
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = defaultBatchSize
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}

func sortedEdgeTypes[V any](m map[edgeType]V) []edgeType {
	types := make([]edgeType, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	slices.SortFunc(types, func(a, b edgeType) int {
		return strings.Compare(a.String(), b.String())
	})
	return types
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
