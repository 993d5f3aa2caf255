package claimgraph

import (
	"context"
	"slices"
	"strings"

	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// Relation records which shared entity links two providers. Values combine
// as a bit set when a pair is linked both ways.
type Relation uint8

const (
	ViaPatient Relation = 1 << iota
	ViaPhysician
)

func (r Relation) String() string {
	var parts []string
	if r&ViaPatient != 0 {
		parts = append(parts, "patient")
	}
	if r&ViaPhysician != 0 {
		parts = append(parts, "physician")
	}
	return strings.Join(parts, "+")
}

// SymmetricMode decides whether (A,B) and (B,A) are one pair or two.
type SymmetricMode string

const (
	// SymmetricCollapse emits each unordered pair once with A < B.
	SymmetricCollapse SymmetricMode = "collapse"
	// SymmetricKeep emits both directions as distinct pairs.
	SymmetricKeep SymmetricMode = "keep"
)

// Pair is a provider similarity pair. A and B always differ.
type Pair struct {
	A   string   `json:"a"`
	B   string   `json:"b"`
	Via Relation `json:"via"`
}

// Projection is the provider-provider relation derived from claims.
type Projection struct {
	Mode      SymmetricMode
	Pairs     []Pair   // sorted by (A, B)
	Providers []string // sorted, providers taking part in any pair
}

// Projector computes the provider projection of a set of claims.
type Projector interface {
	Project(ctx context.Context, records []claims.Claim) (*Projection, error)
	Name() string
}

// Graph converts the projection into an undirected homogeneous graph. In
// SymmetricKeep mode the two directions fold into one edge.
func (p *Projection) Graph() (*graph.Graph, error) {
	g := graph.New()
	for _, key := range p.Providers {
		if _, err := g.AddNode(key, graph.KindProvider); err != nil {
			return nil, err
		}
	}
	for _, pair := range p.Pairs {
		if err := g.AddEdge(pair.A, pair.B); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// pairSet accumulates pairs and merges their relations.
type pairSet struct {
	mode  SymmetricMode
	pairs map[[2]string]Relation
}

func newPairSet(mode SymmetricMode) *pairSet {
	if mode == "" {
		mode = SymmetricCollapse
	}
	return &pairSet{mode: mode, pairs: make(map[[2]string]Relation)}
}

// add records a joined row. Self pairs are filtered here, after the join.
func (s *pairSet) add(a, b string, via Relation) {
	if a == b || a == "" || b == "" {
		return
	}
	if s.mode == SymmetricCollapse && b < a {
		a, b = b, a
	}
	s.pairs[[2]string{a, b}] |= via
}

func (s *pairSet) projection() *Projection {
	p := &Projection{Mode: s.mode, Pairs: make([]Pair, 0, len(s.pairs))}
	providers := make(map[string]bool)
	for k, via := range s.pairs {
		p.Pairs = append(p.Pairs, Pair{A: k[0], B: k[1], Via: via})
		providers[k[0]] = true
		providers[k[1]] = true
	}
	slices.SortFunc(p.Pairs, func(x, y Pair) int {
		if c := strings.Compare(x.A, y.A); c != 0 {
			return c
		}
		return strings.Compare(x.B, y.B)
	})
	for k := range providers {
		p.Providers = append(p.Providers, k)
	}
	slices.Sort(p.Providers)
	return p
}

// MemoryProjector joins claims with in-process hash maps.
type MemoryProjector struct {
	Mode SymmetricMode
}

func (MemoryProjector) Name() string { return "memory" }

func (m MemoryProjector) Project(ctx context.Context, records []claims.Claim) (*Projection, error) {
	byPatient := make(map[string][]string)
	byPhysician := make(map[string][]string)
	for i := range records {
		c := &records[i]
		if c.Provider == "" {
			continue
		}
		if c.Patient != "" {
			byPatient[c.Patient] = appendUnique(byPatient[c.Patient], c.Provider)
		}
		if c.AttendingPhysician != "" {
			byPhysician[c.AttendingPhysician] = appendUnique(byPhysician[c.AttendingPhysician], c.Provider)
		}
	}

	set := newPairSet(m.Mode)
	for _, rel := range []struct {
		groups map[string][]string
		via    Relation
	}{
		{byPatient, ViaPatient},
		{byPhysician, ViaPhysician},
	} {
		for _, providers := range rel.groups {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			for _, a := range providers {
				for _, b := range providers {
					set.add(a, b, rel.via)
				}
			}
		}
	}
	return set.projection(), nil
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
