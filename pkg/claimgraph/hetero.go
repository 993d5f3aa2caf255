// Package claimgraph builds graphs from claim records: the claim-centred
// heterogeneous graph and the provider-to-provider projection.
package claimgraph

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

// ErrClaimKeyConflict marks a claim ID equal to a provider, physician or
// patient value. Such a node cannot satisfy the claim star, so the build
// aborts instead of collapsing it.
var ErrClaimKeyConflict = errors.New("claim ID shared with a non-claim value")

// HeteroOptions tunes BuildHeterogeneous.
type HeteroOptions struct {
	// IncludeAllPhysicians also links operating and other physicians.
	IncludeAllPhysicians bool
}

// BuildStats reports what the builder left out.
type BuildStats struct {
	Claims        int
	SkippedClaims int // claims without an ID
	DroppedEdges  int // candidate edges with a missing endpoint
}

type endpoint struct {
	key  string
	kind graph.Kind
}

// BuildHeterogeneous turns claims into a star-per-claim graph. Node kinds are
// fixed when a value is first seen, so a value shared by two roles collapses
// into one node carrying the first kind.
func BuildHeterogeneous(records []claims.Claim, opts HeteroOptions) (*graph.Graph, BuildStats, error) {
	g := graph.NewHeterogeneous()
	var stats BuildStats

	for i := range records {
		c := &records[i]
		stats.Claims++
		if c.ID == "" {
			stats.SkippedClaims++
			continue
		}

		candidates := []endpoint{
			{c.Provider, graph.KindProvider},
			{c.AttendingPhysician, graph.KindPhysician},
			{c.Patient, graph.KindPatient},
		}
		if opts.IncludeAllPhysicians {
			candidates = append(candidates,
				endpoint{c.OperatingPhysician, graph.KindPhysician},
				endpoint{c.OtherPhysician, graph.KindPhysician},
			)
		}

		n, _, err := g.EnsureNode(c.ID, graph.KindClaim)
		if err != nil {
			return nil, stats, fmt.Errorf("claim %q: %w", c.ID, err)
		}
		if n.Kind != graph.KindClaim {
			return nil, stats, keyConflict(c.ID, c.ID, n.Kind)
		}
		for _, ep := range candidates {
			if ep.key == "" {
				stats.DroppedEdges++
				continue
			}
			n, _, err := g.EnsureNode(ep.key, ep.kind)
			if err != nil {
				return nil, stats, fmt.Errorf("claim %q: %w", c.ID, err)
			}
			if n.Kind == graph.KindClaim {
				return nil, stats, keyConflict(c.ID, ep.key, ep.kind)
			}
			if err := g.AddEdge(c.ID, ep.key); err != nil {
				return nil, stats, fmt.Errorf("claim %q: %w", c.ID, err)
			}
		}
	}
	return g, stats, nil
}

func keyConflict(claimID, key string, kind graph.Kind) error {
	return fmt.Errorf("claim %q: %w: %q is both a claim and a %s (%w)",
		claimID, ErrClaimKeyConflict, key, kind, graph.ErrStarViolation)
}
