package claimgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
	"github.com/dd0wney/cluso-fraudgraph/pkg/graph"
)

func claim(id, provider, physician, patient string) claims.Claim {
	return claims.Claim{ID: id, Provider: provider, AttendingPhysician: physician, Patient: patient}
}

func TestBuildHeterogeneous_SingleClaim(t *testing.T) {
	g, stats, err := BuildHeterogeneous([]claims.Claim{claim("CLM1", "PRV1", "PHY1", "BENE1")}, HeteroOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, 0, stats.DroppedEdges)

	kinds := map[string]graph.Kind{
		"CLM1":  graph.KindClaim,
		"PRV1":  graph.KindProvider,
		"PHY1":  graph.KindPhysician,
		"BENE1": graph.KindPatient,
	}
	for key, kind := range kinds {
		n, ok := g.Node(key)
		require.True(t, ok, key)
		assert.Equal(t, kind, n.Kind, key)
		assert.True(t, g.HasEdge("CLM1", key) || key == "CLM1")
	}
}

func TestBuildHeterogeneous_SameIdentityCollapses(t *testing.T) {
	g, _, err := BuildHeterogeneous([]claims.Claim{claim("CLM1", "X", "X", "BENE1")}, HeteroOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	n, _ := g.Node("X")
	assert.Equal(t, graph.KindProvider, n.Kind, "first kind wins")
}

func TestBuildHeterogeneous_MissingPhysician(t *testing.T) {
	g, stats, err := BuildHeterogeneous([]claims.Claim{claim("CLM1", "PRV1", "", "BENE1")}, HeteroOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 3, g.NodeCount())
	assert.True(t, g.HasEdge("CLM1", "PRV1"))
	assert.True(t, g.HasEdge("CLM1", "BENE1"))
	assert.Equal(t, 1, stats.DroppedEdges)
}

func TestBuildHeterogeneous_SharedEntities(t *testing.T) {
	records := []claims.Claim{
		claim("CLM1", "PRV1", "PHY1", "BENE1"),
		claim("CLM2", "PRV1", "PHY2", "BENE1"),
		claim("", "PRV9", "PHY9", "BENE9"),
	}
	g, stats, err := BuildHeterogeneous(records, HeteroOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SkippedClaims)
	assert.Equal(t, map[graph.Kind]int{
		graph.KindClaim:     2,
		graph.KindProvider:  1,
		graph.KindPhysician: 2,
		graph.KindPatient:   1,
	}, g.KindCounts())
	assert.Equal(t, 6, g.EdgeCount())

	deg, err := g.Degree("PRV1")
	require.NoError(t, err)
	assert.Equal(t, 2, deg)
}

func TestBuildHeterogeneous_AllPhysicians(t *testing.T) {
	c := claim("CLM1", "PRV1", "PHY1", "BENE1")
	c.OperatingPhysician = "PHY2"

	g, stats, err := BuildHeterogeneous([]claims.Claim{c}, HeteroOptions{IncludeAllPhysicians: true})
	require.NoError(t, err)
	assert.Equal(t, 4, g.EdgeCount())
	assert.Equal(t, 1, stats.DroppedEdges, "other physician missing")
}

func TestBuildHeterogeneous_ClaimClaimRejected(t *testing.T) {
	records := []claims.Claim{
		claim("CLM1", "PRV1", "PHY1", "BENE1"),
		claim("CLM2", "PRV1", "PHY1", "CLM1"),
	}
	_, _, err := BuildHeterogeneous(records, HeteroOptions{})
	assert.ErrorIs(t, err, graph.ErrStarViolation)
	assert.ErrorIs(t, err, ErrClaimKeyConflict)
	assert.Contains(t, err.Error(), `"CLM1" is both a claim and a patient`)
}

func TestBuildHeterogeneous_ClaimIDMatchesEarlierPatient(t *testing.T) {
	records := []claims.Claim{
		claim("CLM1", "PRV1", "PHY1", "42"),
		claim("42", "PRV2", "PHY2", "BENE2"),
	}
	_, _, err := BuildHeterogeneous(records, HeteroOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClaimKeyConflict)
	assert.ErrorIs(t, err, graph.ErrStarViolation)
	assert.Contains(t, err.Error(), `"42" is both a claim and a patient`)
}
