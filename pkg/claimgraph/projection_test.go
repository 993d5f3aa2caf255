package claimgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-fraudgraph/pkg/claims"
)

func projectionFixture() []claims.Claim {
	return []claims.Claim{
		claim("C1", "PRV1", "PHY1", "B1"),
		claim("C2", "PRV2", "PHY2", "B1"), // PRV1-PRV2 via patient
		claim("C3", "PRV3", "PHY2", "B2"), // PRV2-PRV3 via physician
		claim("C4", "PRV1", "PHY1", "B3"), // same provider, no pair
		claim("C5", "PRV3", "", "B2"),
		claim("C6", "PRV2", "PHY2", "B2"), // PRV2-PRV3 via patient too
		claim("C7", "", "PHY1", "B1"),     // no provider
	}
}

func TestMemoryProjector_Collapse(t *testing.T) {
	p, err := MemoryProjector{}.Project(context.Background(), projectionFixture())
	require.NoError(t, err)

	assert.Equal(t, SymmetricCollapse, p.Mode)
	assert.Equal(t, []Pair{
		{A: "PRV1", B: "PRV2", Via: ViaPatient},
		{A: "PRV2", B: "PRV3", Via: ViaPatient | ViaPhysician},
	}, p.Pairs)
	assert.Equal(t, []string{"PRV1", "PRV2", "PRV3"}, p.Providers)
	assert.Equal(t, "patient+physician", p.Pairs[1].Via.String())

	g, err := p.Graph()
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
}

func TestMemoryProjector_Keep(t *testing.T) {
	p, err := MemoryProjector{Mode: SymmetricKeep}.Project(context.Background(), projectionFixture())
	require.NoError(t, err)

	require.Len(t, p.Pairs, 4)
	assert.Equal(t, Pair{A: "PRV2", B: "PRV1", Via: ViaPatient}, p.Pairs[1])

	g, err := p.Graph()
	require.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount(), "directions fold into one undirected edge")
}

func TestMemoryProjector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := MemoryProjector{}.Project(ctx, projectionFixture())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDuckDBProjector_MatchesMemory(t *testing.T) {
	for _, mode := range []SymmetricMode{SymmetricCollapse, SymmetricKeep} {
		t.Run(string(mode), func(t *testing.T) {
			want, err := MemoryProjector{Mode: mode}.Project(context.Background(), projectionFixture())
			require.NoError(t, err)
			got, err := DuckDBProjector{Mode: mode}.Project(context.Background(), projectionFixture())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestProjection_NeverSelfPair(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	rowGen := gen.SliceOfN(3, gen.IntRange(0, 4))
	properties.Property("no pair joins a provider to itself", prop.ForAll(
		func(rows [][]int) bool {
			records := make([]claims.Claim, len(rows))
			for i, r := range rows {
				records[i] = claim(fmt.Sprintf("C%d", i),
					fmt.Sprintf("PRV%d", r[0]),
					fmt.Sprintf("PHY%d", r[1]),
					fmt.Sprintf("B%d", r[2]))
			}
			for _, mode := range []SymmetricMode{SymmetricCollapse, SymmetricKeep} {
				p, err := MemoryProjector{Mode: mode}.Project(context.Background(), records)
				if err != nil {
					return false
				}
				for _, pair := range p.Pairs {
					if pair.A == pair.B {
						return false
					}
					if mode == SymmetricCollapse && pair.A > pair.B {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(rowGen),
	))

	properties.TestingRun(t)
}
