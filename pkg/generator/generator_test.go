package generator

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferentialAttachment_InvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		n, m int
	}{
		{"zero nodes", 0, 1},
		{"negative nodes", -5, 1},
		{"zero attachment", 10, 0},
		{"negative attachment", 10, -1},
		{"attachment not below nodes", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := PreferentialAttachment(tt.n, tt.m, 1)
			assert.ErrorIs(t, err, ErrInvalidParameter)
			assert.Nil(t, g)
		})
	}
}

func TestPreferentialAttachment_SmallestGraph(t *testing.T) {
	g, err := PreferentialAttachment(2, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestPreferentialAttachment_Deterministic(t *testing.T) {
	a, err := PreferentialAttachment(100, 2, 42)
	require.NoError(t, err)
	b, err := PreferentialAttachment(100, 2, 42)
	require.NoError(t, err)
	assert.Equal(t, a.Edges(), b.Edges())
}

func TestPreferentialAttachmentProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 40
	properties := gopter.NewProperties(parameters)

	properties.Property("edge count is (n-m)*m", prop.ForAll(
		func(n, m int, seed uint64) bool {
			if m >= n {
				return true
			}
			g, err := PreferentialAttachment(n, m, seed)
			if err != nil {
				return false
			}
			return g.NodeCount() == n && g.EdgeCount() == (n-m)*m
		},
		gen.IntRange(2, 120),
		gen.IntRange(1, 5),
		gen.UInt64(),
	))

	properties.Property("no isolated nodes and added nodes have degree >= m", prop.ForAll(
		func(n, m int, seed uint64) bool {
			if m >= n {
				return true
			}
			g, err := PreferentialAttachment(n, m, seed)
			if err != nil {
				return false
			}
			for _, node := range g.Nodes() {
				deg, err := g.Degree(node.Key)
				if err != nil || deg == 0 {
					return false
				}
				if node.ID > int64(m) && deg < m {
					return false
				}
			}
			return true
		},
		gen.IntRange(2, 120),
		gen.IntRange(1, 5),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
