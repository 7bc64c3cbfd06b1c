package codep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(a, b int) Edge {
	return Edge{GeneA: geneName(a), GeneB: geneName(b), RowA: a, RowB: b}
}

func geneName(row int) string {
	return string(rune('A' + row))
}

func TestAssignClustersTwoComponents(t *testing.T) {
	// A-B, B-C and D-E: {A,B,C} and {D,E}
	edges := []Edge{edge(0, 1), edge(1, 2), edge(3, 4)}

	byRow, order := AssignClusters(edges)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)

	assert.Equal(t, byRow[0], byRow[1])
	assert.Equal(t, byRow[1], byRow[2])
	assert.Equal(t, byRow[3], byRow[4])
	assert.NotEqual(t, byRow[0], byRow[3])

	// labels are 1-based in first-discovery order
	assert.Equal(t, 1, byRow[0])
	assert.Equal(t, 2, byRow[3])

	// every edge carries its component label
	for _, e := range edges {
		assert.Equal(t, byRow[e.RowA], e.Cluster)
		assert.Equal(t, byRow[e.RowB], e.Cluster)
	}
}

func TestAssignClustersEdgeOrderInvariantMembership(t *testing.T) {
	base := []Edge{edge(0, 1), edge(1, 2), edge(3, 4)}

	permutations := [][]Edge{
		{edge(3, 4), edge(1, 2), edge(0, 1)},
		{edge(1, 2), edge(3, 4), edge(0, 1)},
		{edge(0, 1), edge(3, 4), edge(1, 2)},
	}

	wantGroups := partition(base)

	for i, perm := range permutations {
		assert.Equal(t, wantGroups, partition(perm), "permutation %d", i)
	}
}

// partition maps every touched row to the sorted member set of its component,
// which is what must be invariant to edge input order
func partition(edges []Edge) map[int]map[int]bool {
	byRow, order := AssignClusters(edges)

	members := make(map[int]map[int]bool)

	for _, row := range order {
		lbl := byRow[row]

		if members[lbl] == nil {
			members[lbl] = make(map[int]bool)
		}

		members[lbl][row] = true
	}

	out := make(map[int]map[int]bool)

	for _, row := range order {
		out[row] = members[byRow[row]]
	}

	return out
}

func TestAssignClustersIsolatedGenesExcluded(t *testing.T) {
	byRow, order := AssignClusters([]Edge{edge(5, 9)})

	assert.Len(t, byRow, 2)
	assert.Equal(t, []int{5, 9}, order)

	_, ok := byRow[0]
	assert.False(t, ok, "untouched gene must not receive a cluster")
}

func TestAssignClustersEmpty(t *testing.T) {
	byRow, order := AssignClusters(nil)

	assert.Empty(t, byRow)
	assert.Empty(t, order)
}

func TestAssignClustersDeterministic(t *testing.T) {
	edges := []Edge{edge(7, 2), edge(2, 9), edge(1, 4), edge(9, 7)}

	first, firstOrder := AssignClusters(edges)
	second, secondOrder := AssignClusters(edges)

	assert.Equal(t, first, second)
	assert.Equal(t, firstOrder, secondOrder)
}

func TestDSUChain(t *testing.T) {
	d := newDSU(6)

	d.union(0, 1)
	d.union(1, 2)
	d.union(4, 5)

	require.Equal(t, d.find(0), d.find(2))
	assert.NotEqual(t, d.find(0), d.find(3))
	assert.Equal(t, d.find(4), d.find(5))
}
