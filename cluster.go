package codep

// disjoint set over dense indices with path compression and union by rank
type dsu struct {
	parent []int
	rank   []int
}

func newDSU(n int) *dsu {
	d := &dsu{
		parent: make([]int, n),
		rank:   make([]int, n),
	}

	for i := range d.parent {
		d.parent[i] = i
	}

	return d
}

// iterative find with path compression
func (d *dsu) find(x int) int {
	for d.parent[x] != x {
		d.parent[x] = d.parent[d.parent[x]]
		x = d.parent[x]
	}

	return x
}

func (d *dsu) union(a, b int) {
	rootA := d.find(a)
	rootB := d.find(b)

	if rootA == rootB {
		return
	}

	if d.rank[rootA] < d.rank[rootB] {
		d.parent[rootA] = rootB
	} else {
		d.parent[rootB] = rootA

		if d.rank[rootA] == d.rank[rootB] {
			d.rank[rootA]++
		}
	}
}

// AssignClusters groups the genes touched by the edge list into connected
// components and labels each edge with its 1-based cluster number. Gene rows
// are registered in first-appearance order over the edge list and cluster
// numbers follow the order each component root is first encountered in that
// scan, so the same edge list always produces the same labels. Genes with no
// edge do not appear. Returns row -> cluster plus the touched rows in
// discovery order.
func AssignClusters(edges []Edge) (map[int]int, []int) {
	slot := make(map[int]int) // gene row -> dense disjoint-set index

	var order []int // gene rows in discovery order

	touch := func(row int) {
		if _, ok := slot[row]; !ok {
			slot[row] = len(order)
			order = append(order, row)
		}
	}

	for _, e := range edges {
		touch(e.RowA)
		touch(e.RowB)
	}

	d := newDSU(len(order))

	for _, e := range edges {
		d.union(slot[e.RowA], slot[e.RowB])
	}

	labels := make(map[int]int) // root slot -> cluster number
	byRow := make(map[int]int, len(order))

	next := 1

	for i, row := range order {
		root := d.find(i)

		lbl, ok := labels[root]
		if !ok {
			lbl = next
			labels[root] = lbl
			next++
		}

		byRow[row] = lbl
	}

	for i := range edges {
		edges[i].Cluster = byRow[edges[i].RowA]
	}

	return byRow, order
}
