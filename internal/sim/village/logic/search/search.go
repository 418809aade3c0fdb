// Package search provides a generic breadth-first traversal over an
// implicit graph given by a neighbor function. The road reachability
// queries are built on it; nothing here knows about tiles or roads.
package search

// BFS walks outward from start up to maxHops edges and returns every node
// reached, excluding start, in visit order. The visited set makes it
// cycle-safe; a nil neighbor slice or maxHops <= 0 yields an empty result.
func BFS[N comparable](start N, neighbors func(N) []N, maxHops int) []N {
	if maxHops <= 0 {
		return nil
	}
	type entry struct {
		node N
		hops int
	}
	visited := map[N]bool{start: true}
	queue := []entry{{node: start, hops: 0}}
	var out []N
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hops >= maxHops {
			continue
		}
		for _, n := range neighbors(cur.node) {
			if visited[n] {
				continue
			}
			visited[n] = true
			out = append(out, n)
			queue = append(queue, entry{node: n, hops: cur.hops + 1})
		}
	}
	return out
}
