package search

import "testing"

// line graph 0-1-2-...-9
func lineNeighbors(n int) []int {
	var out []int
	if n > 0 {
		out = append(out, n-1)
	}
	if n < 9 {
		out = append(out, n+1)
	}
	return out
}

func TestBFS_ZeroHopsEmpty(t *testing.T) {
	if got := BFS(5, lineNeighbors, 0); len(got) != 0 {
		t.Fatalf("maxHops=0 should be empty, got %v", got)
	}
}

func TestBFS_ExcludesStartAndRespectsHops(t *testing.T) {
	got := BFS(5, lineNeighbors, 2)
	want := map[int]bool{3: true, 4: true, 6: true, 7: true}
	if len(got) != len(want) {
		t.Fatalf("got %v want keys %v", got, want)
	}
	for _, n := range got {
		if !want[n] {
			t.Fatalf("unexpected node %d in %v", n, got)
		}
	}
}

func TestBFS_Monotonic(t *testing.T) {
	prev := 0
	for hops := 0; hops <= 12; hops++ {
		n := len(BFS(0, lineNeighbors, hops))
		if n < prev {
			t.Fatalf("result shrank at hops=%d: %d < %d", hops, n, prev)
		}
		prev = n
	}
}

func TestBFS_CycleSafe(t *testing.T) {
	// triangle a-b-c-a
	adj := map[string][]string{
		"a": {"b", "c"},
		"b": {"c", "a"},
		"c": {"a", "b"},
	}
	got := BFS("a", func(s string) []string { return adj[s] }, 100)
	if len(got) != 2 {
		t.Fatalf("triangle from a: want 2 nodes, got %v", got)
	}
}

func TestBFS_DisconnectedTerminates(t *testing.T) {
	got := BFS(1, func(int) []int { return nil }, 1000)
	if len(got) != 0 {
		t.Fatalf("isolated node should reach nothing, got %v", got)
	}
}
