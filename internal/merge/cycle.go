package merge

import (
	"fmt"
	"strings"
)

// CycleError describes members of one scope that replace each other.
type CycleError struct {
	Scope string
	// Cycle lists the members along one replacement loop, starting at the
	// first-discovered member. Each entry replaces the next; the last entry
	// replaces the first.
	Cycle []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return "replacement cycle in scope " + e.Scope
	}
	path := append(append([]string(nil), e.Cycle...), e.Cycle[0])
	return fmt.Sprintf("replacement cycle in scope %s: %s", e.Scope, strings.Join(path, " -> "))
}

// replaceGraph is a directed graph of "replaces" edges between the members of
// one scope. Nodes keep insertion order so cycle output is deterministic.
type replaceGraph struct {
	adjacency map[MemberRef][]MemberRef
	nodes     []MemberRef
	nodeSet   map[MemberRef]bool
}

func newReplaceGraph() *replaceGraph {
	return &replaceGraph{
		adjacency: make(map[MemberRef][]MemberRef),
		nodeSet:   make(map[MemberRef]bool),
	}
}

func (g *replaceGraph) addNode(ref MemberRef) {
	if g.nodeSet[ref] {
		return
	}
	g.nodeSet[ref] = true
	g.nodes = append(g.nodes, ref)
}

func (g *replaceGraph) addEdge(from, to MemberRef) {
	g.addNode(from)
	g.addNode(to)
	for _, existing := range g.adjacency[from] {
		if existing == to {
			return
		}
	}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// cycles returns one replacement loop per strongly connected component with
// more than one node. Each loop starts at the component's earliest node and
// follows the shortest path back to it. Loops are returned in the order of
// their first node. Self loops are never added to the graph.
func (g *replaceGraph) cycles() [][]MemberRef {
	var (
		index   = 0
		stack   []MemberRef
		onStack = make(map[MemberRef]bool)
		indices = make(map[MemberRef]int)
		lowlink = make(map[MemberRef]int)
		comps   [][]MemberRef
	)

	var connect func(v MemberRef)
	connect = func(v MemberRef) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.adjacency[v] {
			if _, seen := indices[w]; !seen {
				connect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] != indices[v] {
			return
		}
		var comp []MemberRef
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		if len(comp) > 1 {
			comps = append(comps, comp)
		}
	}

	for _, v := range g.nodes {
		if _, seen := indices[v]; !seen {
			connect(v)
		}
	}

	order := make(map[MemberRef]int, len(g.nodes))
	for i, v := range g.nodes {
		order[v] = i
	}
	loops := make([][]MemberRef, 0, len(comps))
	for _, comp := range comps {
		sortRefsBy(comp, order)
		loops = append(loops, g.loopFrom(comp))
	}
	sortComponents(loops, order)
	return loops
}

// loopFrom walks breadth-first inside comp from its first node and returns
// the shortest path leading back to it.
func (g *replaceGraph) loopFrom(comp []MemberRef) []MemberRef {
	start := comp[0]
	inComp := make(map[MemberRef]bool, len(comp))
	for _, ref := range comp {
		inComp[ref] = true
	}

	parent := map[MemberRef]MemberRef{}
	queue := []MemberRef{start}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, w := range g.adjacency[v] {
			if !inComp[w] {
				continue
			}
			if w == start {
				path := []MemberRef{v}
				for v != start {
					v = parent[v]
					path = append(path, v)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			if _, seen := parent[w]; seen {
				continue
			}
			parent[w] = v
			queue = append(queue, w)
		}
	}
	return comp
}

func sortRefsBy(refs []MemberRef, order map[MemberRef]int) {
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0 && order[refs[j]] < order[refs[j-1]]; j-- {
			refs[j], refs[j-1] = refs[j-1], refs[j]
		}
	}
}

func sortComponents(comps [][]MemberRef, order map[MemberRef]int) {
	for i := 1; i < len(comps); i++ {
		for j := i; j > 0 && order[comps[j][0]] < order[comps[j-1][0]]; j-- {
			comps[j], comps[j-1] = comps[j-1], comps[j]
		}
	}
}
