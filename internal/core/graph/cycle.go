package graph

// reachable reports whether target can be reached from start by following
// binding edges. Each binding contributes the edges along its path, so filter
// nodes count as intermediate vertices.
func (g *NodeGraph) reachable(start, target string) bool {
	adj := make(map[string][]string, len(g.nodes))
	for _, b := range g.bindings {
		path := b.path()
		for i := 0; i+1 < len(path); i++ {
			adj[path[i]] = append(adj[path[i]], path[i+1])
		}
	}

	visited := make(map[string]bool, len(adj))
	var dfs func(string) bool
	dfs = func(u string) bool {
		if u == target {
			return true
		}
		visited[u] = true
		for _, v := range adj[u] {
			if !visited[v] && dfs(v) {
				return true
			}
		}
		return false
	}
	return dfs(start)
}

// wouldCycle reports whether an edge src -> dst closes a cycle.
func (g *NodeGraph) wouldCycle(src, dst string) bool {
	return g.reachable(dst, src)
}
