package netsim

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// RoutingTable holds RP's two per-on-router tables (spec.md §4.6): a
// normal shortest-path table over the on-router subgraph, and an escape
// table following a BFS spanning tree rooted at the fabric manager with
// up*/down* ordering induced by BFS level — provably acyclic, so routing
// a packet along it can never deadlock.
type RoutingTable struct {
	route  map[RouterID]map[RouterID]Port
	escape map[RouterID]map[RouterID]Port
}

// BuildRoutingTable builds both tables for net's current on-router vector.
// It fails (spec.md §7 kind 4, §4.6 invariant) when the escape tree rooted
// at the fabric manager does not reach every on-router.
func BuildRoutingTable(net *Network) (*RoutingTable, error) {
	onIDs := onRouterIDs(net)
	g := buildOnRouterGraph(net, onIDs)

	rt := &RoutingTable{
		route:  make(map[RouterID]map[RouterID]Port, len(onIDs)),
		escape: make(map[RouterID]map[RouterID]Port, len(onIDs)),
	}
	for _, src := range onIDs {
		rt.route[src] = dijkstraNextHops(net, g, src, onIDs)
	}

	parent, visited := bfsTree(net, onIDs, net.FabricManager)
	if len(visited) != len(onIDs) {
		return nil, fmt.Errorf("netsim: RP escape table: on-router subgraph disconnected from fabric_manager %d (%d/%d on-routers reachable)",
			net.FabricManager, len(visited), len(onIDs))
	}
	tree := buildTreeGraph(parent)
	for _, src := range onIDs {
		rt.escape[src] = dijkstraNextHops(net, tree, src, onIDs)
	}
	return rt, nil
}

// RouteHop looks up the normal-table next hop from src toward dest,
// restricted to VC range [vcStart, vcEnd]. ok is false if dest is
// unreachable from src in the on-router subgraph (arrived destinations
// route Local, handled by the caller before consulting the table).
func (rt *RoutingTable) RouteHop(src, dest RouterID, vcStart, vcEnd int) (RouteHop, bool) {
	return lookup(rt.route, src, dest, vcStart, vcEnd)
}

// EscapeHop looks up the escape-table next hop from src toward dest,
// restricted to VC range [vcStart, vcEnd] (spec.md §4.6 BuildEscRoute).
func (rt *RoutingTable) EscapeHop(src, dest RouterID, vcStart, vcEnd int) (RouteHop, bool) {
	return lookup(rt.escape, src, dest, vcStart, vcEnd)
}

func lookup(table map[RouterID]map[RouterID]Port, src, dest RouterID, vcStart, vcEnd int) (RouteHop, bool) {
	if src == dest {
		return RouteHop{Port: Local, VCStart: vcStart, VCEnd: vcEnd}, true
	}
	byDest, ok := table[src]
	if !ok {
		return RouteHop{}, false
	}
	p, ok := byDest[dest]
	if !ok {
		return RouteHop{}, false
	}
	return RouteHop{Port: p, VCStart: vcStart, VCEnd: vcEnd}, true
}

func onRouterIDs(net *Network) []RouterID {
	ids := make([]RouterID, 0, net.NumRouters())
	for id := 0; id < net.NumRouters(); id++ {
		if net.isOnRouter(RouterID(id)) {
			ids = append(ids, RouterID(id))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// buildOnRouterGraph builds an undirected graph whose nodes are on-router
// ids and whose edges are mesh adjacencies between two on-routers.
func buildOnRouterGraph(net *Network, onIDs []RouterID) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for _, id := range onIDs {
		g.AddNode(simple.Node(int64(id)))
	}
	for _, id := range onIDs {
		r := net.Router(id)
		for _, p := range []Port{North, East, South, West} {
			nb := r.neighbors[p]
			if nb == NoNeighbor || !net.isOnRouter(nb) {
				continue
			}
			if !g.HasEdgeBetween(int64(id), int64(nb)) {
				g.SetEdge(simple.Edge{F: simple.Node(int64(id)), T: simple.Node(int64(nb))})
			}
		}
	}
	return g
}

// dijkstraNextHops runs gonum's Dijkstra shortest path from src over g and
// records, for every other on-router id, the port leading to the first
// hop on the shortest path.
func dijkstraNextHops(net *Network, g graph.Graph, src RouterID, onIDs []RouterID) map[RouterID]Port {
	next := make(map[RouterID]Port, len(onIDs))
	if g.Node(int64(src)) == nil {
		return next
	}
	shortest := path.DijkstraFrom(simple.Node(int64(src)), g)
	for _, dest := range onIDs {
		if dest == src {
			continue
		}
		nodes, _ := shortest.To(int64(dest))
		if len(nodes) < 2 {
			continue
		}
		firstHop := RouterID(nodes[1].ID())
		next[dest] = portToward(net, src, firstHop)
	}
	return next
}

// bfsTree runs a breadth-first search from root over the on-router
// subgraph, returning each visited node's parent (root has no entry) and
// the set of visited ids — the spanning tree of spec.md §4.6
// BuildEscRoute, whose BFS-level ordering is the up*/down* ordering that
// makes escape routing provably acyclic.
func bfsTree(net *Network, onIDs []RouterID, root RouterID) (parent map[RouterID]RouterID, visited map[RouterID]bool) {
	parent = make(map[RouterID]RouterID)
	visited = make(map[RouterID]bool, len(onIDs))
	if !net.isOnRouter(root) {
		return parent, visited
	}
	queue := []RouterID{root}
	visited[root] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		r := net.Router(cur)
		for _, p := range []Port{North, East, South, West} {
			nb := r.neighbors[p]
			if nb == NoNeighbor || !net.isOnRouter(nb) || visited[nb] {
				continue
			}
			visited[nb] = true
			parent[nb] = cur
			queue = append(queue, nb)
		}
	}
	return parent, visited
}

// buildTreeGraph materializes the BFS spanning tree as its own undirected
// graph so Dijkstra over it (spec.md §4.6: "Dijkstra over that tree")
// yields the unique tree path to any node.
func buildTreeGraph(parent map[RouterID]RouterID) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for child, p := range parent {
		if g.Node(int64(child)) == nil {
			g.AddNode(simple.Node(int64(child)))
		}
		if g.Node(int64(p)) == nil {
			g.AddNode(simple.Node(int64(p)))
		}
		g.SetEdge(simple.Edge{F: simple.Node(int64(p)), T: simple.Node(int64(child))})
	}
	return g
}

// portToward returns the compass port at router src leading to its mesh
// neighbor next. Panics if next is not one of src's four immediate mesh
// neighbors — an internal invariant violation, since both tables are only
// ever built from graph edges that came from neighbors[p] in the first
// place.
func portToward(net *Network, src, next RouterID) Port {
	r := net.Router(src)
	for _, p := range []Port{North, East, South, West} {
		if r.neighbors[p] == next {
			return p
		}
	}
	panic(fmt.Sprintf("netsim: portToward: router %d has no port toward non-adjacent router %d", src, next))
}
