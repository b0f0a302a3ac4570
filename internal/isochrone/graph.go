package isochrone

import (
	"container/heap"
	"math"

	"github.com/ararat-labs/housing-cli/internal/geo"
	"github.com/ararat-labs/housing-cli/pkg/overpass"
)

// node is a graph vertex. Coordinates are quantized to 6 decimal places
// (~11cm) so vertices shared between ways merge into one node; this
// quantization is the de-duplication mechanism, not incidental rounding.
type node struct {
	Lat, Lng float64
}

func quantize(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

type edge struct {
	to      node
	seconds float64
}

// Graph is an undirected walk-time graph over road-network vertices.
type Graph struct {
	adj map[node][]edge
}

// BuildGraph converts an Overpass walk-network response into a graph.
// Consecutive way vertices become edges weighted by haversine distance at
// the given walking speed.
func BuildGraph(resp *overpass.Response, walkSpeedMps float64) *Graph {
	g := &Graph{adj: make(map[node][]edge)}
	for _, e := range resp.Elements {
		if e.Type != "way" || len(e.Geometry) < 2 {
			continue
		}
		prev := node{quantize(e.Geometry[0].Lat), quantize(e.Geometry[0].Lon)}
		for _, v := range e.Geometry[1:] {
			cur := node{quantize(v.Lat), quantize(v.Lon)}
			if cur == prev {
				continue
			}
			distM := geo.HaversineM(prev.Lat, prev.Lng, cur.Lat, cur.Lng)
			secs := distM / walkSpeedMps
			g.adj[prev] = append(g.adj[prev], edge{cur, secs})
			g.adj[cur] = append(g.adj[cur], edge{prev, secs})
			prev = cur
		}
	}
	return g
}

// NodeCount returns the number of vertices.
func (g *Graph) NodeCount() int { return len(g.adj) }

// Nearest returns the graph node closest to the point. A linear scan is
// fine; graphs are bounded by the isochrone's padded box.
func (g *Graph) Nearest(p geo.Point) (node, bool) {
	var best node
	bestD := math.Inf(1)
	for n := range g.adj {
		d := geo.HaversineM(p.Lat, p.Lng, n.Lat, n.Lng)
		if d < bestD {
			bestD = d
			best = n
		}
	}
	return best, !math.IsInf(bestD, 1)
}

type pqItem struct {
	n node
	t float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].t < pq[j].t }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)        { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Times runs Dijkstra from the source, capped at maxSeconds: nodes beyond
// the budget are never enqueued. Stale queue entries are skipped by lazy
// deletion (the distance map is the source of truth).
func (g *Graph) Times(source node, maxSeconds float64) map[node]float64 {
	dist := map[node]float64{source: 0}
	pq := &priorityQueue{{source, 0}}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		if d, ok := dist[item.n]; !ok || item.t != d {
			continue
		}
		for _, e := range g.adj[item.n] {
			nt := item.t + e.seconds
			if nt > maxSeconds {
				continue
			}
			if cur, ok := dist[e.to]; !ok || nt < cur {
				dist[e.to] = nt
				heap.Push(pq, pqItem{e.to, nt})
			}
		}
	}
	return dist
}
