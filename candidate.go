package openlr

import (
	"sort"
)

// CandidateVertexEdge is a vertex-edge pair proposed as a match for a location reference point
type CandidateVertexEdge struct {
	Vertex VertexID
	// Target is the other end of Edge
	Target VertexID
	Edge   Edge
	Score  float64

	discovery int
}

// compareCandidates orders by descending score. Equal scores are resolved by discovery order,
// so the comparison never reports equality for distinct candidates
func compareCandidates(a, b CandidateVertexEdge) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	case a.discovery < b.discovery:
		return -1
	case a.discovery > b.discovery:
		return 1
	}
	return 0
}

// SortCandidates sorts candidates by descending score keeping discovery order on ties
func SortCandidates(candidates []CandidateVertexEdge) {
	for i := range candidates {
		candidates[i].discovery = i
	}
	sort.Slice(candidates, func(i, j int) bool {
		return compareCandidates(candidates[i], candidates[j]) < 0
	})
}
