package openlr

import (
	"sort"
	"time"

	"github.com/LdDl/ch"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ContractedNetwork answers shortest path queries over contraction hierarchies of a RoadNetwork.
// Implements VertexRouter
type ContractedNetwork struct {
	forward  *ch.Graph
	backward *ch.Graph
}

type vertexPair struct {
	from VertexID
	to   VertexID
}

// Contract prepares contraction hierarchies for given vehicle. backward graph holds reversed edges
// so that searches along incoming edges are answered by the same machinery
func (network *RoadNetwork) Contract(vehicle VehicleProfile, logger zerolog.Logger) (*ContractedNetwork, error) {
	st := time.Now()
	weights := make(map[vertexPair]float64)
	addArc := func(from, to VertexID, weight float64) {
		if from == to {
			return
		}
		key := vertexPair{from, to}
		if current, ok := weights[key]; ok && current <= weight {
			return
		}
		weights[key] = weight
	}
	for _, edge := range network.edges {
		if !vehicle.CanTraverse(edge.Tags) {
			continue
		}
		weight := vehicle.Weight(edge.Tags, edge.Length)
		if weight < 0 {
			weight = 0
		}
		oneway := vehicle.IsOneWay(edge.Tags)
		if oneway == nil || *oneway {
			addArc(edge.From, edge.To, weight)
		}
		if oneway == nil || !*oneway {
			addArc(edge.To, edge.From, weight)
		}
	}

	contracted := &ContractedNetwork{
		forward:  &ch.Graph{},
		backward: &ch.Graph{},
	}
	vertices := make([]VertexID, 0, len(network.vertices))
	for vertex := range network.vertices {
		vertices = append(vertices, vertex)
	}
	sort.Slice(vertices, func(i, j int) bool { return vertices[i] < vertices[j] })
	for _, vertex := range vertices {
		if err := contracted.forward.CreateVertex(int64(vertex)); err != nil {
			return nil, errors.Wrapf(err, "can't create vertex %d", vertex)
		}
		if err := contracted.backward.CreateVertex(int64(vertex)); err != nil {
			return nil, errors.Wrapf(err, "can't create vertex %d", vertex)
		}
	}
	pairs := make([]vertexPair, 0, len(weights))
	for pair := range weights {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].from == pairs[j].from {
			return pairs[i].to < pairs[j].to
		}
		return pairs[i].from < pairs[j].from
	})
	for _, pair := range pairs {
		weight := weights[pair]
		if err := contracted.forward.AddEdge(int64(pair.from), int64(pair.to), weight); err != nil {
			return nil, errors.Wrapf(err, "can't add edge %d -> %d", pair.from, pair.to)
		}
		if err := contracted.backward.AddEdge(int64(pair.to), int64(pair.from), weight); err != nil {
			return nil, errors.Wrapf(err, "can't add reversed edge %d -> %d", pair.to, pair.from)
		}
	}
	contracted.forward.PrepareContractionHierarchies()
	contracted.backward.PrepareContractionHierarchies()
	logger.Info().
		Int("vertices", len(network.vertices)).
		Int("arcs", len(weights)).
		Dur("elapsed", time.Since(st)).
		Msg("contraction hierarchies prepared")
	return contracted, nil
}

// ShortestPath implements VertexRouter
func (contracted *ContractedNetwork) ShortestPath(from, to VertexID, reverse bool) []VertexID {
	graph := contracted.forward
	if reverse {
		graph = contracted.backward
	}
	cost, path := graph.ShortestPath(int64(from), int64(to))
	if cost < 0 || len(path) == 0 {
		return nil
	}
	vertices := make([]VertexID, len(path))
	for i, vertex := range path {
		vertices[i] = VertexID(vertex)
	}
	return vertices
}
