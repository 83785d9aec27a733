package openlr

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// OSMFormat is an encoding of OSM data
type OSMFormat uint16

const (
	OSM_XML = OSMFormat(iota + 1)
	OSM_PBF
)

func (iotaIdx OSMFormat) String() string {
	return [...]string{"xml", "pbf"}[iotaIdx-1]
}

// OSMScanner is common interface of osmxml and osmpbf scanners
type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

func newScanner(ctx context.Context, reader io.Reader, format OSMFormat) (OSMScanner, error) {
	switch format {
	case OSM_XML:
		return osmxml.New(ctx, reader), nil
	case OSM_PBF:
		return osmpbf.New(ctx, reader, 4), nil
	}
	return nil, errors.Wrapf(ErrInvalidArgument, "OSM format %d is not handled", format)
}

// FormatByFilename guesses OSM format from file extension
func FormatByFilename(filename string) (OSMFormat, error) {
	ext := filepath.Ext(filename)
	switch {
	case ext == ".osm" || ext == ".xml":
		return OSM_XML, nil
	case ext == ".pbf":
		return OSM_PBF, nil
	}
	return 0, errors.Wrapf(ErrInvalidArgument, "file extension '%s' for file '%s' is not handled yet", ext, filename)
}

// wayData is a filtered OSM way
type wayData struct {
	ID    osm.WayID
	Nodes []osm.NodeID
	Tags  osm.Tags
}

// nodeData is a node used by filtered ways. useCount > 1 makes the node a vertex
type nodeData struct {
	coordinate Coordinate
	useCount   int
}

// LoadOSM reads road network from *.osm or *.osm.pbf file
func LoadOSM(ctx context.Context, filename string, cfg *OsmConfiguration, logger zerolog.Logger) (*RoadNetwork, error) {
	format, err := FormatByFilename(filename)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("file", filename).Str("format", format.String()).Msg("opening OSM file")
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "File open")
	}
	defer file.Close()
	return ReadOSM(ctx, file, format, cfg, logger)
}

// ReadOSM reads road network from OSM data. Ways are filtered by configuration and split at shared nodes,
// OSM node identifiers become vertex identifiers
func ReadOSM(ctx context.Context, reader io.ReadSeeker, format OSMFormat, cfg *OsmConfiguration, logger zerolog.Logger) (*RoadNetwork, error) {
	if cfg == nil {
		cfg = DefaultOsmConfiguration()
	}
	entityName := cfg.EntityName
	if entityName == "" {
		entityName = "highway"
	}

	/* Process ways */
	st := time.Now()
	ways := []wayData{}
	nodes := make(map[osm.NodeID]*nodeData)
	{
		scannerWays, err := newScanner(ctx, reader, format)
		if err != nil {
			return nil, err
		}
		for scannerWays.Scan() {
			obj := scannerWays.Object()
			if obj.ObjectID().Type() != osm.TypeWay {
				continue
			}
			way := obj.(*osm.Way)
			tag := way.Tags.Find(entityName)
			if tag == "" || !cfg.CheckTag(tag) {
				continue
			}
			if len(way.Nodes) < 2 {
				continue
			}
			prepared := wayData{
				ID:    way.ID,
				Nodes: make([]osm.NodeID, 0, len(way.Nodes)),
				Tags:  make(osm.Tags, len(way.Tags)),
			}
			copy(prepared.Tags, way.Tags)
			for _, node := range way.Nodes {
				prepared.Nodes = append(prepared.Nodes, node.ID)
				nodes[node.ID] = nil
			}
			ways = append(ways, prepared)
		}
		err = scannerWays.Err()
		scannerWays.Close()
		if err != nil {
			return nil, errors.Wrap(err, "Scanner error on Ways")
		}
	}
	logger.Info().Int("ways", len(ways)).Dur("elapsed", time.Since(st)).Msg("ways scanned")

	// Seek file to start
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	st = time.Now()
	{
		scannerNodes, err := newScanner(ctx, reader, format)
		if err != nil {
			return nil, err
		}
		for scannerNodes.Scan() {
			obj := scannerNodes.Object()
			if obj.ObjectID().Type() != osm.TypeNode {
				continue
			}
			node := obj.(*osm.Node)
			if _, ok := nodes[node.ID]; ok {
				nodes[node.ID] = &nodeData{coordinate: Coordinate{Lat: node.Lat, Lon: node.Lon}}
			}
		}
		err = scannerNodes.Err()
		scannerNodes.Close()
		if err != nil {
			return nil, errors.Wrap(err, "Scanner error on Nodes")
		}
	}
	logger.Info().Int("nodes", len(nodes)).Dur("elapsed", time.Since(st)).Msg("nodes scanned")

	/* Count node use cases */
	prepared := ways[:0]
	for _, way := range ways {
		complete := true
		for _, nodeID := range way.Nodes {
			if nodes[nodeID] == nil {
				complete = false
				break
			}
		}
		if !complete {
			logger.Warn().Int64("way", int64(way.ID)).Msg("way references missing nodes, skipping it")
			continue
		}
		for i, nodeID := range way.Nodes {
			if i == 0 || i == len(way.Nodes)-1 {
				nodes[nodeID].useCount += 2
			} else {
				nodes[nodeID].useCount++
			}
		}
		prepared = append(prepared, way)
	}

	/* Prepare edges */
	st = time.Now()
	network := NewRoadNetwork()
	for _, way := range prepared {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		source := way.Nodes[0]
		geometry := []Coordinate{nodes[source].coordinate}
		for _, nodeID := range way.Nodes[1:] {
			node := nodes[nodeID]
			geometry = append(geometry, node.coordinate)
			if node.useCount <= 1 {
				continue
			}
			if err := network.addOSMEdge(source, nodeID, nodes, way.Tags, geometry); err != nil {
				return nil, errors.Wrapf(err, "way %d", way.ID)
			}
			source = nodeID
			geometry = []Coordinate{node.coordinate}
		}
	}
	logger.Info().
		Int("vertices", network.VerticesNum()).
		Int("edges", network.EdgesNum()).
		Dur("elapsed", time.Since(st)).
		Msg("road network prepared")
	return network, nil
}

func (network *RoadNetwork) addOSMEdge(source, target osm.NodeID, nodes map[osm.NodeID]*nodeData, tags osm.Tags, geometry []Coordinate) error {
	from, to := VertexID(source), VertexID(target)
	if _, ok := network.vertices[from]; !ok {
		if err := network.AddVertex(from, nodes[source].coordinate); err != nil {
			return err
		}
	}
	if _, ok := network.vertices[to]; !ok {
		if err := network.AddVertex(to, nodes[target].coordinate); err != nil {
			return err
		}
	}
	_, err := network.AddEdge(from, to, tags, geometry)
	return err
}
