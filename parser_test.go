package openlr

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestParserString(t *testing.T) {
	cfg := DefaultOsmConfiguration()
	if err := cfg.ParseCostType("seconds->maxspeed->20"); err != nil {
		t.Error(err)
		return
	}
	parser := NewParser("map.osm", WithAgentType(AGENT_BIKE), WithOsmConfiguration(cfg), WithContraction(true))
	str := parser.String()
	for _, expected := range []string{"filename: 'map.osm'", "agent_type: 'bike'", "velocity: maxspeed (default 20.000000)", "contraction enabled?: true"} {
		if !strings.Contains(str, expected) {
			t.Errorf("Parser description must contain '%s', but got:%s", expected, str)
		}
	}
}

func TestParserParse(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "network.osm")
	if err := os.WriteFile(filename, []byte(testOSM), 0o644); err != nil {
		t.Error(err)
		return
	}
	for _, contract := range []bool{false, true} {
		engine, network, err := NewParser(filename, WithContraction(contract)).Parse(context.Background())
		if err != nil {
			t.Error(err)
			continue
		}
		if network.VerticesNum() != 4 {
			t.Errorf("Number of vertices must be %d, but got %d", 4, network.VerticesNum())
		}
		path, err := engine.FindShortestPath(context.Background(), 1, 4, false)
		if err != nil {
			t.Error(err)
			continue
		}
		if !reflect.DeepEqual(path, []VertexID{1, 2, 4}) {
			t.Errorf("Contraction %t: path must be [1 2 4], but got %v", contract, path)
		}
	}
	if _, _, err := NewParser(filepath.Join(t.TempDir(), "missing.osm")).Parse(context.Background()); err == nil {
		t.Errorf("Missing file must be reported")
	}
	if _, _, err := NewParser(filename, WithAgentType(AGENT_UNDEFINED)).Parse(context.Background()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Undefined agent must fail with %v, but got %v", ErrInvalidArgument, err)
	}
}
