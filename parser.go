package openlr

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Parser prepares search engine for OSM file
type Parser struct {
	filename  string
	agentType AgentType
	cfg       *OsmConfiguration
	contract  bool
	logger    zerolog.Logger
}

func (parser *Parser) String() string {
	vlim := "-"
	if parser.cfg.VLim != nil {
		vlim = fmt.Sprintf("%s (default %f)", parser.cfg.VLim.Tag, parser.cfg.VLim.Default)
	}
	return fmt.Sprintf(`
Network parser parameters:
	filename: '%s'
	agent_type: '%s'
	entity_name: '%s'
	tags: '%s'
	cost_type: '%s'
	velocity: %s
	contraction enabled?: %t
	`,
		parser.filename,
		parser.agentType,
		parser.cfg.EntityName,
		strings.Join(parser.cfg.Tags, ","),
		parser.cfg.CostType,
		vlim,
		parser.contract,
	)
}

func NewParser(fileName string, options ...func(*Parser)) *Parser {
	parser := &Parser{
		filename:  fileName,
		agentType: AGENT_AUTO,
		cfg:       DefaultOsmConfiguration(),
		contract:  false,
		logger:    zerolog.Nop(),
	}
	for _, option := range options {
		option(parser)
	}
	return parser
}

func WithAgentType(agentType AgentType) func(*Parser) {
	return func(parser *Parser) {
		parser.agentType = agentType
	}
}

func WithOsmConfiguration(cfg *OsmConfiguration) func(*Parser) {
	return func(parser *Parser) {
		parser.cfg = cfg
	}
}

// WithContraction makes the engine route over contraction hierarchies
func WithContraction(contract bool) func(*Parser) {
	return func(parser *Parser) {
		parser.contract = contract
	}
}

func WithParserLogger(logger zerolog.Logger) func(*Parser) {
	return func(parser *Parser) {
		parser.logger = logger
	}
}

// Parse loads road network and builds search engine on top of it
func (parser *Parser) Parse(ctx context.Context) (*Engine, *RoadNetwork, error) {
	parser.logger.Debug().Msg(parser.String())
	profile, err := NewAgentProfile(parser.agentType, parser.cfg)
	if err != nil {
		return nil, nil, err
	}
	network, err := LoadOSM(ctx, parser.filename, parser.cfg, parser.logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't parse OSM data")
	}
	options := []func(*Engine){WithLogger(parser.logger)}
	if parser.contract {
		contracted, err := network.Contract(profile, parser.logger)
		if err != nil {
			return nil, nil, errors.Wrap(err, "Can't prepare contraction hierarchies")
		}
		options = append(options, WithVertexRouter(contracted))
	}
	return NewEngine(network, profile, options...), network, nil
}
