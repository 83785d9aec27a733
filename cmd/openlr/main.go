package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	openlr "github.com/closetoyou293/OpenLR"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultTags = "motorway,motorway_link,trunk,trunk_link,primary,primary_link,secondary,secondary_link,tertiary,tertiary_link,residential,unclassified,living_street,service"

const usage = `Usage:
	openlr encode -file my_graph.osm.pbf -from 55.7542,37.6210 -to 55.7601,37.6186
	openlr encode -file my_graph.osm.pbf -point 55.7542,37.6210
	openlr decode -file my_graph.osm.pbf -data CwRbWyNG9BpgCQCb/jP7AQ==
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "encode":
		err = runEncode(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// registerFlags binds flags shared by subcommands. Flags explicitly set override config file
func registerFlags(fs *flag.FlagSet) (*config, func() error) {
	cfg := defaultConfig()
	configPath := fs.String("config", "", "Path to TOML configuration file")
	file := fs.String("file", cfg.file, "Filename of *.osm or *.osm.pbf file")
	agent := fs.String("agent", cfg.agent, "Agent type. Expected values: auto / bike / walk")
	tagStr := fs.String("tags", defaultTags, "Set of needed highway tags (separated by commas)")
	costType := fs.String("cost", cfg.costType, "Cost type of edges, e.g. meters or 'seconds->maxspeed->11.11'")
	contract := fs.Bool("contract", cfg.contract, "Prepare contraction hierarchies?")
	tolerance := fs.Float64("tolerance", cfg.tolerance, "Max distance (meters) between given points and the road network")
	radius := fs.Float64("radius", cfg.candidateRadius, "Radius (meters) of candidate search while decoding")
	maxCandidates := fs.Int("candidates", cfg.maxCandidates, "Max number of candidates per location reference point")
	distanceTolerance := fs.Float64("dnp_tolerance", cfg.distanceTolerance, "Allowed difference (meters) between route length and distance to next point")
	geomFormat := fs.String("geomf", cfg.geomFormat, "Format of output geometry. Expected values: wkt / geojson")
	verbose := fs.Bool("verbose", false, "Print debug messages")
	return &cfg, func() error {
		if *configPath != "" {
			if err := loadConfig(*configPath, &cfg); err != nil {
				return err
			}
		}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "file":
				cfg.file = *file
			case "agent":
				cfg.agent = *agent
			case "tags":
				cfg.tags = strings.Split(*tagStr, ",")
			case "cost":
				cfg.costType = *costType
			case "contract":
				cfg.contract = *contract
			case "tolerance":
				cfg.tolerance = *tolerance
			case "radius":
				cfg.candidateRadius = *radius
			case "candidates":
				cfg.maxCandidates = *maxCandidates
			case "dnp_tolerance":
				cfg.distanceTolerance = *distanceTolerance
			case "geomf":
				cfg.geomFormat = strings.ToLower(*geomFormat)
			}
		})
		cfg.verbose = *verbose
		return nil
	}
}

func newLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "openlr").Logger()
}

// prepareEngine loads road network and builds search engine on top of it
func prepareEngine(ctx context.Context, cfg *config, logger zerolog.Logger) (*openlr.Engine, error) {
	osmCfg := &openlr.OsmConfiguration{
		EntityName: "highway",
		Tags:       cfg.tags,
	}
	if err := osmCfg.ParseCostType(cfg.costType); err != nil {
		return nil, err
	}
	agent, ok := openlr.ParseAgentType(cfg.agent)
	if !ok {
		return nil, errors.Errorf("unknown agent type '%s'", cfg.agent)
	}
	parser := openlr.NewParser(cfg.file,
		openlr.WithAgentType(agent),
		openlr.WithOsmConfiguration(osmCfg),
		openlr.WithContraction(cfg.contract),
		openlr.WithParserLogger(logger),
	)
	engine, _, err := parser.Parse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare road network")
	}
	return engine, nil
}

func parseCoordinate(str string) (openlr.Coordinate, error) {
	parts := strings.Split(str, ",")
	if len(parts) != 2 {
		return openlr.Coordinate{}, errors.Errorf("coordinate must be 'lat,lon', got '%s'", str)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return openlr.Coordinate{}, errors.Wrap(err, "latitude")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return openlr.Coordinate{}, errors.Wrap(err, "longitude")
	}
	return openlr.Coordinate{Lat: lat, Lon: lon}, nil
}

func printLocation(loc openlr.ReferencedLocation, geomFormat string) error {
	if geomFormat == "geojson" {
		fc, err := openlr.ToFeatureCollection(loc)
		if err != nil {
			return err
		}
		b, err := fc.MarshalJSON()
		if err != nil {
			return errors.Wrap(err, "Can not convert geometry to geojson format")
		}
		fmt.Println(string(b))
		return nil
	}
	str, err := openlr.ToWKT(loc)
	if err != nil {
		return err
	}
	fmt.Println(str)
	return nil
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	from := fs.String("from", "", "Start of line location 'lat,lon'")
	to := fs.String("to", "", "End of line location 'lat,lon'")
	point := fs.String("point", "", "Point along line location 'lat,lon'")
	showGeom := fs.Bool("geom", false, "Print geometry of referenced location too")
	cfg, finish := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := finish(); err != nil {
		return err
	}
	logger := newLogger(cfg.verbose)
	ctx := context.Background()

	engine, err := prepareEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	encoder := openlr.NewEncoder(engine, openlr.OSMAttributeMapper{})

	var referenced openlr.ReferencedLocation
	switch {
	case *point != "":
		pt, err := parseCoordinate(*point)
		if err != nil {
			return err
		}
		pal, err := encoder.BuildPointAlongLine(ctx, pt, cfg.tolerance)
		if err != nil {
			return errors.Wrap(err, "Can't build point along line")
		}
		referenced = pal
	case *from != "" && *to != "":
		start, err := parseCoordinate(*from)
		if err != nil {
			return err
		}
		end, err := parseCoordinate(*to)
		if err != nil {
			return err
		}
		line, err := encoder.BuildLineLocationFromPoints(ctx, start, end, cfg.tolerance)
		if err != nil {
			return errors.Wrap(err, "Can't build line location")
		}
		referenced = line
	default:
		return errors.Errorf("either -point or both -from and -to must be provided")
	}

	st := time.Now()
	data, err := encoder.EncodeString(ctx, referenced)
	if err != nil {
		return errors.Wrap(err, "Can't encode location")
	}
	logger.Info().Dur("elapsed", time.Since(st)).Msg("location encoded")
	fmt.Println(data)
	if *showGeom {
		return printLocation(referenced, cfg.geomFormat)
	}
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	data := fs.String("data", "", "Base64 encoded OpenLR location reference")
	cfg, finish := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := finish(); err != nil {
		return err
	}
	if *data == "" {
		return errors.Errorf("-data must be provided")
	}
	logger := newLogger(cfg.verbose)
	ctx := context.Background()

	engine, err := prepareEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	decoder := openlr.NewDecoder(engine, openlr.OSMAttributeMapper{},
		openlr.WithCandidateRadius(cfg.candidateRadius),
		openlr.WithMaxCandidates(cfg.maxCandidates),
		openlr.WithDistanceTolerance(cfg.distanceTolerance),
	)
	st := time.Now()
	loc, err := decoder.DecodeString(ctx, *data)
	if err != nil {
		return errors.Wrap(err, "Can't decode location")
	}
	logger.Info().Str("type", loc.Type().String()).Dur("elapsed", time.Since(st)).Msg("location decoded")
	return printLocation(loc, cfg.geomFormat)
}
