package main

import (
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"carpath/grid"
	"carpath/world"
)

const (
	// arenaKind marks the feature whose radius property bounds the arena.
	arenaKind      = "arena"
	kindProperty   = "kind"
	radiusProperty = "radius"
)

// parseWorld converts a GeoJSON FeatureCollection into a world. Points with a radius become
// cylinders, polygons become the axis-aligned box of their bound, and a feature with
// "kind": "arena" sets the arena radius. Every bad feature is reported.
func parseWorld(data []byte) (world.World, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return world.World{}, errors.Wrap(err, "parsing feature collection")
	}

	var w world.World
	var errs error
	for i, f := range fc.Features {
		if f.Properties.MustString(kindProperty, "") == arenaKind {
			r := f.Properties.MustFloat64(radiusProperty, 0)
			if !(r > 0) {
				errs = multierr.Append(errs, errors.Errorf("feature %d: arena radius must be positive", i))
				continue
			}
			w.ArenaRadius = r
			continue
		}
		obstacles, err := featureObstacles(f)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "feature %d", i))
			continue
		}
		w.Obstacles = append(w.Obstacles, obstacles...)
	}
	return w, errs
}

func featureObstacles(f *geojson.Feature) ([]world.Obstacle, error) {
	switch g := f.Geometry.(type) {
	case orb.Point:
		r := f.Properties.MustFloat64(radiusProperty, 0)
		if !(r > 0) {
			return nil, errors.New("point obstacle needs a positive radius")
		}
		return []world.Obstacle{world.NewCylinder(g, r)}, nil
	case orb.Polygon:
		return []world.Obstacle{boxOf(g.Bound())}, nil
	case orb.MultiPolygon:
		return lo.Map(g, func(p orb.Polygon, _ int) world.Obstacle {
			return boxOf(p.Bound())
		}), nil
	default:
		return nil, errors.Errorf("unsupported geometry %T", f.Geometry)
	}
}

func boxOf(b orb.Bound) world.Obstacle {
	return world.NewAABB(b.Center(), orb.Point{(b.Max[0] - b.Min[0]) / 2, (b.Max[1] - b.Min[1]) / 2})
}

// loadWorld reads one GeoJSON world file.
func loadWorld(path string) (world.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return world.World{}, errors.Wrapf(err, "reading world %q", path)
	}
	w, err := parseWorld(data)
	return w, errors.Wrapf(err, "world %q", path)
}

// loadWorldDir merges every *.geojson file in dir. Files that fail to load are logged and
// skipped. The largest arena radius found wins.
func loadWorldDir(dir string, logger *zap.SugaredLogger) (world.World, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return world.World{}, err
	}
	logger.Infof("loading world from %d GeoJSON files in %s", len(files), dir)

	var merged world.World
	for _, file := range files {
		w, err := loadWorld(file)
		if err != nil {
			logger.Warnw("skipping world file", "file", file, "error", err)
			continue
		}
		merged.Obstacles = append(merged.Obstacles, w.Obstacles...)
		if w.ArenaRadius > merged.ArenaRadius {
			merged.ArenaRadius = w.ArenaRadius
		}
		logger.Debugf("loaded %d obstacles from %s", len(w.Obstacles), filepath.Base(file))
	}
	logger.Infof("world has %d obstacles", len(merged.Obstacles))
	return merged, nil
}

// gridFeatures exports blocked cells and free-space adjacency for visualisation.
func gridFeatures(g *grid.OccupancyGrid) *geojson.FeatureCollection {
	blocked, lines := g.BlockedCells(), g.Lines()
	fc := geojson.NewFeatureCollection()
	cells := geojson.NewFeature(blocked)
	cells.Properties["kind"] = "blocked"
	cells.Properties["cellSize"] = g.Config().CellSize
	edges := geojson.NewFeature(lines)
	edges.Properties["kind"] = "edges"
	return fc.Append(cells).Append(edges)
}
