package coverage

import (
	"math"

	"github.com/theoremus-urban-solutions/navtrack/geo"
)

type cellKey struct {
	X int
	Y int
}

// Grid buckets segment ids by planar cell so a per-tick proximity query only
// touches segments near the vehicle. All positions are projected into one
// shared XY frame anchored at the reference latitude of the area. The grid
// only ever indexes undriven segments: a segment is removed the instant it is
// marked driven, so queries never return ids not worth checking.
type Grid struct {
	cellM  float64
	refLat float64
	cells  map[cellKey]map[string]struct{}
}

// NewGrid returns an empty grid with the given cell size in meters, anchored
// at refLat.
func NewGrid(cellM, refLat float64) *Grid {
	return &Grid{
		cellM:  cellM,
		refLat: refLat,
		cells:  make(map[cellKey]map[string]struct{}),
	}
}

func (g *Grid) cellOf(p geo.Point) cellKey {
	xy := geo.ProjectXY(p, g.refLat)
	return cellKey{
		X: int(math.Floor(xy.X / g.cellM)),
		Y: int(math.Floor(xy.Y / g.cellM)),
	}
}

// boundsOf returns the min/max cells covered by a geometry's bounding box.
func (g *Grid) boundsOf(geom []geo.Point) (cellKey, cellKey) {
	min := cellKey{X: math.MaxInt32, Y: math.MaxInt32}
	max := cellKey{X: math.MinInt32, Y: math.MinInt32}
	for _, p := range geom {
		c := g.cellOf(p)
		if c.X < min.X {
			min.X = c.X
		}
		if c.Y < min.Y {
			min.Y = c.Y
		}
		if c.X > max.X {
			max.X = c.X
		}
		if c.Y > max.Y {
			max.Y = c.Y
		}
	}
	return min, max
}

// Insert registers id in every cell intersecting the geometry's bounding box.
func (g *Grid) Insert(id string, geom []geo.Point) {
	if len(geom) == 0 {
		return
	}
	min, max := g.boundsOf(geom)
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			key := cellKey{X: x, Y: y}
			ids := g.cells[key]
			if ids == nil {
				ids = make(map[string]struct{})
				g.cells[key] = ids
			}
			ids[id] = struct{}{}
		}
	}
}

// Remove drops id from every cell its geometry covers.
func (g *Grid) Remove(id string, geom []geo.Point) {
	if len(geom) == 0 {
		return
	}
	min, max := g.boundsOf(geom)
	for x := min.X; x <= max.X; x++ {
		for y := min.Y; y <= max.Y; y++ {
			key := cellKey{X: x, Y: y}
			if ids := g.cells[key]; ids != nil {
				delete(ids, id)
				if len(ids) == 0 {
					delete(g.cells, key)
				}
			}
		}
	}
}

// Near returns the distinct ids registered in cells within radiusM of p.
func (g *Grid) Near(p geo.Point, radiusM float64) []string {
	center := g.cellOf(p)
	reach := int(math.Ceil(radiusM / g.cellM))
	seen := make(map[string]struct{})
	var out []string
	for x := center.X - reach; x <= center.X+reach; x++ {
		for y := center.Y - reach; y <= center.Y+reach; y++ {
			for id := range g.cells[cellKey{X: x, Y: y}] {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// Len returns the number of non-empty cells, for diagnostics.
func (g *Grid) Len() int { return len(g.cells) }
