// Package geocluster groups geolocated attendance events into viewport-sized
// marker sets. All functions are pure: callers own the viewport state and the
// auto-fit flag and call back in whenever either changes.
package geocluster

import (
	"math"

	"github.com/cmlabs-hris/attendance-console-go/internal/pkg/utils"
)

// Point is one event position on the map
type Point struct {
	ID  string
	Lat float64
	Lon float64
}

// Viewport is a snapshot of the visible map area
type Viewport struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
	Zoom   float64 `json:"zoom"`
}

// Valid reports whether the viewport can be read at all. A degenerate
// viewport (NaN, infinite, zero area) disables filtering and clustering
// instead of crashing the cell-size computation.
func (v Viewport) Valid() bool {
	for _, f := range []float64{v.MinLat, v.MinLon, v.MaxLat, v.MaxLon, v.Zoom} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return v.MaxLat > v.MinLat && v.MaxLon > v.MinLon
}

// Pad grows the viewport by fraction of its span on each side, so points just
// past the visible edge survive a small pan without a recompute.
func (v Viewport) Pad(fraction float64) Viewport {
	latPad := (v.MaxLat - v.MinLat) * fraction
	lonPad := (v.MaxLon - v.MinLon) * fraction
	return Viewport{
		MinLat: v.MinLat - latPad,
		MinLon: v.MinLon - lonPad,
		MaxLat: v.MaxLat + latPad,
		MaxLon: v.MaxLon + lonPad,
		Zoom:   v.Zoom,
	}
}

func (v Viewport) contains(p Point) bool {
	return p.Lat >= v.MinLat && p.Lat <= v.MaxLat && p.Lon >= v.MinLon && p.Lon <= v.MaxLon
}

// Cluster is one rendered marker. Count 1 is a plain marker at the point
// itself; Count >= 2 is an aggregate marker at the members' mean coordinate.
type Cluster struct {
	Lat      float64
	Lon      float64
	Count    int
	RadiusM  float64
	PointIDs []string
}

type cellKey struct {
	row int64
	col int64
}

// Clusters buckets the points visible in vp (padded by opts.PadFraction) into
// grid cells sized for vp.Zoom. With cell size 0 every visible point becomes
// its own cluster.
func Clusters(points []Point, vp Viewport, opts Options) []Cluster {
	if len(points) == 0 {
		return nil
	}

	visible := points
	cell := 0.0
	if vp.Valid() {
		padded := vp.Pad(opts.PadFraction)
		visible = make([]Point, 0, len(points))
		for _, p := range points {
			if padded.contains(p) {
				visible = append(visible, p)
			}
		}
		cell = opts.CellSizeForZoom(vp.Zoom)
	}

	if cell <= 0 {
		clusters := make([]Cluster, 0, len(visible))
		for _, p := range visible {
			clusters = append(clusters, Cluster{
				Lat:      p.Lat,
				Lon:      p.Lon,
				Count:    1,
				PointIDs: []string{p.ID},
			})
		}
		return clusters
	}

	cells := make(map[cellKey][]Point)
	order := make([]cellKey, 0)
	for _, p := range visible {
		key := cellKey{
			row: int64(math.Floor(p.Lat / cell)),
			col: int64(math.Floor(p.Lon / cell)),
		}
		if _, seen := cells[key]; !seen {
			order = append(order, key)
		}
		cells[key] = append(cells[key], p)
	}

	clusters := make([]Cluster, 0, len(order))
	for _, key := range order {
		members := cells[key]
		var sumLat, sumLon float64
		ids := make([]string, 0, len(members))
		for _, p := range members {
			sumLat += p.Lat
			sumLon += p.Lon
			ids = append(ids, p.ID)
		}
		c := Cluster{
			Lat:      sumLat / float64(len(members)),
			Lon:      sumLon / float64(len(members)),
			Count:    len(members),
			PointIDs: ids,
		}
		for _, p := range members {
			if d := utils.CalculateHaversineDistance(c.Lat, c.Lon, p.Lat, p.Lon); d > c.RadiusM {
				c.RadiusM = d
			}
		}
		clusters = append(clusters, c)
	}
	return clusters
}
