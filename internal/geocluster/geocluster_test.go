package geocluster

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testViewport(zoom float64) Viewport {
	return Viewport{
		MinLat: 40.8,
		MaxLat: 41.2,
		MinLon: 28.8,
		MaxLon: 29.2,
		Zoom:   zoom,
	}
}

// Increasing zoom never increases the cell size, and above the threshold the
// cell size is exactly zero.
func TestOptions_CellSizeMonotonic(t *testing.T) {
	opts := DefaultOptions()

	prev := math.Inf(1)
	for zoom := 0.0; zoom <= 20; zoom += 0.5 {
		cell := opts.CellSizeForZoom(zoom)
		assert.LessOrEqual(t, cell, prev, "zoom %v", zoom)
		if zoom >= opts.NoClusterZoom {
			assert.Zero(t, cell, "zoom %v is above the clustering threshold", zoom)
		} else {
			assert.Positive(t, cell, "zoom %v", zoom)
		}
		prev = cell
	}
}

func TestClusters_AboveThresholdOneMarkerPerEvent(t *testing.T) {
	points := []Point{
		{ID: "a", Lat: 41.001, Lon: 29.001},
		{ID: "b", Lat: 41.002, Lon: 29.002},
		{ID: "c", Lat: 41.003, Lon: 29.003},
	}

	clusters := Clusters(points, testViewport(16), DefaultOptions())
	require.Len(t, clusters, 3)
	for i, c := range clusters {
		assert.Equal(t, 1, c.Count)
		assert.Equal(t, points[i].Lat, c.Lat)
		assert.Equal(t, points[i].Lon, c.Lon)
	}
}

// Aggregate markers sit at the arithmetic mean of their members and carry the
// member count.
func TestClusters_CentroidAndCount(t *testing.T) {
	points := []Point{
		{ID: "a", Lat: 41.0010, Lon: 29.0010},
		{ID: "b", Lat: 41.0020, Lon: 29.0030},
		{ID: "c", Lat: 41.0030, Lon: 29.0020},
		{ID: "far", Lat: 40.9000, Lon: 28.9000},
	}

	opts := DefaultOptions()
	vp := testViewport(12) // cell 0.01 at zoom 12
	require.Equal(t, 0.01, opts.CellSizeForZoom(vp.Zoom))

	clusters := Clusters(points, vp, opts)
	require.Len(t, clusters, 2)

	var agg *Cluster
	for i := range clusters {
		if clusters[i].Count == 3 {
			agg = &clusters[i]
		}
	}
	require.NotNil(t, agg, "expected an aggregate of the three close points")

	assert.InDelta(t, (41.0010+41.0020+41.0030)/3, agg.Lat, 1e-9)
	assert.InDelta(t, (29.0010+29.0030+29.0020)/3, agg.Lon, 1e-9)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, agg.PointIDs)
	assert.Positive(t, agg.RadiusM)
}

func TestClusters_ViewportFilterWithPadding(t *testing.T) {
	opts := DefaultOptions()
	vp := testViewport(16) // no clustering, pure filtering

	// viewport spans 0.4 degrees, padded by 25% on each side -> 0.1 degrees
	points := []Point{
		{ID: "inside", Lat: 41.0, Lon: 29.0},
		{ID: "in-pad", Lat: 41.25, Lon: 29.0},   // outside bounds, inside padding
		{ID: "outside", Lat: 41.45, Lon: 29.0},  // beyond the padded box
		{ID: "far-west", Lat: 41.0, Lon: 28.65}, // beyond the padded box
	}

	clusters := Clusters(points, vp, opts)
	require.Len(t, clusters, 2)

	ids := []string{clusters[0].PointIDs[0], clusters[1].PointIDs[0]}
	assert.ElementsMatch(t, []string{"inside", "in-pad"}, ids)
}

func TestClusters_DegenerateViewportDoesNotCrash(t *testing.T) {
	points := []Point{
		{ID: "a", Lat: 41.0, Lon: 29.0},
		{ID: "b", Lat: 41.5, Lon: 29.5},
	}

	degenerate := []Viewport{
		{MinLat: math.NaN(), MaxLat: math.NaN(), MinLon: math.NaN(), MaxLon: math.NaN(), Zoom: 10},
		{MinLat: 41, MaxLat: 41, MinLon: 29, MaxLon: 29, Zoom: 10}, // zero area
		{MinLat: 42, MaxLat: 41, MinLon: 29, MaxLon: 30, Zoom: 10}, // inverted
		{MinLat: 40, MaxLat: 42, MinLon: 28, MaxLon: 30, Zoom: math.Inf(1)},
	}

	for i, vp := range degenerate {
		clusters := Clusters(points, vp, DefaultOptions())
		// clustering is skipped: every event renders as its own marker
		assert.Len(t, clusters, 2, "viewport %d", i)
		for _, c := range clusters {
			assert.Equal(t, 1, c.Count)
		}
	}
}

func TestClusters_EmptyInput(t *testing.T) {
	assert.Nil(t, Clusters(nil, testViewport(10), DefaultOptions()))
	assert.Nil(t, Clusters([]Point{}, testViewport(10), DefaultOptions()))
}

func TestClusters_ManyPointsBounded(t *testing.T) {
	opts := DefaultOptions()
	vp := Viewport{MinLat: 36, MaxLat: 42, MinLon: 26, MaxLon: 45, Zoom: 6}

	var points []Point
	for i := 0; i < 2000; i++ {
		points = append(points, Point{
			ID:  fmt.Sprintf("p%d", i),
			Lat: 36.5 + float64(i%40)*0.12,
			Lon: 26.5 + float64(i/40)*0.3,
		})
	}

	clusters := Clusters(points, vp, opts)
	require.NotEmpty(t, clusters)
	assert.Less(t, len(clusters), len(points)/4, "low zoom must merge aggressively")

	total := 0
	for _, c := range clusters {
		total += c.Count
	}
	assert.Equal(t, len(points), total, "no event lost or duplicated")
}
