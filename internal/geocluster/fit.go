package geocluster

import "math"

// FitResult is the viewport center and zoom that contains a point set
type FitResult struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Zoom      float64 `json:"zoom"`
}

// Fit computes the auto-fit viewport for a point set: a single point centers
// at a fixed zoom, multiple points get a padded bounding-box fit capped at
// MaxFitZoom. The "fit at most once per mount" flag belongs to the caller;
// Fit itself is stateless. ok is false for an empty set.
func Fit(points []Point, opts Options) (FitResult, bool) {
	if len(points) == 0 {
		return FitResult{}, false
	}

	if len(points) == 1 {
		return FitResult{
			CenterLat: points[0].Lat,
			CenterLon: points[0].Lon,
			Zoom:      opts.SingleEventZoom,
		}, true
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	latSpan := (maxLat - minLat) * (1 + 2*opts.FitPadFraction)
	lonSpan := (maxLon - minLon) * (1 + 2*opts.FitPadFraction)
	// latitude tiles cover 180 degrees where longitude covers 360, so weigh
	// the lat span double before picking the limiting axis
	span := math.Max(latSpan*2, lonSpan)

	zoom := opts.MaxFitZoom
	if span > 0 {
		// zoom z shows 360/2^z degrees of longitude across one tile span
		zoom = math.Floor(math.Log2(360 / span))
		zoom = math.Max(2, math.Min(zoom, opts.MaxFitZoom))
	}

	return FitResult{
		CenterLat: (minLat + maxLat) / 2,
		CenterLon: (minLon + maxLon) / 2,
		Zoom:      zoom,
	}, true
}

// Viewport expands a fit into concrete bounds: one tile-width of longitude
// at the fitted zoom, half that in latitude.
func (f FitResult) Viewport() Viewport {
	lonSpan := 360 / math.Exp2(f.Zoom)
	latSpan := lonSpan / 2
	return Viewport{
		MinLat: f.CenterLat - latSpan/2,
		MaxLat: f.CenterLat + latSpan/2,
		MinLon: f.CenterLon - lonSpan/2,
		MaxLon: f.CenterLon + lonSpan/2,
		Zoom:   f.Zoom,
	}
}

// ZoomIn returns the viewport produced by clicking an aggregate marker: the
// view recenters on the cluster and zooms in a fixed number of levels, rather
// than de-clustering in place.
func ZoomIn(vp Viewport, centerLat, centerLon float64, opts Options) Viewport {
	zoom := vp.Zoom + 2
	if zoom > opts.MaxFitZoom {
		zoom = opts.MaxFitZoom
	}

	latSpan := (vp.MaxLat - vp.MinLat) / 4
	lonSpan := (vp.MaxLon - vp.MinLon) / 4
	if !vp.Valid() {
		latSpan, lonSpan = 0.01, 0.01
		zoom = opts.SingleEventZoom
	}

	return Viewport{
		MinLat: centerLat - latSpan/2,
		MaxLat: centerLat + latSpan/2,
		MinLon: centerLon - lonSpan/2,
		MaxLon: centerLon + lonSpan/2,
		Zoom:   zoom,
	}
}
