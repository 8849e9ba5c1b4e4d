package item

import (
	"math"
	"net/url"
	"sort"
	"strconv"
)

const (
	EarthRadiusMeters = 6371008.8

	DefaultSearchRadius = 1000.0
	MaxSearchRadius     = 50000.0
)

// Area is a circular search region.
type Area struct {
	Center GeoPoint
	Radius float64 // metres
}

// ParseArea reads lat, lng and radius from a query string. It returns nil, true when
// neither lat nor lng is present (no area filter), and ok=false for malformed input.
func ParseArea(q url.Values) (area *Area, ok bool) {
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" && lngStr == "" {
		return nil, true
	}

	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil || !ValidLatLng(lat, lng) {
		return nil, false
	}

	radius := DefaultSearchRadius
	if raw := q.Get("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(r) || r <= 0 || r > MaxSearchRadius {
			return nil, false
		}
		radius = r
	}

	return &Area{Center: NewGeoPoint(lat, lng), Radius: radius}, true
}

// Distance returns the great-circle distance between a and b in metres.
func Distance(a, b GeoPoint) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within filters items to those inside area, sets their Distance and orders them
// nearest first.
func Within(items []Item, area Area) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		d := Distance(area.Center, it.Location)
		if d <= area.Radius {
			it.Distance = &d
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	return out
}

// SortNewestFirst orders items by Timestamp descending.
func SortNewestFirst(items []Item) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
}
