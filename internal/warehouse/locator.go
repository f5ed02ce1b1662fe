package warehouse

import (
	"errors"
	"math"
)

var ErrNoWarehouse = errors.New("no warehouse found")

const earthRadiusKm = 6371.0

// Distance: great-circle distance (haversine) dalam km.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Nearest milih warehouse terdekat dari origin. Kalau jarak sama,
// yang duluan di slice yang menang.
func Nearest(origin Coordinate, whs []Warehouse) (Warehouse, error) {
	if len(whs) == 0 {
		return Warehouse{}, ErrNoWarehouse
	}
	best := whs[0]
	bestDist := Distance(origin, best.Coordinate())
	for _, w := range whs[1:] {
		if d := Distance(origin, w.Coordinate()); d < bestDist {
			best, bestDist = w, d
		}
	}
	return best, nil
}
