package warehouse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	jakarta  = Coordinate{Latitude: -6.2088, Longitude: 106.8456}
	bandung  = Coordinate{Latitude: -6.9175, Longitude: 107.6191}
	surabaya = Coordinate{Latitude: -7.2575, Longitude: 112.7521}
)

func TestDistance(t *testing.T) {
	// Jakarta-Bandung sekitar 116 km
	d := Distance(jakarta, bandung)
	require.InDelta(t, 116, d, 10)

	require.Zero(t, Distance(jakarta, jakarta))
	require.InDelta(t, Distance(jakarta, surabaya), Distance(surabaya, jakarta), 1e-9)
}

func TestNearest(t *testing.T) {
	whs := []Warehouse{
		{ID: "wh-sby", Name: "Surabaya", Latitude: surabaya.Latitude, Longitude: surabaya.Longitude},
		{ID: "wh-bdg", Name: "Bandung", Latitude: bandung.Latitude, Longitude: bandung.Longitude},
	}

	got, err := Nearest(jakarta, whs)
	require.NoError(t, err)
	require.Equal(t, "wh-bdg", got.ID)

	got, err = Nearest(surabaya, whs)
	require.NoError(t, err)
	require.Equal(t, "wh-sby", got.ID)
}

func TestNearestNoWarehouse(t *testing.T) {
	_, err := Nearest(jakarta, nil)
	require.ErrorIs(t, err, ErrNoWarehouse)
}

func TestNearestTieTakesFirst(t *testing.T) {
	whs := []Warehouse{
		{ID: "a", Latitude: bandung.Latitude, Longitude: bandung.Longitude},
		{ID: "b", Latitude: bandung.Latitude, Longitude: bandung.Longitude},
	}
	got, err := Nearest(jakarta, whs)
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
}
