package warehouse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const productX = "11111111-1111-1111-1111-111111111111"

func planWarehouses() []Warehouse {
	return []Warehouse{
		{ID: "wh-a", Name: "A", Latitude: -6.2088, Longitude: 106.8456},  // Jakarta
		{ID: "wh-b", Name: "B", Latitude: -6.9175, Longitude: 107.6191},  // Bandung
		{ID: "wh-c", Name: "C", Latitude: -7.2575, Longitude: 112.7521},  // Surabaya
	}
}

func originNearA() Coordinate { return Coordinate{Latitude: -6.21, Longitude: 106.85} }

func TestPlanLocalStockSuffices(t *testing.T) {
	plan, err := PlanAllocation(PlanInput{
		TargetID:   "wh-a",
		Origin:     originNearA(),
		Warehouses: planWarehouses(),
		Stocks: []StockLevel{
			{ProductID: productX, WarehouseID: "wh-a", Stock: 10},
		},
		Requests: []Request{{ProductID: productX, Qty: 8}},
	})
	require.NoError(t, err)
	require.Empty(t, plan.Transfers)
	require.Equal(t, []Request{{ProductID: productX, Qty: 8}}, plan.Requests)
}

// A punya 5, B punya 10, minta 8 di A dari titik dekat A:
// tarik 3 dari B (source eligible terdekat), lalu A didecrement 8.
func TestPlanPullsDeficitFromNearestSource(t *testing.T) {
	plan, err := PlanAllocation(PlanInput{
		TargetID:   "wh-a",
		Origin:     originNearA(),
		Warehouses: planWarehouses(),
		Stocks: []StockLevel{
			{ProductID: productX, WarehouseID: "wh-a", Stock: 5},
			{ProductID: productX, WarehouseID: "wh-b", Stock: 10},
		},
		Requests: []Request{{ProductID: productX, Qty: 8}},
	})
	require.NoError(t, err)
	require.Equal(t, []Transfer{
		{ProductID: productX, FromWarehouseID: "wh-b", ToWarehouseID: "wh-a", Qty: 3},
	}, plan.Transfers)
	require.Equal(t, []Request{{ProductID: productX, Qty: 8}}, plan.Requests)
}

// B cuma punya 2 dan tidak ada source lain: harus gagal, tanpa transfer parsial.
func TestPlanInsufficientAcrossAllWarehouses(t *testing.T) {
	_, err := PlanAllocation(PlanInput{
		TargetID:   "wh-a",
		Origin:     originNearA(),
		Warehouses: planWarehouses(),
		Stocks: []StockLevel{
			{ProductID: productX, WarehouseID: "wh-a", Stock: 5},
			{ProductID: productX, WarehouseID: "wh-b", Stock: 2},
		},
		Requests: []Request{{ProductID: productX, Qty: 8}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestPlanSpansMultipleSourcesByDistance(t *testing.T) {
	plan, err := PlanAllocation(PlanInput{
		TargetID:   "wh-a",
		Origin:     originNearA(),
		Warehouses: planWarehouses(),
		Stocks: []StockLevel{
			{ProductID: productX, WarehouseID: "wh-c", Stock: 4},
			{ProductID: productX, WarehouseID: "wh-b", Stock: 3},
		},
		Requests: []Request{{ProductID: productX, Qty: 6}},
	})
	require.NoError(t, err)
	// B lebih dekat dari C: habisin B dulu baru sisa dari C
	require.Equal(t, []Transfer{
		{ProductID: productX, FromWarehouseID: "wh-b", ToWarehouseID: "wh-a", Qty: 3},
		{ProductID: productX, FromWarehouseID: "wh-c", ToWarehouseID: "wh-a", Qty: 3},
	}, plan.Transfers)
}

func TestPlanSkipsEmptySources(t *testing.T) {
	plan, err := PlanAllocation(PlanInput{
		TargetID:   "wh-a",
		Origin:     originNearA(),
		Warehouses: planWarehouses(),
		Stocks: []StockLevel{
			{ProductID: productX, WarehouseID: "wh-b", Stock: 0},
			{ProductID: productX, WarehouseID: "wh-c", Stock: 5},
		},
		Requests: []Request{{ProductID: productX, Qty: 5}},
	})
	require.NoError(t, err)
	require.Equal(t, []Transfer{
		{ProductID: productX, FromWarehouseID: "wh-c", ToWarehouseID: "wh-a", Qty: 5},
	}, plan.Transfers)
}

// Target belum pernah pegang product-nya sama sekali: stok lokal dianggap 0.
func TestPlanMissingTargetRow(t *testing.T) {
	plan, err := PlanAllocation(PlanInput{
		TargetID:   "wh-a",
		Origin:     originNearA(),
		Warehouses: planWarehouses(),
		Stocks: []StockLevel{
			{ProductID: productX, WarehouseID: "wh-b", Stock: 10},
		},
		Requests: []Request{{ProductID: productX, Qty: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, []Transfer{
		{ProductID: productX, FromWarehouseID: "wh-b", ToWarehouseID: "wh-a", Qty: 4},
	}, plan.Transfers)
}

// Dua request product sama harus lihat sisa stok setelah request pertama.
func TestPlanSameProductTwiceConsumesRemainder(t *testing.T) {
	_, err := PlanAllocation(PlanInput{
		TargetID:   "wh-a",
		Origin:     originNearA(),
		Warehouses: planWarehouses(),
		Stocks: []StockLevel{
			{ProductID: productX, WarehouseID: "wh-a", Stock: 5},
		},
		Requests: []Request{
			{ProductID: productX, Qty: 3},
			{ProductID: productX, Qty: 3},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestPlanRejectsNonPositiveQty(t *testing.T) {
	_, err := PlanAllocation(PlanInput{
		TargetID:   "wh-a",
		Origin:     originNearA(),
		Warehouses: planWarehouses(),
		Requests:   []Request{{ProductID: productX, Qty: 0}},
	})
	require.Error(t, err)
}
