package warehouse

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInsufficientStock = errors.New("insufficient stock")

type Request struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// Transfer: instruksi pindahin stok antar warehouse, belum dieksekusi.
type Transfer struct {
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Qty             int
}

// Plan: hasil perencanaan alokasi. Transfers dieksekusi dulu, lalu
// Requests didecrement penuh di TargetID.
type Plan struct {
	TargetID  string
	Transfers []Transfer
	Requests  []Request
}

type PlanInput struct {
	TargetID   string
	Origin     Coordinate
	Warehouses []Warehouse
	Stocks     []StockLevel
	Requests   []Request
}

// PlanAllocation itu pure: ngitung defisit per product di warehouse target,
// lalu greedy narik dari warehouse lain urut jarak naik dari origin
// (tie-break: urutan snapshot). Gagal dengan ErrInsufficientStock kalau
// semua source habis tapi defisit masih sisa. Tidak ada I/O di sini.
func PlanAllocation(in PlanInput) (Plan, error) {
	coords := make(map[string]Coordinate, len(in.Warehouses))
	for _, w := range in.Warehouses {
		coords[w.ID] = w.Coordinate()
	}

	// copy mutable, biar request product yang sama kebaca sisa stoknya
	avail := make(map[string]map[string]int)
	for _, s := range in.Stocks {
		if avail[s.ProductID] == nil {
			avail[s.ProductID] = map[string]int{}
		}
		avail[s.ProductID][s.WarehouseID] = s.Stock
	}

	plan := Plan{TargetID: in.TargetID, Requests: in.Requests}

	for _, req := range in.Requests {
		if req.Qty <= 0 {
			return Plan{}, fmt.Errorf("invalid qty for product %s", req.ProductID)
		}

		byWh := avail[req.ProductID]
		if byWh == nil {
			byWh = map[string]int{}
			avail[req.ProductID] = byWh
		}

		// stok lokal 0 kalau row belum ada; row dibikin lazy waktu transfer masuk
		deficit := req.Qty - byWh[in.TargetID]
		if deficit <= 0 {
			byWh[in.TargetID] -= req.Qty
			continue
		}

		var sources []string
		for _, s := range in.Stocks {
			if s.ProductID == req.ProductID && s.WarehouseID != in.TargetID && byWh[s.WarehouseID] > 0 {
				sources = append(sources, s.WarehouseID)
			}
		}
		sort.SliceStable(sources, func(i, j int) bool {
			return Distance(in.Origin, coords[sources[i]]) < Distance(in.Origin, coords[sources[j]])
		})

		for _, src := range sources {
			if deficit == 0 {
				break
			}
			pull := byWh[src]
			if pull > deficit {
				pull = deficit
			}
			plan.Transfers = append(plan.Transfers, Transfer{
				ProductID:       req.ProductID,
				FromWarehouseID: src,
				ToWarehouseID:   in.TargetID,
				Qty:             pull,
			})
			byWh[src] -= pull
			deficit -= pull
		}
		if deficit > 0 {
			return Plan{}, fmt.Errorf("product %s short by %d: %w", req.ProductID, deficit, ErrInsufficientStock)
		}
		// lokal + hasil transfer persis habis kepakai request ini
		byWh[in.TargetID] = 0
	}
	return plan, nil
}
