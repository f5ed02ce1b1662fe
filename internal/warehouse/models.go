package warehouse

import "time"

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Warehouse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (w Warehouse) Coordinate() Coordinate {
	return Coordinate{Latitude: w.Latitude, Longitude: w.Longitude}
}

// StockLevel itu satu row product_stocks. StockID kosong artinya row
// belum ada (warehouse belum pernah pegang product itu).
type StockLevel struct {
	StockID     string
	ProductID   string
	WarehouseID string
	Stock       int
	Version     int64
}

const (
	TransactionIn  = "IN"
	TransactionOut = "OUT"
)

// Transfer dieksekusi sekaligus di dalam tx checkout, jadi row
// stock_transfers langsung lahir COMPLETED.
const TransferCompleted = "COMPLETED"

type StockTransfer struct {
	ID              string
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	StockRequest    int
	StockProcess    int
	Status          string
	CreatedAt       time.Time
}

type StockTransferLog struct {
	ID              string
	ProductStockID  string
	WarehouseID     string
	Quantity        int
	TransactionType string // IN | OUT
	Description     string
	CreatedAt       time.Time
}
