package domain

// Worker ids are fixed by the shop roster: one row per worker, 1 through 132.
const (
	MinWorkerID = 1
	MaxWorkerID = 132
)

// LeaderboardLimit caps the worker list returned by the workers endpoint.
const LeaderboardLimit = 20

type StockItem struct {
	ID    int64   `json:"id"`
	Item  string  `json:"item"`
	Size  string  `json:"size"`
	Color string  `json:"color"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// BillLine is a stock item plus the quantity being sold in the current
// transaction. Its wire shape is the stock item's fields with qty_billed
// appended, so a saved bill carries a full snapshot of each line.
type BillLine struct {
	ID        int64   `json:"id"`
	Item      string  `json:"item"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
	QtyBilled int     `json:"qty_billed"`
}

// Subtotal is the line's contribution to the bill total.
func (l BillLine) Subtotal() float64 {
	return float64(l.QtyBilled) * l.Price
}

// LineFromStock starts a bill line for the given stock item with one piece.
func LineFromStock(s StockItem) BillLine {
	return BillLine{
		ID:        s.ID,
		Item:      s.Item,
		Size:      s.Size,
		Color:     s.Color,
		Qty:       s.Qty,
		Price:     s.Price,
		QtyBilled: 1,
	}
}

type LastBillSummary struct {
	ItemsJSON string  `json:"items_json"`
	Total     float64 `json:"total"`
}

type Worker struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Incentive float64 `json:"incentive"`
}

type AddStockRequest struct {
	Item  string  `json:"item"`
	Size  string  `json:"size"`
	Color string  `json:"color"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

type AddStockResponse struct {
	Success bool `json:"success"`
}

type SaveBillRequest struct {
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Items         []BillLine `json:"items"`
	Total         float64    `json:"total"`
	WorkerID      int        `json:"worker_id"`
}

type SaveBillResponse struct {
	Success bool `json:"success"`
	Pieces  int  `json:"pieces"`
	Worker  int  `json:"worker"`
}

type ResetIncentivesResponse struct {
	Success bool `json:"success"`
}

// BillRecord is the persistence model for a saved bill.
type BillRecord struct {
	ID            int64
	CustomerName  string
	CustomerPhone string
	BillDate      string
	Total         float64
	Items         []BillLine
	WorkerID      int
	PiecesSold    int
}
