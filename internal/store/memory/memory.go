package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"clothbill/internal/domain"
	"clothbill/internal/store"
)

type customer struct {
	name       string
	phone      string
	lastBillID int64
}

type stockRow struct {
	domain.StockItem
	addedAt time.Time
}

type Store struct {
	mu          sync.RWMutex
	nextStockID int64
	nextBillID  int64
	stock       []stockRow
	bills       []domain.BillRecord
	customers   map[string]customer
	workers     map[int]domain.Worker
}

// New returns an empty store with the full worker roster seeded,
// mirroring the database bootstrap of the production deployment.
func New() *Store {
	workers := make(map[int]domain.Worker, domain.MaxWorkerID)
	for i := domain.MinWorkerID; i <= domain.MaxWorkerID; i++ {
		workers[i] = domain.Worker{ID: i, Name: fmt.Sprintf("Worker-%d", i)}
	}

	return &Store{
		nextStockID: 1,
		nextBillID:  1,
		customers:   make(map[string]customer),
		workers:     workers,
	}
}

// NewSeeded is New plus a small clothing inventory for dev/demo mode.
func NewSeeded() *Store {
	s := New()
	seed := []domain.AddStockRequest{
		{Item: "Shirt", Size: "M", Color: "White", Qty: 40, Price: 499},
		{Item: "Shirt", Size: "L", Color: "Blue", Qty: 35, Price: 549},
		{Item: "Kurta", Size: "M", Color: "Maroon", Qty: 25, Price: 799},
		{Item: "Jeans", Size: "32", Color: "Black", Qty: 30, Price: 1099},
		{Item: "Saree", Size: "Free", Color: "Green", Qty: 15, Price: 1499},
		{Item: "T-Shirt", Size: "S", Color: "Grey", Qty: 50, Price: 299},
	}
	for _, req := range seed {
		if _, err := s.AddStock(context.Background(), req); err != nil {
			panic(fmt.Sprintf("memory store seed: %v", err))
		}
	}
	return s
}

func (s *Store) ListStock(_ context.Context) ([]domain.StockItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.StockItem, 0, len(s.stock))
	for _, row := range s.stock {
		if row.Qty <= 0 {
			continue
		}
		items = append(items, row.StockItem)
	}

	slices.SortFunc(items, func(a, b domain.StockItem) int {
		if a.Item == b.Item {
			return int(a.ID - b.ID)
		}
		return strings.Compare(a.Item, b.Item)
	})

	return items, nil
}

func (s *Store) AddStock(_ context.Context, req domain.AddStockRequest) (*domain.StockItem, error) {
	if strings.TrimSpace(req.Item) == "" || req.Qty < 1 || req.Price < 0 {
		return nil, store.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.StockItem{
		ID:    s.nextStockID,
		Item:  req.Item,
		Size:  req.Size,
		Color: req.Color,
		Qty:   req.Qty,
		Price: req.Price,
	}
	s.nextStockID++
	s.stock = append(s.stock, stockRow{StockItem: item, addedAt: time.Now().UTC()})

	created := item
	return &created, nil
}

func (s *Store) LastBillByPhone(_ context.Context, phone string) (domain.LastBillSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.bills) - 1; i >= 0; i-- {
		if s.bills[i].CustomerPhone == phone {
			return domain.LastBillSummary{
				ItemsJSON: encodeItems(s.bills[i].Items),
				Total:     s.bills[i].Total,
			}, nil
		}
	}
	return domain.LastBillSummary{ItemsJSON: "[]"}, nil
}

func (s *Store) SaveBill(_ context.Context, rec domain.BillRecord) (*domain.BillRecord, error) {
	if len(rec.Items) == 0 {
		return nil, store.ErrInvalidRequest
	}
	if rec.WorkerID < domain.MinWorkerID || rec.WorkerID > domain.MaxWorkerID {
		return nil, store.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Stock is deducted blindly: a line whose id no longer exists is a
	// no-op, matching the SQL UPDATE in the durable stores.
	for _, line := range rec.Items {
		for i := range s.stock {
			if s.stock[i].ID == line.ID {
				s.stock[i].Qty -= line.QtyBilled
				break
			}
		}
	}

	rec.ID = s.nextBillID
	s.nextBillID++
	s.bills = append(s.bills, rec)

	worker := s.workers[rec.WorkerID]
	worker.Incentive += float64(rec.PiecesSold)
	s.workers[rec.WorkerID] = worker

	s.customers[rec.CustomerPhone] = customer{
		name:       rec.CustomerName,
		phone:      rec.CustomerPhone,
		lastBillID: rec.ID,
	}

	saved := rec
	return &saved, nil
}

func (s *Store) TopWorkers(_ context.Context, limit int) ([]domain.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]domain.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		workers = append(workers, w)
	}
	slices.SortFunc(workers, func(a, b domain.Worker) int {
		if a.Incentive == b.Incentive {
			return a.ID - b.ID
		}
		if a.Incentive > b.Incentive {
			return -1
		}
		return 1
	})
	if limit > 0 && len(workers) > limit {
		workers = workers[:limit]
	}
	return workers, nil
}

func encodeItems(items []domain.BillLine) string {
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func (s *Store) ResetIncentives(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, w := range s.workers {
		w.Incentive = 0
		s.workers[id] = w
	}
	return nil
}
