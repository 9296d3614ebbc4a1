package service

import (
	"context"
	"log"
	"strings"
	"time"

	"clothbill/internal/cache"
	"clothbill/internal/domain"
	"clothbill/internal/store"
)

type Service struct {
	repo     store.Repository
	stock    cache.StockCache
	stockTTL time.Duration
}

func New(repo store.Repository, stockCache cache.StockCache, stockTTL time.Duration) *Service {
	if stockCache == nil {
		stockCache = cache.NoopStockCache{}
	}
	if stockTTL <= 0 {
		stockTTL = 15 * time.Second
	}

	return &Service{
		repo:     repo,
		stock:    stockCache,
		stockTTL: stockTTL,
	}
}

func (s *Service) ListStock(ctx context.Context) ([]domain.StockItem, error) {
	if cached, ok, err := s.stock.Get(ctx); err == nil && ok {
		return cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: stock cache read failed: %v", err)
	}

	items, err := s.repo.ListStock(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.stock.Set(ctx, items, s.stockTTL); err != nil {
		log.Printf("[service] WARN: stock cache write failed: %v", err)
	}
	return items, nil
}

func (s *Service) AddStock(ctx context.Context, req domain.AddStockRequest) (*domain.StockItem, error) {
	req.Item = strings.TrimSpace(req.Item)
	req.Size = strings.TrimSpace(req.Size)
	req.Color = strings.TrimSpace(req.Color)

	if req.Item == "" || req.Qty < 1 || req.Price < 0 {
		return nil, store.ErrInvalidRequest
	}

	created, err := s.repo.AddStock(ctx, req)
	if err != nil {
		return nil, err
	}

	s.invalidateStock(ctx)
	return created, nil
}

func (s *Service) LastBillByPhone(ctx context.Context, phone string) (domain.LastBillSummary, error) {
	if strings.TrimSpace(phone) == "" {
		return domain.LastBillSummary{}, store.ErrInvalidRequest
	}
	return s.repo.LastBillByPhone(ctx, phone)
}

// SaveBill persists one checkout. Pieces is the sum of billed quantities
// across the lines and doubles as the worker's incentive credit (1 piece = ₹1).
func (s *Service) SaveBill(ctx context.Context, req domain.SaveBillRequest) (domain.SaveBillResponse, error) {
	if len(req.Items) == 0 {
		return domain.SaveBillResponse{}, store.ErrInvalidRequest
	}
	if req.WorkerID < domain.MinWorkerID || req.WorkerID > domain.MaxWorkerID {
		return domain.SaveBillResponse{}, store.ErrInvalidRequest
	}

	pieces := 0
	for _, line := range req.Items {
		if line.QtyBilled < 1 {
			return domain.SaveBillResponse{}, store.ErrInvalidRequest
		}
		pieces += line.QtyBilled
	}

	rec := domain.BillRecord{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		BillDate:      time.Now().Format("2006-01-02"),
		Total:         req.Total,
		Items:         req.Items,
		WorkerID:      req.WorkerID,
		PiecesSold:    pieces,
	}

	saved, err := s.repo.SaveBill(ctx, rec)
	if err != nil {
		return domain.SaveBillResponse{}, err
	}

	s.invalidateStock(ctx)

	return domain.SaveBillResponse{
		Success: true,
		Pieces:  saved.PiecesSold,
		Worker:  saved.WorkerID,
	}, nil
}

func (s *Service) Workers(ctx context.Context) ([]domain.Worker, error) {
	return s.repo.TopWorkers(ctx, domain.LeaderboardLimit)
}

func (s *Service) ResetIncentives(ctx context.Context) error {
	return s.repo.ResetIncentives(ctx)
}

func (s *Service) invalidateStock(ctx context.Context) {
	if err := s.stock.Invalidate(ctx); err != nil {
		log.Printf("[service] WARN: stock cache invalidate failed: %v", err)
	}
}
