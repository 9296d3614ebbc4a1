package store

import (
	"context"
	"errors"

	"clothbill/internal/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
)

type Repository interface {
	// ListStock returns items with remaining quantity, ordered by item name.
	ListStock(ctx context.Context) ([]domain.StockItem, error)
	AddStock(ctx context.Context, req domain.AddStockRequest) (*domain.StockItem, error)
	// LastBillByPhone returns the most recent bill summary for the phone, or
	// an empty summary ("[]", 0) when the customer has no bills.
	LastBillByPhone(ctx context.Context, phone string) (domain.LastBillSummary, error)
	// SaveBill persists the bill, upserts the customer, deducts each line's
	// quantity from stock and credits the worker's incentive by PiecesSold.
	SaveBill(ctx context.Context, rec domain.BillRecord) (*domain.BillRecord, error)
	// TopWorkers returns up to limit workers ordered by incentive, highest first.
	TopWorkers(ctx context.Context, limit int) ([]domain.Worker, error)
	ResetIncentives(ctx context.Context) error
}
