package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"clothbill/internal/domain"
	"clothbill/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) bootstrap(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS customers (
			id BIGSERIAL PRIMARY KEY,
			name TEXT,
			phone TEXT UNIQUE,
			last_bill_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS stock (
			id BIGSERIAL PRIMARY KEY,
			item_name TEXT NOT NULL,
			size TEXT,
			color TEXT,
			quantity INT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			added_date TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bills (
			id BIGSERIAL PRIMARY KEY,
			customer_phone TEXT,
			bill_date TEXT NOT NULL,
			total DOUBLE PRECISION NOT NULL,
			items_json TEXT NOT NULL,
			worker_id INT NOT NULL,
			pieces_sold INT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workers (
			id INT PRIMARY KEY,
			name TEXT NOT NULL,
			incentives DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	for i := domain.MinWorkerID; i <= domain.MaxWorkerID; i++ {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO workers (id, name, incentives)
			VALUES ($1, $2, 0)
			ON CONFLICT (id) DO NOTHING
		`, i, fmt.Sprintf("Worker-%d", i))
		if err != nil {
			return fmt.Errorf("seed workers: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) ListStock(ctx context.Context) ([]domain.StockItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_name, size, color, quantity, price
		FROM stock
		WHERE quantity > 0
		ORDER BY item_name, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.StockItem, 0, 64)
	for rows.Next() {
		var item domain.StockItem
		if err := rows.Scan(&item.ID, &item.Item, &item.Size, &item.Color, &item.Qty, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) AddStock(ctx context.Context, req domain.AddStockRequest) (*domain.StockItem, error) {
	if strings.TrimSpace(req.Item) == "" || req.Qty < 1 || req.Price < 0 {
		return nil, store.ErrInvalidRequest
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO stock (item_name, size, color, quantity, price, added_date)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id
	`, req.Item, req.Size, req.Color, req.Qty, req.Price).Scan(&id)
	if err != nil {
		return nil, err
	}

	return &domain.StockItem{
		ID:    id,
		Item:  req.Item,
		Size:  req.Size,
		Color: req.Color,
		Qty:   req.Qty,
		Price: req.Price,
	}, nil
}

func (s *Store) LastBillByPhone(ctx context.Context, phone string) (domain.LastBillSummary, error) {
	var summary domain.LastBillSummary
	err := s.db.QueryRowContext(ctx, `
		SELECT items_json, total
		FROM bills
		WHERE customer_phone = $1
		ORDER BY id DESC
		LIMIT 1
	`, phone).Scan(&summary.ItemsJSON, &summary.Total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.LastBillSummary{ItemsJSON: "[]"}, nil
		}
		return domain.LastBillSummary{}, err
	}
	return summary, nil
}

func (s *Store) SaveBill(ctx context.Context, rec domain.BillRecord) (*domain.BillRecord, error) {
	if len(rec.Items) == 0 {
		return nil, store.ErrInvalidRequest
	}
	if rec.WorkerID < domain.MinWorkerID || rec.WorkerID > domain.MaxWorkerID {
		return nil, store.ErrInvalidRequest
	}

	itemsJSON, err := json.Marshal(rec.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO customers (phone, name)
		VALUES ($1, $2)
		ON CONFLICT (phone) DO UPDATE SET name = EXCLUDED.name
	`, rec.CustomerPhone, rec.CustomerName); err != nil {
		return nil, err
	}

	for _, line := range rec.Items {
		if _, err := tx.ExecContext(ctx, `
			UPDATE stock SET quantity = quantity - $1 WHERE id = $2
		`, line.QtyBilled, line.ID); err != nil {
			return nil, err
		}
	}

	var billID int64
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO bills (customer_phone, bill_date, total, items_json, worker_id, pieces_sold)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, rec.CustomerPhone, rec.BillDate, rec.Total, string(itemsJSON), rec.WorkerID, rec.PiecesSold).Scan(&billID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE workers SET incentives = incentives + $1 WHERE id = $2
	`, rec.PiecesSold, rec.WorkerID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE customers SET last_bill_id = $1 WHERE phone = $2
	`, billID, rec.CustomerPhone); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	rec.ID = billID
	saved := rec
	return &saved, nil
}

func (s *Store) TopWorkers(ctx context.Context, limit int) ([]domain.Worker, error) {
	if limit < 1 {
		limit = domain.LeaderboardLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, incentives
		FROM workers
		ORDER BY incentives DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := make([]domain.Worker, 0, limit)
	for rows.Next() {
		var w domain.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Incentive); err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workers, nil
}

func (s *Store) ResetIncentives(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE workers SET incentives = 0`)
	return err
}
