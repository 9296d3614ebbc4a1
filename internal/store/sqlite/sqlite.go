package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clothbill/internal/domain"
	"clothbill/internal/store"
)

type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the billing database at path and bootstraps
// the schema plus the 132-worker roster.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// The driver is pure Go but sqlite itself is single-writer; keeping one
	// connection avoids SQLITE_BUSY under the sequential workload we have.
	db.SetMaxOpenConns(1)

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
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			phone TEXT UNIQUE,
			last_bill_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS stock (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_name TEXT NOT NULL,
			size TEXT,
			color TEXT,
			quantity INTEGER NOT NULL,
			price REAL NOT NULL,
			added_date TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bills (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_phone TEXT,
			bill_date TEXT NOT NULL,
			total REAL NOT NULL,
			items_json TEXT NOT NULL,
			worker_id INTEGER NOT NULL,
			pieces_sold INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS workers (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			incentives REAL NOT NULL DEFAULT 0
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
			INSERT OR IGNORE INTO workers (id, name, incentives) VALUES (?, ?, 0)
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

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO stock (item_name, size, color, quantity, price, added_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, req.Item, req.Size, req.Color, req.Qty, req.Price, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
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
		WHERE customer_phone = ?
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
		INSERT OR IGNORE INTO customers (phone, name) VALUES (?, ?)
	`, rec.CustomerPhone, rec.CustomerName); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE customers SET name = ? WHERE phone = ?
	`, rec.CustomerName, rec.CustomerPhone); err != nil {
		return nil, err
	}

	for _, line := range rec.Items {
		if _, err := tx.ExecContext(ctx, `
			UPDATE stock SET quantity = quantity - ? WHERE id = ?
		`, line.QtyBilled, line.ID); err != nil {
			return nil, err
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO bills (customer_phone, bill_date, total, items_json, worker_id, pieces_sold)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.CustomerPhone, rec.BillDate, rec.Total, string(itemsJSON), rec.WorkerID, rec.PiecesSold)
	if err != nil {
		return nil, err
	}
	billID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE workers SET incentives = incentives + ? WHERE id = ?
	`, rec.PiecesSold, rec.WorkerID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE customers SET last_bill_id = ? WHERE phone = ?
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
		LIMIT ?
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
