// Package console implements the billing console view-model: it owns the
// clerk-facing page state (stock snapshot, in-progress bill, last-bill
// summary, worker snapshot, raw input fields), synchronizes it with the
// backend through the api client, and renders every state change into named
// screen regions.
//
// A Console serves one clerk in one session and is not safe for concurrent
// use; operations run one at a time, suspending only while a backend call is
// in flight.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"clothbill/internal/api"
	"clothbill/internal/domain"
)

// Screen receives rendered markup for a named page region.
type Screen interface {
	SetRegion(name string, markup string)
}

// Prompter is the blocking user-interaction surface: validation alerts,
// submit confirmations and the reset guard.
type Prompter interface {
	Alert(msg string)
	Confirm(msg string) bool
}

// Region names mirror the page areas the console renders into.
const (
	RegionStock      = "stockList"
	RegionBill       = "billItems"
	RegionLastBill   = "lastBill"
	RegionWorkerInfo = "workerInfo"
	RegionIncentives = "incentivesList"
)

type Console struct {
	client   *api.Client
	screen   Screen
	prompter Prompter

	stock    []domain.StockItem
	bill     []domain.BillLine
	lastBill domain.LastBillSummary
	workers  []domain.Worker

	customerName string
	phone        string
	workerNumber string
}

func New(client *api.Client, screen Screen, prompter Prompter) *Console {
	return &Console{
		client:   client,
		screen:   screen,
		prompter: prompter,
		lastBill: domain.LastBillSummary{ItemsJSON: "[]"},
	}
}

// Init runs the startup sequence: stock first, then the worker snapshot.
// Worker-number edits re-run the preview via SetWorkerNumber.
func (c *Console) Init(ctx context.Context) error {
	if err := c.LoadStock(ctx); err != nil {
		return err
	}
	return c.loadWorkers(ctx)
}

// LoadStock replaces the local stock snapshot with the backend's and
// re-renders the stock region.
func (c *Console) LoadStock(ctx context.Context) error {
	items, err := c.client.FetchStock(ctx)
	if err != nil {
		return err
	}
	c.stock = items
	c.renderStock()
	return nil
}

func (c *Console) loadWorkers(ctx context.Context) error {
	workers, err := c.client.FetchWorkers(ctx)
	if err != nil {
		return err
	}
	c.workers = workers
	return nil
}

// SetCustomerName records the customer-name field edit.
func (c *Console) SetCustomerName(raw string) {
	c.customerName = raw
}

// SetPhone records the phone field edit.
func (c *Console) SetPhone(raw string) {
	c.phone = raw
}

// SetWorkerNumber records the worker-number field edit and refreshes the
// live preview, mirroring the input listener on the page.
func (c *Console) SetWorkerNumber(raw string) {
	c.workerNumber = raw
	c.PreviewWorker()
}

// PreviewWorker renders "Worker-<n>" when the worker-number field holds an
// integer in the roster range, and clears the region otherwise. Purely
// local, no backend call.
func (c *Console) PreviewWorker() {
	id, err := strconv.Atoi(strings.TrimSpace(c.workerNumber))
	if err != nil || id < domain.MinWorkerID || id > domain.MaxWorkerID {
		c.screen.SetRegion(RegionWorkerInfo, "")
		return
	}
	c.screen.SetRegion(RegionWorkerInfo, fmt.Sprintf("Worker-%d", id))
}

// LookupLastBill fetches the latest bill summary for the phone and renders
// its total and item count. Phones of five characters or fewer are treated
// as still being typed and skipped without a request.
func (c *Console) LookupLastBill(ctx context.Context, phone string) error {
	c.phone = phone
	if len(phone) <= 5 {
		return nil
	}

	summary, err := c.client.FetchLastBill(ctx, phone)
	if err != nil {
		return err
	}
	c.lastBill = summary

	count, err := decodeItemCount(summary.ItemsJSON)
	if err != nil {
		return fmt.Errorf("decode last bill items: %w", err)
	}
	c.screen.SetRegion(RegionLastBill, renderLastBill(summary.Total, count))
	return nil
}

// AddToBill appends a one-piece line for the given stock id. A stock id
// absent from the current snapshot is a reported condition, not an undefined
// line.
func (c *Console) AddToBill(stockID int64) error {
	item, ok := c.findStock(stockID)
	if !ok {
		return fmt.Errorf("stock item %d not in current snapshot", stockID)
	}
	c.bill = append(c.bill, domain.LineFromStock(item))
	c.renderBill()
	return nil
}

// UpdateLineQuantity stores raw's parsed value as the line's billed
// quantity. A failed or non-positive parse stores what it yields (0 for
// garbage); the value is passed through, not corrected, and the surrounding
// lines render unaffected.
func (c *Console) UpdateLineQuantity(index int, raw string) error {
	if index < 0 || index >= len(c.bill) {
		return fmt.Errorf("no bill line at position %d", index)
	}
	qty, _ := strconv.Atoi(strings.TrimSpace(raw))
	c.bill[index].QtyBilled = qty
	c.renderBill()
	return nil
}

// RemoveLine deletes the line at index, preserving the order of the rest.
func (c *Console) RemoveLine(index int) error {
	if index < 0 || index >= len(c.bill) {
		return fmt.Errorf("no bill line at position %d", index)
	}
	c.bill = append(c.bill[:index], c.bill[index+1:]...)
	c.renderBill()
	return nil
}

// SubmitBill validates, posts the bill, confirms the result, then resets
// the checkout state and reloads stock. Validation failures alert and
// return before any network traffic.
func (c *Console) SubmitBill(ctx context.Context) error {
	if len(c.bill) == 0 {
		c.prompter.Alert("Add items to bill first!")
		return nil
	}

	workerID, err := strconv.Atoi(strings.TrimSpace(c.workerNumber))
	if err != nil || workerID < domain.MinWorkerID || workerID > domain.MaxWorkerID {
		c.prompter.Alert(fmt.Sprintf("Enter valid Worker Number (%d-%d)", domain.MinWorkerID, domain.MaxWorkerID))
		return nil
	}

	total := 0.0
	for _, line := range c.bill {
		total += line.Subtotal()
	}

	name := c.customerName
	if name == "" {
		name = "Cash Customer"
	}

	resp, err := c.client.SaveBill(ctx, domain.SaveBillRequest{
		CustomerName:  name,
		CustomerPhone: c.phone,
		Items:         c.bill,
		Total:         total,
		WorkerID:      workerID,
	})
	if err != nil {
		return err
	}

	c.prompter.Alert(fmt.Sprintf(
		"Bill Saved!\nTotal: ₹%s\nPieces: %d\nWorker-%d gets ₹%d",
		formatAmount(total), resp.Pieces, workerID, resp.Pieces,
	))

	c.bill = nil
	c.renderBill()
	c.SetWorkerNumber("")
	c.phone = ""

	return c.LoadStock(ctx)
}

// StockForm carries the five add-stock fields captured by the front-end's
// form flow.
type StockForm struct {
	Item  string
	Size  string
	Color string
	Qty   int
	Price float64
}

// AddStock posts a stock-creation request and reloads the snapshot. An empty
// item name or non-positive quantity aborts the add without a request; a
// zero price is accepted as-is.
func (c *Console) AddStock(ctx context.Context, form StockForm) error {
	if form.Item == "" || form.Qty <= 0 {
		return nil
	}

	err := c.client.AddStock(ctx, domain.AddStockRequest{
		Item:  form.Item,
		Size:  form.Size,
		Color: form.Color,
		Qty:   form.Qty,
		Price: form.Price,
	})
	if err != nil {
		return err
	}
	return c.LoadStock(ctx)
}

// LoadIncentives refreshes the worker snapshot and renders the incentive
// list. Each worker's figure is shown twice, as a rupee amount and as a
// pieces count; the backend defines the two to be numerically equal
// (1 piece = ₹1).
func (c *Console) LoadIncentives(ctx context.Context) error {
	if err := c.loadWorkers(ctx); err != nil {
		return err
	}
	c.screen.SetRegion(RegionIncentives, renderIncentives(c.workers))
	return nil
}

// ResetIncentives zeroes every worker's incentive after confirmation, then
// refreshes the incentive view.
func (c *Console) ResetIncentives(ctx context.Context) error {
	if !c.prompter.Confirm("Reset all worker incentives?") {
		return nil
	}
	if err := c.client.ResetIncentives(ctx); err != nil {
		return err
	}
	return c.LoadIncentives(ctx)
}

// Bill exposes the in-progress bill for the front-end's own display needs.
func (c *Console) Bill() []domain.BillLine {
	return c.bill
}

// Stock exposes the current stock snapshot.
func (c *Console) Stock() []domain.StockItem {
	return c.stock
}

func (c *Console) findStock(id int64) (domain.StockItem, bool) {
	for _, item := range c.stock {
		if item.ID == id {
			return item, true
		}
	}
	return domain.StockItem{}, false
}

func (c *Console) renderStock() {
	c.screen.SetRegion(RegionStock, renderStockList(c.stock))
}

func (c *Console) renderBill() {
	c.screen.SetRegion(RegionBill, renderBillList(c.bill))
}

// decodeItemCount counts the line items in a serialized items_json field.
// Empty or missing decodes to zero items.
func decodeItemCount(itemsJSON string) (int, error) {
	if strings.TrimSpace(itemsJSON) == "" {
		return 0, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return 0, err
	}
	return len(items), nil
}
