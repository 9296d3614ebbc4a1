package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"clothbill/internal/api"
	"clothbill/internal/domain"
)

// fakeBackend serves the billing contract with canned data and counts the
// requests per route, so tests can assert not only what the console rendered
// but also which network calls it did (or did not) make.
type fakeBackend struct {
	mu       sync.Mutex
	counts   map[string]int
	stock    []domain.StockItem
	lastBill domain.LastBillSummary
	workers  []domain.Worker
	saveResp domain.SaveBillResponse
	lastSave *domain.SaveBillRequest

	srv *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		counts: make(map[string]int),
		stock: []domain.StockItem{
			{ID: 1, Item: "Shirt", Size: "M", Color: "White", Qty: 12, Price: 499},
			{ID: 2, Item: "Kurta", Size: "L", Color: "Maroon", Qty: 5, Price: 799},
		},
		lastBill: domain.LastBillSummary{ItemsJSON: "[]"},
		workers: []domain.Worker{
			{ID: 7, Name: "Worker-7", Incentive: 42},
			{ID: 12, Name: "Worker-12", Incentive: 18},
		},
		saveResp: domain.SaveBillResponse{Success: true, Pieces: 1, Worker: 1},
	}

	b.srv = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	respond := func(payload any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}

	switch {
	case r.URL.Path == "/api/stock" && r.Method == http.MethodGet:
		b.counts["stock"]++
		respond(b.stock)
	case r.URL.Path == "/api/stock/add" && r.Method == http.MethodPost:
		b.counts["stock/add"]++
		respond(domain.AddStockResponse{Success: true})
	case strings.HasPrefix(r.URL.Path, "/api/customer/last-bill/") && r.Method == http.MethodGet:
		b.counts["last-bill"]++
		respond(b.lastBill)
	case r.URL.Path == "/api/bill/save" && r.Method == http.MethodPost:
		b.counts["bill/save"]++
		var req domain.SaveBillRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.lastSave = &req
		respond(b.saveResp)
	case r.URL.Path == "/api/workers" && r.Method == http.MethodGet:
		b.counts["workers"]++
		respond(b.workers)
	case r.URL.Path == "/api/incentives/reset" && r.Method == http.MethodPost:
		b.counts["reset"]++
		respond(domain.ResetIncentivesResponse{Success: true})
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) count(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[route]
}

func (b *fakeBackend) savedBill() *domain.SaveBillRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSave
}

type screenRecorder struct {
	regions map[string][]string
}

func newScreenRecorder() *screenRecorder {
	return &screenRecorder{regions: make(map[string][]string)}
}

func (s *screenRecorder) SetRegion(name string, markup string) {
	s.regions[name] = append(s.regions[name], markup)
}

func (s *screenRecorder) last(name string) string {
	history := s.regions[name]
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1]
}

type scriptedPrompter struct {
	alerts   []string
	confirms []bool
}

func (p *scriptedPrompter) Alert(msg string) {
	p.alerts = append(p.alerts, msg)
}

func (p *scriptedPrompter) Confirm(string) bool {
	if len(p.confirms) == 0 {
		return false
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer
}

func newTestConsole(t *testing.T) (*Console, *fakeBackend, *screenRecorder, *scriptedPrompter) {
	t.Helper()

	backend := newFakeBackend(t)
	screen := newScreenRecorder()
	prompter := &scriptedPrompter{}
	con := New(api.New(backend.srv.URL), screen, prompter)
	return con, backend, screen, prompter
}

func TestLoadStockRendersEveryItem(t *testing.T) {
	con, _, screen, _ := newTestConsole(t)

	if err := con.LoadStock(context.Background()); err != nil {
		t.Fatalf("load stock: %v", err)
	}

	markup := screen.last(RegionStock)
	for _, want := range []string{"Shirt", "(M/White)", "12 pcs", "₹499", "Kurta", "(L/Maroon)", "₹799"} {
		if !strings.Contains(markup, want) {
			t.Fatalf("stock markup missing %q:\n%s", want, markup)
		}
	}
	if strings.Count(markup, "stock-item") != 2 {
		t.Fatalf("expected 2 stock entries, markup:\n%s", markup)
	}
}

func TestLoadStockEmptySnapshotRendersPlaceholder(t *testing.T) {
	con, backend, screen, _ := newTestConsole(t)
	backend.stock = nil

	if err := con.LoadStock(context.Background()); err != nil {
		t.Fatalf("load stock: %v", err)
	}

	markup := screen.last(RegionStock)
	if !strings.Contains(markup, "No stock available") {
		t.Fatalf("expected placeholder, got:\n%s", markup)
	}
	if strings.Contains(markup, "stock-item") {
		t.Fatalf("expected no item entries, got:\n%s", markup)
	}
}

func TestAddToBillAppendsSinglePieceLine(t *testing.T) {
	con, _, screen, _ := newTestConsole(t)
	mustInit(t, con)

	if err := con.AddToBill(1); err != nil {
		t.Fatalf("add to bill: %v", err)
	}

	bill := con.Bill()
	if len(bill) != 1 {
		t.Fatalf("expected 1 bill line, got %d", len(bill))
	}
	if bill[0].QtyBilled != 1 {
		t.Fatalf("expected qty_billed 1, got %d", bill[0].QtyBilled)
	}

	markup := screen.last(RegionBill)
	if !strings.Contains(markup, "₹499.00") {
		t.Fatalf("expected subtotal 499.00 in markup:\n%s", markup)
	}
}

func TestAddToBillUnknownIDIsReported(t *testing.T) {
	con, _, _, _ := newTestConsole(t)
	mustInit(t, con)

	if err := con.AddToBill(999); err == nil {
		t.Fatalf("expected error for unknown stock id")
	}
	if len(con.Bill()) != 0 {
		t.Fatalf("expected no bill line for unknown id")
	}
}

func TestUpdateLineQuantityRecomputesSubtotal(t *testing.T) {
	con, _, screen, _ := newTestConsole(t)
	mustInit(t, con)
	mustAdd(t, con, 1)

	if err := con.UpdateLineQuantity(0, "3"); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if got := con.Bill()[0].QtyBilled; got != 3 {
		t.Fatalf("expected qty_billed 3, got %d", got)
	}
	if markup := screen.last(RegionBill); !strings.Contains(markup, "₹1497.00") {
		t.Fatalf("expected subtotal 1497.00, markup:\n%s", markup)
	}
}

func TestUpdateLineQuantityGarbageDoesNotBreakOtherLines(t *testing.T) {
	con, _, screen, _ := newTestConsole(t)
	mustInit(t, con)
	mustAdd(t, con, 1)
	mustAdd(t, con, 2)

	if err := con.UpdateLineQuantity(0, "abc"); err != nil {
		t.Fatalf("update quantity: %v", err)
	}

	markup := screen.last(RegionBill)
	// The second line must still render with its original subtotal.
	if !strings.Contains(markup, "₹799.00") {
		t.Fatalf("expected unaffected line subtotal 799.00, markup:\n%s", markup)
	}
	if got := con.Bill()[0].QtyBilled; got != 0 {
		t.Fatalf("expected pass-through zero quantity, got %d", got)
	}
}

func TestRemoveLinePreservesOrder(t *testing.T) {
	con, _, _, _ := newTestConsole(t)
	mustInit(t, con)
	mustAdd(t, con, 1)
	mustAdd(t, con, 2)
	mustAdd(t, con, 1)

	if err := con.RemoveLine(1); err != nil {
		t.Fatalf("remove line: %v", err)
	}

	bill := con.Bill()
	if len(bill) != 2 {
		t.Fatalf("expected 2 lines after removal, got %d", len(bill))
	}
	if bill[0].ID != 1 || bill[1].ID != 1 {
		t.Fatalf("expected remaining lines in original order, got ids %d,%d", bill[0].ID, bill[1].ID)
	}
}

func TestSubmitBillEmptyBillAlertsWithoutRequest(t *testing.T) {
	con, backend, _, prompter := newTestConsole(t)
	mustInit(t, con)

	if err := con.SubmitBill(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if backend.count("bill/save") != 0 {
		t.Fatalf("expected no save request for empty bill")
	}
	if len(prompter.alerts) != 1 || !strings.Contains(prompter.alerts[0], "Add items") {
		t.Fatalf("expected empty-bill alert, got %v", prompter.alerts)
	}
}

func TestSubmitBillWorkerNumberValidation(t *testing.T) {
	for _, raw := range []string{"0", "133", "", "abc"} {
		t.Run("rejects "+raw, func(t *testing.T) {
			con, backend, _, prompter := newTestConsole(t)
			mustInit(t, con)
			mustAdd(t, con, 1)
			con.SetWorkerNumber(raw)

			if err := con.SubmitBill(context.Background()); err != nil {
				t.Fatalf("submit: %v", err)
			}
			if backend.count("bill/save") != 0 {
				t.Fatalf("expected no save request for worker %q", raw)
			}
			if len(prompter.alerts) != 1 || !strings.Contains(prompter.alerts[0], "Worker Number") {
				t.Fatalf("expected worker validation alert, got %v", prompter.alerts)
			}
		})
	}

	for _, raw := range []string{"1", "132"} {
		t.Run("accepts "+raw, func(t *testing.T) {
			con, backend, _, _ := newTestConsole(t)
			mustInit(t, con)
			mustAdd(t, con, 1)
			con.SetWorkerNumber(raw)

			if err := con.SubmitBill(context.Background()); err != nil {
				t.Fatalf("submit: %v", err)
			}
			if backend.count("bill/save") != 1 {
				t.Fatalf("expected exactly one save request for worker %q", raw)
			}
		})
	}
}

func TestSubmitBillComputesTotal(t *testing.T) {
	con, backend, _, _ := newTestConsole(t)
	backend.stock = []domain.StockItem{
		{ID: 1, Item: "Shirt", Size: "M", Color: "White", Qty: 10, Price: 100},
		{ID: 2, Item: "Kurta", Size: "L", Color: "Red", Qty: 10, Price: 50},
	}
	mustInit(t, con)
	mustAdd(t, con, 1)
	mustAdd(t, con, 2)
	if err := con.UpdateLineQuantity(0, "2"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := con.UpdateLineQuantity(1, "3"); err != nil {
		t.Fatalf("update: %v", err)
	}
	con.SetWorkerNumber("5")

	if err := con.SubmitBill(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	saved := backend.savedBill()
	if saved == nil {
		t.Fatalf("expected a save request")
	}
	if saved.Total != 350 {
		t.Fatalf("expected total 350, got %v", saved.Total)
	}
	if saved.WorkerID != 5 {
		t.Fatalf("expected worker 5, got %d", saved.WorkerID)
	}
	if saved.CustomerName != "Cash Customer" {
		t.Fatalf("expected default customer name, got %q", saved.CustomerName)
	}
}

func TestSubmitBillClearsStateAndReloadsStock(t *testing.T) {
	con, backend, screen, prompter := newTestConsole(t)
	mustInit(t, con)
	mustAdd(t, con, 1)
	con.SetCustomerName("Asha")
	con.SetPhone("9876543210")
	con.SetWorkerNumber("7")
	stockFetches := backend.count("stock")

	if err := con.SubmitBill(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(con.Bill()) != 0 {
		t.Fatalf("expected cleared bill")
	}
	if backend.count("stock") != stockFetches+1 {
		t.Fatalf("expected one stock reload after submit")
	}
	if markup := screen.last(RegionBill); !strings.Contains(markup, "No items in bill") {
		t.Fatalf("expected empty-bill placeholder after submit, got:\n%s", markup)
	}
	if screen.last(RegionWorkerInfo) != "" {
		t.Fatalf("expected cleared worker preview after submit")
	}
	found := false
	for _, alert := range prompter.alerts {
		if strings.Contains(alert, "Bill Saved!") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected confirmation alert, got %v", prompter.alerts)
	}
}

func TestPreviewWorker(t *testing.T) {
	con, _, screen, _ := newTestConsole(t)

	con.SetWorkerNumber("50")
	if got := screen.last(RegionWorkerInfo); got != "Worker-50" {
		t.Fatalf("expected Worker-50, got %q", got)
	}

	con.SetWorkerNumber("200")
	if got := screen.last(RegionWorkerInfo); got != "" {
		t.Fatalf("expected empty preview for 200, got %q", got)
	}

	con.SetWorkerNumber("")
	if got := screen.last(RegionWorkerInfo); got != "" {
		t.Fatalf("expected empty preview for blank field, got %q", got)
	}
}

func TestLookupLastBillShortPhoneSkipsRequest(t *testing.T) {
	con, backend, _, _ := newTestConsole(t)

	if err := con.LookupLastBill(context.Background(), "123"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if backend.count("last-bill") != 0 {
		t.Fatalf("expected no request for a 3-digit phone")
	}
}

func TestLookupLastBillRendersTotalAndItemCount(t *testing.T) {
	con, backend, screen, _ := newTestConsole(t)
	backend.lastBill = domain.LastBillSummary{ItemsJSON: "[{}, {}]", Total: 500}

	if err := con.LookupLastBill(context.Background(), "9876543210"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if backend.count("last-bill") != 1 {
		t.Fatalf("expected exactly one lookup request")
	}
	if got := screen.last(RegionLastBill); got != "Last Bill: ₹500 | Items: 2" {
		t.Fatalf("unexpected last-bill region: %q", got)
	}
}

func TestLookupLastBillEmptyItemsDecodesToZero(t *testing.T) {
	con, backend, screen, _ := newTestConsole(t)
	backend.lastBill = domain.LastBillSummary{ItemsJSON: "", Total: 0}

	if err := con.LookupLastBill(context.Background(), "9876543210"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got := screen.last(RegionLastBill); got != "Last Bill: ₹0 | Items: 0" {
		t.Fatalf("unexpected last-bill region: %q", got)
	}
}

func TestAddStockGuards(t *testing.T) {
	con, backend, _, _ := newTestConsole(t)
	mustInit(t, con)

	if err := con.AddStock(context.Background(), StockForm{Item: "", Qty: 5, Price: 100}); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if err := con.AddStock(context.Background(), StockForm{Item: "Shirt", Qty: 0, Price: 100}); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if backend.count("stock/add") != 0 {
		t.Fatalf("expected no request for aborted adds")
	}

	if err := con.AddStock(context.Background(), StockForm{Item: "Shirt", Size: "M", Color: "Blue", Qty: 10, Price: 0}); err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if backend.count("stock/add") != 1 {
		t.Fatalf("expected one add request")
	}
}

func TestLoadIncentivesRendersAmountAndPieces(t *testing.T) {
	con, _, screen, _ := newTestConsole(t)

	if err := con.LoadIncentives(context.Background()); err != nil {
		t.Fatalf("load incentives: %v", err)
	}

	markup := screen.last(RegionIncentives)
	if !strings.Contains(markup, "Worker-7:") || !strings.Contains(markup, "₹42 (42 pieces)") {
		t.Fatalf("unexpected incentives markup:\n%s", markup)
	}
}

func TestResetIncentivesConfirmGate(t *testing.T) {
	con, backend, _, prompter := newTestConsole(t)

	prompter.confirms = []bool{false}
	if err := con.ResetIncentives(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if backend.count("reset") != 0 {
		t.Fatalf("expected no reset request when declined")
	}

	prompter.confirms = []bool{true}
	if err := con.ResetIncentives(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if backend.count("reset") != 1 {
		t.Fatalf("expected exactly one reset request")
	}
	if backend.count("workers") != 1 {
		t.Fatalf("expected exactly one worker re-fetch after reset, got %d", backend.count("workers"))
	}
}

func mustInit(t *testing.T, con *Console) {
	t.Helper()
	if err := con.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
}

func mustAdd(t *testing.T, con *Console, id int64) {
	t.Helper()
	if err := con.AddToBill(id); err != nil {
		t.Fatalf("add to bill %d: %v", id, err)
	}
}
