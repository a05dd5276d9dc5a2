package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harveystores/reorder-backend/internal/config"
	"github.com/harveystores/reorder-backend/internal/domain"
	"github.com/harveystores/reorder-backend/internal/repository"
	"github.com/harveystores/reorder-backend/internal/repository/memory"
)

const (
	testSupplierID = "sup-1"
	testUserID     = int64(7)
)

func newTestService(t *testing.T) (*OrderService, *memory.SalesStore, *memory.OrderStore) {
	t.Helper()

	sales := memory.NewSalesStore()
	orders := memory.NewOrderStore()
	sales.Suppliers[testSupplierID] = domain.Supplier{ID: testSupplierID, Name: "Acme Wholesale"}

	svc := NewOrderService(orders, sales, config.OrderConfig{}, nil)

	return svc, sales, orders
}

// seedCaseProduct sets up a case-of-12 product selling 130 units a month with
// 10 on hand. The expected suggestion is 3 cases, 36 units.
func seedCaseProduct(sales *memory.SalesStore, productID string) {
	sales.Products[testSupplierID] = append(sales.Products[testSupplierID], &domain.Product{
		ID:        productID,
		Code:      productID,
		Name:      "Cola 330ml",
		PriceBuy:  2.50,
		SellPrice: 3.20,
		SupplierLink: &domain.SupplierLink{
			SupplierID:   testSupplierID,
			SupplierCode: "ABC1",
			Cost:         2.40,
			CaseUnits:    12,
		},
	})
	sales.Stats[productID] = domain.SalesStatistics{
		TotalSales12m:   1560,
		AvgMonthlySales: 130,
		LastMonthSales:  135,
		Trend:           domain.TrendStable,
	}
	sales.History[productID] = []domain.SalesPeriod{
		{MonthKey: "2026-03", Units: 128}, {MonthKey: "2026-04", Units: 131},
		{MonthKey: "2026-05", Units: 129}, {MonthKey: "2026-06", Units: 132},
		{MonthKey: "2026-07", Units: 130}, {MonthKey: "2026-08", Units: 135},
	}
	sales.Stock[productID] = 10
}

func buildSession(t *testing.T, svc *OrderService) *domain.OrderSession {
	t.Helper()

	result, err := svc.BuildSession(context.Background(), testSupplierID, time.Now(), testUserID)
	if err != nil {
		t.Fatalf("BuildSession: %v", err)
	}

	return result.Session
}

func TestBuildSessionCaseProduct(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")

	session := buildSession(t, svc)

	if session.Status != domain.StatusDraft {
		t.Errorf("Status = %q, want draft", session.Status)
	}
	if len(session.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(session.Items))
	}

	item := session.Items[0]
	if item.SuggestedQuantity != 36 {
		t.Errorf("SuggestedQuantity = %v, want 36", item.SuggestedQuantity)
	}
	if item.SuggestedCases != 3 {
		t.Errorf("SuggestedCases = %v, want 3", item.SuggestedCases)
	}
	if item.FinalQuantity != 36 {
		t.Errorf("FinalQuantity = %v, want 36 before any edit", item.FinalQuantity)
	}
	if item.UnitCost != 2.50 {
		t.Errorf("UnitCost = %v, want 2.50 from purchase price", item.UnitCost)
	}
	if item.TotalCost != 90 {
		t.Errorf("TotalCost = %v, want 90", item.TotalCost)
	}
	if session.TotalItems != 1 {
		t.Errorf("TotalItems = %d, want 1", session.TotalItems)
	}
	if session.TotalValue != 90 {
		t.Errorf("TotalValue = %v, want 90", session.TotalValue)
	}
}

func TestBuildSessionIncludesOverstockedSeller(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	sales.Stock["prod-1"] = 1000

	session := buildSession(t, svc)

	if len(session.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1: a selling product stays visible even when overstocked", len(session.Items))
	}
	if got := session.Items[0].SuggestedQuantity; got != 0 {
		t.Errorf("SuggestedQuantity = %v, want 0", got)
	}
}

func TestBuildSessionExcludesDeadProduct(t *testing.T) {
	svc, sales, _ := newTestService(t)
	sales.Products[testSupplierID] = []*domain.Product{{ID: "dead-1", Code: "dead-1", Name: "Dusty item"}}

	session := buildSession(t, svc)

	if len(session.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0 for a product with no sales and no need", len(session.Items))
	}
}

func TestBuildSessionSkipsFailingProduct(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	seedCaseProduct(sales, "prod-2")
	sales.StatsErr["prod-1"] = errors.New("ledger timeout")

	result, err := svc.BuildSession(context.Background(), testSupplierID, time.Now(), testUserID)
	if err != nil {
		t.Fatalf("BuildSession: %v", err)
	}

	if len(result.Skipped) != 1 || result.Skipped[0].ProductID != "prod-1" {
		t.Fatalf("Skipped = %+v, want exactly prod-1", result.Skipped)
	}
	if len(result.Session.Items) != 1 || result.Session.Items[0].ProductID != "prod-2" {
		t.Errorf("Items = %+v, want only prod-2", result.Session.Items)
	}
}

func TestBuildSessionReviewOrder(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "small")
	seedCaseProduct(sales, "big")
	sales.Stats["big"] = domain.SalesStatistics{AvgMonthlySales: 500}

	session := buildSession(t, svc)

	if len(session.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(session.Items))
	}
	if session.Items[0].ProductID != "big" {
		t.Errorf("first item = %q, want the higher-volume product first", session.Items[0].ProductID)
	}
}

func TestApplyQuantityCaseNormalization(t *testing.T) {
	svc, sales, orders := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)
	item := session.Items[0]

	// 30 units is not a whole number of 12-packs; it rounds up to 3 cases.
	updated, err := svc.ApplyQuantity(context.Background(), item.ID, 30, "shelf space", testUserID)
	if err != nil {
		t.Fatalf("ApplyQuantity: %v", err)
	}

	if updated.FinalQuantity != 36 {
		t.Errorf("FinalQuantity = %v, want 36", updated.FinalQuantity)
	}
	if updated.FinalCases != 3 {
		t.Errorf("FinalCases = %v, want 3", updated.FinalCases)
	}

	// 36 equals the suggestion, so no training signal is written.
	if adjustments := orders.Adjustments(); len(adjustments) != 0 {
		t.Errorf("adjustments = %d, want 0 when the normalized edit matches the suggestion", len(adjustments))
	}
}

func TestApplyQuantityRecordsAdjustment(t *testing.T) {
	svc, sales, orders := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)
	item := session.Items[0]

	updated, err := svc.ApplyQuantity(context.Background(), item.ID, 72, "promo week", testUserID)
	if err != nil {
		t.Fatalf("ApplyQuantity: %v", err)
	}
	if updated.FinalQuantity != 72 {
		t.Errorf("FinalQuantity = %v, want 72", updated.FinalQuantity)
	}

	adjustments := orders.Adjustments()
	if len(adjustments) != 1 {
		t.Fatalf("adjustments = %d, want 1", len(adjustments))
	}
	adj := adjustments[0]
	if adj.AdjustmentFactor != 2 {
		t.Errorf("AdjustmentFactor = %v, want 2", adj.AdjustmentFactor)
	}
	if adj.UserID != testUserID {
		t.Errorf("UserID = %d, want %d", adj.UserID, testUserID)
	}
	if adj.Reason != "promo week" {
		t.Errorf("Reason = %q, want promo week", adj.Reason)
	}

	// Session totals follow the edit.
	refreshed, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if refreshed.TotalValue != 180 {
		t.Errorf("TotalValue = %v, want 180 after doubling the line", refreshed.TotalValue)
	}
}

func TestApplyQuantityNegative(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)

	_, err := svc.ApplyQuantity(context.Background(), session.Items[0].ID, -1, "", testUserID)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("err = %v, want ErrInvalidQuantity", err)
	}
}

func TestApplyCasesOnCaseProduct(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)

	updated, err := svc.ApplyCases(context.Background(), session.Items[0].ID, 5, "", testUserID)
	if err != nil {
		t.Fatalf("ApplyCases: %v", err)
	}
	if updated.FinalQuantity != 60 {
		t.Errorf("FinalQuantity = %v, want 60 for 5 cases of 12", updated.FinalQuantity)
	}
	if updated.TotalCost != 150 {
		t.Errorf("TotalCost = %v, want 150", updated.TotalCost)
	}
}

func TestApplyCasesFractionalRoundsUp(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)

	// Partial cases cannot be ordered: 2.5 cases of 12 rounds up to 3 full
	// cases so the unit quantity stays on the case grid.
	updated, err := svc.ApplyCases(context.Background(), session.Items[0].ID, 2.5, "", testUserID)
	if err != nil {
		t.Fatalf("ApplyCases: %v", err)
	}
	if updated.FinalCases != 3 {
		t.Errorf("FinalCases = %v, want 3", updated.FinalCases)
	}
	if updated.FinalQuantity != 36 {
		t.Errorf("FinalQuantity = %v, want 36", updated.FinalQuantity)
	}
	if remainder := int(updated.FinalQuantity) % updated.CaseUnits; remainder != 0 {
		t.Errorf("FinalQuantity %% CaseUnits = %d, want 0", remainder)
	}
}

func TestApplyCostKeepsQuantitySignalClean(t *testing.T) {
	svc, sales, orders := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)

	updated, err := svc.ApplyCost(context.Background(), session.Items[0].ID, 2.00, testUserID)
	if err != nil {
		t.Fatalf("ApplyCost: %v", err)
	}
	if updated.UnitCost != 2.00 {
		t.Errorf("UnitCost = %v, want 2.00", updated.UnitCost)
	}
	if updated.TotalCost != 72 {
		t.Errorf("TotalCost = %v, want 72", updated.TotalCost)
	}
	if adjustments := orders.Adjustments(); len(adjustments) != 0 {
		t.Errorf("adjustments = %d, want 0 for a cost correction", len(adjustments))
	}
}

func TestLearningLoopDampensNextBuild(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")

	first := buildSession(t, svc)
	if _, err := svc.ApplyQuantity(context.Background(), first.Items[0].ID, 72, "", testUserID); err != nil {
		t.Fatalf("ApplyQuantity: %v", err)
	}

	// base 35.03 * (1 + (2.0-1)*0.7) = 59.56, rounded up to 5 cases.
	second := buildSession(t, svc)
	if got := second.Items[0].SuggestedQuantity; got != 60 {
		t.Errorf("second SuggestedQuantity = %v, want 60", got)
	}
	if got := second.Items[0].SuggestedCases; got != 5 {
		t.Errorf("second SuggestedCases = %v, want 5", got)
	}
}

func TestCompleteIsTerminal(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)
	itemID := session.Items[0].ID

	completed, err := svc.Complete(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want completed", completed.Status)
	}

	if _, err := svc.Complete(context.Background(), session.ID); !errors.Is(err, ErrSessionNotEditable) {
		t.Errorf("second Complete err = %v, want ErrSessionNotEditable", err)
	}
	if _, err := svc.ApplyQuantity(context.Background(), itemID, 12, "", testUserID); !errors.Is(err, ErrSessionNotEditable) {
		t.Errorf("edit after complete err = %v, want ErrSessionNotEditable", err)
	}
	if err := svc.Delete(context.Background(), session.ID); !errors.Is(err, ErrSessionNotEditable) {
		t.Errorf("delete after complete err = %v, want ErrSessionNotEditable", err)
	}
}

func TestDeleteDraft(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)

	if err := svc.Delete(context.Background(), session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetSession(context.Background(), session.ID); err == nil {
		t.Error("GetSession after delete succeeded, want not found")
	}
}

func TestBulkApplyQuantitiesSkipsForeignItems(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	first := buildSession(t, svc)
	second := buildSession(t, svc)

	updated, err := svc.BulkApplyQuantities(context.Background(), first.ID, map[int64]float64{
		first.Items[0].ID:  48,
		second.Items[0].ID: 48,
	}, "bulk", testUserID)
	if err != nil {
		t.Fatalf("BulkApplyQuantities: %v", err)
	}

	if len(updated) != 1 {
		t.Fatalf("updated = %d items, want 1: the foreign item is ignored", len(updated))
	}
	if updated[0].ID != first.Items[0].ID {
		t.Errorf("updated item %d, want %d", updated[0].ID, first.Items[0].ID)
	}

	other, err := svc.GetSession(context.Background(), second.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if other.Items[0].FinalQuantity != 36 {
		t.Errorf("foreign item FinalQuantity = %v, want untouched 36", other.Items[0].FinalQuantity)
	}
}

func TestStatistics(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "steady")

	// High-value unit product that must land in the review bucket.
	sales.Products[testSupplierID] = append(sales.Products[testSupplierID], &domain.Product{
		ID:        "pricey",
		Code:      "pricey",
		Name:      "Single malt",
		PriceBuy:  40,
		SellPrice: 120,
	})
	sales.Stats["pricey"] = domain.SalesStatistics{AvgMonthlySales: 10}

	session := buildSession(t, svc)
	if _, err := svc.ApplyQuantity(context.Background(), session.Items[0].ID, 72, "", testUserID); err != nil {
		t.Fatalf("ApplyQuantity: %v", err)
	}

	stats, err := svc.Statistics(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	if stats.TotalItems != 2 {
		t.Errorf("TotalItems = %d, want 2", stats.TotalItems)
	}
	if stats.SafeItems != 1 {
		t.Errorf("SafeItems = %d, want 1", stats.SafeItems)
	}
	if stats.ReviewItems != 1 {
		t.Errorf("ReviewItems = %d, want 1", stats.ReviewItems)
	}
	if stats.AdjustedItems != 1 {
		t.Errorf("AdjustedItems = %d, want 1", stats.AdjustedItems)
	}
	if stats.AvgItemValue != stats.TotalValue/2 {
		t.Errorf("AvgItemValue = %v, want TotalValue/2", stats.AvgItemValue)
	}
}

func TestBuildSessionSequentialByDefault(t *testing.T) {
	svc, _, _ := newTestService(t)

	if svc.suggestionWorkers != 1 {
		t.Errorf("suggestionWorkers = %d, want 1: parallel computation is opt-in", svc.suggestionWorkers)
	}
}

func TestBuildSessionPooledKeepsOrder(t *testing.T) {
	sales := memory.NewSalesStore()
	orders := memory.NewOrderStore()
	sales.Suppliers[testSupplierID] = domain.Supplier{ID: testSupplierID, Name: "Acme Wholesale"}
	seedCaseProduct(sales, "small")
	seedCaseProduct(sales, "big")
	sales.Stats["big"] = domain.SalesStatistics{AvgMonthlySales: 500}

	svc := NewOrderService(orders, sales, config.OrderConfig{SuggestionWorkers: 4}, nil)

	session := buildSession(t, svc)
	if len(session.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(session.Items))
	}
	if session.Items[0].ProductID != "big" || session.Items[1].ProductID != "small" {
		t.Errorf("item order = [%s, %s], want [big, small] with workers enabled",
			session.Items[0].ProductID, session.Items[1].ProductID)
	}
}

func TestAutoApproveSafeItems(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "steady") // safe: long-life case product, flat sales
	sales.Products[testSupplierID] = append(sales.Products[testSupplierID], &domain.Product{
		ID:        "pricey",
		Code:      "pricey",
		Name:      "Single malt",
		PriceBuy:  40,
		SellPrice: 120,
	})
	sales.Stats["pricey"] = domain.SalesStatistics{AvgMonthlySales: 10}

	session := buildSession(t, svc)

	approved, err := svc.AutoApproveSafeItems(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("AutoApproveSafeItems: %v", err)
	}
	if approved != 1 {
		t.Errorf("approved = %d, want 1: only the safe line flips", approved)
	}

	refreshed, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	for _, item := range refreshed.Items {
		wantApproved := item.ReviewPriority == domain.PrioritySafe
		if item.AutoApproved != wantApproved {
			t.Errorf("item %s AutoApproved = %v, want %v", item.ProductID, item.AutoApproved, wantApproved)
		}
	}

	// Already-approved lines do not count again.
	approved, err = svc.AutoApproveSafeItems(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("AutoApproveSafeItems: %v", err)
	}
	if approved != 0 {
		t.Errorf("second approved = %d, want 0", approved)
	}

	if _, err := svc.Complete(context.Background(), session.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := svc.AutoApproveSafeItems(context.Background(), session.ID); !errors.Is(err, ErrSessionNotEditable) {
		t.Errorf("err after complete = %v, want ErrSessionNotEditable", err)
	}
}

func TestDuplicateSession(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	original := buildSession(t, svc)
	if _, err := svc.Complete(context.Background(), original.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	result, err := svc.Duplicate(context.Background(), original.ID, testUserID)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}

	dup := result.Session
	if dup.ID == original.ID {
		t.Fatal("duplicate reused the original session ID")
	}
	if dup.Status != domain.StatusDraft {
		t.Errorf("Status = %q, want a fresh draft", dup.Status)
	}
	if dup.SupplierID != original.SupplierID {
		t.Errorf("SupplierID = %q, want %q", dup.SupplierID, original.SupplierID)
	}
	wantDate := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	if got := dup.OrderDate.Format("2006-01-02"); got != wantDate {
		t.Errorf("OrderDate = %s, want %s", got, wantDate)
	}
	if len(dup.Items) != 1 || dup.Items[0].SuggestedQuantity != 36 {
		t.Errorf("duplicate items = %+v, want one fresh 36-unit suggestion", dup.Items)
	}

	// The source stays completed and untouched.
	source, err := svc.GetSession(context.Background(), original.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if source.Status != domain.StatusCompleted {
		t.Errorf("source Status = %q, want completed", source.Status)
	}
}

func TestGetSessionItemRejectsForeignSession(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	first := buildSession(t, svc)
	second := buildSession(t, svc)

	if _, err := svc.GetSessionItem(context.Background(), first.ID, first.Items[0].ID); err != nil {
		t.Fatalf("GetSessionItem own item: %v", err)
	}
	if _, err := svc.GetSessionItem(context.Background(), first.ID, second.Items[0].ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("foreign item err = %v, want ErrNotFound", err)
	}
}

func TestExportCSV(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)

	csv, err := svc.ExportCSV(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("export has %d lines, want header plus one row:\n%s", len(lines), csv)
	}
	if lines[0] != "Code,Ordered,Cases,Units,SKU,Content,Description,Price,Sale,Total" {
		t.Errorf("header = %q", lines[0])
	}
	want := `ABC1,1,3.000,36.000,prod-1,"Case of 12","Cola 330ml",2.50,2.50,90.00`
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestExportCSVSkipsZeroQuantityLines(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	sales.Stock["prod-1"] = 1000 // included at quantity zero

	session := buildSession(t, svc)

	csv, err := svc.ExportCSV(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if lines := strings.Split(strings.TrimRight(csv, "\n"), "\n"); len(lines) != 1 {
		t.Errorf("export has %d lines, want header only:\n%s", len(lines), csv)
	}
}

func TestExportCSVUnitProduct(t *testing.T) {
	svc, sales, _ := newTestService(t)
	sales.Products[testSupplierID] = []*domain.Product{{
		ID:          "loose-1",
		Code:        "loose-1",
		Name:        "Bread roll",
		PriceBuy:    0.40,
		SellPrice:   0.80,
		PackageSize: "Bag of 6",
	}}
	sales.Stats["loose-1"] = domain.SalesStatistics{AvgMonthlySales: 43.3}

	session := buildSession(t, svc)

	csv, err := svc.ExportCSV(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	lines := strings.Split(strings.TrimRight(csv, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("export has %d lines, want 2:\n%s", len(lines), csv)
	}
	// Cases column stays blank and the package size is used as content.
	want := `loose-1,1,,15.000,loose-1,"Bag of 6","Bread roll",0.40,0.40,6.00`
	if lines[1] != want {
		t.Errorf("row = %q, want %q", lines[1], want)
	}
}

func TestExportFilename(t *testing.T) {
	svc, sales, _ := newTestService(t)
	seedCaseProduct(sales, "prod-1")
	session := buildSession(t, svc)

	name := svc.ExportFilename(context.Background(), session)
	want := "order_Acme Wholesale_" + session.OrderDate.Format("2006-01-02") + ".csv"
	if name != want {
		t.Errorf("ExportFilename = %q, want %q", name, want)
	}
}

func TestUpdateProductPriority(t *testing.T) {
	svc, _, _ := newTestService(t)

	setting, err := svc.UpdateProductPriority(context.Background(), "prod-1", domain.PriorityReview)
	if err != nil {
		t.Fatalf("UpdateProductPriority: %v", err)
	}
	if setting.ReviewPriority != domain.PriorityReview {
		t.Errorf("ReviewPriority = %q, want review", setting.ReviewPriority)
	}
	if setting.SafetyStockFactor != 1.5 {
		t.Errorf("SafetyStockFactor = %v, want the 1.5 default on creation", setting.SafetyStockFactor)
	}
}
