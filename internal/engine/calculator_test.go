package engine

import (
	"math"
	"testing"
	"time"

	"github.com/harveystores/reorder-backend/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func caseProduct(caseUnits int) domain.Product {
	return domain.Product{
		ID:        "P-1",
		Code:      "P-1",
		Name:      "Test product",
		PriceBuy:  2.50,
		SellPrice: 3.20,
		SupplierLink: &domain.SupplierLink{
			SupplierID:   "S-1",
			SupplierCode: "ABC1",
			Cost:         2.40,
			CaseUnits:    caseUnits,
		},
	}
}

func flatHistory(months int, units float64) []domain.SalesPeriod {
	history := make([]domain.SalesPeriod, 0, months)
	for i := 0; i < months; i++ {
		history = append(history, domain.SalesPeriod{
			MonthKey: "2026-0" + string(rune('1'+i)),
			Units:    units,
		})
	}
	return history
}

func TestSuggestCaseRounding(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	sug := calc.Suggest(Input{
		Product:      caseProduct(12),
		Stats:        domain.SalesStatistics{AvgMonthlySales: 130},
		History:      flatHistory(6, 21.5),
		CurrentStock: 10,
	})

	// 130/4.33 * 1.5 - 10 = 35.03 units, rounded up to 3 cases of 12.
	if sug.SuggestedCases != 3 {
		t.Errorf("SuggestedCases = %v, want 3", sug.SuggestedCases)
	}
	if sug.SuggestedQuantity != 36 {
		t.Errorf("SuggestedQuantity = %v, want 36", sug.SuggestedQuantity)
	}
	if sug.CaseUnits != 12 {
		t.Errorf("CaseUnits = %d, want 12", sug.CaseUnits)
	}
	if !sug.Context.IsCaseProduct {
		t.Error("IsCaseProduct = false, want true")
	}
	if !sug.ForceInclude {
		t.Error("ForceInclude = false, want true for a selling product")
	}
}

func TestSuggestNeverNegative(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	sug := calc.Suggest(Input{
		Product:      caseProduct(1),
		Stats:        domain.SalesStatistics{AvgMonthlySales: 20},
		CurrentStock: 1000,
	})

	if sug.SuggestedQuantity != 0 {
		t.Errorf("SuggestedQuantity = %v, want 0 with overstocked shelf", sug.SuggestedQuantity)
	}
	// Still force-included so the reviewer sees the overstock.
	if !sug.ForceInclude {
		t.Error("ForceInclude = false, want true when the product still sells")
	}
}

func TestSuggestNoSalesNoStock(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	sug := calc.Suggest(Input{
		Product: caseProduct(1),
	})

	if sug.SuggestedQuantity != 0 {
		t.Errorf("SuggestedQuantity = %v, want 0", sug.SuggestedQuantity)
	}
	if sug.ForceInclude {
		t.Error("ForceInclude = true, want false with no sales and no need")
	}
	if sug.Context.StockDaysRemaining != 999 {
		t.Errorf("StockDaysRemaining = %v, want sentinel 999", sug.Context.StockDaysRemaining)
	}
}

func TestSuggestStockDaysRemaining(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	sug := calc.Suggest(Input{
		Product:      caseProduct(1),
		Stats:        domain.SalesStatistics{AvgMonthlySales: 43.3}, // 10/week
		CurrentStock: 20,
	})

	if sug.Context.StockDaysRemaining != 14 {
		t.Errorf("StockDaysRemaining = %v, want 14", sug.Context.StockDaysRemaining)
	}
}

func TestApplyLearningDamping(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	// Reviewer historically doubles the suggestion. Only 70% of that
	// deviation carries forward.
	adjustments := []domain.OrderAdjustment{
		{AdjustmentFactor: 2.0},
		{AdjustmentFactor: 2.0},
	}

	adjusted := calc.applyLearning(100, adjustments)
	if !almostEqual(adjusted, 170) {
		t.Errorf("applyLearning(100, 2.0x history) = %v, want 170", adjusted)
	}
}

func TestApplyLearningNoHistory(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	if got := calc.applyLearning(42, nil); got != 42 {
		t.Errorf("applyLearning with no history = %v, want 42", got)
	}
}

func TestApplyLearningDownwardDrift(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	adjustments := []domain.OrderAdjustment{{AdjustmentFactor: 0.5}}

	// 1 + (0.5-1)*0.7 = 0.65
	adjusted := calc.applyLearning(100, adjustments)
	if !almostEqual(adjusted, 65) {
		t.Errorf("applyLearning(100, 0.5x history) = %v, want 65", adjusted)
	}
}

func TestResolveUnitCostOrder(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	recentPrice := 1.80

	tests := []struct {
		name       string
		input      Input
		wantCost   float64
		wantSource string
	}{
		{
			name:       "purchase price wins",
			input:      Input{Product: caseProduct(12), RecentPurchasePrice: &recentPrice},
			wantCost:   2.50,
			wantSource: CostSourcePurchasePrice,
		},
		{
			name: "supplier link cost next",
			input: Input{Product: domain.Product{
				SellPrice:    3.20,
				SupplierLink: &domain.SupplierLink{Cost: 2.40},
			}},
			wantCost:   2.40,
			wantSource: CostSourceSupplierLink,
		},
		{
			name:       "retail price as proxy",
			input:      Input{Product: domain.Product{SellPrice: 3.20}},
			wantCost:   3.20,
			wantSource: CostSourceRetailPrice,
		},
		{
			name:       "recent purchase last",
			input:      Input{Product: domain.Product{}, RecentPurchasePrice: &recentPrice},
			wantCost:   1.80,
			wantSource: CostSourceRecentPurchase,
		},
		{
			name:       "nothing known",
			input:      Input{Product: domain.Product{}},
			wantCost:   0,
			wantSource: CostSourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, source := calc.resolveUnitCost(tt.input)
			if cost != tt.wantCost {
				t.Errorf("cost = %v, want %v", cost, tt.wantCost)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
		})
	}
}

func TestSuggestNoCostData(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	sug := calc.Suggest(Input{
		Product: domain.Product{ID: "P-2"},
		Stats:   domain.SalesStatistics{AvgMonthlySales: 10},
	})

	if sug.UnitCost != 0 {
		t.Errorf("UnitCost = %v, want 0", sug.UnitCost)
	}
	if sug.Context.HasCostData {
		t.Error("HasCostData = true, want false")
	}
	if sug.Context.CostSource != CostSourceNone {
		t.Errorf("CostSource = %q, want %q", sug.Context.CostSource, CostSourceNone)
	}
}

func intPtr(v int) *int { return &v }

func TestClassifyPriority(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	steady := flatHistory(6, 50)
	volatile := []domain.SalesPeriod{
		{Units: 5}, {Units: 100}, {Units: 2}, {Units: 80},
	}

	tests := []struct {
		name      string
		input     Input
		caseUnits int
		want      domain.ReviewPriority
	}{
		{
			name: "manual override wins",
			input: Input{
				Product:  caseProduct(12),
				Settings: &domain.ProductOrderSetting{ReviewPriority: domain.PrioritySafe, ShelfLifeDays: intPtr(3)},
				History:  volatile,
			},
			caseUnits: 12,
			want:      domain.PrioritySafe,
		},
		{
			name: "perishable needs review",
			input: Input{
				Product:  caseProduct(12),
				Settings: &domain.ProductOrderSetting{ShelfLifeDays: intPtr(5)},
				History:  steady,
			},
			caseUnits: 12,
			want:      domain.PriorityReview,
		},
		{
			name: "high value needs review",
			input: Input{
				Product: domain.Product{SellPrice: 120},
				History: steady,
			},
			caseUnits: 1,
			want:      domain.PriorityReview,
		},
		{
			name: "steady long-life case product is safe",
			input: Input{
				Product: caseProduct(12),
				History: steady,
			},
			caseUnits: 12,
			want:      domain.PrioritySafe,
		},
		{
			name: "volatile case product stays standard",
			input: Input{
				Product: caseProduct(12),
				History: volatile,
			},
			caseUnits: 12,
			want:      domain.PriorityStandard,
		},
		{
			name: "unit product stays standard",
			input: Input{
				Product: domain.Product{SellPrice: 3.20},
				History: steady,
			},
			caseUnits: 1,
			want:      domain.PriorityStandard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.classifyPriority(tt.input, tt.caseUnits); got != tt.want {
				t.Errorf("classifyPriority() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSalesVariance(t *testing.T) {
	if got := salesVariance(nil); got != 1.0 {
		t.Errorf("salesVariance(nil) = %v, want 1.0", got)
	}
	if got := salesVariance([]domain.SalesPeriod{{Units: 10}}); got != 1.0 {
		t.Errorf("salesVariance(1 point) = %v, want 1.0", got)
	}
	if got := salesVariance(flatHistory(4, 0)); got != 1.0 {
		t.Errorf("salesVariance(zero mean) = %v, want 1.0", got)
	}
	if got := salesVariance(flatHistory(6, 50)); got != 0 {
		t.Errorf("salesVariance(flat) = %v, want 0", got)
	}

	// Only the trailing four periods count: the early spike must not
	// contaminate a recently stable product.
	history := append([]domain.SalesPeriod{{Units: 500}, {Units: 1}}, flatHistory(4, 50)...)
	if got := salesVariance(history); got != 0 {
		t.Errorf("salesVariance(stable tail) = %v, want 0", got)
	}
}

func TestSuggestContextSnapshot(t *testing.T) {
	calc := NewCalculator(DefaultConfig())
	lastSale := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	sug := calc.Suggest(Input{
		Product:      caseProduct(12),
		Stats:        domain.SalesStatistics{AvgMonthlySales: 130, LastMonthSales: 120, Trend: domain.TrendUp},
		History:      flatHistory(6, 20),
		CurrentStock: 10,
		LastSaleDate: &lastSale,
	})

	ctx := sug.Context
	if ctx.AvgWeeklySales != 30.02 {
		t.Errorf("AvgWeeklySales = %v, want 30.02", ctx.AvgWeeklySales)
	}
	if ctx.SafetyFactor != 1.5 {
		t.Errorf("SafetyFactor = %v, want 1.5", ctx.SafetyFactor)
	}
	if ctx.CurrentStock != 10 {
		t.Errorf("CurrentStock = %v, want 10", ctx.CurrentStock)
	}
	if ctx.TotalSales6m != 120 {
		t.Errorf("TotalSales6m = %v, want 120", ctx.TotalSales6m)
	}
	if ctx.LastSaleDate != "2026-08-25" {
		t.Errorf("LastSaleDate = %q, want 2026-08-25", ctx.LastSaleDate)
	}
	if ctx.SalesTrend != domain.TrendUp {
		t.Errorf("SalesTrend = %q, want %q", ctx.SalesTrend, domain.TrendUp)
	}
}

func TestCustomSafetyFactor(t *testing.T) {
	calc := NewCalculator(DefaultConfig())

	sug := calc.Suggest(Input{
		Product:  caseProduct(1),
		Settings: &domain.ProductOrderSetting{SafetyStockFactor: 2.0},
		Stats:    domain.SalesStatistics{AvgMonthlySales: 43.3}, // 10/week
	})

	if sug.SuggestedQuantity != 20 {
		t.Errorf("SuggestedQuantity = %v, want 20 with safety factor 2.0", sug.SuggestedQuantity)
	}
	if sug.Context.SafetyFactor != 2.0 {
		t.Errorf("SafetyFactor = %v, want 2.0", sug.Context.SafetyFactor)
	}
}
