// internal/domain/models.go
package domain

import "time"

// Product is a POS catalog product as seen by the ordering engine.
// The engine never mutates products; it only reads codes, prices and
// the supplier link used for case sizing and cost lookup.
type Product struct {
	ID          string  `json:"id" db:"id"`
	Code        string  `json:"code" db:"code"`
	Name        string  `json:"name" db:"name"`
	Category    string  `json:"category" db:"category"`
	PriceBuy    float64 `json:"price_buy" db:"price_buy"`
	SellPrice   float64 `json:"sell_price" db:"sell_price"`
	PackageSize string  `json:"package_size" db:"package_size"`

	SupplierLink *SupplierLink `json:"supplier_link,omitempty"`
}

// SupplierLink ties a product to one supplier's catalog entry.
type SupplierLink struct {
	SupplierID   string  `json:"supplier_id" db:"supplier_id"`
	SupplierCode string  `json:"supplier_code" db:"supplier_code"`
	Cost         float64 `json:"cost" db:"cost"`
	CaseUnits    int     `json:"case_units" db:"case_units"`
}

// ProductOrderSetting holds per-product ordering overrides. Created lazily;
// absence means all defaults apply.
type ProductOrderSetting struct {
	ID                int64          `json:"id" db:"id"`
	ProductID         string         `json:"product_id" db:"product_id"`
	ReviewPriority    ReviewPriority `json:"review_priority" db:"review_priority"`
	AutoApprove       bool           `json:"auto_approve" db:"auto_approve"`
	SafetyStockFactor float64        `json:"safety_stock_factor" db:"safety_stock_factor"`
	MinOrderQuantity  *float64       `json:"min_order_quantity,omitempty" db:"min_order_quantity"`
	MaxOrderQuantity  *float64       `json:"max_order_quantity,omitempty" db:"max_order_quantity"`
	ShelfLifeDays     *int           `json:"shelf_life_days,omitempty" db:"shelf_life_days"`
	Notes             string         `json:"notes" db:"notes"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// OrderSession is one ordering run for a supplier on a date.
type OrderSession struct {
	ID         int64         `json:"id" db:"id"`
	UserID     int64         `json:"user_id" db:"user_id"`
	SupplierID string        `json:"supplier_id" db:"supplier_id"`
	OrderDate  time.Time     `json:"order_date" db:"order_date"`
	Status     SessionStatus `json:"status" db:"status"`
	TotalItems int           `json:"total_items" db:"total_items"`
	TotalValue float64       `json:"total_value" db:"total_value"`
	Notes      string        `json:"notes" db:"notes"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`

	Items []*OrderItem `json:"items,omitempty"`
}

// Editable reports whether the session still accepts item mutations.
func (s *OrderSession) Editable() bool {
	return s.Status == StatusDraft
}

// OrderItem is one suggested line within a session. SuggestedQuantity is
// fixed at generation time; FinalQuantity tracks human edits.
type OrderItem struct {
	ID                int64              `json:"id" db:"id"`
	OrderSessionID    int64              `json:"order_session_id" db:"order_session_id"`
	ProductID         string             `json:"product_id" db:"product_id"`
	SuggestedQuantity float64            `json:"suggested_quantity" db:"suggested_quantity"`
	FinalQuantity     float64            `json:"final_quantity" db:"final_quantity"`
	CaseUnits         int                `json:"case_units" db:"case_units"`
	SuggestedCases    float64            `json:"suggested_cases" db:"suggested_cases"`
	FinalCases        float64            `json:"final_cases" db:"final_cases"`
	UnitCost          float64            `json:"unit_cost" db:"unit_cost"`
	TotalCost         float64            `json:"total_cost" db:"total_cost"`
	ReviewPriority    ReviewPriority     `json:"review_priority" db:"review_priority"`
	AdjustmentReason  string             `json:"adjustment_reason" db:"adjustment_reason"`
	AutoApproved      bool               `json:"auto_approved" db:"auto_approved"`
	Context           *SuggestionContext `json:"context_data" db:"-"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`

	Product *Product `json:"product,omitempty"`
}

// OrderedByCases reports whether this line is ordered in multi-unit cases.
func (i *OrderItem) OrderedByCases() bool {
	return i.CaseUnits > 1
}

// WasAdjusted reports whether a human changed the suggested quantity.
func (i *OrderItem) WasAdjusted() bool {
	return abs(i.FinalQuantity-i.SuggestedQuantity) > 0.001
}

// AdjustmentFactor returns final/suggested, the learning signal ratio.
func (i *OrderItem) AdjustmentFactor() float64 {
	if i.SuggestedQuantity == 0 {
		return 1.0
	}
	return i.FinalQuantity / i.SuggestedQuantity
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// OrderAdjustment is one append-only record of a human override, consumed by
// future suggestion runs for the same user within the learning window.
type OrderAdjustment struct {
	ID               int64              `json:"id" db:"id"`
	ProductID        string             `json:"product_id" db:"product_id"`
	UserID           int64              `json:"user_id" db:"user_id"`
	OriginalQuantity float64            `json:"original_quantity" db:"original_quantity"`
	AdjustedQuantity float64            `json:"adjusted_quantity" db:"adjusted_quantity"`
	AdjustmentFactor float64            `json:"adjustment_factor" db:"adjustment_factor"`
	Context          *SuggestionContext `json:"context_data" db:"-"`
	OrderDate        time.Time          `json:"order_date" db:"order_date"`
	Reason           string             `json:"reason" db:"reason"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
}

// SalesStatistics summarizes a product's trailing sales from the POS ledger.
type SalesStatistics struct {
	TotalSales12m   float64 `json:"total_sales_12m"`
	AvgMonthlySales float64 `json:"avg_monthly_sales"`
	ThisMonthSales  float64 `json:"this_month_sales"`
	LastMonthSales  float64 `json:"last_month_sales"`
	Trend           string  `json:"trend"`
}

// SalesPeriod is one month of sales history, oldest first when in a slice.
type SalesPeriod struct {
	MonthKey string  `json:"month_key"`
	Month    string  `json:"month"`
	Units    float64 `json:"units"`
}

// SuggestionContext snapshots the figures a suggestion was computed from.
// Kept as a typed struct for audit and UI; Extra carries genuinely
// open-ended metadata only.
type SuggestionContext struct {
	AvgWeeklySales      float64       `json:"avg_weekly_sales"`
	CurrentStock        float64       `json:"current_stock"`
	SafetyFactor        float64       `json:"safety_factor"`
	BaseCalculation     float64       `json:"base_calculation"`
	AdjustedCalculation float64       `json:"adjusted_calculation"`
	CaseUnits           int           `json:"case_units"`
	IsCaseProduct       bool          `json:"is_case_product"`
	SalesTrend          string        `json:"sales_trend"`
	LastMonthSales      float64       `json:"last_month_sales"`
	TotalSales6m        float64       `json:"total_sales_6m"`
	SalesHistory        []SalesPeriod `json:"sales_history,omitempty"`
	LastSaleDate        string        `json:"last_sale_date,omitempty"`
	StockDaysRemaining  float64       `json:"stock_days_remaining"`
	CostSource          string        `json:"cost_source"`
	HasCostData         bool          `json:"has_cost_data"`

	Extra map[string]any `json:"extra,omitempty"`
}

// SessionStatistics aggregates a session for the review screen.
type SessionStatistics struct {
	TotalItems        int     `json:"total_items"`
	ReviewItems       int     `json:"review_items"`
	SafeItems         int     `json:"safe_items"`
	StandardItems     int     `json:"standard_items"`
	AutoApprovedItems int     `json:"auto_approved_items"`
	AdjustedItems     int     `json:"adjusted_items"`
	TotalValue        float64 `json:"total_value"`
	AvgItemValue      float64 `json:"avg_item_value"`
}

// SessionFilter restricts session listings.
type SessionFilter struct {
	SupplierID string        `json:"supplier_id"`
	Status     SessionStatus `json:"status"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}

// Supplier is the minimal supplier view needed for session headers and
// export filenames.
type Supplier struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
