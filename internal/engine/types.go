package engine

import (
	"time"

	"github.com/harveystores/reorder-backend/internal/domain"
)

// Input bundles everything a suggestion is computed from. All data is
// fetched by the caller; the calculator itself never touches storage.
type Input struct {
	Product      domain.Product
	Settings     *domain.ProductOrderSetting // nil when no overrides exist
	Stats        domain.SalesStatistics
	History      []domain.SalesPeriod // trailing months, oldest first
	CurrentStock float64

	// Adjustments are the caller's prior overrides for this product,
	// already filtered to the learning window.
	Adjustments []domain.OrderAdjustment

	RecentPurchasePrice *float64
	LastSaleDate        *time.Time
}

// Suggestion is the computed order proposal for one product.
type Suggestion struct {
	SuggestedQuantity float64
	SuggestedCases    float64
	CaseUnits         int
	UnitCost          float64
	ReviewPriority    domain.ReviewPriority
	AutoApproved      bool
	ForceInclude      bool
	Context           domain.SuggestionContext
}

// Cost source tags recorded in the suggestion context.
const (
	CostSourcePurchasePrice  = "purchase_price"
	CostSourceSupplierLink   = "supplier_link"
	CostSourceRetailPrice    = "retail_price"
	CostSourceRecentPurchase = "recent_purchase"
	CostSourceNone           = "no_cost_data"
)

// Config holds the calculator tunables.
type Config struct {
	// DefaultSafetyFactor applies when a product has no order settings.
	DefaultSafetyFactor float64
	// LearningRate is the share of the learned deviation applied to the
	// base quantity. Kept below 1 so a single outlier override cannot
	// swing future suggestions to its full extent.
	LearningRate float64
	// HighValueThreshold is the retail price above which a line is always
	// flagged for review.
	HighValueThreshold float64
	// SafeVarianceCeiling is the sales coefficient-of-variation below
	// which a long-life case product counts as safe.
	SafeVarianceCeiling float64
}

// DefaultConfig mirrors the production ordering defaults.
func DefaultConfig() Config {
	return Config{
		DefaultSafetyFactor: 1.5,
		LearningRate:        0.7,
		HighValueThreshold:  50,
		SafeVarianceCeiling: 0.3,
	}
}
