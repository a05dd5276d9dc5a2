package engine

import (
	"math"

	"github.com/harveystores/reorder-backend/internal/domain"
)

const (
	// weeksPerMonth converts monthly sales averages to weekly velocity.
	weeksPerMonth = 4.33

	// stockDaysSentinel stands in for "effectively forever" when a product
	// has stock but no measurable velocity.
	stockDaysSentinel = 999

	// variancePeriods is how many trailing months feed the sales
	// coefficient-of-variation used for the safe classification.
	variancePeriods = 4
)

// Calculator turns sales velocity, stock levels and prior human overrides
// into a per-product order suggestion.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given tunables. Zero values
// fall back to the production defaults.
func NewCalculator(cfg Config) *Calculator {
	def := DefaultConfig()
	if cfg.DefaultSafetyFactor <= 0 {
		cfg.DefaultSafetyFactor = def.DefaultSafetyFactor
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.HighValueThreshold <= 0 {
		cfg.HighValueThreshold = def.HighValueThreshold
	}
	if cfg.SafeVarianceCeiling <= 0 {
		cfg.SafeVarianceCeiling = def.SafeVarianceCeiling
	}

	return &Calculator{cfg: cfg}
}

// Suggest computes the order suggestion for one product.
func (c *Calculator) Suggest(in Input) Suggestion {
	safetyFactor := c.cfg.DefaultSafetyFactor
	if in.Settings != nil && in.Settings.SafetyStockFactor > 0 {
		safetyFactor = in.Settings.SafetyStockFactor
	}

	avgWeeklySales := in.Stats.AvgMonthlySales / weeksPerMonth

	// Base: cover one safety-adjusted week of demand minus what is on hand.
	baseQuantity := math.Max(0, avgWeeklySales*safetyFactor-in.CurrentStock)

	adjustedQuantity := c.applyLearning(baseQuantity, in.Adjustments)

	caseUnits := 1
	if in.Product.SupplierLink != nil && in.Product.SupplierLink.CaseUnits > 0 {
		caseUnits = in.Product.SupplierLink.CaseUnits
	}

	// Case goods always round up to whole cases.
	var suggestedCases, finalUnits float64
	if caseUnits > 1 {
		suggestedCases = math.Ceil(adjustedQuantity / float64(caseUnits))
		finalUnits = suggestedCases * float64(caseUnits)
	} else {
		suggestedCases = adjustedQuantity
		finalUnits = adjustedQuantity
	}

	unitCost, costSource := c.resolveUnitCost(in)

	totalSales6m := 0.0
	for _, period := range in.History {
		totalSales6m += period.Units
	}

	stockDays := float64(stockDaysSentinel)
	if avgWeeklySales > 0 {
		stockDays = roundTo(in.CurrentStock/avgWeeklySales*7, 1)
	}

	lastSaleDate := ""
	if in.LastSaleDate != nil {
		lastSaleDate = in.LastSaleDate.Format("2006-01-02")
	}

	autoApproved := in.Settings != nil && in.Settings.AutoApprove

	return Suggestion{
		SuggestedQuantity: roundTo(finalUnits, 3),
		SuggestedCases:    roundTo(suggestedCases, 3),
		CaseUnits:         caseUnits,
		UnitCost:          unitCost,
		ReviewPriority:    c.classifyPriority(in, caseUnits),
		AutoApproved:      autoApproved,
		ForceInclude:      baseQuantity > 0 || avgWeeklySales > 0,
		Context: domain.SuggestionContext{
			AvgWeeklySales:      roundTo(avgWeeklySales, 2),
			CurrentStock:        in.CurrentStock,
			SafetyFactor:        safetyFactor,
			BaseCalculation:     roundTo(baseQuantity, 3),
			AdjustedCalculation: roundTo(adjustedQuantity, 3),
			CaseUnits:           caseUnits,
			IsCaseProduct:       caseUnits > 1,
			SalesTrend:          in.Stats.Trend,
			LastMonthSales:      in.Stats.LastMonthSales,
			TotalSales6m:        totalSales6m,
			SalesHistory:        in.History,
			LastSaleDate:        lastSaleDate,
			StockDaysRemaining:  stockDays,
			CostSource:          costSource,
			HasCostData:         unitCost > 0,
		},
	}
}

// applyLearning blends the average of the caller's past overrides into the
// base quantity. Only a share of the learned deviation is applied so the
// suggestion drifts toward the human pattern without overshooting it.
func (c *Calculator) applyLearning(baseQuantity float64, adjustments []domain.OrderAdjustment) float64 {
	if len(adjustments) == 0 {
		return baseQuantity
	}

	sum := 0.0
	for _, adj := range adjustments {
		sum += adj.AdjustmentFactor
	}
	avgFactor := sum / float64(len(adjustments))

	finalFactor := 1 + (avgFactor-1)*c.cfg.LearningRate

	return baseQuantity * finalFactor
}

// costResolver tries one cost source and reports whether it produced a
// usable value.
type costResolver func(Input) (value float64, source string, ok bool)

// resolveUnitCost walks the cost sources in priority order: purchase price,
// supplier-link cost, retail price, then the most recent observed purchase.
func (c *Calculator) resolveUnitCost(in Input) (float64, string) {
	resolvers := []costResolver{
		func(in Input) (float64, string, bool) {
			return in.Product.PriceBuy, CostSourcePurchasePrice, in.Product.PriceBuy > 0
		},
		func(in Input) (float64, string, bool) {
			if in.Product.SupplierLink == nil {
				return 0, CostSourceSupplierLink, false
			}
			return in.Product.SupplierLink.Cost, CostSourceSupplierLink, in.Product.SupplierLink.Cost > 0
		},
		func(in Input) (float64, string, bool) {
			// Retail price is a last-resort proxy, not a real buy cost.
			return in.Product.SellPrice, CostSourceRetailPrice, in.Product.SellPrice > 0
		},
		func(in Input) (float64, string, bool) {
			if in.RecentPurchasePrice == nil {
				return 0, CostSourceRecentPurchase, false
			}
			return *in.RecentPurchasePrice, CostSourceRecentPurchase, *in.RecentPurchasePrice > 0
		},
	}

	for _, resolve := range resolvers {
		if value, source, ok := resolve(in); ok {
			return value, source
		}
	}

	return 0, CostSourceNone
}

// classifyPriority applies the review rules, first match wins.
func (c *Calculator) classifyPriority(in Input, caseUnits int) domain.ReviewPriority {
	if in.Settings != nil && in.Settings.ReviewPriority != "" {
		return in.Settings.ReviewPriority
	}

	var shelfLifeDays *int
	if in.Settings != nil {
		shelfLifeDays = in.Settings.ShelfLifeDays
	}

	if shelfLifeDays != nil && *shelfLifeDays < 7 {
		return domain.PriorityReview // perishable
	}

	if in.Product.SellPrice > c.cfg.HighValueThreshold {
		return domain.PriorityReview // high value
	}

	if caseUnits > 1 && (shelfLifeDays == nil || *shelfLifeDays > 30) {
		if salesVariance(in.History) < c.cfg.SafeVarianceCeiling {
			return domain.PrioritySafe
		}
	}

	return domain.PriorityStandard
}

// salesVariance returns the coefficient of variation over the most recent
// periods. Fewer than 2 data points or a zero mean reads as maximal
// variance, which keeps thin histories out of the safe bucket.
func salesVariance(history []domain.SalesPeriod) float64 {
	if len(history) > variancePeriods {
		history = history[len(history)-variancePeriods:]
	}

	if len(history) < 2 {
		return 1.0
	}

	mean := 0.0
	for _, period := range history {
		mean += period.Units
	}
	mean /= float64(len(history))

	if mean == 0 {
		return 1.0
	}

	variance := 0.0
	for _, period := range history {
		diff := period.Units - mean
		variance += diff * diff
	}
	variance /= float64(len(history))

	return math.Sqrt(variance) / mean
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
