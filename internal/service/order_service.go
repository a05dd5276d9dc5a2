// internal/service/order_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harveystores/reorder-backend/internal/cache"
	"github.com/harveystores/reorder-backend/internal/config"
	"github.com/harveystores/reorder-backend/internal/domain"
	"github.com/harveystores/reorder-backend/internal/engine"
	"github.com/harveystores/reorder-backend/internal/repository"
	"github.com/rs/zerolog/log"
)

var (
	// ErrSessionNotEditable is returned when a mutation targets a session
	// that is no longer in draft.
	ErrSessionNotEditable = errors.New("order session is not editable")

	// ErrInvalidQuantity is returned for negative quantity or cost inputs.
	ErrInvalidQuantity = errors.New("quantity must not be negative")
)

// adjustmentEpsilon is the smallest final-vs-suggested delta that counts as
// a real human override worth learning from.
const adjustmentEpsilon = 0.001

type OrderService struct {
	orders     repository.OrderRepository
	sales      repository.SalesRepository
	calculator *engine.Calculator
	statsCache cache.SessionStatisticsCache

	insertBatchSize        int
	adjustmentWindowMonths int
	suggestionWorkers      int
}

func NewOrderService(orders repository.OrderRepository, sales repository.SalesRepository, cfg config.OrderConfig, statsCache cache.SessionStatisticsCache) *OrderService {
	if statsCache == nil {
		statsCache = cache.NewNoopSessionStatisticsCache()
	}

	batchSize := cfg.InsertBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	windowMonths := cfg.AdjustmentWindowMonths
	if windowMonths <= 0 {
		windowMonths = 3
	}
	workers := cfg.SuggestionWorkers
	if workers <= 0 {
		workers = 1
	}

	return &OrderService{
		orders: orders,
		sales:  sales,
		calculator: engine.NewCalculator(engine.Config{
			DefaultSafetyFactor: cfg.SafetyStockFactor,
			LearningRate:        cfg.LearningRate,
			HighValueThreshold:  cfg.HighValueThreshold,
			SafeVarianceCeiling: cfg.SafeVarianceCeiling,
		}),
		statsCache:             statsCache,
		insertBatchSize:        batchSize,
		adjustmentWindowMonths: windowMonths,
		suggestionWorkers:      workers,
	}
}

// SkippedProduct records a product the builder could not compute a
// suggestion for. The session build carries on without it.
type SkippedProduct struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

// BuildResult is a completed session build: the draft session with its
// sorted items, plus any products that were skipped.
type BuildResult struct {
	Session *domain.OrderSession `json:"session"`
	Skipped []SkippedProduct     `json:"skipped,omitempty"`
}

// BuildSession generates order suggestions for every eligible product of a
// supplier and persists them as a draft session owned by userID.
func (s *OrderService) BuildSession(ctx context.Context, supplierID string, orderDate time.Time, userID int64) (*BuildResult, error) {
	// The draft is created first so a partial failure still leaves an
	// auditable, resumable record.
	session := &domain.OrderSession{
		UserID:     userID,
		SupplierID: supplierID,
		OrderDate:  orderDate,
		Status:     domain.StatusDraft,
	}
	if err := s.orders.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create order session: %w", err)
	}

	products, err := s.sales.GetSupplierProducts(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier products: %w", err)
	}

	results := s.computeSuggestions(ctx, products, userID)

	var (
		buffer  []*domain.OrderItem
		skipped []SkippedProduct
	)

	for i, product := range products {
		suggestion, err := results[i].suggestion, results[i].err
		if err != nil {
			log.Warn().Err(err).Str("product_id", product.ID).Msg("failed to calculate suggestion, skipping product")
			skipped = append(skipped, SkippedProduct{ProductID: product.ID, Reason: err.Error()})
			continue
		}

		if suggestion.SuggestedQuantity <= 0 && !suggestion.ForceInclude {
			continue
		}

		snapshot := suggestion.Context
		buffer = append(buffer, &domain.OrderItem{
			OrderSessionID:    session.ID,
			ProductID:         product.ID,
			SuggestedQuantity: suggestion.SuggestedQuantity,
			FinalQuantity:     suggestion.SuggestedQuantity,
			CaseUnits:         suggestion.CaseUnits,
			SuggestedCases:    suggestion.SuggestedCases,
			FinalCases:        suggestion.SuggestedCases,
			UnitCost:          suggestion.UnitCost,
			TotalCost:         suggestion.SuggestedQuantity * suggestion.UnitCost,
			ReviewPriority:    suggestion.ReviewPriority,
			AutoApproved:      suggestion.AutoApproved,
			Context:           &snapshot,
			Product:           product,
		})

		// Flush in batches so large catalogs do not pile up in memory.
		if len(buffer) >= s.insertBatchSize {
			if err := s.orders.InsertItems(ctx, buffer); err != nil {
				return nil, fmt.Errorf("failed to insert order items: %w", err)
			}
			buffer = buffer[:0]
		}
	}

	if len(buffer) > 0 {
		if err := s.orders.InsertItems(ctx, buffer); err != nil {
			return nil, fmt.Errorf("failed to insert order items: %w", err)
		}
	}

	if _, _, err := s.orders.RefreshSessionTotals(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to refresh session totals: %w", err)
	}

	built, err := s.orders.GetSessionWithItems(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order session: %w", err)
	}
	sortItemsForReview(built.Items)

	return &BuildResult{Session: built, Skipped: skipped}, nil
}

type suggestionResult struct {
	suggestion engine.Suggestion
	err        error
}

// computeSuggestions runs the calculator over the catalog, one product after
// another. Setting SuggestionWorkers above 1 opts in to a bounded pool for
// large catalogs; that requires goroutine-safe repository implementations.
// Results land at the input index so the insert order stays deterministic
// either way.
func (s *OrderService) computeSuggestions(ctx context.Context, products []*domain.Product, userID int64) []suggestionResult {
	results := make([]suggestionResult, len(products))

	workerCount := s.suggestionWorkers
	if workerCount > len(products) {
		workerCount = len(products)
	}
	if workerCount < 1 {
		workerCount = 1
	}

	if workerCount == 1 {
		for idx, product := range products {
			suggestion, err := s.suggestProduct(ctx, product, userID)
			results[idx] = suggestionResult{suggestion: suggestion, err: err}
		}
		return results
	}

	jobs := make(chan int, len(products))
	var wg sync.WaitGroup

	for w := 0; w < workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				suggestion, err := s.suggestProduct(ctx, products[idx], userID)
				results[idx] = suggestionResult{suggestion: suggestion, err: err}
			}
		}()
	}

	for idx := range products {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return results
}

// suggestProduct gathers the calculator inputs for one product and runs it.
func (s *OrderService) suggestProduct(ctx context.Context, product *domain.Product, userID int64) (engine.Suggestion, error) {
	settings, err := s.orders.GetProductSetting(ctx, product.ID)
	if err != nil {
		return engine.Suggestion{}, fmt.Errorf("load settings: %w", err)
	}

	stats, err := s.sales.GetSalesStatistics(ctx, product.ID)
	if err != nil {
		return engine.Suggestion{}, fmt.Errorf("load sales statistics: %w", err)
	}

	stock, err := s.sales.GetCurrentStock(ctx, product.ID)
	if err != nil {
		return engine.Suggestion{}, fmt.Errorf("load current stock: %w", err)
	}

	windowStart := time.Now().AddDate(0, -s.adjustmentWindowMonths, 0)
	adjustments, err := s.orders.GetRecentAdjustments(ctx, product.ID, userID, windowStart)
	if err != nil {
		return engine.Suggestion{}, fmt.Errorf("load adjustment history: %w", err)
	}

	history, err := s.sales.GetSalesHistory(ctx, product.ID, 6)
	if err != nil {
		return engine.Suggestion{}, fmt.Errorf("load sales history: %w", err)
	}

	recentPrice, err := s.sales.GetRecentPurchasePrice(ctx, product.ID)
	if err != nil {
		return engine.Suggestion{}, fmt.Errorf("load recent purchase price: %w", err)
	}

	lastSale, err := s.sales.GetLastSaleDate(ctx, product.ID)
	if err != nil {
		return engine.Suggestion{}, fmt.Errorf("load last sale date: %w", err)
	}

	return s.calculator.Suggest(engine.Input{
		Product:             *product,
		Settings:            settings,
		Stats:               stats,
		History:             history,
		CurrentStock:        stock,
		Adjustments:         adjustments,
		RecentPurchasePrice: recentPrice,
		LastSaleDate:        lastSale,
	}), nil
}

// sortItemsForReview orders items so the highest-volume, highest-need lines
// surface first. The composite key keeps the sort single-pass and stable
// across equal suggested quantities.
func sortItemsForReview(items []*domain.OrderItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return reviewSortKey(items[i]) > reviewSortKey(items[j])
	})
}

func reviewSortKey(item *domain.OrderItem) float64 {
	totalSales := 0.0
	if item.Context != nil {
		totalSales = item.Context.TotalSales6m
	}

	return item.SuggestedQuantity*10000 + totalSales
}

// GetSession returns a session with its items in review order.
func (s *OrderService) GetSession(ctx context.Context, sessionID int64) (*domain.OrderSession, error) {
	session, err := s.orders.GetSessionWithItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sortItemsForReview(session.Items)

	return session, nil
}

// ListSessions returns sessions matching the filter, newest first.
func (s *OrderService) ListSessions(ctx context.Context, filter domain.SessionFilter) ([]*domain.OrderSession, int, error) {
	return s.orders.ListSessions(ctx, filter)
}

// ApplyQuantity records a human edit to a line's unit quantity. Case
// products are normalized up to whole cases. A meaningful delta from the
// suggestion is appended to the adjustment log as training signal.
func (s *OrderService) ApplyQuantity(ctx context.Context, itemID int64, newQuantity float64, reason string, userID int64) (*domain.OrderItem, error) {
	if newQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	item, session, err := s.editableItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if item.OrderedByCases() {
		newCases := math.Ceil(newQuantity / float64(item.CaseUnits))
		item.FinalCases = newCases
		item.FinalQuantity = newCases * float64(item.CaseUnits)
	} else {
		item.FinalCases = newQuantity
		item.FinalQuantity = newQuantity
	}
	item.TotalCost = item.FinalQuantity * item.UnitCost
	item.AdjustmentReason = reason

	return s.commitItemEdit(ctx, item, session, reason, userID)
}

// ApplyCases records a human edit expressed in cases. For unit products the
// case count is just the unit quantity.
func (s *OrderService) ApplyCases(ctx context.Context, itemID int64, newCases float64, reason string, userID int64) (*domain.OrderItem, error) {
	if newCases < 0 {
		return nil, ErrInvalidQuantity
	}

	item, session, err := s.editableItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if !item.OrderedByCases() {
		return s.applyDirectQuantity(ctx, item, session, newCases, reason, userID)
	}

	// Partial cases cannot be ordered; fractional input rounds up so the
	// unit quantity stays on the case grid.
	newCases = math.Ceil(newCases)
	item.FinalCases = newCases
	item.FinalQuantity = newCases * float64(item.CaseUnits)
	item.TotalCost = item.FinalQuantity * item.UnitCost
	item.AdjustmentReason = reason

	return s.commitItemEdit(ctx, item, session, reason, userID)
}

func (s *OrderService) applyDirectQuantity(ctx context.Context, item *domain.OrderItem, session *domain.OrderSession, quantity float64, reason string, userID int64) (*domain.OrderItem, error) {
	item.FinalCases = quantity
	item.FinalQuantity = quantity
	item.TotalCost = item.FinalQuantity * item.UnitCost
	item.AdjustmentReason = reason

	return s.commitItemEdit(ctx, item, session, reason, userID)
}

// ApplyCost corrects a line's unit cost. Cost fixes are not quantity
// signals, so no adjustment record is written.
func (s *OrderService) ApplyCost(ctx context.Context, itemID int64, newCost float64, userID int64) (*domain.OrderItem, error) {
	if newCost < 0 {
		return nil, ErrInvalidQuantity
	}

	item, session, err := s.editableItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	item.UnitCost = newCost
	item.TotalCost = item.FinalQuantity * newCost

	if err := s.orders.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update order item: %w", err)
	}
	if _, _, err := s.orders.RefreshSessionTotals(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to refresh session totals: %w", err)
	}
	s.invalidateStatistics(ctx, session.ID)

	return s.orders.GetItem(ctx, item.ID)
}

func (s *OrderService) editableItem(ctx context.Context, itemID int64) (*domain.OrderItem, *domain.OrderSession, error) {
	item, err := s.orders.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.orders.GetSession(ctx, item.OrderSessionID)
	if err != nil {
		return nil, nil, err
	}
	if !session.Editable() {
		return nil, nil, ErrSessionNotEditable
	}

	return item, session, nil
}

func (s *OrderService) commitItemEdit(ctx context.Context, item *domain.OrderItem, session *domain.OrderSession, reason string, userID int64) (*domain.OrderItem, error) {
	if err := s.orders.UpdateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update order item: %w", err)
	}

	// Only a real delta leaves a training signal; a no-op edit is silent.
	if item.WasAdjusted() {
		adjustment := &domain.OrderAdjustment{
			ProductID:        item.ProductID,
			UserID:           userID,
			OriginalQuantity: item.SuggestedQuantity,
			AdjustedQuantity: item.FinalQuantity,
			AdjustmentFactor: item.FinalQuantity / math.Max(adjustmentEpsilon, item.SuggestedQuantity),
			Context:          item.Context,
			OrderDate:        session.OrderDate,
			Reason:           reason,
		}
		if err := s.orders.CreateAdjustment(ctx, adjustment); err != nil {
			return nil, fmt.Errorf("failed to record order adjustment: %w", err)
		}
	}

	if _, _, err := s.orders.RefreshSessionTotals(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to refresh session totals: %w", err)
	}
	s.invalidateStatistics(ctx, session.ID)

	return s.orders.GetItem(ctx, item.ID)
}

// BulkApplyQuantities applies one quantity edit per item, sharing a reason.
// Items from other sessions are ignored.
func (s *OrderService) BulkApplyQuantities(ctx context.Context, sessionID int64, edits map[int64]float64, reason string, userID int64) ([]*domain.OrderItem, error) {
	var updated []*domain.OrderItem
	for itemID, quantity := range edits {
		item, err := s.orders.GetItem(ctx, itemID)
		if err != nil || item.OrderSessionID != sessionID {
			continue
		}

		edited, err := s.ApplyQuantity(ctx, itemID, quantity, reason, userID)
		if err != nil {
			return nil, err
		}
		updated = append(updated, edited)
	}

	return updated, nil
}

// AutoApproveSafeItems marks every not yet approved safe line of an editable
// session as auto-approved and returns how many lines changed.
func (s *OrderService) AutoApproveSafeItems(ctx context.Context, sessionID int64) (int, error) {
	session, err := s.orders.GetSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if !session.Editable() {
		return 0, ErrSessionNotEditable
	}

	approved, err := s.orders.AutoApproveItems(ctx, sessionID, domain.PrioritySafe)
	if err != nil {
		return 0, fmt.Errorf("failed to auto-approve safe items: %w", err)
	}
	s.invalidateStatistics(ctx, sessionID)

	return approved, nil
}

// Duplicate rebuilds an order for the session's supplier dated a week from
// now, with fresh suggestions. The source session is left untouched.
func (s *OrderService) Duplicate(ctx context.Context, sessionID int64, userID int64) (*BuildResult, error) {
	session, err := s.orders.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return s.BuildSession(ctx, session.SupplierID, time.Now().AddDate(0, 0, 7), userID)
}

// GetSessionItem returns one line of a session. An item that exists but
// belongs to a different session reads as not found.
func (s *OrderService) GetSessionItem(ctx context.Context, sessionID, itemID int64) (*domain.OrderItem, error) {
	item, err := s.orders.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OrderSessionID != sessionID {
		return nil, repository.ErrNotFound
	}

	return item, nil
}

// Complete transitions a draft session to completed. The transition is
// terminal; completing a non-draft session is rejected.
func (s *OrderService) Complete(ctx context.Context, sessionID int64) (*domain.OrderSession, error) {
	session, err := s.orders.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Editable() {
		return nil, ErrSessionNotEditable
	}

	if err := s.orders.UpdateSessionStatus(ctx, sessionID, domain.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete order session: %w", err)
	}

	return s.orders.GetSession(ctx, sessionID)
}

// Delete removes a draft session and its items.
func (s *OrderService) Delete(ctx context.Context, sessionID int64) error {
	session, err := s.orders.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.Editable() {
		return ErrSessionNotEditable
	}

	return s.orders.DeleteSession(ctx, sessionID)
}

// UpdateNotes stores free-text notes on a session.
func (s *OrderService) UpdateNotes(ctx context.Context, sessionID int64, notes string) error {
	return s.orders.UpdateSessionNotes(ctx, sessionID, notes)
}

// UpdateProductPriority sets the manual review priority for a product,
// creating its settings row when absent.
func (s *OrderService) UpdateProductPriority(ctx context.Context, productID string, priority domain.ReviewPriority) (*domain.ProductOrderSetting, error) {
	return s.orders.UpsertProductPriority(ctx, productID, priority)
}

// Statistics aggregates a session for the review screen, cached briefly.
func (s *OrderService) Statistics(ctx context.Context, sessionID int64) (*domain.SessionStatistics, error) {
	if stats, ok, err := s.statsCache.Get(ctx, sessionID); err == nil && ok {
		return stats, nil
	} else if err != nil {
		log.Warn().Err(err).Int64("session_id", sessionID).Msg("statistics cache get failed")
	}

	session, err := s.orders.GetSessionWithItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	stats := &domain.SessionStatistics{
		TotalItems: len(session.Items),
		TotalValue: session.TotalValue,
	}
	for _, item := range session.Items {
		switch item.ReviewPriority {
		case domain.PriorityReview:
			stats.ReviewItems++
		case domain.PrioritySafe:
			stats.SafeItems++
		default:
			stats.StandardItems++
		}
		if item.AutoApproved {
			stats.AutoApprovedItems++
		}
		if item.WasAdjusted() {
			stats.AdjustedItems++
		}
	}
	if stats.TotalItems > 0 {
		stats.AvgItemValue = stats.TotalValue / float64(stats.TotalItems)
	}

	if err := s.statsCache.Set(ctx, sessionID, stats); err != nil {
		log.Warn().Err(err).Int64("session_id", sessionID).Msg("statistics cache set failed")
	}

	return stats, nil
}

func (s *OrderService) invalidateStatistics(ctx context.Context, sessionID int64) {
	if err := s.statsCache.Invalidate(ctx, sessionID); err != nil {
		log.Warn().Err(err).Int64("session_id", sessionID).Msg("statistics cache invalidate failed")
	}
}

// ExportCSV renders a session as the supplier order sheet. One row per line
// with units on order; the Cases column is blank for unit products.
func (s *OrderService) ExportCSV(ctx context.Context, sessionID int64) (string, error) {
	session, err := s.orders.GetSessionWithItems(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Code,Ordered,Cases,Units,SKU,Content,Description,Price,Sale,Total\n")

	for _, item := range session.Items {
		if item.FinalQuantity <= 0 {
			continue
		}

		code := item.ProductID
		description := ""
		packageSize := ""
		if item.Product != nil {
			code = item.Product.Code
			description = item.Product.Name
			packageSize = item.Product.PackageSize
			if item.Product.SupplierLink != nil && item.Product.SupplierLink.SupplierCode != "" {
				code = item.Product.SupplierLink.SupplierCode
			}
		}

		caseField := ""
		content := packageSize
		if content == "" {
			content = "1 unit"
		}
		if item.OrderedByCases() {
			caseField = fmt.Sprintf("%.3f", item.FinalCases)
			content = fmt.Sprintf("Case of %d", item.CaseUnits)
		}

		fmt.Fprintf(&b, "%s,%d,%s,%.3f,%s,\"%s\",\"%s\",%.2f,%.2f,%.2f\n",
			code,
			1, // ordered line count, always 1 per row
			caseField,
			item.FinalQuantity,
			item.ProductID,
			content,
			description,
			item.UnitCost,
			item.UnitCost,
			item.TotalCost,
		)
	}

	return b.String(), nil
}

// ExportFilename builds the attachment name for a session's CSV export.
func (s *OrderService) ExportFilename(ctx context.Context, session *domain.OrderSession) string {
	supplierName := session.SupplierID
	if supplier, err := s.sales.GetSupplier(ctx, session.SupplierID); err == nil {
		supplierName = supplier.Name
	}

	return fmt.Sprintf("order_%s_%s.csv", supplierName, session.OrderDate.Format("2006-01-02"))
}
