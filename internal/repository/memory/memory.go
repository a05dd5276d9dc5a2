// Package memory provides in-memory implementations of the repository
// interfaces for tests and local development. Not safe for production use
// beyond a single process.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/harveystores/reorder-backend/internal/domain"
	"github.com/harveystores/reorder-backend/internal/repository"
)

// SalesStore is a fixture-backed SalesRepository.
type SalesStore struct {
	mu sync.RWMutex

	Products       map[string][]*domain.Product // keyed by supplier id
	Suppliers      map[string]domain.Supplier
	Stats          map[string]domain.SalesStatistics
	History        map[string][]domain.SalesPeriod
	Stock          map[string]float64
	PurchasePrices map[string]float64
	LastSales      map[string]time.Time

	// StatsErr, when set for a product, makes GetSalesStatistics fail.
	// Used to exercise the skip-and-continue path of the session builder.
	StatsErr map[string]error
}

func NewSalesStore() *SalesStore {
	return &SalesStore{
		Products:       make(map[string][]*domain.Product),
		Suppliers:      make(map[string]domain.Supplier),
		Stats:          make(map[string]domain.SalesStatistics),
		History:        make(map[string][]domain.SalesPeriod),
		Stock:          make(map[string]float64),
		PurchasePrices: make(map[string]float64),
		LastSales:      make(map[string]time.Time),
		StatsErr:       make(map[string]error),
	}
}

func (s *SalesStore) GetSupplierProducts(_ context.Context, supplierID string) ([]*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*domain.Product(nil), s.Products[supplierID]...), nil
}

func (s *SalesStore) GetSupplier(_ context.Context, supplierID string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	supplier, ok := s.Suppliers[supplierID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &supplier, nil
}

func (s *SalesStore) GetSalesStatistics(_ context.Context, productID string) (domain.SalesStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.StatsErr[productID]; err != nil {
		return domain.SalesStatistics{}, err
	}
	return s.Stats[productID], nil
}

func (s *SalesStore) GetSalesHistory(_ context.Context, productID string, months int) ([]domain.SalesPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.History[productID]
	if months > 0 && len(history) > months {
		history = history[len(history)-months:]
	}
	return append([]domain.SalesPeriod(nil), history...), nil
}

func (s *SalesStore) GetCurrentStock(_ context.Context, productID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Stock[productID], nil
}

func (s *SalesStore) GetRecentPurchasePrice(_ context.Context, productID string) (*float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.PurchasePrices[productID]
	if !ok {
		return nil, nil
	}
	return &price, nil
}

func (s *SalesStore) GetLastSaleDate(_ context.Context, productID string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lastSale, ok := s.LastSales[productID]
	if !ok {
		return nil, nil
	}
	return &lastSale, nil
}

// OrderStore is an in-memory OrderRepository.
type OrderStore struct {
	mu sync.RWMutex

	sessions    map[int64]*domain.OrderSession
	items       map[int64]*domain.OrderItem
	adjustments []domain.OrderAdjustment
	settings    map[string]*domain.ProductOrderSetting

	nextSessionID int64
	nextItemID    int64
	nextAdjID     int64
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		sessions: make(map[int64]*domain.OrderSession),
		items:    make(map[int64]*domain.OrderItem),
		settings: make(map[string]*domain.ProductOrderSetting),
	}
}

func (s *OrderStore) CreateSession(_ context.Context, session *domain.OrderSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSessionID++
	session.ID = s.nextSessionID
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt

	stored := *session
	stored.Items = nil
	s.sessions[session.ID] = &stored

	return nil
}

func (s *OrderStore) GetSession(_ context.Context, id int64) (*domain.OrderSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *session
	copied.Items = nil

	return &copied, nil
}

func (s *OrderStore) GetSessionWithItems(ctx context.Context, id int64) (*domain.OrderSession, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.OrderSessionID == id {
			copied := *item
			session.Items = append(session.Items, &copied)
		}
	}
	sort.Slice(session.Items, func(i, j int) bool {
		return session.Items[i].ID < session.Items[j].ID
	})

	return session, nil
}

func (s *OrderStore) ListSessions(_ context.Context, filter domain.SessionFilter) ([]*domain.OrderSession, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*domain.OrderSession
	for _, session := range s.sessions {
		if filter.SupplierID != "" && session.SupplierID != filter.SupplierID {
			continue
		}
		if filter.Status != "" && session.Status != filter.Status {
			continue
		}
		copied := *session
		sessions = append(sessions, &copied)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, len(sessions), nil
}

func (s *OrderStore) UpdateSessionStatus(_ context.Context, id int64, status domain.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	session.Status = status
	session.UpdatedAt = time.Now()

	return nil
}

func (s *OrderStore) UpdateSessionNotes(_ context.Context, id int64, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	session.Notes = notes
	session.UpdatedAt = time.Now()

	return nil
}

func (s *OrderStore) DeleteSession(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.sessions, id)
	for itemID, item := range s.items {
		if item.OrderSessionID == id {
			delete(s.items, itemID)
		}
	}

	return nil
}

func (s *OrderStore) InsertItems(_ context.Context, items []*domain.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		s.nextItemID++
		item.ID = s.nextItemID
		item.CreatedAt = time.Now()
		item.UpdatedAt = item.CreatedAt

		copied := *item
		s.items[item.ID] = &copied
	}

	return nil
}

func (s *OrderStore) GetItem(_ context.Context, id int64) (*domain.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *item

	return &copied, nil
}

func (s *OrderStore) UpdateItem(_ context.Context, item *domain.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.FinalQuantity = item.FinalQuantity
	stored.FinalCases = item.FinalCases
	stored.UnitCost = item.UnitCost
	stored.TotalCost = item.TotalCost
	stored.AdjustmentReason = item.AdjustmentReason
	stored.UpdatedAt = time.Now()

	return nil
}

func (s *OrderStore) AutoApproveItems(_ context.Context, sessionID int64, priority domain.ReviewPriority) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	approved := 0
	for _, item := range s.items {
		if item.OrderSessionID == sessionID && item.ReviewPriority == priority && !item.AutoApproved {
			item.AutoApproved = true
			item.UpdatedAt = time.Now()
			approved++
		}
	}

	return approved, nil
}

func (s *OrderStore) RefreshSessionTotals(_ context.Context, sessionID int64) (int, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return 0, 0, repository.ErrNotFound
	}

	count := 0
	value := 0.0
	for _, item := range s.items {
		if item.OrderSessionID == sessionID {
			count++
			value += item.TotalCost
		}
	}
	session.TotalItems = count
	session.TotalValue = value
	session.UpdatedAt = time.Now()

	return count, value, nil
}

func (s *OrderStore) CreateAdjustment(_ context.Context, adjustment *domain.OrderAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAdjID++
	adjustment.ID = s.nextAdjID
	adjustment.CreatedAt = time.Now()
	s.adjustments = append(s.adjustments, *adjustment)

	return nil
}

func (s *OrderStore) GetRecentAdjustments(_ context.Context, productID string, userID int64, since time.Time) ([]domain.OrderAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recent []domain.OrderAdjustment
	for _, adj := range s.adjustments {
		if adj.ProductID == productID && adj.UserID == userID && !adj.OrderDate.Before(since) {
			recent = append(recent, adj)
		}
	}

	return recent, nil
}

// Adjustments returns a copy of the full adjustment log, for assertions.
func (s *OrderStore) Adjustments() []domain.OrderAdjustment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.OrderAdjustment(nil), s.adjustments...)
}

func (s *OrderStore) GetProductSetting(_ context.Context, productID string) (*domain.ProductOrderSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[productID]
	if !ok {
		return nil, nil
	}
	copied := *setting

	return &copied, nil
}

// SetProductSetting seeds a per-product setting fixture.
func (s *OrderStore) SetProductSetting(setting *domain.ProductOrderSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *setting
	s.settings[setting.ProductID] = &copied
}

func (s *OrderStore) UpsertProductPriority(_ context.Context, productID string, priority domain.ReviewPriority) (*domain.ProductOrderSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	setting, ok := s.settings[productID]
	if !ok {
		setting = &domain.ProductOrderSetting{
			ProductID:         productID,
			SafetyStockFactor: 1.5,
		}
		s.settings[productID] = setting
	}
	setting.ReviewPriority = priority
	setting.UpdatedAt = time.Now()

	copied := *setting
	return &copied, nil
}
