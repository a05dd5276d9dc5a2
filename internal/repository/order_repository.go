// internal/repository/order_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/harveystores/reorder-backend/internal/domain"
)

// ErrNotFound is returned when a session, item or setting does not exist.
var ErrNotFound = errors.New("not found")

// SalesRepository reads sales velocity, stock levels and price observations
// from the POS transaction ledger. The ordering engine never writes here.
type SalesRepository interface {
	// GetSupplierProducts returns the supplier's actively stocked products
	// with at least one sale in the trailing six months.
	GetSupplierProducts(ctx context.Context, supplierID string) ([]*domain.Product, error)
	GetSupplier(ctx context.Context, supplierID string) (*domain.Supplier, error)

	GetSalesStatistics(ctx context.Context, productID string) (domain.SalesStatistics, error)
	// GetSalesHistory returns per-month sales for the trailing months,
	// oldest first, with zero-filled gaps.
	GetSalesHistory(ctx context.Context, productID string, months int) ([]domain.SalesPeriod, error)
	GetCurrentStock(ctx context.Context, productID string) (float64, error)
	GetRecentPurchasePrice(ctx context.Context, productID string) (*float64, error)
	GetLastSaleDate(ctx context.Context, productID string) (*time.Time, error)
}

// OrderRepository persists order sessions, their items, the append-only
// adjustment log and per-product order settings.
type OrderRepository interface {
	CreateSession(ctx context.Context, session *domain.OrderSession) error
	GetSession(ctx context.Context, id int64) (*domain.OrderSession, error)
	GetSessionWithItems(ctx context.Context, id int64) (*domain.OrderSession, error)
	ListSessions(ctx context.Context, filter domain.SessionFilter) ([]*domain.OrderSession, int, error)
	UpdateSessionStatus(ctx context.Context, id int64, status domain.SessionStatus) error
	UpdateSessionNotes(ctx context.Context, id int64, notes string) error
	DeleteSession(ctx context.Context, id int64) error

	// InsertItems writes a batch of line items in one transaction.
	InsertItems(ctx context.Context, items []*domain.OrderItem) error
	GetItem(ctx context.Context, id int64) (*domain.OrderItem, error)
	UpdateItem(ctx context.Context, item *domain.OrderItem) error

	// AutoApproveItems flips auto_approved on the session's not yet
	// approved items of the given priority and returns how many changed.
	AutoApproveItems(ctx context.Context, sessionID int64, priority domain.ReviewPriority) (int, error)

	// RefreshSessionTotals recomputes total_items and total_value from the
	// session's items and stores them on the session row.
	RefreshSessionTotals(ctx context.Context, sessionID int64) (int, float64, error)

	CreateAdjustment(ctx context.Context, adjustment *domain.OrderAdjustment) error
	// GetRecentAdjustments returns one user's overrides for a product with
	// an order date at or after since.
	GetRecentAdjustments(ctx context.Context, productID string, userID int64, since time.Time) ([]domain.OrderAdjustment, error)

	GetProductSetting(ctx context.Context, productID string) (*domain.ProductOrderSetting, error)
	UpsertProductPriority(ctx context.Context, productID string, priority domain.ReviewPriority) (*domain.ProductOrderSetting, error)
}
