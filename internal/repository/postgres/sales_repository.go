// internal/repository/postgres/sales_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/harveystores/reorder-backend/internal/domain"
	"github.com/harveystores/reorder-backend/internal/repository"
)

// saleReason marks sale movements in the stock ledger; positive reasons are
// purchases and other stock increases.
const saleReason = -1

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetSupplierProducts(ctx context.Context, supplierID string) ([]*domain.Product, error) {
	// Dead SKUs are excluded up front: only stocked products with a sale
	// in the trailing six months are worth suggesting.
	query := `
		SELECT
			p.id, p.code, p.name, p.category, p.price_buy, p.sell_price,
			COALESCE(p.package_size, '') AS package_size,
			ps.supplier_id, COALESCE(ps.supplier_code, '') AS supplier_code,
			COALESCE(ps.cost, 0) AS cost, COALESCE(ps.case_units, 1) AS case_units
		FROM products p
		JOIN product_suppliers ps ON ps.product_id = p.id
		WHERE ps.supplier_id = $1
		  AND EXISTS (SELECT 1 FROM stocking st WHERE st.product_id = p.id)
		  AND EXISTS (
			SELECT 1 FROM stock_diary sd
			WHERE sd.product_id = p.id
			  AND sd.reason = $2
			  AND sd.date_new >= $3
		  )
		ORDER BY p.name
	`

	sixMonthsAgo := time.Now().AddDate(0, -6, 0)

	rows, err := r.db.QueryContext(ctx, query, supplierID, saleReason, sixMonthsAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var (
			p    domain.Product
			link domain.SupplierLink
		)
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.Category, &p.PriceBuy, &p.SellPrice, &p.PackageSize,
			&link.SupplierID, &link.SupplierCode, &link.Cost, &link.CaseUnits,
		); err != nil {
			return nil, fmt.Errorf("failed to scan supplier product: %w", err)
		}
		p.SupplierLink = &link
		products = append(products, &p)
	}

	return products, rows.Err()
}

func (r *salesRepository) GetSupplier(ctx context.Context, supplierID string) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM suppliers WHERE id = $1`, supplierID,
	).Scan(&supplier.ID, &supplier.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}

	return &supplier, nil
}

func (r *salesRepository) GetSalesStatistics(ctx context.Context, productID string) (domain.SalesStatistics, error) {
	now := time.Now()
	yearAgo := now.AddDate(-1, 0, 0)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	query := `
		SELECT
			COALESCE(SUM(ABS(units)) FILTER (WHERE date_new >= $2), 0) AS total_12m,
			COALESCE(SUM(ABS(units)) FILTER (WHERE date_new >= $3), 0) AS this_month,
			COALESCE(SUM(ABS(units)) FILTER (WHERE date_new >= $4 AND date_new < $3), 0) AS last_month
		FROM stock_diary
		WHERE product_id = $1 AND reason = $5
	`

	var stats domain.SalesStatistics
	err := r.db.QueryRowContext(ctx, query, productID, yearAgo, monthStart, lastMonthStart, saleReason).
		Scan(&stats.TotalSales12m, &stats.ThisMonthSales, &stats.LastMonthSales)
	if err != nil {
		return domain.SalesStatistics{}, fmt.Errorf("failed to get sales statistics: %w", err)
	}

	stats.AvgMonthlySales = roundTo(stats.TotalSales12m/12, 1)
	stats.Trend = salesTrend(stats.ThisMonthSales, stats.LastMonthSales)

	return stats, nil
}

// salesTrend labels the month-over-month movement; swings within 10% read
// as stable.
func salesTrend(thisMonth, lastMonth float64) string {
	if lastMonth <= 0 {
		return domain.TrendStable
	}

	change := (thisMonth - lastMonth) / lastMonth * 100
	switch {
	case change > 10:
		return domain.TrendUp
	case change < -10:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

func (r *salesRepository) GetSalesHistory(ctx context.Context, productID string, months int) ([]domain.SalesPeriod, error) {
	if months <= 0 {
		months = 4
	}

	now := time.Now()
	windowStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	query := `
		SELECT to_char(date_new, 'YYYY-MM') AS month_key, SUM(ABS(units)) AS total_units
		FROM stock_diary
		WHERE product_id = $1 AND reason = $2 AND date_new >= $3
		GROUP BY month_key
	`

	rows, err := r.db.QueryContext(ctx, query, productID, saleReason, windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get sales history: %w", err)
	}
	defer rows.Close()

	sold := make(map[string]float64, months)
	for rows.Next() {
		var (
			key   string
			units float64
		)
		if err := rows.Scan(&key, &units); err != nil {
			return nil, fmt.Errorf("failed to scan sales history: %w", err)
		}
		sold[key] = units
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Zero-fill every month in the window, oldest first, so thin sellers
	// still produce a full series.
	history := make([]domain.SalesPeriod, 0, months)
	for i := months - 1; i >= 0; i-- {
		month := now.AddDate(0, -i, 0)
		key := month.Format("2006-01")
		history = append(history, domain.SalesPeriod{
			MonthKey: key,
			Month:    month.Format("January 2006"),
			Units:    sold[key],
		})
	}

	return history, nil
}

func (r *salesRepository) GetCurrentStock(ctx context.Context, productID string) (float64, error) {
	var units float64
	err := r.db.QueryRowContext(ctx,
		`SELECT units FROM stock_current WHERE product_id = $1`, productID,
	).Scan(&units)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get current stock: %w", err)
	}

	return units, nil
}

func (r *salesRepository) GetRecentPurchasePrice(ctx context.Context, productID string) (*float64, error) {
	var price float64
	err := r.db.QueryRowContext(ctx, `
		SELECT price FROM stock_diary
		WHERE product_id = $1 AND reason > 0 AND price > 0
		ORDER BY date_new DESC
		LIMIT 1
	`, productID).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recent purchase price: %w", err)
	}

	return &price, nil
}

func (r *salesRepository) GetLastSaleDate(ctx context.Context, productID string) (*time.Time, error) {
	var lastSale time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT date_new FROM stock_diary
		WHERE product_id = $1 AND reason = $2
		ORDER BY date_new DESC
		LIMIT 1
	`, productID, saleReason).Scan(&lastSale)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sale date: %w", err)
	}

	return &lastSale, nil
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
