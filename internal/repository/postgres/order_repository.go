// internal/repository/postgres/order_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/harveystores/reorder-backend/internal/domain"
	"github.com/harveystores/reorder-backend/internal/repository"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateSession(ctx context.Context, session *domain.OrderSession) error {
	query := `
		INSERT INTO order_sessions (user_id, supplier_id, order_date, status, total_items, total_value, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, 0, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		session.UserID, session.SupplierID, session.OrderDate, session.Status, session.Notes,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order session: %w", err)
	}

	return nil
}

func (r *orderRepository) GetSession(ctx context.Context, id int64) (*domain.OrderSession, error) {
	query := `
		SELECT id, user_id, supplier_id, order_date, status, total_items, total_value,
		       COALESCE(notes, '') AS notes, created_at, updated_at
		FROM order_sessions
		WHERE id = $1
	`

	var session domain.OrderSession
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.SupplierID, &session.OrderDate, &session.Status,
		&session.TotalItems, &session.TotalValue, &session.Notes, &session.CreatedAt, &session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order session: %w", err)
	}

	return &session, nil
}

func (r *orderRepository) GetSessionWithItems(ctx context.Context, id int64) (*domain.OrderSession, error) {
	session, err := r.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			i.id, i.order_session_id, i.product_id, i.suggested_quantity, i.final_quantity,
			i.case_units, i.suggested_cases, i.final_cases, i.unit_cost, i.total_cost,
			i.review_priority, COALESCE(i.adjustment_reason, '') AS adjustment_reason,
			i.auto_approved, i.context_data, i.created_at, i.updated_at,
			p.code, p.name, p.category, p.price_buy, p.sell_price,
			COALESCE(p.package_size, '') AS package_size,
			COALESCE(ps.supplier_code, '') AS supplier_code,
			COALESCE(ps.cost, 0) AS link_cost, COALESCE(ps.case_units, 1) AS link_case_units
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		LEFT JOIN product_suppliers ps ON ps.product_id = p.id AND ps.supplier_id = $2
		WHERE i.order_session_id = $1
		ORDER BY i.id
	`, id, session.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item        domain.OrderItem
			product     domain.Product
			link        domain.SupplierLink
			contextData []byte
		)
		if err := rows.Scan(
			&item.ID, &item.OrderSessionID, &item.ProductID, &item.SuggestedQuantity, &item.FinalQuantity,
			&item.CaseUnits, &item.SuggestedCases, &item.FinalCases, &item.UnitCost, &item.TotalCost,
			&item.ReviewPriority, &item.AdjustmentReason, &item.AutoApproved, &contextData,
			&item.CreatedAt, &item.UpdatedAt,
			&product.Code, &product.Name, &product.Category, &product.PriceBuy, &product.SellPrice,
			&product.PackageSize, &link.SupplierCode, &link.Cost, &link.CaseUnits,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item.Context = decodeContext(contextData)
		product.ID = item.ProductID
		link.SupplierID = session.SupplierID
		product.SupplierLink = &link
		item.Product = &product
		session.Items = append(session.Items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return session, nil
}

func (r *orderRepository) ListSessions(ctx context.Context, filter domain.SessionFilter) ([]*domain.OrderSession, int, error) {
	where := " WHERE 1=1"
	args := []any{}

	if filter.SupplierID != "" {
		args = append(args, filter.SupplierID)
		where += fmt.Sprintf(" AND supplier_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM order_sessions"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count order sessions: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := `
		SELECT id, user_id, supplier_id, order_date, status, total_items, total_value,
		       COALESCE(notes, '') AS notes, created_at, updated_at
		FROM order_sessions
	` + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list order sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.OrderSession
	for rows.Next() {
		var session domain.OrderSession
		if err := rows.Scan(
			&session.ID, &session.UserID, &session.SupplierID, &session.OrderDate, &session.Status,
			&session.TotalItems, &session.TotalValue, &session.Notes, &session.CreatedAt, &session.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order session: %w", err)
		}
		sessions = append(sessions, &session)
	}

	return sessions, total, rows.Err()
}

func (r *orderRepository) UpdateSessionStatus(ctx context.Context, id int64, status domain.SessionStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE order_sessions SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	return requireRow(result)
}

func (r *orderRepository) UpdateSessionNotes(ctx context.Context, id int64, notes string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE order_sessions SET notes = $2, updated_at = NOW() WHERE id = $1`, id, notes)
	if err != nil {
		return fmt.Errorf("failed to update session notes: %w", err)
	}

	return requireRow(result)
}

func (r *orderRepository) DeleteSession(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_session_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM order_sessions WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete order session: %w", err)
		}

		return requireRow(result)
	})
}

func (r *orderRepository) InsertItems(ctx context.Context, items []*domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO order_items (
				order_session_id, product_id, suggested_quantity, final_quantity,
				case_units, suggested_cases, final_cases, unit_cost, total_cost,
				review_priority, auto_approved, context_data, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
			RETURNING id
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			contextData, err := json.Marshal(item.Context)
			if err != nil {
				return fmt.Errorf("failed to encode item context: %w", err)
			}

			err = stmt.QueryRowContext(
				ctx,
				item.OrderSessionID,
				item.ProductID,
				item.SuggestedQuantity,
				item.FinalQuantity,
				item.CaseUnits,
				item.SuggestedCases,
				item.FinalCases,
				item.UnitCost,
				item.TotalCost,
				item.ReviewPriority,
				item.AutoApproved,
				contextData,
			).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		return nil
	})
}

func (r *orderRepository) GetItem(ctx context.Context, id int64) (*domain.OrderItem, error) {
	query := `
		SELECT id, order_session_id, product_id, suggested_quantity, final_quantity,
		       case_units, suggested_cases, final_cases, unit_cost, total_cost,
		       review_priority, COALESCE(adjustment_reason, '') AS adjustment_reason,
		       auto_approved, context_data, created_at, updated_at
		FROM order_items
		WHERE id = $1
	`

	var (
		item        domain.OrderItem
		contextData []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OrderSessionID, &item.ProductID, &item.SuggestedQuantity, &item.FinalQuantity,
		&item.CaseUnits, &item.SuggestedCases, &item.FinalCases, &item.UnitCost, &item.TotalCost,
		&item.ReviewPriority, &item.AdjustmentReason, &item.AutoApproved, &contextData,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}

	item.Context = decodeContext(contextData)

	return &item, nil
}

func (r *orderRepository) UpdateItem(ctx context.Context, item *domain.OrderItem) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE order_items
		SET final_quantity = $2, final_cases = $3, unit_cost = $4, total_cost = $5,
		    adjustment_reason = $6, updated_at = NOW()
		WHERE id = $1
	`, item.ID, item.FinalQuantity, item.FinalCases, item.UnitCost, item.TotalCost, item.AdjustmentReason)
	if err != nil {
		return fmt.Errorf("failed to update order item: %w", err)
	}

	return requireRow(result)
}

func (r *orderRepository) AutoApproveItems(ctx context.Context, sessionID int64, priority domain.ReviewPriority) (int, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE order_items
		SET auto_approved = TRUE, updated_at = NOW()
		WHERE order_session_id = $1 AND review_priority = $2 AND auto_approved = FALSE
	`, sessionID, priority)
	if err != nil {
		return 0, fmt.Errorf("failed to auto-approve order items: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

func (r *orderRepository) RefreshSessionTotals(ctx context.Context, sessionID int64) (int, float64, error) {
	query := `
		UPDATE order_sessions s
		SET total_items = agg.item_count,
		    total_value = agg.value_sum,
		    updated_at = NOW()
		FROM (
			SELECT COUNT(*) AS item_count, COALESCE(SUM(total_cost), 0) AS value_sum
			FROM order_items
			WHERE order_session_id = $1
		) agg
		WHERE s.id = $1
		RETURNING s.total_items, s.total_value
	`

	var (
		totalItems int
		totalValue float64
	)
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&totalItems, &totalValue)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to refresh session totals: %w", err)
	}

	return totalItems, totalValue, nil
}

func (r *orderRepository) CreateAdjustment(ctx context.Context, adjustment *domain.OrderAdjustment) error {
	contextData, err := json.Marshal(adjustment.Context)
	if err != nil {
		return fmt.Errorf("failed to encode adjustment context: %w", err)
	}

	query := `
		INSERT INTO order_adjustments (
			product_id, user_id, original_quantity, adjusted_quantity,
			adjustment_factor, context_data, order_date, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err = r.db.QueryRowContext(ctx, query,
		adjustment.ProductID, adjustment.UserID, adjustment.OriginalQuantity, adjustment.AdjustedQuantity,
		adjustment.AdjustmentFactor, contextData, adjustment.OrderDate, adjustment.Reason,
	).Scan(&adjustment.ID, &adjustment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order adjustment: %w", err)
	}

	return nil
}

func (r *orderRepository) GetRecentAdjustments(ctx context.Context, productID string, userID int64, since time.Time) ([]domain.OrderAdjustment, error) {
	query := `
		SELECT id, product_id, user_id, original_quantity, adjusted_quantity,
		       adjustment_factor, context_data, order_date, COALESCE(reason, '') AS reason, created_at
		FROM order_adjustments
		WHERE product_id = $1 AND user_id = $2 AND order_date >= $3
		ORDER BY order_date
	`

	rows, err := r.db.QueryContext(ctx, query, productID, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list order adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []domain.OrderAdjustment
	for rows.Next() {
		var (
			adj         domain.OrderAdjustment
			contextData []byte
		)
		if err := rows.Scan(
			&adj.ID, &adj.ProductID, &adj.UserID, &adj.OriginalQuantity, &adj.AdjustedQuantity,
			&adj.AdjustmentFactor, &contextData, &adj.OrderDate, &adj.Reason, &adj.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order adjustment: %w", err)
		}
		adj.Context = decodeContext(contextData)
		adjustments = append(adjustments, adj)
	}

	return adjustments, rows.Err()
}

func (r *orderRepository) GetProductSetting(ctx context.Context, productID string) (*domain.ProductOrderSetting, error) {
	query := `
		SELECT id, product_id, review_priority, auto_approve, safety_stock_factor,
		       min_order_quantity, max_order_quantity, shelf_life_days,
		       COALESCE(notes, '') AS notes, updated_at
		FROM product_order_settings
		WHERE product_id = $1
	`

	var setting domain.ProductOrderSetting
	err := r.db.QueryRowContext(ctx, query, productID).Scan(
		&setting.ID, &setting.ProductID, &setting.ReviewPriority, &setting.AutoApprove,
		&setting.SafetyStockFactor, &setting.MinOrderQuantity, &setting.MaxOrderQuantity,
		&setting.ShelfLifeDays, &setting.Notes, &setting.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product setting: %w", err)
	}

	return &setting, nil
}

func (r *orderRepository) UpsertProductPriority(ctx context.Context, productID string, priority domain.ReviewPriority) (*domain.ProductOrderSetting, error) {
	query := `
		INSERT INTO product_order_settings (product_id, review_priority, auto_approve, safety_stock_factor, updated_at)
		VALUES ($1, $2, FALSE, 1.50, NOW())
		ON CONFLICT (product_id) DO UPDATE
		SET review_priority = EXCLUDED.review_priority, updated_at = NOW()
		RETURNING id, product_id, review_priority, auto_approve, safety_stock_factor,
		          min_order_quantity, max_order_quantity, shelf_life_days,
		          COALESCE(notes, '') AS notes, updated_at
	`

	var setting domain.ProductOrderSetting
	err := r.db.QueryRowContext(ctx, query, productID, priority).Scan(
		&setting.ID, &setting.ProductID, &setting.ReviewPriority, &setting.AutoApprove,
		&setting.SafetyStockFactor, &setting.MinOrderQuantity, &setting.MaxOrderQuantity,
		&setting.ShelfLifeDays, &setting.Notes, &setting.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert product priority: %w", err)
	}

	return &setting, nil
}

func decodeContext(data []byte) *domain.SuggestionContext {
	if len(data) == 0 {
		return nil
	}

	var snapshot domain.SuggestionContext
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil
	}

	return &snapshot
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}
