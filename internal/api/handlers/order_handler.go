// internal/api/handlers/order_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harveystores/reorder-backend/internal/domain"
	"github.com/harveystores/reorder-backend/internal/repository"
	"github.com/harveystores/reorder-backend/internal/service"
	"github.com/rs/zerolog/log"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type createSessionRequest struct {
	SupplierID string `json:"supplier_id" binding:"required"`
	OrderDate  string `json:"order_date" binding:"required"`
}

// CreateSession generates order suggestions for a supplier and returns the
// draft session with items in review order.
func (h *OrderHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "supplier_id and order_date are required"})
		return
	}

	orderDate, err := time.Parse("2006-01-02", req.OrderDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_date must be YYYY-MM-DD"})
		return
	}

	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	result, err := h.orderService.BuildSession(c.Request.Context(), req.SupplierID, orderDate, userID)
	if err != nil {
		log.Error().Err(err).Str("supplier_id", req.SupplierID).Msg("failed to build order session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build order session"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListSessions returns sessions, newest first, with optional supplier and
// status filters.
func (h *OrderHandler) ListSessions(c *gin.Context) {
	filter := domain.SessionFilter{
		SupplierID: strings.TrimSpace(c.Query("supplier_id")),
		Page:       parsePositiveIntWithDefault(c.Query("page"), 1),
		PageSize:   parsePositiveIntWithDefault(c.Query("page_size"), 20),
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		parsed, ok := domain.ParseSessionStatus(status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = parsed
	}

	sessions, total, err := h.orderService.ListSessions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list order sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": total})
}

func (h *OrderHandler) GetSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	session, err := h.orderService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "failed to get order session")
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *OrderHandler) DeleteSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), sessionID); err != nil {
		respondServiceError(c, err, "failed to delete order session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type updateNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *OrderHandler) UpdateNotes(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req updateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.orderService.UpdateNotes(c.Request.Context(), sessionID, req.Notes); err != nil {
		respondServiceError(c, err, "failed to update notes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *OrderHandler) CompleteSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	session, err := h.orderService.Complete(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "failed to complete order session")
		return
	}

	c.JSON(http.StatusOK, session)
}

type updateQuantityRequest struct {
	Quantity float64 `json:"quantity"`
	Reason   string  `json:"reason"`
}

// UpdateItemQuantity applies a unit-quantity edit to one line.
func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	h.updateItem(c, func(c *gin.Context, itemID, userID int64) (*domain.OrderItem, error) {
		var req updateQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errBadRequest
		}
		return h.orderService.ApplyQuantity(c.Request.Context(), itemID, req.Quantity, req.Reason, userID)
	})
}

type updateCasesRequest struct {
	Cases  float64 `json:"cases"`
	Reason string  `json:"reason"`
}

// UpdateItemCases applies a case-count edit to one line.
func (h *OrderHandler) UpdateItemCases(c *gin.Context) {
	h.updateItem(c, func(c *gin.Context, itemID, userID int64) (*domain.OrderItem, error) {
		var req updateCasesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errBadRequest
		}
		return h.orderService.ApplyCases(c.Request.Context(), itemID, req.Cases, req.Reason, userID)
	})
}

type updateCostRequest struct {
	UnitCost float64 `json:"unit_cost"`
}

// UpdateItemCost corrects a line's unit cost.
func (h *OrderHandler) UpdateItemCost(c *gin.Context) {
	h.updateItem(c, func(c *gin.Context, itemID, userID int64) (*domain.OrderItem, error) {
		var req updateCostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errBadRequest
		}
		return h.orderService.ApplyCost(c.Request.Context(), itemID, req.UnitCost, userID)
	})
}

var errBadRequest = errors.New("invalid request body")

func (h *OrderHandler) updateItem(c *gin.Context, apply func(*gin.Context, int64, int64) (*domain.OrderItem, error)) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	// The item must belong to the addressed session.
	if _, err := h.orderService.GetSessionItem(c.Request.Context(), sessionID, itemID); err != nil {
		respondServiceError(c, err, "failed to get order item")
		return
	}

	item, err := apply(c, itemID, userID)
	if errors.Is(err, errBadRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err != nil {
		respondServiceError(c, err, "failed to update order item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"item": gin.H{
			"id":             item.ID,
			"final_quantity": item.FinalQuantity,
			"final_cases":    item.FinalCases,
			"unit_cost":      item.UnitCost,
			"total_cost":     item.TotalCost,
			"was_adjusted":   item.WasAdjusted(),
		},
	})
}

type bulkUpdateRequest struct {
	Items []struct {
		ID       int64   `json:"id" binding:"required"`
		Quantity float64 `json:"quantity"`
	} `json:"items" binding:"required"`
	ActionReason string `json:"action_reason"`
}

// BulkUpdate applies one quantity edit per listed item of a session.
func (h *OrderHandler) BulkUpdate(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items are required"})
		return
	}

	edits := make(map[int64]float64, len(req.Items))
	for _, item := range req.Items {
		edits[item.ID] = item.Quantity
	}

	updated, err := h.orderService.BulkApplyQuantities(c.Request.Context(), sessionID, edits, req.ActionReason, userID)
	if err != nil {
		respondServiceError(c, err, "failed to bulk update order items")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated_items": updated})
}

// AutoApproveSafe marks all safe lines of a session as auto-approved.
func (h *OrderHandler) AutoApproveSafe(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	approved, err := h.orderService.AutoApproveSafeItems(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "failed to auto-approve safe items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"approved_count": approved,
		"message":        fmt.Sprintf("Auto-approved %d safe items", approved),
	})
}

// DuplicateSession rebuilds an order for the session's supplier a week out.
func (h *OrderHandler) DuplicateSession(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	result, err := h.orderService.Duplicate(c.Request.Context(), sessionID, userID)
	if err != nil {
		respondServiceError(c, err, "failed to duplicate order session")
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) GetStatistics(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	stats, err := h.orderService.Statistics(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "failed to get session statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportCSV streams the supplier order sheet as a CSV attachment.
func (h *OrderHandler) ExportCSV(c *gin.Context) {
	sessionID, ok := pathID(c, "id")
	if !ok {
		return
	}

	session, err := h.orderService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "failed to get order session")
		return
	}

	csvData, err := h.orderService.ExportCSV(c.Request.Context(), sessionID)
	if err != nil {
		respondServiceError(c, err, "failed to export order session")
		return
	}

	filename := h.orderService.ExportFilename(c.Request.Context(), session)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", []byte(csvData))
}

type updatePriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

// UpdateProductPriority sets the manual review priority for a product.
func (h *OrderHandler) UpdateProductPriority(c *gin.Context) {
	productID := c.Param("id")

	var req updatePriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority is required"})
		return
	}

	priority, ok := domain.ParseReviewPriority(req.Priority)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be safe, standard or review"})
		return
	}

	setting, err := h.orderService.UpdateProductPriority(c.Request.Context(), productID, priority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update product priority"})
		return
	}

	c.JSON(http.StatusOK, setting)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// requestUserID reads the acting user from the X-User-ID header. The edit
// history is keyed per user, so anonymous mutations are rejected.
func requestUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(strings.TrimSpace(c.GetHeader("X-User-ID")), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header is required"})
		return 0, false
	}
	return userID, true
}

func parsePositiveIntWithDefault(value string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v > 0 {
		return v
	}
	return fallback
}

func respondServiceError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrSessionNotEditable):
		c.JSON(http.StatusConflict, gin.H{"error": "order session is not editable"})
	case errors.Is(err, service.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must not be negative"})
	default:
		log.Error().Err(err).Msg(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
