package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/pawmart/storefront/pkg/errors"
	"github.com/pawmart/storefront/pkg/httputil"
	"github.com/pawmart/storefront/pkg/middleware"
	"github.com/pawmart/storefront/pkg/validator"
	"github.com/pawmart/storefront/services/wishlist/internal/domain"
)

// WishlistService is what the handler needs from the service layer.
type WishlistService interface {
	List(ctx context.Context, userID string) ([]domain.WishlistItem, error)
	Add(ctx context.Context, userID, productID string) (*domain.WishlistItem, error)
	Remove(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) (int, error)
	Sync(ctx context.Context, userID string, productIDs []string) ([]domain.WishlistItem, error)
}

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	svc    WishlistService
	logger *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{svc: svc, logger: logger}
}

// --- Request / response DTOs ---

// SyncItem is one entry of a sync request.
type SyncItem struct {
	ProductID string `json:"productId" validate:"required,max=128"`
}

// SyncRequest is the body of POST /api/wishlist/sync.
type SyncRequest struct {
	Items []SyncItem `json:"items" validate:"dive"`
}

// AddRequest is the body of POST /api/wishlist/add.
type AddRequest struct {
	ProductID string `json:"productId" validate:"required,max=128"`
}

// ItemsResponse carries a full wishlist.
type ItemsResponse struct {
	Items []domain.WishlistItem `json:"items"`
}

// ItemResponse carries a single item.
type ItemResponse struct {
	Item *domain.WishlistItem `json:"item"`
}

// RemovedResponse acknowledges a single removal.
type RemovedResponse struct {
	ProductID string `json:"productId"`
	Status    string `json:"status"`
}

// StatusResponse acknowledges a bulk operation.
type StatusResponse struct {
	Status string `json:"status"`
}

// --- Handlers ---

// userID returns the authenticated user or writes a 401.
func (h *WishlistHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.UserIDFromContext(r.Context())
	if id == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("user not authenticated"), h.logger)
		return "", false
	}
	return id, true
}

// List handles GET /api/wishlist.
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	items, err := h.svc.List(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ItemsResponse{Items: items})
}

// Sync handles POST /api/wishlist/sync.
func (h *WishlistHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req SyncRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ids := make([]string, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.ProductID
	}
	items, err := h.svc.Sync(r.Context(), userID, ids)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ItemsResponse{Items: items})
}

// Add handles POST /api/wishlist/add.
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req AddRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	item, err := h.svc.Add(r.Context(), userID, req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ItemResponse{Item: item})
}

// Remove handles DELETE /api/wishlist/{productId}.
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")
	if err := h.svc.Remove(r.Context(), userID, productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RemovedResponse{ProductID: productID, Status: "removed"})
}

// Clear handles DELETE /api/wishlist.
func (h *WishlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if _, err := h.svc.Clear(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Status: "cleared"})
}
