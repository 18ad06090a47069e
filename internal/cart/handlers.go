package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/lune-shop/backend-lune/internal/common"
)

// Quoter prices a set of cart lines for display. The checkout service
// implements it; cart responses degrade to items-only when it is absent
// or failing.
type Quoter interface {
	Preview(ctx context.Context, items []LineItem) (any, error)
}

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc      *Service
	Quoter   Quoter
	Validate *validator.Validate
}

// ownerID resolves the cart owner: the authenticated user when present,
// otherwise the anonymous cart id supplied by the client.
func ownerID(r *http.Request) string {
	if userID, ok := common.UserID(r.Context()); ok && userID != "" {
		return userID
	}
	return strings.TrimSpace(r.Header.Get("X-Anon-Id"))
}

type addItemRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

type updateItemRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  int    `json:"quantity"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

type removeItemRequest struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

type mergeRequest struct {
	AnonID string `json:"anonId" validate:"required"`
}

// Get returns the cart contents and aggregate item count.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart owner is required", nil)
		return
	}
	c, err := h.Svc.Get(r.Context(), owner)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load cart", nil)
		return
	}
	data := map[string]any{
		"items":     c.Lines(),
		"itemCount": c.ItemCount(),
	}
	if h.Quoter != nil {
		if pricing, err := h.Quoter.Preview(r.Context(), c.Lines()); err == nil {
			data["pricing"] = pricing
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": data})
}

// AddItem adds a product variant to the cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart owner is required", nil)
		return
	}
	var payload addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}
	c, err := h.Svc.AddItem(r.Context(), owner, payload.ProductID, payload.Quantity, payload.Color, payload.Size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeCart(w, http.StatusCreated, c)
}

// UpdateItem replaces a line's quantity; zero removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart owner is required", nil)
		return
	}
	var payload updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}
	c, err := h.Svc.UpdateQuantity(r.Context(), owner, payload.ProductID, payload.Quantity, payload.Color, payload.Size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

// RemoveItem deletes a variant line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart owner is required", nil)
		return
	}
	var payload removeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}
	c, err := h.Svc.RemoveItem(r.Context(), owner, payload.ProductID, payload.Color, payload.Size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

// Clear empties the cart.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cart owner is required", nil)
		return
	}
	if err := h.Svc.Clear(r.Context(), owner); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"items": []LineItem{}, "itemCount": 0}})
}

// Merge folds the anonymous cart into the authenticated user's cart.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "login required", nil)
		return
	}
	var payload mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
		return
	}
	c, err := h.Svc.Merge(r.Context(), payload.AnonID, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeCart(w, http.StatusOK, c)
}

func (h *Handler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, c *Cart) {
	common.JSON(w, status, map[string]any{
		"data": map[string]any{
			"items":     c.Lines(),
			"itemCount": c.ItemCount(),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart operation failed", nil)
	}
}
