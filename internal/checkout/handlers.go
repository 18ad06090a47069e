package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/lune-shop/backend-lune/internal/common"
	"github.com/lune-shop/backend-lune/internal/discount"
	"github.com/lune-shop/backend-lune/internal/order"
)

// Handler exposes the quote and submit endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type quoteRequest struct {
	CouponID  string `json:"couponId"`
	UsePoints int64  `json:"usePoints"`
}

type submitRequest struct {
	BuyerName  string `json:"buyerName" validate:"required"`
	BuyerPhone string `json:"buyerPhone" validate:"required"`
	BuyerEmail string `json:"buyerEmail" validate:"required,email"`

	ZipCode         string `json:"zipCode" validate:"required"`
	Address         string `json:"address" validate:"required"`
	AddressDetail   string `json:"addressDetail"`
	DeliveryMessage string `json:"deliveryMessage"`

	AgreeTerms     bool `json:"agreeTerms"`
	AgreePrivacy   bool `json:"agreePrivacy"`
	AgreeMarketing bool `json:"agreeMarketing"`

	PaymentMethod  string `json:"paymentMethod" validate:"required,oneof=card simple bank"`
	CardID         int64  `json:"cardId"`
	WalletProvider string `json:"walletProvider"`
	BankCode       string `json:"bankCode"`
	DepositorName  string `json:"depositorName"`
	PaymentKey     string `json:"paymentKey"`

	CouponID  string `json:"couponId"`
	UsePoints int64  `json:"usePoints"`
}

func (r submitRequest) context() Context {
	return Context{
		BuyerName:       r.BuyerName,
		BuyerPhone:      r.BuyerPhone,
		BuyerEmail:      r.BuyerEmail,
		ZipCode:         r.ZipCode,
		Address:         r.Address,
		AddressDetail:   r.AddressDetail,
		DeliveryMessage: r.DeliveryMessage,
		AgreeTerms:      r.AgreeTerms,
		AgreePrivacy:    r.AgreePrivacy,
		AgreeMarketing:  r.AgreeMarketing,
		Method:          r.PaymentMethod,
		CardID:          r.CardID,
		WalletProvider:  r.WalletProvider,
		BankCode:        r.BankCode,
		DepositorName:   r.DepositorName,
		CouponID:        r.CouponID,
		RequestedPoints: r.UsePoints,
	}
}

// Quote prices the caller's cart against the selected coupon and points.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload quoteRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
			return
		}
	}
	q, err := h.Svc.QuoteCart(r.Context(), userID, payload.CouponID, payload.UsePoints)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": q})
}

// Submit validates the checkout and places the order.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload submitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error(), nil)
			return
		}
	}
	placed, err := h.Svc.Submit(r.Context(), userID, payload.context(), payload.PaymentKey)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": placed})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	var payErr *order.PaymentError
	switch {
	case errors.As(err, &verr):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", verr.Error(), verr)
	case errors.As(err, &payErr):
		common.JSONError(w, http.StatusBadGateway, "PAYMENT_FAILED", payErr.Message, map[string]any{
			"code": payErr.Code,
		})
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "cart is empty", nil)
	case errors.Is(err, ErrUnavailableItems):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "cart contains unavailable items", nil)
	case errors.Is(err, discount.ErrCouponNotFound):
		common.JSONError(w, http.StatusBadRequest, "INVALID_INPUT", "coupon not available", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
	}
}
