package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

type stubQuoter struct {
	preview any
	err     error
	lines   []LineItem
}

func (q *stubQuoter) Preview(_ context.Context, items []LineItem) (any, error) {
	q.lines = items
	return q.preview, q.err
}

func newTestHandler(t *testing.T) (*Handler, *Store) {
	t.Helper()
	store, _ := newTestStore(t)
	return &Handler{
		Svc:      &Service{Store: store},
		Validate: validator.New(),
	}, store
}

func TestHandlerGetEmbedsPricingPreview(t *testing.T) {
	h, store := newTestHandler(t)
	quoter := &stubQuoter{preview: map[string]any{"total": int64(43_000)}}
	h.Quoter = quoter

	c := New()
	require.NoError(t, c.Add(1, 1, "Black", "M"))
	require.NoError(t, store.Save(context.Background(), "anon-1", c))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Anon-Id", "anon-1")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data struct {
			ItemCount int             `json:"itemCount"`
			Pricing   json.RawMessage `json:"pricing"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 1, body.Data.ItemCount)
	require.JSONEq(t, `{"total":43000}`, string(body.Data.Pricing))
	require.Equal(t, c.Lines(), quoter.lines)
}

func TestHandlerGetDegradesWhenQuoterFails(t *testing.T) {
	h, store := newTestHandler(t)
	h.Quoter = &stubQuoter{err: errors.New("catalog down")}

	c := New()
	require.NoError(t, c.Add(1, 2, "", ""))
	require.NoError(t, store.Save(context.Background(), "anon-1", c))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Anon-Id", "anon-1")
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Contains(t, body.Data, "items")
	require.NotContains(t, body.Data, "pricing")
}

func TestHandlerGetRequiresOwner(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := httptest.NewRecorder()
	h.Get(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerAddItemRejectsNonPositiveQuantity(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"productId":1,"quantity":-1}`))
	req.Header.Set("X-Anon-Id", "anon-1")
	rr := httptest.NewRecorder()
	h.AddItem(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "INVALID_INPUT")
}
