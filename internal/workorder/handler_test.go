package workorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) (*chi.Mux, *fixture) {
	t.Helper()
	f := newFixture()
	board := NewBoard(f.repo, nil, 0, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, f.service, board, NewCSVExporter(f.repo))

	r := chi.NewRouter()
	r.Route("/work-orders", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	return r, f
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndGet(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/work-orders", CreateRequest{ClientID: 1, BicycleID: 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created WorkOrder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, StatusOpen, created.Status)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/work-orders/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/work-orders/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerTransitionConflicts(t *testing.T) {
	router, f := testRouter(t)
	order, err := f.service.Create(context.Background(), CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)

	// Completing an open order is a state conflict.
	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/work-orders/%d/complete", order.ID), nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/work-orders/%d/start", order.ID), StartRequest{MechanicID: "m1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/work-orders/%d/start", order.ID), StartRequest{MechanicID: "m1"})
	require.Equal(t, http.StatusConflict, rec.Code)

	// Validation failures out of the request body are 400s.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/work-orders/%d/start", order.ID), StartRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerInsufficientStockIsConflict(t *testing.T) {
	router, f := testRouter(t)
	order, err := f.service.Create(context.Background(), CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/work-orders/%d/edit", order.ID), CommitEditRequest{
		Parts: []LineInput{{CatalogID: 11, Quantity: 5}},
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "part 11")
}

func TestHandlerQuoteRespondValidation(t *testing.T) {
	router, f := testRouter(t)
	ctx := context.Background()
	order, err := f.service.Create(ctx, CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)
	order, err = f.service.Start(ctx, order.ID, StartRequest{MechanicID: "m1"})
	require.NoError(t, err)
	_, err = f.service.CommitEdit(ctx, order.ID, CommitEditRequest{
		Services: []LineInput{{CatalogID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.service.SendQuote(ctx, order.ID)
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodPost, fmt.Sprintf("/work-orders/%d/quote/respond", order.ID), RespondQuoteRequest{Outcome: "maybe"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/work-orders/%d/quote/respond", order.ID), RespondQuoteRequest{Outcome: QuoteStatusApproved})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerExportCSV(t *testing.T) {
	router, f := testRouter(t)
	_, err := f.service.Create(context.Background(), CreateRequest{ClientID: 1, BicycleID: 1})
	require.NoError(t, err)

	rec := doJSON(t, router, http.MethodGet, "/work-orders/export.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	require.Contains(t, rec.Body.String(), "id,client,bicycle")
}
