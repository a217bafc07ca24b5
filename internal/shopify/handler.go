package shopify

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

const defaultListLimit = 50

// Handler exposes the Shopify pass-through endpoints. Upstream JSON is
// relayed as received; list responses get a minimal {items, count}
// wrapper to match the storefront contract.
type Handler struct {
	client *Client
	logger *slog.Logger
}

func NewHandler(client *Client, logger *slog.Logger) *Handler {
	return &Handler{
		client: client,
		logger: logger,
	}
}

func (h *Handler) HandleShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.client.GetShop(r.Context())
	if err != nil {
		h.writeUpstreamError(w, err, "failed to fetch shop info")
		return
	}

	h.writeJSON(w, http.StatusOK, shop)
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}

	products, err := h.client.ListProducts(r.Context(), limit)
	if err != nil {
		h.writeUpstreamError(w, err, "failed to fetch products")
		return
	}

	h.logger.Info("shopify products fetched", "count", len(products))
	h.writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

func (h *Handler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limitParam(w, r)
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = "any"
	}

	orders, err := h.client.ListOrders(r.Context(), limit, status)
	if err != nil {
		h.writeUpstreamError(w, err, "failed to fetch orders")
		return
	}

	h.logger.Info("shopify orders fetched", "count", len(orders), "status", status)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.client.GetOrder(r.Context(), id)
	if err != nil {
		h.writeUpstreamError(w, err, "failed to fetch order")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListFulfillments(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	fulfillments, err := h.client.ListFulfillments(r.Context(), id)
	if err != nil {
		h.writeUpstreamError(w, err, "failed to fetch fulfillments")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"fulfillments": fulfillments,
		"count":        len(fulfillments),
	})
}

func (h *Handler) limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}

	return limit, true
}

// writeUpstreamError maps client failures: a non-2xx Shopify response
// is relayed with its upstream status and body, anything else
// (transport failure, missing credentials) hides behind a gateway
// error with a short message.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, err error, message string) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		h.logger.Error(message, "status", upstream.StatusCode, "body", upstream.Body)
		h.writeJSON(w, upstream.StatusCode, map[string]string{
			"error":   message,
			"details": upstream.Body,
		})
		return
	}

	if errors.Is(err, ErrNotConfigured) {
		h.logger.Error(message, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   message,
			"details": err.Error(),
		})
		return
	}

	h.logger.Error(message, "error", err)
	h.writeJSON(w, http.StatusBadGateway, map[string]string{
		"error":   message,
		"details": err.Error(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
