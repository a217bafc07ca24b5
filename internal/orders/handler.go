package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pbarbosa/orderdesk/internal/domain"
	"github.com/pbarbosa/orderdesk/internal/messaging"
)

type Handler struct {
	repo         *OrderRepository
	producer     *messaging.Producer
	logger       *slog.Logger
	strictStatus bool
}

// NewHandler wires the order API. producer may be nil, in which case
// lifecycle events are not published. strictStatus rejects status
// values outside the known enum on update; the default is permissive.
func NewHandler(repo *OrderRepository, producer *messaging.Producer, logger *slog.Logger, strictStatus bool) *Handler {
	return &Handler{
		repo:         repo,
		producer:     producer,
		logger:       logger,
		strictStatus: strictStatus,
	}
}

type createOrderItem struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type createOrderRequest struct {
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	Items         []createOrderItem `json:"items"`
	TotalPrice    float64           `json:"total_price"`
}

type createOrderResponse struct {
	ID          string `json:"id"`
	OrderNumber int64  `json:"order_number"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CustomerName == "" || req.CustomerEmail == "" {
		h.writeError(w, http.StatusBadRequest, "customer_name and customer_email are required")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}

	// total_price is stored as supplied rather than recomputed from the
	// items, matching the storefront contract.
	order := &domain.Order{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Items:         items,
		TotalPrice:    req.TotalPrice,
		CreatedAt:     time.Now().UTC(),
	}

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	if h.producer != nil {
		event := domain.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			ItemCount:   len(order.Items),
			TotalPrice:  order.TotalPrice,
			Currency:    order.Currency,
			Status:      order.Status,
			Timestamp:   order.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), messaging.TopicOrderCreated, order.ID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order created", "order_id", order.ID, "order_number", order.OrderNumber)
	h.writeJSON(w, http.StatusCreated, createOrderResponse{ID: order.ID, OrderNumber: order.OrderNumber})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
	Notes  string             `json:"notes"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.strictStatus && !req.Status.Valid() {
		h.writeError(w, http.StatusBadRequest, "unknown status: "+string(req.Status))
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), id, req.Status, req.Notes)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to update order status")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if h.producer != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			Notes:       req.Notes,
			Timestamp:   order.UpdatedAt,
		}
		if err := h.producer.Publish(r.Context(), messaging.TopicOrderStatusChanged, order.ID, event); err != nil {
			h.logger.Error("failed to publish status changed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "failed to delete order")
		return
	}

	h.logger.Info("order deleted", "order_id", id)
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
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
