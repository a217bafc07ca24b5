//go:build integration

package test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/pbarbosa/orderdesk/internal/domain"
	"github.com/pbarbosa/orderdesk/internal/messaging"
	"github.com/pbarbosa/orderdesk/internal/orders"
)

func newOrderMux(handler *orders.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", handler.HandleCreate)
	mux.HandleFunc("GET /orders", handler.HandleList)
	mux.HandleFunc("GET /orders/{id}", handler.HandleGet)
	mux.HandleFunc("PATCH /orders/{id}/status", handler.HandleUpdateStatus)
	mux.HandleFunc("DELETE /orders/{id}", handler.HandleDelete)
	return mux
}

func TestOrderLifecycle(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := orders.NewOrderRepository(db)
	handler := orders.NewHandler(repo, nil, slog.Default(), false)
	mux := newOrderMux(handler)

	reqBody := `{"customer_name":"Ann","customer_email":"a@b.com","items":[{"id":"p1","name":"Widget","price":9.99,"quantity":2}],"total_price":19.98}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID          string `json:"id"`
		OrderNumber int64  `json:"order_number"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if created.ID == "" || created.OrderNumber == 0 {
		t.Fatalf("expected id and order number, got %+v", created)
	}

	var itemCount, historyCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM order_items WHERE order_id = $1`, created.ID).Scan(&itemCount); err != nil {
		t.Fatalf("failed to count items: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM order_status_history WHERE order_id = $1`, created.ID).Scan(&historyCount); err != nil {
		t.Fatalf("failed to count history: %v", err)
	}
	if itemCount != 1 {
		t.Errorf("expected 1 item row, got %d", itemCount)
	}
	if historyCount != 1 {
		t.Errorf("expected 1 history row, got %d", historyCount)
	}

	req = httptest.NewRequest(http.MethodGet, "/orders/"+created.ID, nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var fetched domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}
	if fetched.Status != domain.OrderStatusPending {
		t.Errorf("expected pending, got %s", fetched.Status)
	}
	if fetched.TotalPrice != 19.98 {
		t.Errorf("expected stored total 19.98 as supplied, got %v", fetched.TotalPrice)
	}
	if len(fetched.Items) != 1 || fetched.Items[0].Quantity != 2 || fetched.Items[0].Price != 9.99 {
		t.Errorf("unexpected items: %+v", fetched.Items)
	}
	if len(fetched.History) != 1 || fetched.History[0].Status != domain.OrderStatusPending || fetched.History[0].Notes != "Order created" {
		t.Errorf("unexpected history: %+v", fetched.History)
	}

	req = httptest.NewRequest(http.MethodPatch, "/orders/"+created.ID+"/status",
		strings.NewReader(`{"status":"shipped","notes":"left warehouse"}`))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/orders/"+created.ID, nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("failed to decode order: %v", err)
	}
	if fetched.Status != domain.OrderStatusShipped {
		t.Errorf("expected shipped, got %s", fetched.Status)
	}
	if len(fetched.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(fetched.History))
	}
	if fetched.History[0].Status != domain.OrderStatusShipped || fetched.History[0].Notes != "left warehouse" {
		t.Errorf("unexpected latest history entry: %+v", fetched.History[0])
	}
	if fetched.History[1].Status != domain.OrderStatusPending {
		t.Errorf("expected prior pending entry unchanged, got %+v", fetched.History[1])
	}
	if !fetched.UpdatedAt.After(fetched.CreatedAt) {
		t.Errorf("expected updated_at to move past created_at, got %v / %v", fetched.UpdatedAt, fetched.CreatedAt)
	}

	req = httptest.NewRequest(http.MethodDelete, "/orders/"+created.ID, nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM order_items WHERE order_id = $1`, created.ID).Scan(&itemCount); err != nil {
		t.Fatalf("failed to count items: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM order_status_history WHERE order_id = $1`, created.ID).Scan(&historyCount); err != nil {
		t.Fatalf("failed to count history: %v", err)
	}
	if itemCount != 0 || historyCount != 0 {
		t.Errorf("expected cascade to remove rows, got %d items and %d history", itemCount, historyCount)
	}

	req = httptest.NewRequest(http.MethodGet, "/orders/"+created.ID, nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", rec.Code)
	}
}

func TestOrderNumbersUniqueAndOrdered(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := orders.NewOrderRepository(db)

	seen := map[int64]bool{}
	var last int64
	for i := 0; i < 5; i++ {
		order := &domain.Order{
			CustomerName:  "Ann",
			CustomerEmail: "a@b.com",
			TotalPrice:    1,
			CreatedAt:     time.Now().UTC(),
		}
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("failed to create order %d: %v", i, err)
		}
		if seen[order.OrderNumber] {
			t.Fatalf("duplicate order number %d", order.OrderNumber)
		}
		if order.OrderNumber <= last {
			t.Fatalf("expected increasing order numbers, got %d after %d", order.OrderNumber, last)
		}
		seen[order.OrderNumber] = true
		last = order.OrderNumber
	}

	listed, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(listed) != 5 {
		t.Fatalf("expected 5 orders, got %d", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		if listed[i].CreatedAt.After(listed[i-1].CreatedAt) {
			t.Errorf("expected newest first, index %d is newer than %d", i, i-1)
		}
	}
}

func TestOrderEventsPublished(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	brokers, cleanupKafka := SetupKafka(ctx, t)
	defer cleanupKafka()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	producer := messaging.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	repo := orders.NewOrderRepository(db)
	handler := orders.NewHandler(repo, producer, slog.Default(), false)
	mux := newOrderMux(handler)

	reqBody := `{"customer_name":"Ann","customer_email":"a@b.com","items":[],"total_price":5}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderCreated, "test-group",
		messaging.WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	events := make(chan domain.OrderCreatedEvent, 1)
	consumeCtx, stopConsume := context.WithTimeout(ctx, 60*time.Second)
	defer stopConsume()

	go func() {
		_ = consumer.Consume(consumeCtx, func(_ context.Context, payload []byte) error {
			var event domain.OrderCreatedEvent
			if err := json.Unmarshal(payload, &event); err != nil {
				return err
			}
			events <- event
			stopConsume()
			return nil
		})
	}()

	select {
	case event := <-events:
		if event.OrderID != created.ID {
			t.Errorf("expected event for order %s, got %s", created.ID, event.OrderID)
		}
		if event.Status != domain.OrderStatusPending {
			t.Errorf("expected pending event status, got %s", event.Status)
		}
	case <-consumeCtx.Done():
		t.Fatal("timed out waiting for order created event")
	}
}
