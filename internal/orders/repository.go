package orders

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/pbarbosa/orderdesk/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order, its items, and the initial pending history
// entry in a single transaction so a failed write never leaves a
// partially visible order.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()
	order.Status = domain.OrderStatusPending
	if order.Currency == "" {
		order.Currency = domain.DefaultCurrency
	}
	order.UpdatedAt = order.CreatedAt

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, order_number, customer_name, customer_email, status, total_price, currency, created_at, updated_at)
		VALUES ($1, nextval('order_numbers'), $2, $3, $4, $5, $6, $7, $7)
		RETURNING order_number
	`, order.ID, order.CustomerName, order.CustomerEmail, order.Status, order.TotalPrice, order.Currency, order.CreatedAt).
		Scan(&order.OrderNumber)
	if err != nil {
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New().String()
		item.OrderID = order.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_name, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, item.ID, item.OrderID, item.ProductName, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return err
		}
	}

	entry := domain.StatusHistoryEntry{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		Status:    domain.OrderStatusPending,
		Notes:     "Order created",
		Timestamp: order.CreatedAt,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, notes, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.OrderID, entry.Status, entry.Notes, entry.Timestamp)
	if err != nil {
		return err
	}
	order.History = []domain.StatusHistoryEntry{entry}

	return tx.Commit()
}

// List returns all orders newest first, without items or history.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_number, customer_name, customer_email, status, total_price, currency, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerEmail,
			&order.Status, &order.TotalPrice, &order.Currency, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetByID returns the order with its items and full status history,
// history newest first. A missing id yields (nil, nil).
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_number, customer_name, customer_email, status, total_price, currency, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.OrderNumber, &order.CustomerName, &order.CustomerEmail,
		&order.Status, &order.TotalPrice, &order.Currency, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_name, product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	order.Items = []domain.OrderItem{}
	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductName, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	historyRows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, status, notes, timestamp
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY timestamp DESC
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = historyRows.Close() }()

	order.History = []domain.StatusHistoryEntry{}
	for historyRows.Next() {
		var entry domain.StatusHistoryEntry
		if err := historyRows.Scan(&entry.ID, &entry.OrderID, &entry.Status, &entry.Notes, &entry.Timestamp); err != nil {
			return nil, err
		}
		order.History = append(order.History, entry)
	}

	if err := historyRows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateStatus sets the order's status and appends a history entry in
// one transaction. It returns the refreshed order, or (nil, nil) when
// the id does not exist.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, notes string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, notes, timestamp)
		VALUES ($1, $2, $3, $4, NOW())
	`, uuid.New().String(), id, status, notes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Delete removes the order's items, history, and the order row in one
// transaction. Deleting an absent id is a no-op, not an error.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_status_history WHERE order_id = $1`, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit()
}
