package orderstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jogardn/fooddash/pkg/models"
	"github.com/lib/pq"
)

type Repository interface {
	// Create inserts order. When idempotencyKey already names an order, that
	// order is returned with created set to false.
	Create(ctx context.Context, order *Order) (stored *Order, created bool, err error)
	Get(ctx context.Context, orderID string) (*Order, error)
	List(ctx context.Context, filter Filter) ([]*Order, error)
	// UpdateStatus moves the order from one status to another and fails
	// with ErrConflict when its current status is no longer from.
	UpdateStatus(ctx context.Context, orderID string, from, to models.RemoteStatus, riderID string, at time.Time) error
	Ping(ctx context.Context) error
}

type PostgresRepository struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

const orderColumns = `id, customer_phone, restaurant_id, restaurant_name, restaurant_image,
	food_total, delivery_fee, platform_fee, grand_total, status, rider_id,
	delivery_address, idempotency_key, created_at, updated_at, estimated_delivery_at`

func (r *PostgresRepository) Create(ctx context.Context, order *Order) (*Order, bool, error) {
	if order.IdempotencyKey != "" {
		existing, err := r.findByKey(ctx, order.IdempotencyKey)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}
	}

	err := r.insert(ctx, order)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && order.IdempotencyKey != "" {
		existing, findErr := r.findByKey(ctx, order.IdempotencyKey)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return order, true, nil
}

func (r *PostgresRepository) insert(ctx context.Context, order *Order) error {
	address, err := encodeAddress(order.DeliveryAddress)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = tx.ExecContext(ctx, query,
		order.ID, order.CustomerPhone, order.RestaurantID, order.RestaurantName, order.RestaurantImage,
		order.FoodTotal, order.DeliveryFee, order.PlatformFee, order.GrandTotal, string(order.Status),
		nullString(order.RiderID), address, nullString(order.IdempotencyKey),
		order.CreatedAt, order.UpdatedAt, order.EstimatedDeliveryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range order.Items {
		itemQuery := `
			INSERT INTO order_items (order_id, item_id, name, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, itemQuery, order.ID, item.ItemID, item.Name, item.Quantity, item.Price); err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) findByKey(ctx context.Context, key string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1`, key)
	return r.scanWithItems(ctx, row)
}

func (r *PostgresRepository) Get(ctx context.Context, orderID string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	return r.scanWithItems(ctx, row)
}

func (r *PostgresRepository) scanWithItems(ctx context.Context, row *sql.Row) (*Order, error) {
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order: %w", err)
	}

	items, err := r.loadItems(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]
	return order, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]*Order, error) {
	var conditions []string
	var args []interface{}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, column+" = $"+strconv.Itoa(len(args)))
	}
	add("customer_phone", filter.CustomerPhone)
	add("restaurant_id", filter.RestaurantID)
	add("rider_id", filter.RiderID)

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	args = append(args, filter.Limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read order: %w", err)
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []*Order{}, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.Items = items[order.ID]
	}
	return orders, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	query := `
		SELECT order_id, item_id, name, quantity, price
		FROM order_items WHERE order_id = ANY($1) ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]Item)
	for rows.Next() {
		var orderID string
		var item Item
		if err := rows.Scan(&orderID, &item.ItemID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to read order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, from, to models.RemoteStatus, riderID string, at time.Time) error {
	query := `
		UPDATE orders
		SET status = $1, rider_id = COALESCE($2, rider_id), updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, string(to), nullString(riderID), at, orderID, string(from))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s scanner) (*Order, error) {
	var order Order
	var status string
	var riderID, address, key sql.NullString
	var eta sql.NullTime
	err := s.Scan(
		&order.ID, &order.CustomerPhone, &order.RestaurantID, &order.RestaurantName, &order.RestaurantImage,
		&order.FoodTotal, &order.DeliveryFee, &order.PlatformFee, &order.GrandTotal, &status, &riderID,
		&address, &key, &order.CreatedAt, &order.UpdatedAt, &eta,
	)
	if err != nil {
		return nil, err
	}

	order.Status = models.RemoteStatus(status)
	order.RiderID = riderID.String
	order.IdempotencyKey = key.String
	if eta.Valid {
		order.EstimatedDeliveryAt = eta.Time
	}
	if address.Valid && address.String != "" {
		var addr models.Address
		if err := json.Unmarshal([]byte(address.String), &addr); err != nil {
			return nil, fmt.Errorf("failed to decode delivery address: %w", err)
		}
		order.DeliveryAddress = &addr
	}
	return &order, nil
}

func encodeAddress(addr *models.Address) (sql.NullString, error) {
	if addr == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(addr)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode delivery address: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateTables creates the schema when it does not exist yet.
func CreateTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(64) PRIMARY KEY,
			customer_phone VARCHAR(32) NOT NULL,
			restaurant_id VARCHAR(64) NOT NULL,
			restaurant_name VARCHAR(255) NOT NULL DEFAULT '',
			restaurant_image TEXT NOT NULL DEFAULT '',
			food_total DECIMAL(10,2) NOT NULL,
			delivery_fee DECIMAL(10,2) NOT NULL,
			platform_fee DECIMAL(10,2) NOT NULL,
			grand_total DECIMAL(10,2) NOT NULL,
			status VARCHAR(32) NOT NULL,
			rider_id VARCHAR(64),
			delivery_address JSONB,
			idempotency_key VARCHAR(128),
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			estimated_delivery_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id VARCHAR(64) NOT NULL REFERENCES orders(id),
			item_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price DECIMAL(10,2) NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_idempotency_key ON orders(idempotency_key) WHERE idempotency_key IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_orders_customer_phone ON orders(customer_phone, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_rider_id ON orders(rider_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
