package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

const orderColumns = `oid, number, customer_id, user_id, total, first_name, last_name, email,
	phone, address, city, postal_code, country, payment_method, status, payment_status, notes, created_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(&o.OID, &o.Number, &o.CustomerID, &o.UID, &o.Total,
		&o.FirstName, &o.LastName, &o.Email, &o.Phone, &o.Address, &o.City,
		&o.PostalCode, &o.Country, &o.PaymentMethod, &o.Status, &o.PaymentStatus,
		&o.Notes, &o.CreatedAt)
	return o, err
}

// CreateOrder persists the order and all of its lines in one transaction,
// locking and decrementing the stock of every referenced book. Either the
// whole order lands or nothing does.
func (dbs *DBStorage) CreateOrder(order models.Order, items []models.OrderItem) (models.Order, error) {
	log := logger.Get()
	if err := models.ValidateOrder(order, items); err != nil {
		return models.Order{}, err
	}
	ctx, cancel := dbctx()
	defer cancel()

	tx, err := dbs.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, item := range items {
		var stock int
		err := tx.QueryRow(ctx, `SELECT stock FROM books WHERE bid = $1 FOR UPDATE`, item.BID).Scan(&stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.Order{}, storerrors.ErrBookNotFound
			}
			return models.Order{}, fmt.Errorf("failed to check stock: %w", err)
		}
		if stock < item.Quantity {
			return models.Order{}, storerrors.ErrStockExhausted
		}
		if _, err := tx.Exec(ctx, `UPDATE books SET stock = stock - $1 WHERE bid = $2`, item.Quantity, item.BID); err != nil {
			return models.Order{}, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	oid := newID()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (oid, number, customer_id, user_id, total, first_name, last_name, email,
			phone, address, city, postal_code, country, payment_method, status, payment_status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at`,
		oid, order.Number, order.CustomerID, order.UID, order.Total,
		order.FirstName, order.LastName, order.Email, order.Phone, order.Address,
		order.City, order.PostalCode, order.Country, order.PaymentMethod,
		order.Status, order.PaymentStatus, order.Notes).Scan(&order.CreatedAt)
	if err != nil {
		log.Error().Err(err).Msg("insert order failed")
		return models.Order{}, err
	}
	order.OID = oid

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(
			`INSERT INTO order_items (oid, book_id, title, quantity, unit_price, total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			oid, item.BID, item.Title, item.Quantity, item.UnitPrice, item.Total)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		log.Error().Err(err).Msg("insert order items failed")
		return models.Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (dbs *DBStorage) GetOrder(oid string) (models.Order, []models.OrderItem, error) {
	ctx, cancel := dbctx()
	defer cancel()

	order, err := scanOrder(dbs.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE oid = $1`, oid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, nil, storerrors.ErrOrderNotFound
		}
		return models.Order{}, nil, err
	}

	rows, err := dbs.pool.Query(ctx,
		`SELECT oid, book_id, title, quantity, unit_price, total FROM order_items WHERE oid = $1`, oid)
	if err != nil {
		return models.Order{}, nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.OID, &it.BID, &it.Title, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return models.Order{}, nil, err
		}
		items = append(items, it)
	}
	return order, items, nil
}

func (dbs *DBStorage) GetOrders() ([]models.Order, error) {
	return dbs.ordersQuery(`SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`)
}

func (dbs *DBStorage) OrdersSince(t time.Time) ([]models.Order, error) {
	return dbs.ordersQuery(`SELECT `+orderColumns+` FROM orders WHERE created_at >= $1 ORDER BY created_at DESC`, t)
}

func (dbs *DBStorage) ordersQuery(query string, args ...any) ([]models.Order, error) {
	log := logger.Get()
	ctx, cancel := dbctx()
	defer cancel()

	rows, err := dbs.pool.Query(ctx, query, args...)
	if err != nil {
		log.Error().Err(err).Msg("failed to get orders from db")
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			log.Error().Err(err).Msg("failed to scan order row")
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (dbs *DBStorage) UpdateOrderStatus(oid string, status models.OrderStatus) error {
	ctx, cancel := dbctx()
	defer cancel()

	res, err := dbs.pool.Exec(ctx, `UPDATE orders SET status = $1 WHERE oid = $2`, status, oid)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if res.RowsAffected() == 0 {
		return storerrors.ErrOrderNotFound
	}
	return nil
}

func (dbs *DBStorage) UpdatePaymentStatus(oid string, status models.PaymentStatus) error {
	ctx, cancel := dbctx()
	defer cancel()

	res, err := dbs.pool.Exec(ctx, `UPDATE orders SET payment_status = $1 WHERE oid = $2`, status, oid)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if res.RowsAffected() == 0 {
		return storerrors.ErrOrderNotFound
	}
	return nil
}
