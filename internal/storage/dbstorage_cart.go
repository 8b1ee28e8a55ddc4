package storage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

func newID() string {
	return uuid.New().String()
}

// GetCartLines returns the user's cart items joined with book display fields.
func (dbs *DBStorage) GetCartLines(uid string) ([]models.CartLine, error) {
	log := logger.Get()
	ctx, cancel := dbctx()
	defer cancel()

	rows, err := dbs.pool.Query(ctx, `
		SELECT ci.item_id, ci.book_id, b.title, b.title_fr, b.price, b.stock, b.cover_url, ci.quantity
		FROM cart_items ci
		JOIN books b ON ci.book_id = b.bid
		WHERE ci.user_id = $1
		ORDER BY ci.added_at`, uid)
	if err != nil {
		log.Error().Err(err).Msg("failed to get cart items from db")
		return nil, err
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ItemID, &l.BID, &l.Title, &l.TitleFr, &l.Price, &l.Stock, &l.CoverURL, &l.Quantity); err != nil {
			log.Error().Err(err).Msg("failed to scan cart row")
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (dbs *DBStorage) FindCartItem(uid, bid string) (models.CartItem, error) {
	ctx, cancel := dbctx()
	defer cancel()

	var item models.CartItem
	err := dbs.pool.QueryRow(ctx,
		`SELECT item_id, user_id, book_id, quantity FROM cart_items WHERE user_id = $1 AND book_id = $2`,
		uid, bid).Scan(&item.ItemID, &item.UID, &item.BID, &item.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CartItem{}, storerrors.ErrCartItemNotFound
		}
		return models.CartItem{}, err
	}
	return item, nil
}

func (dbs *DBStorage) InsertCartItem(item models.CartItem) (string, error) {
	if err := item.Validate(); err != nil {
		return "", err
	}
	ctx, cancel := dbctx()
	defer cancel()

	itemID := newID()
	_, err := dbs.pool.Exec(ctx,
		`INSERT INTO cart_items (item_id, user_id, book_id, quantity) VALUES ($1, $2, $3, $4)`,
		itemID, item.UID, item.BID, item.Quantity)
	if err != nil {
		return "", fmt.Errorf("failed to add book to cart: %w", err)
	}
	return itemID, nil
}

func (dbs *DBStorage) UpdateCartQuantity(itemID string, quantity int) error {
	ctx, cancel := dbctx()
	defer cancel()

	res, err := dbs.pool.Exec(ctx, `UPDATE cart_items SET quantity = $1 WHERE item_id = $2`, quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}
	if res.RowsAffected() == 0 {
		return storerrors.ErrCartItemNotFound
	}
	return nil
}

func (dbs *DBStorage) DeleteCartItem(itemID string) error {
	ctx, cancel := dbctx()
	defer cancel()

	res, err := dbs.pool.Exec(ctx, `DELETE FROM cart_items WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	if res.RowsAffected() == 0 {
		return storerrors.ErrCartItemNotFound
	}
	return nil
}

func (dbs *DBStorage) ClearCart(uid string) error {
	ctx, cancel := dbctx()
	defer cancel()

	_, err := dbs.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, uid)
	return err
}
