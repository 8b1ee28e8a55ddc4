package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

func (dbs *DBStorage) SaveUser(user models.User) (string, error) {
	log := logger.Get()
	ctx, cancel := dbctx()
	defer cancel()

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Pass), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("hash password failed")
		return "", err
	}

	uid := newID()
	_, err = dbs.pool.Exec(ctx,
		`INSERT INTO users (uid, email, pass, role) VALUES ($1, $2, $3, $4)`,
		uid, user.Email, string(hash), user.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", storerrors.ErrUserExists
		}
		log.Error().Err(err).Msg("save user failed")
		return "", err
	}
	return uid, nil
}

func (dbs *DBStorage) ValidUser(user models.User) (string, error) {
	ctx, cancel := dbctx()
	defer cancel()

	var uid, hash string
	err := dbs.pool.QueryRow(ctx, `SELECT uid, pass FROM users WHERE email = $1`, user.Email).Scan(&uid, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storerrors.ErrUserNotFound
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(user.Pass)); err != nil {
		return "", storerrors.ErrInvalidPassword
	}
	return uid, nil
}

func (dbs *DBStorage) GetUser(uid string) (models.User, error) {
	ctx, cancel := dbctx()
	defer cancel()

	var user models.User
	err := dbs.pool.QueryRow(ctx, `SELECT uid, email, role FROM users WHERE uid = $1`, uid).
		Scan(&user.UID, &user.Email, &user.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storerrors.ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (dbs *DBStorage) GetCustomer(uid string) (models.Customer, error) {
	ctx, cancel := dbctx()
	defer cancel()

	var c models.Customer
	err := dbs.pool.QueryRow(ctx,
		`SELECT cid, uid, first_name, last_name, email, phone, address, city, postal_code, country
		FROM customers WHERE uid = $1`, uid).
		Scan(&c.CID, &c.UID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
			&c.Address, &c.City, &c.PostalCode, &c.Country)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Customer{}, storerrors.ErrCustomerNotFound
		}
		return models.Customer{}, err
	}
	return c, nil
}

// UpsertCustomer creates the profile row on first checkout or profile edit
// and updates it afterwards. At most one customer exists per user.
func (dbs *DBStorage) UpsertCustomer(c models.Customer) (string, error) {
	ctx, cancel := dbctx()
	defer cancel()

	var cid string
	err := dbs.pool.QueryRow(ctx,
		`INSERT INTO customers (cid, uid, first_name, last_name, email, phone, address, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (uid) DO UPDATE SET
			first_name = $3, last_name = $4, email = $5, phone = $6,
			address = $7, city = $8, postal_code = $9, country = $10
		RETURNING cid`,
		newID(), c.UID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Address, c.City, c.PostalCode, c.Country).Scan(&cid)
	if err != nil {
		return "", fmt.Errorf("failed to upsert customer: %w", err)
	}
	return cid, nil
}

func (dbs *DBStorage) SaveEvent(ev models.AnalyticsEvent) error {
	ctx, cancel := dbctx()
	defer cancel()

	attrs, err := json.Marshal(ev.Attrs)
	if err != nil {
		return err
	}
	_, err = dbs.pool.Exec(ctx,
		`INSERT INTO analytics_events (event_id, name, session_id, user_id, attrs) VALUES ($1, $2, $3, $4, $5)`,
		newID(), ev.Name, ev.SessionID, ev.UID, attrs)
	return err
}

func (dbs *DBStorage) EventsSince(t time.Time) ([]models.AnalyticsEvent, error) {
	log := logger.Get()
	ctx, cancel := dbctx()
	defer cancel()

	rows, err := dbs.pool.Query(ctx,
		`SELECT event_id, name, session_id, user_id, attrs, created_at
		FROM analytics_events WHERE created_at >= $1`, t)
	if err != nil {
		log.Error().Err(err).Msg("failed to get analytics events from db")
		return nil, err
	}
	defer rows.Close()

	var events []models.AnalyticsEvent
	for rows.Next() {
		var ev models.AnalyticsEvent
		var attrs []byte
		if err := rows.Scan(&ev.EventID, &ev.Name, &ev.SessionID, &ev.UID, &attrs, &ev.CreatedAt); err != nil {
			log.Error().Err(err).Msg("failed to scan event row")
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &ev.Attrs); err != nil {
				log.Warn().Err(err).Str("event_id", ev.EventID).Msg("bad attrs payload")
			}
		}
		events = append(events, ev)
	}
	return events, nil
}
