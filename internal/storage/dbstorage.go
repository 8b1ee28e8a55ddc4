package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hounsou/bookstore/internal/domain/consts"
	"github.com/hounsou/bookstore/internal/domain/models"
	"github.com/hounsou/bookstore/internal/logger"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

type DBStorage struct {
	pool *pgxpool.Pool
}

func NewDB(ctx context.Context, addr string) (*DBStorage, error) {
	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		return nil, err
	}
	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	return &DBStorage{pool: pool}, nil
}

func (dbs *DBStorage) Close() {
	dbs.pool.Close()
}

func dbctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), consts.DBCtxTimeout)
}

const bookColumns = `bid, title, title_fr, description, description_fr, genre, genre_fr,
	publisher, year, price, stock, active, featured, cover_url`

func scanBook(row pgx.Row) (models.Book, error) {
	var b models.Book
	err := row.Scan(&b.BID, &b.Title, &b.TitleFr, &b.Description, &b.DescriptionFr,
		&b.Genre, &b.GenreFr, &b.Publisher, &b.Year, &b.Price, &b.Stock,
		&b.Active, &b.Featured, &b.CoverURL)
	return b, err
}

// GetActiveBooks returns every catalogue row with the active flag set, in
// store order. Filtering and sorting happen in the catalogue reader.
func (dbs *DBStorage) GetActiveBooks() ([]models.Book, error) {
	log := logger.Get()
	ctx, cancel := dbctx()
	defer cancel()

	rows, err := dbs.pool.Query(ctx, `SELECT `+bookColumns+` FROM books WHERE active ORDER BY created_at`)
	if err != nil {
		log.Error().Err(err).Msg("failed to get active books from db")
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			log.Error().Err(err).Msg("failed to scan book row")
			return nil, err
		}
		books = append(books, book)
	}
	if len(books) == 0 {
		return nil, storerrors.ErrEmptyBooksList
	}
	return books, nil
}

func (dbs *DBStorage) GetBook(bid string) (models.Book, error) {
	ctx, cancel := dbctx()
	defer cancel()

	book, err := scanBook(dbs.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE bid = $1`, bid))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Book{}, storerrors.ErrBookNotFound
		}
		return models.Book{}, err
	}
	return book, nil
}

func (dbs *DBStorage) SaveBook(book models.Book) (string, error) {
	log := logger.Get()
	ctx, cancel := dbctx()
	defer cancel()

	bid := book.BID
	if bid == "" {
		bid = newID()
	}
	_, err := dbs.pool.Exec(ctx,
		`INSERT INTO books (bid, title, title_fr, description, description_fr, genre, genre_fr,
			publisher, year, price, stock, active, featured, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		bid, book.Title, book.TitleFr, book.Description, book.DescriptionFr,
		book.Genre, book.GenreFr, book.Publisher, book.Year, book.Price,
		book.Stock, book.Active, book.Featured, book.CoverURL)
	if err != nil {
		log.Error().Err(err).Msg("save book failed")
		return "", err
	}
	return bid, nil
}

func Migrations(dbDsn string, migrationsPath string) error {
	log := logger.Get()
	migratePath := fmt.Sprintf("file://%s", migrationsPath)
	m, err := migrate.New(migratePath, dbDsn)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no migrations to apply")
			return nil
		}
		return err
	}
	log.Info().Msg("all migrations applied")
	return nil
}
