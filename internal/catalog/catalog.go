package catalog

import (
	"sort"
	"strings"

	"github.com/hounsou/bookstore/internal/domain/models"
)

// Store is the slice of the data store the catalogue reader needs.
type Store interface {
	GetActiveBooks() ([]models.Book, error)
	GetBook(bid string) (models.Book, error)
}

// Filter narrows the active set. Text is a case-insensitive substring match
// against the language-appropriate title, description and genre; Genre is an
// exact match, "" or "all" disables it.
type Filter struct {
	Text  string
	Genre string
	Lang  string
}

type Sort int

const (
	TitleAsc Sort = iota
	TitleDesc
	PriceAsc
	PriceDesc
	YearDesc
)

// ParseSort maps the query-string value onto a Sort, defaulting to TitleAsc.
func ParseSort(s string) Sort {
	switch s {
	case "title_desc":
		return TitleDesc
	case "price_asc":
		return PriceAsc
	case "price_desc":
		return PriceDesc
	case "year_desc":
		return YearDesc
	default:
		return TitleAsc
	}
}

type Reader struct {
	store Store
}

func New(store Store) *Reader {
	return &Reader{store: store}
}

// ListActiveBooks loads the whole active set and filters and sorts it in
// memory. Fine while the catalogue stays in the tens of records; revisit
// before it grows past that.
func (r *Reader) ListActiveBooks(filter Filter, by Sort) ([]models.Book, error) {
	books, err := r.store.GetActiveBooks()
	if err != nil {
		return nil, err
	}

	filtered := books[:0:0]
	for _, book := range books {
		if matches(book, filter) {
			filtered = append(filtered, book)
		}
	}
	sortBooks(filtered, by, filter.Lang)
	return filtered, nil
}

func (r *Reader) Featured(lang string) ([]models.Book, error) {
	books, err := r.store.GetActiveBooks()
	if err != nil {
		return nil, err
	}
	featured := books[:0:0]
	for _, book := range books {
		if book.Featured {
			featured = append(featured, book)
		}
	}
	sortBooks(featured, TitleAsc, lang)
	return featured, nil
}

func (r *Reader) Book(bid string) (models.Book, error) {
	return r.store.GetBook(bid)
}

func matches(book models.Book, f Filter) bool {
	if f.Genre != "" && f.Genre != "all" && book.GenreIn(f.Lang) != f.Genre {
		return false
	}
	if f.Text == "" {
		return true
	}
	needle := strings.ToLower(f.Text)
	for _, hay := range []string{book.TitleIn(f.Lang), book.DescriptionIn(f.Lang), book.GenreIn(f.Lang)} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// sortBooks orders in place; stable, so ties keep store order.
func sortBooks(books []models.Book, by Sort, lang string) {
	sort.SliceStable(books, func(i, j int) bool {
		a, b := books[i], books[j]
		switch by {
		case TitleDesc:
			return a.TitleIn(lang) > b.TitleIn(lang)
		case PriceAsc:
			return a.Price < b.Price
		case PriceDesc:
			return a.Price > b.Price
		case YearDesc:
			return a.Year > b.Year
		default:
			return a.TitleIn(lang) < b.TitleIn(lang)
		}
	})
}
