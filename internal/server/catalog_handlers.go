package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hounsou/bookstore/internal/catalog"
	"github.com/hounsou/bookstore/internal/domain/models"
	storerrors "github.com/hounsou/bookstore/internal/storage/errors"
)

// ListBooks serves the catalogue with optional text/genre filter and sort.
// An empty catalogue is an empty list, never an error page.
func (s *Server) ListBooks(ctx *gin.Context) {
	filter := catalog.Filter{
		Text:  ctx.DefaultQuery("search", ""),
		Genre: ctx.DefaultQuery("genre", "all"),
		Lang:  ctx.DefaultQuery("lang", "fr"),
	}
	by := catalog.ParseSort(ctx.DefaultQuery("sort", "title_asc"))

	books, err := s.books.ListActiveBooks(filter, by)
	if err != nil {
		if errors.Is(err, storerrors.ErrEmptyBooksList) {
			ctx.JSON(http.StatusOK, []models.Book{})
			return
		}
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "catalogue temporarily unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, books)
}

func (s *Server) FeaturedBooks(ctx *gin.Context) {
	books, err := s.books.Featured(ctx.DefaultQuery("lang", "fr"))
	if err != nil {
		if errors.Is(err, storerrors.ErrEmptyBooksList) {
			ctx.JSON(http.StatusOK, []models.Book{})
			return
		}
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "catalogue temporarily unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, books)
}

func (s *Server) BookInfo(ctx *gin.Context) {
	book, err := s.books.Book(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, storerrors.ErrBookNotFound) {
			ctx.String(http.StatusNotFound, err.Error())
			return
		}
		ctx.String(http.StatusInternalServerError, err.Error())
		return
	}
	ctx.JSON(http.StatusOK, book)
}
