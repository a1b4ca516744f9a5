package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bookcatalog/internal/cache"
	apperrors "bookcatalog/internal/errors"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/model"
	"bookcatalog/internal/repository"
)

// BookInput carries a validated create request.
type BookInput struct {
	AuthorID    string
	Title       string
	Synopsis    string
	ReleaseYear int
	Genre       string
	CoverImage  string
}

// BookPatch carries a partial update; nil fields are left unchanged.
type BookPatch struct {
	AuthorID    *string
	Title       *string
	Synopsis    *string
	ReleaseYear *int
	Genre       *string
	CoverImage  *string
}

// BookService exposes book operations. Mutations take the resolved identity
// performing them and enforce ownership before writing.
type BookService interface {
	Create(ctx context.Context, actor *model.User, in BookInput) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Get(ctx context.Context, id string) (*model.Book, error)
	Update(ctx context.Context, actor *model.User, id string, patch BookPatch) (*model.Book, error)
	Delete(ctx context.Context, actor *model.User, id string) error
}

type bookService struct {
	repo         repository.BookRepository
	cache        *cache.Client
	cacheTTL     time.Duration
	cleaner      ImageCleaner
	defaultCover string
	metrics      *metrics.Metrics
	log          logrus.FieldLogger
}

// BookServiceOptions configures NewBookService.
type BookServiceOptions struct {
	Cache        *cache.Client
	CacheTTL     time.Duration
	Cleaner      ImageCleaner
	DefaultCover string
	Metrics      *metrics.Metrics
	Logger       logrus.FieldLogger
}

// NewBookService creates a new book service.
func NewBookService(repo repository.BookRepository, opts BookServiceOptions) BookService {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &bookService{
		repo:         repo,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		cleaner:      opts.Cleaner,
		defaultCover: opts.DefaultCover,
		metrics:      opts.Metrics,
		log:          log,
	}
}

func (s *bookService) cacheKey(id string) string {
	return fmt.Sprintf("book:%s", id)
}

func (s *bookService) generationKey(id string) string {
	return fmt.Sprintf("book:%s:gen", id)
}

// invalidate runs after a committed write. Reads already in flight carry the
// old generation and their fill is discarded.
func (s *bookService) invalidate(ctx context.Context, id string) {
	_ = s.cache.Invalidate(ctx, s.cacheKey(id), s.generationKey(id))
}

// Create stores a new book owned by actor. The declared author must be actor.
func (s *bookService) Create(ctx context.Context, actor *model.User, in BookInput) (*model.Book, error) {
	book := &model.Book{
		AuthorID:    in.AuthorID,
		Title:       strings.TrimSpace(in.Title),
		Synopsis:    in.Synopsis,
		ReleaseYear: in.ReleaseYear,
		Genre:       in.Genre,
		CoverImage:  s.coverOrDefault(in.CoverImage),
	}
	if err := s.checkOwner(actor, book); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.log.WithFields(logrus.Fields{"book_id": book.ID, "user_id": actor.ID}).Info("book created")
	return book, nil
}

// List returns every book with its author populated.
func (s *bookService) List(ctx context.Context) ([]model.Book, error) {
	books, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	for i := range books {
		books[i].Author = books[i].Author.Sanitized()
	}
	return books, nil
}

// Get returns one book, reading through the cache.
func (s *bookService) Get(ctx context.Context, id string) (*model.Book, error) {
	var cached model.Book
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	generation := s.cache.Generation(ctx, s.generationKey(id))
	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	_ = s.cache.SetJSONIfGeneration(ctx, s.cacheKey(id), s.generationKey(id), generation, book, s.cacheTTL)
	return book, nil
}

// Update applies patch to a book owned by actor. A replaced cover image is
// removed from storage after the write commits.
func (s *bookService) Update(ctx context.Context, actor *model.User, id string, patch BookPatch) (*model.Book, error) {
	book, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkOwner(actor, book); err != nil {
		return nil, err
	}
	// ownership cannot be handed over
	if patch.AuthorID != nil && *patch.AuthorID != book.AuthorID {
		s.metrics.Reject(metrics.ReasonNotOwner)
		return nil, apperrors.ErrNotOwner
	}

	oldCover := book.CoverImage
	applyPatch(book, patch)
	book.CoverImage = s.coverOrDefault(book.CoverImage)

	if err := s.repo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}
	s.invalidate(ctx, id)

	if oldCover != book.CoverImage {
		s.scheduleCleanup(oldCover)
	}

	s.log.WithFields(logrus.Fields{"book_id": book.ID, "user_id": actor.ID}).Info("book updated")
	return book, nil
}

// Delete removes a book owned by actor along with its stored cover image.
func (s *bookService) Delete(ctx context.Context, actor *model.User, id string) error {
	book, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.checkOwner(actor, book); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}
	s.invalidate(ctx, id)

	s.scheduleCleanup(book.CoverImage)

	s.log.WithFields(logrus.Fields{"book_id": id, "user_id": actor.ID}).Info("book deleted")
	return nil
}

func (s *bookService) load(ctx context.Context, id string) (*model.Book, error) {
	if !model.IsValidID(id) {
		return nil, apperrors.ErrBookNotFound
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	book.Author = book.Author.Sanitized()
	return book, nil
}

// checkOwner rejects actor unless it is the author of book.
func (s *bookService) checkOwner(actor *model.User, book *model.Book) error {
	if actor == nil || !book.OwnedBy(actor.ID) {
		s.metrics.Reject(metrics.ReasonNotOwner)
		return apperrors.ErrNotOwner
	}
	return nil
}

func (s *bookService) coverOrDefault(cover string) string {
	if strings.TrimSpace(cover) == "" {
		return s.defaultCover
	}
	return cover
}

func (s *bookService) scheduleCleanup(url string) {
	if s.cleaner == nil || url == "" || url == s.defaultCover {
		return
	}
	s.cleaner.Enqueue(url)
}

func applyPatch(book *model.Book, patch BookPatch) {
	if patch.Title != nil {
		book.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Synopsis != nil {
		book.Synopsis = *patch.Synopsis
	}
	if patch.ReleaseYear != nil {
		book.ReleaseYear = *patch.ReleaseYear
	}
	if patch.Genre != nil {
		book.Genre = *patch.Genre
	}
	if patch.CoverImage != nil {
		book.CoverImage = *patch.CoverImage
	}
}
