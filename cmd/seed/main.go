package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bookcatalog/internal/auth"
	"bookcatalog/internal/config"
	"bookcatalog/internal/db"
	"bookcatalog/internal/logger"
	"bookcatalog/internal/model"
	"bookcatalog/internal/repository"
)

const defaultBooksSource = "cmd/seed/books.json"

// SeedBook is one entry of the books source.
type SeedBook struct {
	Title       string `json:"title"`
	Synopsis    string `json:"synopsis"`
	ReleaseYear int    `json:"releaseYear"`
	Genre       string `json:"genre"`
	CoverImage  string `json:"coverImage"`
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("Starting seed script...")

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := db.Migrate(gormDB, false); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database migrations completed")

	source := getEnv("SEED_BOOKS", defaultBooksSource)
	books, err := loadBooks(source)
	if err != nil {
		log.WithError(err).Fatal("Failed to load books")
	}
	log.Infof("Loaded %d books from %s", len(books), source)

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)

	admin, err := ensureAdmin(ctx, userRepo, auth.NewPasswordHasher(cfg.BcryptCost), &model.User{
		Name:  getEnv("SEED_ADMIN_NAME", "Catalog Admin"),
		Email: getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		Role:  model.RoleAdmin,
	}, getEnv("SEED_ADMIN_PASSWORD", "Admin123!"))
	if err != nil {
		log.WithError(err).Fatal("Failed to seed admin")
	}
	log.WithField("user_id", admin.ID).Info("Admin identity ready")

	seeded, updated, err := seedBooks(ctx, bookRepo, admin, books, cfg.DefaultCoverURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to seed books")
	}

	log.WithFields(logrus.Fields{
		"created": seeded,
		"updated": updated,
		"total":   seeded + updated,
	}).Info("Seed completed successfully!")
}

// loadBooks reads the books source, either an http(s) URL or a local file.
func loadBooks(source string) ([]SeedBook, error) {
	var body []byte
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch books: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("books source returned status code: %d", resp.StatusCode)
		}
		if body, err = io.ReadAll(resp.Body); err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
	} else {
		var err error
		if body, err = os.ReadFile(source); err != nil {
			return nil, fmt.Errorf("failed to read books file: %w", err)
		}
	}

	var books []SeedBook
	if err := json.Unmarshal(body, &books); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return books, nil
}

// ensureAdmin returns the identity registered under want.Email, creating it
// with password when missing.
func ensureAdmin(ctx context.Context, repo repository.UserRepository, hasher *auth.PasswordHasher, want *model.User, password string) (*model.User, error) {
	existing, err := repo.FindByEmail(ctx, want.Email)
	if err == nil {
		if existing.Role != model.RoleAdmin {
			return nil, fmt.Errorf("%s is registered with role %s", want.Email, existing.Role)
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error checking user %s: %w", want.Email, err)
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	want.PasswordHash = hash
	if err := repo.Create(ctx, want); err != nil {
		return nil, fmt.Errorf("error creating user %s: %w", want.Email, err)
	}
	return want, nil
}

// seedBooks creates the books owner does not have yet and refreshes the ones
// it has, matching by title.
func seedBooks(ctx context.Context, repo repository.BookRepository, owner *model.User, books []SeedBook, defaultCover string) (seeded int, updated int, err error) {
	stored, err := repo.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("error listing books: %w", err)
	}
	byTitle := make(map[string]model.Book, len(stored))
	for _, book := range stored {
		if book.AuthorID == owner.ID {
			byTitle[strings.ToLower(book.Title)] = book
		}
	}

	for _, item := range books {
		title := strings.TrimSpace(item.Title)
		if title == "" || item.ReleaseYear == 0 {
			continue
		}
		cover := item.CoverImage
		if cover == "" {
			cover = defaultCover
		}

		if existing, ok := byTitle[strings.ToLower(title)]; ok {
			existing.Author = nil
			existing.Synopsis = item.Synopsis
			existing.ReleaseYear = item.ReleaseYear
			existing.Genre = item.Genre
			existing.CoverImage = cover
			if err := repo.Update(ctx, &existing); err != nil {
				return seeded, updated, fmt.Errorf("error updating book %q: %w", title, err)
			}
			updated++
			continue
		}

		book := &model.Book{
			AuthorID:    owner.ID,
			Title:       title,
			Synopsis:    item.Synopsis,
			ReleaseYear: item.ReleaseYear,
			Genre:       item.Genre,
			CoverImage:  cover,
		}
		if err := repo.Create(ctx, book); err != nil {
			return seeded, updated, fmt.Errorf("error creating book %q: %w", title, err)
		}
		byTitle[strings.ToLower(title)] = *book
		seeded++
	}

	return seeded, updated, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
