// Command seed-db loads the product catalog from a JSON file and creates the
// initial admin account. It is idempotent: existing slugs and emails are
// skipped.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/sereneleaf/backend/internal/domain/product"
	"github.com/sereneleaf/backend/internal/domain/slug"
	"github.com/sereneleaf/backend/internal/domain/user"
	"github.com/sereneleaf/backend/internal/repository"
)

type productJSON struct {
	Name             string          `json:"name"`
	ShortDescription string          `json:"short_description"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	Quantity         int             `json:"quantity"`
	Category         string          `json:"category"`
	Image            string          `json:"image"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "admin@sereneleaf.example", "email for the initial admin account")
	flag.StringVar(&adminPassword, "admin-password", "", "password for the initial admin account (or SERENE_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("SERENE_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or SERENE_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedAdmin(ctx, repository.NewUserRepository(pool), adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin")
	}
	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var entries []productJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	seeded := 0
	for _, e := range entries {
		s := slug.Normalize(e.Name)
		if _, err := repo.GetBySlug(ctx, s); err == nil {
			continue // already seeded
		} else if !errors.Is(err, product.ErrNotFound) {
			return errors.Wrapf(err, "check product %q", e.Name)
		}

		p := &product.Product{
			ID:               uuid.NewString(),
			Name:             e.Name,
			Slug:             s,
			ShortDescription: e.ShortDescription,
			Description:      e.Description,
			Price:            e.Price,
			Quantity:         e.Quantity,
			Category:         e.Category,
			ImageURL:         e.Image,
			IsActive:         true,
		}
		if err := repo.Create(ctx, p); err != nil {
			return errors.Wrapf(err, "create product %q", e.Name)
		}
		seeded++
	}

	slog.Info("products seeded", slog.Int("count", seeded), slog.Int("total", len(entries)))
	return nil
}

func seedAdmin(ctx context.Context, repo *repository.UserRepository, email, password string) error {
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		slog.Info("admin account already exists", slog.String("email", email))
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return errors.Wrap(err, "check admin account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         user.RoleAdmin,
	}
	if err := repo.Create(ctx, u); err != nil {
		return errors.Wrap(err, "create admin account")
	}

	slog.Info("admin account created", slog.String("email", email))
	return nil
}
