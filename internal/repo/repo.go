package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"

	"concerthub/internal/model"
)

// Repository is the persistence gateway consumed by the services. All
// multi-row writes run inside a single transaction with row-level locking;
// read queries go through the wbf retry strategy.
type Repository interface {
	// Concerts
	CreateConcertTx(ctx context.Context, concert *model.Concert, tickets []model.Ticket, windowStart, windowEnd time.Time) error
	HasPlaceBookingConflict(ctx context.Context, placeID string, windowStart, windowEnd time.Time, blocking []model.ConcertStatus) (bool, error)
	GetConcertByID(ctx context.Context, id string) (*model.Concert, error)
	UpdateConcertStatusTx(ctx context.Context, concertID string, adminID *string, status model.ConcertStatus) (*model.Concert, error)
	ListConcertsByStatus(ctx context.Context, status model.ConcertStatus) ([]model.Concert, error)
	ListPublishedConcerts(ctx context.Context) ([]model.PublishedConcert, error)
	ListOrganizerConcerts(ctx context.Context, organizerID string) ([]model.OrganizerConcert, error)

	// Tickets
	ReserveAvailableTickets(ctx context.Context, concertID, customerID string, quantity int) ([]model.Ticket, error)
	ListCustomerTickets(ctx context.Context, customerID string) ([]model.CustomerTicket, error)

	// Users and places
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetPlaceByID(ctx context.Context, id string) (*model.Place, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db       *dbpg.DB
	log      *zerolog.Logger
	strategy retry.Strategy
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{
		db:  db,
		log: log,
		strategy: retry.Strategy{
			Attempts: 3,
			Delay:    500 * time.Millisecond,
			Backoff:  2,
		},
	}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}
