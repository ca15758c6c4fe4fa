package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"concerthub/internal/model"
)

func statusStrings(statuses []model.ConcertStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// A concert blocks a slot when its date falls strictly inside the candidate
// window. Used both standalone and inside the creation transaction.
const placeBookingConflictQuery = `
	SELECT COUNT(*)
	FROM concerts
	WHERE place_id = $1
	  AND status = ANY($2)
	  AND date > $3
	  AND date < $4`

// CreateConcertTx persists a concert proposal together with its initial
// ticket batch as one atomic unit. The place row is locked FOR UPDATE first,
// so two organizers racing for the same venue serialize on the place and the
// booking-window check cannot miss a concurrent insert.
func (r *repository) CreateConcertTx(
	ctx context.Context,
	concert *model.Concert,
	tickets []model.Ticket,
	windowStart, windowEnd time.Time,
) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var placeID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM places WHERE id = $1 FOR UPDATE`,
		concert.PlaceID,
	).Scan(&placeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrPlaceNotFound
		}
		return fmt.Errorf("lock place: %w", err)
	}

	var conflicts int
	err = tx.QueryRowContext(ctx, placeBookingConflictQuery,
		concert.PlaceID,
		pq.Array(statusStrings(model.PlaceBookingBlockingStatuses)),
		windowStart, windowEnd,
	).Scan(&conflicts)
	if err != nil {
		return fmt.Errorf("check booking conflict: %w", err)
	}
	if conflicts > 0 {
		return model.ErrPlaceAlreadyBooked
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO concerts (id, title, artist, date, status, organizer_id, place_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		concert.ID, concert.Title, concert.Artist, concert.Date, concert.Status,
		concert.OrganizerID, concert.PlaceID, concert.CreatedAt, concert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert concert: %w", err)
	}

	// COPY keeps the batch insert to a single round trip even for the
	// largest allowed batches.
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"tickets",
		"id", "barcode", "price", "sold", "concert_id", "created_at", "updated_at",
	))
	if err != nil {
		return fmt.Errorf("prepare ticket copy: %w", err)
	}

	for _, t := range tickets {
		if _, err = stmt.ExecContext(ctx,
			t.ID, t.Barcode, t.Price, t.Sold, t.ConcertID, t.CreatedAt, t.UpdatedAt,
		); err != nil {
			stmt.Close()
			return fmt.Errorf("copy ticket: %w", err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush ticket copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("close ticket copy: %w", err)
	}

	return tx.Commit()
}

// HasPlaceBookingConflict reports whether any blocking concert at the place
// has its date strictly inside the open window. Pure query; concert creation
// re-runs the same check inside its own transaction.
func (r *repository) HasPlaceBookingConflict(
	ctx context.Context,
	placeID string,
	windowStart, windowEnd time.Time,
	blocking []model.ConcertStatus,
) (bool, error) {
	row, err := r.db.QueryRowWithRetry(ctx, r.strategy, placeBookingConflictQuery,
		placeID, pq.Array(statusStrings(blocking)), windowStart, windowEnd)
	if err != nil {
		return false, fmt.Errorf("check booking conflict: %w", err)
	}

	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("scan conflict count: %w", err)
	}
	return count > 0, nil
}

func (r *repository) GetConcertByID(ctx context.Context, id string) (*model.Concert, error) {
	query := `
		SELECT id, title, artist, date, status, organizer_id, admin_id, place_id, created_at, updated_at
		FROM concerts WHERE id = $1`

	row, err := r.db.QueryRowWithRetry(ctx, r.strategy, query, id)
	if err != nil {
		return nil, fmt.Errorf("get concert: %w", err)
	}

	var c model.Concert
	if err := row.Scan(
		&c.ID, &c.Title, &c.Artist, &c.Date, &c.Status,
		&c.OrganizerID, &c.AdminID, &c.PlaceID, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrConcertNotFound
		}
		return nil, fmt.Errorf("scan concert: %w", err)
	}
	return &c, nil
}

// UpdateConcertStatusTx moves a pending concert to its terminal status. The
// update is conditional on the current status, so two concurrent moderation
// calls cannot both succeed; the losing call gets ErrConcertNotPending.
func (r *repository) UpdateConcertStatusTx(
	ctx context.Context,
	concertID string,
	adminID *string,
	status model.ConcertStatus,
) (*model.Concert, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE concerts
		SET status = $2, admin_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING id, title, artist, date, status, organizer_id, admin_id, place_id, created_at, updated_at`

	var c model.Concert
	err = tx.QueryRowContext(ctx, query,
		concertID, status, adminID, model.ConcertStatusPendingValidation,
	).Scan(
		&c.ID, &c.Title, &c.Artist, &c.Date, &c.Status,
		&c.OrganizerID, &c.AdminID, &c.PlaceID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("update concert status: %w", err)
		}

		// No row updated: concert is missing or not pending.
		var current string
		checkErr := tx.QueryRowContext(ctx,
			`SELECT status FROM concerts WHERE id = $1`, concertID,
		).Scan(&current)
		if checkErr != nil {
			if errors.Is(checkErr, sql.ErrNoRows) {
				return nil, model.ErrConcertNotFound
			}
			return nil, fmt.Errorf("check concert status: %w", checkErr)
		}
		return nil, model.ErrConcertNotPending
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}
	return &c, nil
}

func (r *repository) ListConcertsByStatus(ctx context.Context, status model.ConcertStatus) ([]model.Concert, error) {
	query := `
		SELECT id, title, artist, date, status, organizer_id, admin_id, place_id, created_at, updated_at
		FROM concerts
		WHERE status = $1
		ORDER BY date ASC`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, status)
	if err != nil {
		return nil, fmt.Errorf("list concerts by status: %w", err)
	}
	defer rows.Close()

	var res []model.Concert
	for rows.Next() {
		var c model.Concert
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Artist, &c.Date, &c.Status,
			&c.OrganizerID, &c.AdminID, &c.PlaceID, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan concert: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *repository) ListPublishedConcerts(ctx context.Context) ([]model.PublishedConcert, error) {
	query := `
		SELECT
			c.id, c.title, c.artist, c.date,
			p.name, p.address, p.zip_code, p.city, p.capacity,
			COALESCE(COUNT(t.id) FILTER (WHERE t.sold), 0) AS sold_count
		FROM concerts c
		JOIN places p ON p.id = c.place_id
		LEFT JOIN tickets t ON t.concert_id = c.id
		WHERE c.status = $1
		GROUP BY c.id, c.title, c.artist, c.date, p.name, p.address, p.zip_code, p.city, p.capacity
		ORDER BY c.date ASC`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, model.ConcertStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("list published concerts: %w", err)
	}
	defer rows.Close()

	var res []model.PublishedConcert
	for rows.Next() {
		var pc model.PublishedConcert
		var soldCount int
		if err := rows.Scan(
			&pc.ID, &pc.Title, &pc.Artist, &pc.Date,
			&pc.PlaceName, &pc.PlaceAddress, &pc.PlaceZipCode, &pc.PlaceCity, &pc.PlaceCapacity,
			&soldCount,
		); err != nil {
			return nil, fmt.Errorf("scan published concert: %w", err)
		}
		pc.AvailableSeats = pc.PlaceCapacity - soldCount
		if pc.AvailableSeats < 0 {
			pc.AvailableSeats = 0
		}
		res = append(res, pc)
	}
	return res, rows.Err()
}

func (r *repository) ListOrganizerConcerts(ctx context.Context, organizerID string) ([]model.OrganizerConcert, error) {
	query := `
		SELECT
			c.id, c.title, c.artist, c.date, c.status, c.created_at,
			p.address, p.zip_code, p.city, p.capacity,
			COALESCE(COUNT(t.id) FILTER (WHERE t.sold), 0) AS sold_count,
			COUNT(t.id) AS ticket_quantity
		FROM concerts c
		JOIN places p ON p.id = c.place_id
		LEFT JOIN tickets t ON t.concert_id = c.id
		WHERE c.organizer_id = $1
		GROUP BY c.id, c.title, c.artist, c.date, c.status, c.created_at, p.address, p.zip_code, p.city, p.capacity
		ORDER BY c.created_at DESC`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer concerts: %w", err)
	}
	defer rows.Close()

	var res []model.OrganizerConcert
	for rows.Next() {
		var oc model.OrganizerConcert
		if err := rows.Scan(
			&oc.ID, &oc.Title, &oc.Artist, &oc.Date, &oc.Status, &oc.CreatedAt,
			&oc.PlaceAddress, &oc.PlaceZipCode, &oc.PlaceCity, &oc.PlaceCapacity,
			&oc.TicketsSold, &oc.TicketQuantity,
		); err != nil {
			return nil, fmt.Errorf("scan organizer concert: %w", err)
		}
		res = append(res, oc)
	}
	return res, rows.Err()
}
