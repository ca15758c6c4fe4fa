package repo

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"concerthub/internal/model"
)

// Claiming tickets must not block forever behind a stuck transaction.
const reserveLockTimeout = "3s"

// ReserveAvailableTickets marks up to quantity unsold tickets of a concert as
// sold to the customer. The candidate rows are locked FOR UPDATE in creation
// order, so concurrent reservations for the same concert never claim
// overlapping ticket sets. When fewer than quantity tickets remain, nothing
// is mutated and an empty result signals the shortfall.
func (r *repository) ReserveAvailableTickets(
	ctx context.Context,
	concertID, customerID string,
	quantity int,
) ([]model.Ticket, error) {
	if concertID == "" || customerID == "" || quantity <= 0 {
		return nil, nil
	}

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		fmt.Sprintf("SET LOCAL lock_timeout = '%s'", reserveLockTimeout),
	); err != nil {
		return nil, fmt.Errorf("set lock timeout: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, barcode, price, concert_id, created_at, updated_at
		FROM tickets
		WHERE concert_id = $1 AND sold = false
		ORDER BY seq ASC
		LIMIT $2
		FOR UPDATE`,
		concertID, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("select available tickets: %w", err)
	}

	var reserved []model.Ticket
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.Barcode, &t.Price, &t.ConcertID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		reserved = append(reserved, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}
	rows.Close()

	// Shortfall: roll back without mutating anything.
	if len(reserved) < quantity {
		return nil, nil
	}

	ids := make([]string, len(reserved))
	for i, t := range reserved {
		ids[i] = t.ID
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE tickets
		SET sold = true, customer_id = $1, updated_at = NOW()
		WHERE id = ANY($2)`,
		customerID, pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("mark tickets sold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("tickets rows affected: %w", err)
	}
	if int(affected) != len(reserved) {
		return nil, fmt.Errorf("expected %d tickets updated, got %d", len(reserved), affected)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}

	for i := range reserved {
		reserved[i].Sold = true
		cid := customerID
		reserved[i].CustomerID = &cid
	}
	return reserved, nil
}

func (r *repository) ListCustomerTickets(ctx context.Context, customerID string) ([]model.CustomerTicket, error) {
	query := `
		SELECT
			t.id, t.barcode, t.price,
			c.title, c.artist, c.date,
			p.name, p.address, p.city
		FROM tickets t
		JOIN concerts c ON c.id = t.concert_id
		JOIN places p ON p.id = c.place_id
		WHERE t.customer_id = $1 AND t.sold = true
		ORDER BY c.date ASC, t.seq ASC`

	rows, err := r.db.QueryWithRetry(ctx, r.strategy, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("list customer tickets: %w", err)
	}
	defer rows.Close()

	var res []model.CustomerTicket
	for rows.Next() {
		var ct model.CustomerTicket
		if err := rows.Scan(
			&ct.ID, &ct.Barcode, &ct.Price,
			&ct.ConcertTitle, &ct.ConcertArtist, &ct.ConcertDate,
			&ct.PlaceName, &ct.PlaceAddress, &ct.PlaceCity,
		); err != nil {
			return nil, fmt.Errorf("scan customer ticket: %w", err)
		}
		res = append(res, ct)
	}
	return res, rows.Err()
}
