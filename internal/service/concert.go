package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"concerthub/internal/dto"
	"concerthub/internal/model"
)

// Until explicit start/end are modeled, each concert reserves its venue for a
// fixed window around the scheduled date.
const PlaceBookingDuration = 3 * time.Hour

type ConcertStore interface {
	CreateConcertTx(ctx context.Context, concert *model.Concert, tickets []model.Ticket, windowStart, windowEnd time.Time) error
	HasPlaceBookingConflict(ctx context.Context, placeID string, windowStart, windowEnd time.Time, blocking []model.ConcertStatus) (bool, error)
	GetConcertByID(ctx context.Context, id string) (*model.Concert, error)
	UpdateConcertStatusTx(ctx context.Context, concertID string, adminID *string, status model.ConcertStatus) (*model.Concert, error)
	ListConcertsByStatus(ctx context.Context, status model.ConcertStatus) ([]model.Concert, error)
	ListPublishedConcerts(ctx context.Context) ([]model.PublishedConcert, error)
	ListOrganizerConcerts(ctx context.Context, organizerID string) ([]model.OrganizerConcert, error)
}

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetPlaceByID(ctx context.Context, id string) (*model.Place, error)
}

// Publisher pushes a message to the notification queue. Satisfied by
// rabbit.Client.
type Publisher interface {
	Publish(message []byte, delaySeconds int) error
}

type CreateConcertInput struct {
	Title           string
	Artist          string
	Date            time.Time
	OrganizerID     string
	PlaceID         string
	TicketUnitPrice decimal.Decimal
	TicketQuantity  int
}

type ConcertService struct {
	concerts     ConcertStore
	users        UserStore
	queue        Publisher
	log          *zerolog.Logger
	maxBatchSize int
}

func NewConcertService(
	concerts ConcertStore,
	users UserStore,
	queue Publisher,
	log *zerolog.Logger,
	maxBatchSize int,
) *ConcertService {
	return &ConcertService{
		concerts:     concerts,
		users:        users,
		queue:        queue,
		log:          log,
		maxBatchSize: maxBatchSize,
	}
}

// Create registers a concert proposal in pending_validation status and
// generates its full ticket batch in the same transaction.
func (s *ConcertService) Create(ctx context.Context, input CreateConcertInput) (*model.Concert, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if input.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", model.ErrValidation)
	}
	if !input.Date.After(time.Now()) {
		return nil, fmt.Errorf("%w: date must be in the future", model.ErrValidation)
	}

	organizer, err := s.users.GetUserByID(ctx, input.OrganizerID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("resolve organizer: %w", err)
	}
	if organizer.Role != model.RoleOrganizer {
		return nil, model.ErrOrganizerNotFound
	}

	place, err := s.users.GetPlaceByID(ctx, input.PlaceID)
	if err != nil {
		return nil, err
	}

	if input.TicketQuantity <= 0 {
		return nil, fmt.Errorf("%w: ticket_quantity must be greater than 0", model.ErrValidation)
	}
	if input.TicketQuantity > s.maxBatchSize {
		return nil, fmt.Errorf("%w: ticket_quantity exceeds the maximum batch size of %d", model.ErrValidation, s.maxBatchSize)
	}
	if input.TicketQuantity > place.Capacity {
		return nil, fmt.Errorf("%w: ticket_quantity exceeds place capacity of %d", model.ErrValidation, place.Capacity)
	}
	if !input.TicketUnitPrice.IsPositive() {
		return nil, fmt.Errorf("%w: ticket_unit_price must be greater than 0", model.ErrValidation)
	}
	if input.TicketUnitPrice.Exponent() < -2 {
		return nil, fmt.Errorf("%w: ticket_unit_price must have at most 2 decimal places", model.ErrValidation)
	}

	windowStart := input.Date.Add(-PlaceBookingDuration)
	windowEnd := input.Date.Add(PlaceBookingDuration)

	// Early availability check. The re-check inside CreateConcertTx, under
	// the place lock, stays authoritative.
	conflict, err := s.concerts.HasPlaceBookingConflict(ctx, place.ID, windowStart, windowEnd, model.PlaceBookingBlockingStatuses)
	if err != nil {
		return nil, fmt.Errorf("check place availability: %w", err)
	}
	if conflict {
		return nil, model.ErrPlaceAlreadyBooked
	}

	now := time.Now().UTC()
	concert := &model.Concert{
		ID:          uuid.New().String(),
		Title:       title,
		Date:        input.Date,
		Status:      model.ConcertStatusPendingValidation,
		OrganizerID: organizer.ID,
		PlaceID:     place.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if artist := strings.TrimSpace(input.Artist); artist != "" {
		concert.Artist = &artist
	}

	unitPrice := input.TicketUnitPrice.Round(2)
	tickets := make([]model.Ticket, input.TicketQuantity)
	for i := range tickets {
		tickets[i] = model.Ticket{
			ID:        uuid.New().String(),
			Barcode:   newBarcode(),
			Price:     unitPrice,
			Sold:      false,
			ConcertID: concert.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if err := s.concerts.CreateConcertTx(ctx, concert, tickets, windowStart, windowEnd); err != nil {
		return nil, fmt.Errorf("create concert: %w", err)
	}

	s.log.Info().
		Str("concert_id", concert.ID).
		Str("place_id", place.ID).
		Int("ticket_quantity", input.TicketQuantity).
		Msg("concert proposal created")

	return concert, nil
}

// Validate publishes a pending concert on behalf of the acting admin.
func (s *ConcertService) Validate(ctx context.Context, concertID, adminEmail string) (*model.Concert, error) {
	admin, err := s.resolveAdmin(ctx, adminEmail)
	if err != nil {
		return nil, err
	}

	updated, err := s.concerts.UpdateConcertStatusTx(ctx, concertID, &admin.ID, model.ConcertStatusPublished)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("concert_id", updated.ID).
		Str("admin_id", admin.ID).
		Msg("concert validated and published")

	s.notifyModerated(ctx, updated)
	return updated, nil
}

// Reject declines a pending concert. Tickets are kept untouched; only a
// published concert carries the validating admin reference.
func (s *ConcertService) Reject(ctx context.Context, concertID, adminEmail string) (*model.Concert, error) {
	admin, err := s.resolveAdmin(ctx, adminEmail)
	if err != nil {
		return nil, err
	}

	updated, err := s.concerts.UpdateConcertStatusTx(ctx, concertID, nil, model.ConcertStatusRejected)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("concert_id", updated.ID).
		Str("admin_id", admin.ID).
		Msg("concert rejected")

	s.notifyModerated(ctx, updated)
	return updated, nil
}

// ListPending returns concerts waiting for moderation. Admin only.
func (s *ConcertService) ListPending(ctx context.Context, adminEmail string) ([]model.Concert, error) {
	if _, err := s.resolveAdmin(ctx, adminEmail); err != nil {
		return nil, err
	}
	return s.concerts.ListConcertsByStatus(ctx, model.ConcertStatusPendingValidation)
}

// ListPublished returns the public catalogue with seat availability.
func (s *ConcertService) ListPublished(ctx context.Context) ([]model.PublishedConcert, error) {
	return s.concerts.ListPublishedConcerts(ctx)
}

// OrganizerConcerts returns the caller's concerts with sold/quantity counts.
func (s *ConcertService) OrganizerConcerts(ctx context.Context, organizerEmail string) ([]model.OrganizerConcert, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(organizerEmail))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrOrganizerNotFound
		}
		return nil, fmt.Errorf("resolve organizer: %w", err)
	}
	if user.Role != model.RoleOrganizer {
		return nil, fmt.Errorf("%w: user is not an organizer", model.ErrForbidden)
	}
	return s.concerts.ListOrganizerConcerts(ctx, user.ID)
}

func (s *ConcertService) resolveAdmin(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrAdminNotFound
		}
		return nil, fmt.Errorf("resolve admin: %w", err)
	}
	if user.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: user is not an admin", model.ErrForbidden)
	}
	return user, nil
}

func (s *ConcertService) notifyModerated(ctx context.Context, concert *model.Concert) {
	organizer, err := s.users.GetUserByID(ctx, concert.OrganizerID)
	if err != nil {
		s.log.Error().Err(err).
			Str("organizer_id", concert.OrganizerID).
			Msg("failed to resolve organizer for moderation notification")
		return
	}

	msg := dto.ConcertModeratedMessage{
		ConcertID:      concert.ID,
		ConcertTitle:   concert.Title,
		Status:         string(concert.Status),
		OrganizerEmail: organizer.Email,
	}
	payload, err := dto.NewQueueMessage(dto.MessageKindConcertModerated, msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal moderation message")
		return
	}
	if err := s.queue.Publish(payload, 0); err != nil {
		s.log.Error().Err(err).Msg("failed to publish moderation message")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// newBarcode returns an uppercase hex barcode, unique per ticket.
func newBarcode() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
}
