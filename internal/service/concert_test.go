package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concerthub/internal/model"
)

const (
	testAdminID     = "a0000000-0000-0000-0000-000000000001"
	testOrganizerID = "a0000000-0000-0000-0000-000000000002"
	testCustomerID  = "a0000000-0000-0000-0000-000000000003"
	testPlaceID     = "b0000000-0000-0000-0000-000000000001"
)

// fakeStore is an in-memory stand-in for the repository. It reproduces the
// transactional semantics the services rely on: conflict checks inside
// CreateConcertTx, pending-only status transitions, and all-or-nothing ticket
// reservation.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	places   map[string]*model.Place
	concerts map[string]*model.Concert
	tickets  map[string][]model.Ticket
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		users:    make(map[string]*model.User),
		places:   make(map[string]*model.Place),
		concerts: make(map[string]*model.Concert),
		tickets:  make(map[string][]model.Ticket),
	}
	s.users[testAdminID] = &model.User{ID: testAdminID, Email: "admin@test.io", Role: model.RoleAdmin}
	s.users[testOrganizerID] = &model.User{ID: testOrganizerID, Email: "organizer@test.io", Role: model.RoleOrganizer}
	s.users[testCustomerID] = &model.User{ID: testCustomerID, Email: "customer@test.io", Role: model.RoleCustomer}
	s.places[testPlaceID] = &model.Place{ID: testPlaceID, Name: "Test Hall", Capacity: 100}
	return s
}

func (s *fakeStore) CreateConcertTx(_ context.Context, concert *model.Concert, tickets []model.Ticket, windowStart, windowEnd time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.places[concert.PlaceID]; !ok {
		return model.ErrPlaceNotFound
	}
	for _, existing := range s.concerts {
		if existing.PlaceID != concert.PlaceID {
			continue
		}
		blocking := false
		for _, st := range model.PlaceBookingBlockingStatuses {
			if existing.Status == st {
				blocking = true
			}
		}
		if blocking && existing.Date.After(windowStart) && existing.Date.Before(windowEnd) {
			return model.ErrPlaceAlreadyBooked
		}
	}

	cp := *concert
	s.concerts[concert.ID] = &cp
	s.tickets[concert.ID] = append([]model.Ticket(nil), tickets...)
	return nil
}

func (s *fakeStore) HasPlaceBookingConflict(_ context.Context, placeID string, windowStart, windowEnd time.Time, blocking []model.ConcertStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.concerts {
		if c.PlaceID != placeID {
			continue
		}
		for _, st := range blocking {
			if c.Status == st && c.Date.After(windowStart) && c.Date.Before(windowEnd) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *fakeStore) GetConcertByID(_ context.Context, id string) (*model.Concert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.concerts[id]
	if !ok {
		return nil, model.ErrConcertNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) UpdateConcertStatusTx(_ context.Context, concertID string, adminID *string, status model.ConcertStatus) (*model.Concert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.concerts[concertID]
	if !ok {
		return nil, model.ErrConcertNotFound
	}
	if c.Status != model.ConcertStatusPendingValidation {
		return nil, model.ErrConcertNotPending
	}
	c.Status = status
	c.AdminID = adminID
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

func (s *fakeStore) ListConcertsByStatus(_ context.Context, status model.ConcertStatus) ([]model.Concert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.Concert
	for _, c := range s.concerts {
		if c.Status == status {
			res = append(res, *c)
		}
	}
	return res, nil
}

func (s *fakeStore) ListPublishedConcerts(_ context.Context) ([]model.PublishedConcert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.PublishedConcert
	for _, c := range s.concerts {
		if c.Status != model.ConcertStatusPublished {
			continue
		}
		place := s.places[c.PlaceID]
		sold := 0
		for _, t := range s.tickets[c.ID] {
			if t.Sold {
				sold++
			}
		}
		available := place.Capacity - sold
		if available < 0 {
			available = 0
		}
		res = append(res, model.PublishedConcert{
			ID:             c.ID,
			Title:          c.Title,
			Date:           c.Date,
			PlaceName:      place.Name,
			PlaceCapacity:  place.Capacity,
			AvailableSeats: available,
		})
	}
	return res, nil
}

func (s *fakeStore) ListOrganizerConcerts(_ context.Context, organizerID string) ([]model.OrganizerConcert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.OrganizerConcert
	for _, c := range s.concerts {
		if c.OrganizerID != organizerID {
			continue
		}
		sold := 0
		for _, t := range s.tickets[c.ID] {
			if t.Sold {
				sold++
			}
		}
		res = append(res, model.OrganizerConcert{
			ID:             c.ID,
			Title:          c.Title,
			Date:           c.Date,
			Status:         c.Status,
			TicketsSold:    sold,
			TicketQuantity: len(s.tickets[c.ID]),
		})
	}
	return res, nil
}

func (s *fakeStore) ReserveAvailableTickets(_ context.Context, concertID, customerID string, quantity int) ([]model.Ticket, error) {
	if concertID == "" || customerID == "" || quantity <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.tickets[concertID]
	var idx []int
	for i := range batch {
		if !batch[i].Sold {
			idx = append(idx, i)
			if len(idx) == quantity {
				break
			}
		}
	}
	if len(idx) < quantity {
		return nil, nil
	}

	reserved := make([]model.Ticket, 0, quantity)
	for _, i := range idx {
		cid := customerID
		batch[i].Sold = true
		batch[i].CustomerID = &cid
		reserved = append(reserved, batch[i])
	}
	return reserved, nil
}

func (s *fakeStore) ListCustomerTickets(_ context.Context, customerID string) ([]model.CustomerTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.CustomerTicket
	for concertID, batch := range s.tickets {
		c := s.concerts[concertID]
		for _, t := range batch {
			if t.CustomerID != nil && *t.CustomerID == customerID {
				res = append(res, model.CustomerTicket{
					ID:           t.ID,
					Barcode:      t.Barcode,
					Price:        t.Price,
					ConcertTitle: c.Title,
					ConcertDate:  c.Date,
				})
			}
		}
	}
	return res, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetPlaceByID(_ context.Context, id string) (*model.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.places[id]
	if !ok {
		return nil, model.ErrPlaceNotFound
	}
	cp := *p
	return &cp, nil
}

// failingUserStore simulates an unreachable user store; place lookups still
// pass through so the failure is attributable to the user path.
type failingUserStore struct {
	*fakeStore
	err error
}

func (s *failingUserStore) GetUserByEmail(context.Context, string) (*model.User, error) {
	return nil, s.err
}

func (s *failingUserStore) GetUserByID(context.Context, string) (*model.User, error) {
	return nil, s.err
}

type fakeQueue struct {
	mu       sync.Mutex
	messages [][]byte
}

func (q *fakeQueue) Publish(message []byte, _ int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, message)
	return nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

func newConcertService(store *fakeStore, queue *fakeQueue) *ConcertService {
	log := zerolog.Nop()
	return NewConcertService(store, store, queue, &log, 10000)
}

func validCreateInput() CreateConcertInput {
	return CreateConcertInput{
		Title:           "Night of Strings",
		Artist:          "The Quartet",
		Date:            time.Now().Add(30 * 24 * time.Hour),
		OrganizerID:     testOrganizerID,
		PlaceID:         testPlaceID,
		TicketUnitPrice: decimal.NewFromFloat(49.90),
		TicketQuantity:  50,
	}
}

func TestConcertService_Create_Success(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	svc := newConcertService(store, queue)

	concert, err := svc.Create(context.Background(), validCreateInput())

	require.NoError(t, err)
	assert.Equal(t, model.ConcertStatusPendingValidation, concert.Status)
	assert.Nil(t, concert.AdminID)
	assert.NotEmpty(t, concert.ID)
	require.NotNil(t, concert.Artist)
	assert.Equal(t, "The Quartet", *concert.Artist)

	tickets := store.tickets[concert.ID]
	require.Len(t, tickets, 50)
	seen := make(map[string]bool)
	for _, tk := range tickets {
		assert.False(t, tk.Sold)
		assert.True(t, tk.Price.Equal(decimal.NewFromFloat(49.90)))
		assert.False(t, seen[tk.Barcode], "barcode %s duplicated", tk.Barcode)
		seen[tk.Barcode] = true
	}

	// No notification on creation, only on moderation.
	assert.Zero(t, queue.count())
}

func TestConcertService_Create_Validation(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	cases := []struct {
		name   string
		mutate func(*CreateConcertInput)
	}{
		{"empty title", func(in *CreateConcertInput) { in.Title = "   " }},
		{"zero date", func(in *CreateConcertInput) { in.Date = time.Time{} }},
		{"past date", func(in *CreateConcertInput) { in.Date = time.Now().Add(-time.Hour) }},
		{"zero price", func(in *CreateConcertInput) { in.TicketUnitPrice = decimal.Zero }},
		{"negative price", func(in *CreateConcertInput) { in.TicketUnitPrice = decimal.NewFromInt(-5) }},
		{"too many decimals", func(in *CreateConcertInput) { in.TicketUnitPrice = decimal.RequireFromString("9.999") }},
		{"zero quantity", func(in *CreateConcertInput) { in.TicketQuantity = 0 }},
		{"quantity above batch limit", func(in *CreateConcertInput) { in.TicketQuantity = 10001 }},
		{"quantity above capacity", func(in *CreateConcertInput) { in.TicketQuantity = 101 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreateInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestConcertService_Create_OrganizerChecks(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	in := validCreateInput()
	in.OrganizerID = uuid.New().String()
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, model.ErrOrganizerNotFound)

	// Existing user with the wrong role is rejected the same way.
	in = validCreateInput()
	in.OrganizerID = testCustomerID
	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, model.ErrOrganizerNotFound)
}

func TestConcertService_UserStoreFailure(t *testing.T) {
	store := newFakeStore()
	errDown := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	users := &failingUserStore{fakeStore: store, err: errDown}
	log := zerolog.Nop()
	svc := NewConcertService(store, users, &fakeQueue{}, &log, 10000)

	// A storage outage is not a not-found; it must surface as-is so the
	// handler's fallback can log it and answer 500.
	_, err := svc.Create(context.Background(), validCreateInput())
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, model.ErrOrganizerNotFound)

	_, err = svc.Validate(context.Background(), uuid.New().String(), "admin@test.io")
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, model.ErrAdminNotFound)

	_, err = svc.OrganizerConcerts(context.Background(), "organizer@test.io")
	assert.ErrorIs(t, err, errDown)
	assert.NotErrorIs(t, err, model.ErrOrganizerNotFound)
}

func TestConcertService_Create_PlaceNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	in := validCreateInput()
	in.PlaceID = uuid.New().String()
	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, model.ErrPlaceNotFound)
}

func TestConcertService_Create_PlaceAlreadyBooked(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	first := validCreateInput()
	_, err := svc.Create(context.Background(), first)
	require.NoError(t, err)

	second := validCreateInput()
	second.Date = first.Date.Add(time.Hour)
	_, err = svc.Create(context.Background(), second)
	assert.ErrorIs(t, err, model.ErrPlaceAlreadyBooked)
}

func TestConcertService_Create_WindowBoundaries(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	first := validCreateInput()
	_, err := svc.Create(context.Background(), first)
	require.NoError(t, err)

	// Exactly on the window edge is allowed, the conflict check is strict.
	atEdge := validCreateInput()
	atEdge.Date = first.Date.Add(PlaceBookingDuration)
	_, err = svc.Create(context.Background(), atEdge)
	assert.NoError(t, err)

	inside := validCreateInput()
	inside.Date = first.Date.Add(-PlaceBookingDuration + time.Minute)
	_, err = svc.Create(context.Background(), inside)
	assert.ErrorIs(t, err, model.ErrPlaceAlreadyBooked)
}

func TestConcertService_Create_RejectedDoesNotBlock(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	svc := newConcertService(store, queue)

	first := validCreateInput()
	created, err := svc.Create(context.Background(), first)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), created.ID, "admin@test.io")
	require.NoError(t, err)

	second := validCreateInput()
	second.Date = first.Date.Add(time.Hour)
	_, err = svc.Create(context.Background(), second)
	assert.NoError(t, err)
}

func TestConcertService_Validate_Success(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	svc := newConcertService(store, queue)

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	published, err := svc.Validate(context.Background(), created.ID, "admin@test.io")

	require.NoError(t, err)
	assert.Equal(t, model.ConcertStatusPublished, published.Status)
	require.NotNil(t, published.AdminID)
	assert.Equal(t, testAdminID, *published.AdminID)
	assert.Equal(t, 1, queue.count())
}

func TestConcertService_Validate_NotAdmin(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), created.ID, "organizer@test.io")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Validate(context.Background(), created.ID, "nobody@test.io")
	assert.ErrorIs(t, err, model.ErrAdminNotFound)
}

func TestConcertService_Validate_OnlyOnce(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), created.ID, "admin@test.io")
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), created.ID, "admin@test.io")
	assert.ErrorIs(t, err, model.ErrConcertNotPending)

	_, err = svc.Reject(context.Background(), created.ID, "admin@test.io")
	assert.ErrorIs(t, err, model.ErrConcertNotPending)
}

func TestConcertService_Validate_ConcertNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	_, err := svc.Validate(context.Background(), uuid.New().String(), "admin@test.io")
	assert.ErrorIs(t, err, model.ErrConcertNotFound)
}

func TestConcertService_Reject_Success(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	svc := newConcertService(store, queue)

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), created.ID, "admin@test.io")

	require.NoError(t, err)
	assert.Equal(t, model.ConcertStatusRejected, rejected.Status)
	assert.Nil(t, rejected.AdminID)
	assert.Equal(t, 1, queue.count())

	// Tickets stay in place, they are simply never sellable.
	assert.Len(t, store.tickets[created.ID], 50)
}

func TestConcertService_ListPending_AdminOnly(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	pending, err := svc.ListPending(context.Background(), "admin@test.io")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)

	_, err = svc.ListPending(context.Background(), "customer@test.io")
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestConcertService_OrganizerConcerts(t *testing.T) {
	store := newFakeStore()
	svc := newConcertService(store, &fakeQueue{})

	created, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	concerts, err := svc.OrganizerConcerts(context.Background(), "organizer@test.io")
	require.NoError(t, err)
	require.Len(t, concerts, 1)
	assert.Equal(t, created.ID, concerts[0].ID)
	assert.Equal(t, 50, concerts[0].TicketQuantity)
	assert.Zero(t, concerts[0].TicketsSold)

	_, err = svc.OrganizerConcerts(context.Background(), "customer@test.io")
	assert.ErrorIs(t, err, model.ErrForbidden)
}
