package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"concerthub/internal/dto"
	"concerthub/internal/model"
)

type TicketStore interface {
	ReserveAvailableTickets(ctx context.Context, concertID, customerID string, quantity int) ([]model.Ticket, error)
	ListCustomerTickets(ctx context.Context, customerID string) ([]model.CustomerTicket, error)
}

type ConcertReader interface {
	GetConcertByID(ctx context.Context, id string) (*model.Concert, error)
}

type PurchaseInput struct {
	ConcertID string
	Quantity  int
}

// TicketReceipt is what a buyer gets back for each purchased ticket.
type TicketReceipt struct {
	ID      string          `json:"id"`
	Barcode string          `json:"barcode"`
	Price   decimal.Decimal `json:"price"`
}

type TicketService struct {
	tickets  TicketStore
	concerts ConcertReader
	users    UserStore
	queue    Publisher
	log      *zerolog.Logger
}

func NewTicketService(
	tickets TicketStore,
	concerts ConcertReader,
	users UserStore,
	queue Publisher,
	log *zerolog.Logger,
) *TicketService {
	return &TicketService{
		tickets:  tickets,
		concerts: concerts,
		users:    users,
		queue:    queue,
		log:      log,
	}
}

// Purchase atomically reserves the requested number of tickets for the
// authenticated customer. Either every requested ticket is sold to the buyer
// or none is.
func (s *TicketService) Purchase(ctx context.Context, input PurchaseInput, customerEmail string) ([]TicketReceipt, error) {
	if input.ConcertID == "" {
		return nil, fmt.Errorf("%w: concert_id is required", model.ErrValidation)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", model.ErrValidation)
	}

	customer, err := s.users.GetUserByEmail(ctx, normalizeEmail(customerEmail))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if customer.Role != model.RoleCustomer {
		return nil, model.ErrCustomerNotFound
	}

	concert, err := s.concerts.GetConcertByID(ctx, input.ConcertID)
	if err != nil {
		return nil, err
	}
	if concert.Status != model.ConcertStatusPublished {
		return nil, model.ErrConcertNotPublished
	}
	if !concert.Date.After(time.Now()) {
		return nil, model.ErrConcertAlreadyStarted
	}

	reserved, err := s.tickets.ReserveAvailableTickets(ctx, concert.ID, customer.ID, input.Quantity)
	if err != nil {
		return nil, fmt.Errorf("reserve tickets: %w", err)
	}
	if len(reserved) < input.Quantity {
		return nil, model.ErrNotEnoughTickets
	}

	s.log.Info().
		Str("concert_id", concert.ID).
		Str("customer_id", customer.ID).
		Int("quantity", input.Quantity).
		Msg("tickets purchased")

	receipts := make([]TicketReceipt, len(reserved))
	for i, t := range reserved {
		receipts[i] = TicketReceipt{ID: t.ID, Barcode: t.Barcode, Price: t.Price}
	}

	s.notifyPurchased(customer, concert, receipts)
	return receipts, nil
}

// CustomerTickets returns the caller's purchased tickets with concert and
// venue detail.
func (s *TicketService) CustomerTickets(ctx context.Context, customerEmail string) ([]model.CustomerTicket, error) {
	customer, err := s.users.GetUserByEmail(ctx, normalizeEmail(customerEmail))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if customer.Role != model.RoleCustomer {
		return nil, model.ErrCustomerNotFound
	}
	return s.tickets.ListCustomerTickets(ctx, customer.ID)
}

func (s *TicketService) notifyPurchased(customer *model.User, concert *model.Concert, receipts []TicketReceipt) {
	barcodes := make([]string, len(receipts))
	total := decimal.Zero
	for i, r := range receipts {
		barcodes[i] = r.Barcode
		total = total.Add(r.Price)
	}

	msg := dto.TicketsPurchasedMessage{
		ConcertID:     concert.ID,
		ConcertTitle:  concert.Title,
		ConcertDate:   concert.Date,
		CustomerEmail: customer.Email,
		Barcodes:      barcodes,
		TotalPrice:    total.StringFixed(2),
	}
	payload, err := dto.NewQueueMessage(dto.MessageKindTicketsPurchased, msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal receipt message")
		return
	}
	if err := s.queue.Publish(payload, 0); err != nil {
		s.log.Error().Err(err).Msg("failed to publish receipt message")
	}
}
