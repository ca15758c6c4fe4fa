package dto

import (
	"encoding/json"
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	ConcertNotFound   = "CONCERT_NOT_FOUND"
	OrganizerNotFound = "ORGANIZER_NOT_FOUND"
	PlaceNotFound     = "PLACE_NOT_FOUND"
	CustomerNotFound  = "CUSTOMER_NOT_FOUND"
	AdminNotFound     = "ADMIN_NOT_FOUND"
	UserNotFound      = "USER_NOT_FOUND"

	Forbidden = "FORBIDDEN"

	PlaceAlreadyBooked    = "PLACE_ALREADY_BOOKED"
	ConcertNotPending     = "CONCERT_NOT_PENDING"
	ConcertNotPublished   = "CONCERT_NOT_PUBLISHED"
	ConcertAlreadyStarted = "CONCERT_ALREADY_STARTED"
	NotEnoughTickets      = "NOT_ENOUGH_TICKETS"
)

type CreateConcertRequest struct {
	Title          string    `json:"title" validate:"required"`
	Artist         string    `json:"artist"`
	Date           time.Time `json:"date" validate:"required,future"`
	OrganizerID    string    `json:"organizer_id" validate:"required,uuid"`
	PlaceID        string    `json:"place_id" validate:"required,uuid"`
	TicketPrice    string    `json:"ticket_unit_price" validate:"required"`
	TicketQuantity int       `json:"ticket_quantity" validate:"required,positive"`
}

type ConcertResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      *string   `json:"artist,omitempty"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	OrganizerID string    `json:"organizer_id"`
	AdminID     *string   `json:"admin_id,omitempty"`
	PlaceID     string    `json:"place_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PurchaseTicketsRequest struct {
	ConcertID string `json:"concert_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,positive"`
}

type TicketReceiptResponse struct {
	ID      string `json:"id"`
	Barcode string `json:"barcode"`
	Price   string `json:"price"`
}

const (
	MessageKindConcertModerated = "concert_moderated"
	MessageKindTicketsPurchased = "tickets_purchased"
)

// QueueMessage is the envelope every notification travels in. Kind selects
// the payload type on the consuming side.
type QueueMessage struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func NewQueueMessage(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(QueueMessage{Kind: kind, Payload: raw})
}

// ConcertModeratedMessage notifies an organizer about a moderation outcome.
type ConcertModeratedMessage struct {
	ConcertID      string `json:"concert_id"`
	ConcertTitle   string `json:"concert_title"`
	Status         string `json:"status"`
	OrganizerEmail string `json:"organizer_email"`
}

// TicketsPurchasedMessage carries a purchase receipt to the mail worker.
type TicketsPurchasedMessage struct {
	ConcertID     string    `json:"concert_id"`
	ConcertTitle  string    `json:"concert_title"`
	ConcertDate   time.Time `json:"concert_date"`
	CustomerEmail string    `json:"customer_email"`
	Barcodes      []string  `json:"barcodes"`
	TotalPrice    string    `json:"total_price"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func ForbiddenError(c *ginext.Context, desc string) {
	c.JSON(403, Response{
		Status: "error",
		Error: &Error{
			Code: Forbidden,
			Desc: desc,
		},
	})
}

func ConflictError(c *ginext.Context, code, desc string) {
	c.JSON(409, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
