package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ConcertStatus string

const (
	ConcertStatusPendingValidation ConcertStatus = "pending_validation"
	ConcertStatusPublished         ConcertStatus = "published"
	ConcertStatusRejected          ConcertStatus = "rejected"
)

// PlaceBookingBlockingStatuses are the statuses that keep a venue slot
// occupied. Rejected concerts never block a slot.
var PlaceBookingBlockingStatuses = []ConcertStatus{
	ConcertStatusPendingValidation,
	ConcertStatusPublished,
}

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RoleCustomer  UserRole = "customer"
)

type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name,omitempty"`
	LastName  string    `db:"last_name" json:"last_name,omitempty"`
	Role      UserRole  `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Place struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	ZipCode   int       `db:"zip_code" json:"zip_code"`
	City      string    `db:"city" json:"city"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Concert struct {
	ID          string        `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Artist      *string       `db:"artist" json:"artist,omitempty"`
	Date        time.Time     `db:"date" json:"date"`
	Status      ConcertStatus `db:"status" json:"status"`
	OrganizerID string        `db:"organizer_id" json:"organizer_id"`
	AdminID     *string       `db:"admin_id" json:"admin_id,omitempty"`
	PlaceID     string        `db:"place_id" json:"place_id"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

type Ticket struct {
	ID         string          `db:"id" json:"id"`
	Barcode    string          `db:"barcode" json:"barcode"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Sold       bool            `db:"sold" json:"sold"`
	CustomerID *string         `db:"customer_id" json:"customer_id,omitempty"`
	ConcertID  string          `db:"concert_id" json:"concert_id"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// PublishedConcert is the public listing projection: a published concert with
// its venue and the number of seats still available.
type PublishedConcert struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Artist         *string   `json:"artist,omitempty"`
	Date           time.Time `json:"date"`
	PlaceName      string    `json:"place_name"`
	PlaceAddress   string    `json:"place_address"`
	PlaceZipCode   int       `json:"place_zip_code"`
	PlaceCity      string    `json:"place_city"`
	PlaceCapacity  int       `json:"place_capacity"`
	AvailableSeats int       `json:"available_seats"`
}

// OrganizerConcert is the organizer dashboard projection with per-concert
// sold/quantity aggregates.
type OrganizerConcert struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Artist         *string       `json:"artist,omitempty"`
	Date           time.Time     `json:"date"`
	Status         ConcertStatus `json:"status"`
	PlaceAddress   string        `json:"place_address"`
	PlaceZipCode   int           `json:"place_zip_code"`
	PlaceCity      string        `json:"place_city"`
	PlaceCapacity  int           `json:"place_capacity"`
	TicketsSold    int           `json:"tickets_sold"`
	TicketQuantity int           `json:"ticket_quantity"`
	CreatedAt      time.Time     `json:"created_at"`
}

// CustomerTicket is the purchased-ticket projection shown to a customer.
type CustomerTicket struct {
	ID            string          `json:"id"`
	Barcode       string          `json:"barcode"`
	Price         decimal.Decimal `json:"price"`
	ConcertTitle  string          `json:"concert_title"`
	ConcertArtist *string         `json:"concert_artist,omitempty"`
	ConcertDate   time.Time       `json:"concert_date"`
	PlaceName     string          `json:"place_name"`
	PlaceAddress  string          `json:"place_address"`
	PlaceCity     string          `json:"place_city"`
}
