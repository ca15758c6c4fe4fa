package model

import "errors"

// Input errors, recoverable by the caller correcting the request.
var (
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")
)

// Missing entities.
var (
	ErrConcertNotFound   = errors.New("concert not found")
	ErrOrganizerNotFound = errors.New("organizer not found")
	ErrPlaceNotFound     = errors.New("place not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrAdminNotFound     = errors.New("admin not found")
	ErrUserNotFound      = errors.New("user not found")
)

// Workflow and inventory conflicts. These are legitimate terminal outcomes
// for a request, never retried automatically.
var (
	ErrPlaceAlreadyBooked    = errors.New("place already booked for the requested time slot")
	ErrConcertNotPending     = errors.New("concert is not pending validation")
	ErrConcertNotPublished   = errors.New("concert is not published")
	ErrConcertAlreadyStarted = errors.New("concert already started")
	ErrNotEnoughTickets      = errors.New("not enough tickets available")
)
