package api

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"concerthub/internal/dto"
	"concerthub/internal/model"
	"concerthub/internal/service"
)

type Handler struct {
	concerts *service.ConcertService
	tickets  *service.TicketService
	log      *zerolog.Logger
}

func NewHandler(concerts *service.ConcertService, tickets *service.TicketService, log *zerolog.Logger) *Handler {
	return &Handler{
		concerts: concerts,
		tickets:  tickets,
		log:      log,
	}
}

// handleError translates domain errors into the HTTP envelope. Anything
// outside the known taxonomy is logged and hidden behind a 500.
func (h *Handler) handleError(c *ginext.Context, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		dto.BadResponseError(c, dto.FieldIncorrect, err.Error())
	case errors.Is(err, model.ErrForbidden):
		dto.ForbiddenError(c, err.Error())
	case errors.Is(err, model.ErrConcertNotFound):
		dto.NotFoundError(c, dto.ConcertNotFound, "concert not found")
	case errors.Is(err, model.ErrOrganizerNotFound):
		dto.NotFoundError(c, dto.OrganizerNotFound, "organizer not found")
	case errors.Is(err, model.ErrPlaceNotFound):
		dto.NotFoundError(c, dto.PlaceNotFound, "place not found")
	case errors.Is(err, model.ErrCustomerNotFound):
		dto.NotFoundError(c, dto.CustomerNotFound, "customer not found")
	case errors.Is(err, model.ErrAdminNotFound):
		dto.NotFoundError(c, dto.AdminNotFound, "admin not found")
	case errors.Is(err, model.ErrUserNotFound):
		dto.NotFoundError(c, dto.UserNotFound, "user not found")
	case errors.Is(err, model.ErrPlaceAlreadyBooked):
		dto.ConflictError(c, dto.PlaceAlreadyBooked, "place is already booked for this time window")
	case errors.Is(err, model.ErrConcertNotPending):
		dto.ConflictError(c, dto.ConcertNotPending, "concert is not pending validation")
	case errors.Is(err, model.ErrConcertNotPublished):
		dto.ConflictError(c, dto.ConcertNotPublished, "concert is not published")
	case errors.Is(err, model.ErrConcertAlreadyStarted):
		dto.ConflictError(c, dto.ConcertAlreadyStarted, "concert has already started")
	case errors.Is(err, model.ErrNotEnoughTickets):
		dto.ConflictError(c, dto.NotEnoughTickets, "not enough tickets available")
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
		dto.InternalServerError(c)
	}
}

func toConcertResponse(concert *model.Concert) dto.ConcertResponse {
	return dto.ConcertResponse{
		ID:          concert.ID,
		Title:       concert.Title,
		Artist:      concert.Artist,
		Date:        concert.Date,
		Status:      string(concert.Status),
		OrganizerID: concert.OrganizerID,
		AdminID:     concert.AdminID,
		PlaceID:     concert.PlaceID,
		CreatedAt:   concert.CreatedAt,
		UpdatedAt:   concert.UpdatedAt,
	}
}
