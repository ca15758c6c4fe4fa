package api

import (
	"github.com/shopspring/decimal"
	"github.com/wb-go/wbf/ginext"

	"concerthub/cmd/middleware"
	"concerthub/internal/dto"
	"concerthub/internal/service"
	"concerthub/pkg/validator"
)

func (h *Handler) CreateConcert(c *ginext.Context) {
	var req dto.CreateConcertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "invalid request body")
		return
	}
	if err := validator.Validate(c.Request.Context(), req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, err.Error())
		return
	}

	price, err := decimal.NewFromString(req.TicketPrice)
	if err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "ticket_unit_price must be a decimal number")
		return
	}

	concert, err := h.concerts.Create(c.Request.Context(), service.CreateConcertInput{
		Title:           req.Title,
		Artist:          req.Artist,
		Date:            req.Date,
		OrganizerID:     req.OrganizerID,
		PlaceID:         req.PlaceID,
		TicketUnitPrice: price,
		TicketQuantity:  req.TicketQuantity,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	dto.SuccessCreatedResponse(c, toConcertResponse(concert))
}

func (h *Handler) ValidateConcert(c *ginext.Context) {
	concert, err := h.concerts.Validate(c.Request.Context(), c.Param("id"), middleware.UserEmail(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	dto.SuccessResponse(c, toConcertResponse(concert))
}

func (h *Handler) RejectConcert(c *ginext.Context) {
	concert, err := h.concerts.Reject(c.Request.Context(), c.Param("id"), middleware.UserEmail(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	dto.SuccessResponse(c, toConcertResponse(concert))
}

func (h *Handler) ListPendingConcerts(c *ginext.Context) {
	concerts, err := h.concerts.ListPending(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	res := make([]dto.ConcertResponse, len(concerts))
	for i := range concerts {
		res[i] = toConcertResponse(&concerts[i])
	}
	dto.SuccessResponse(c, res)
}

func (h *Handler) ListPublishedConcerts(c *ginext.Context) {
	concerts, err := h.concerts.ListPublished(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	dto.SuccessResponse(c, concerts)
}

func (h *Handler) ListOrganizerConcerts(c *ginext.Context) {
	concerts, err := h.concerts.OrganizerConcerts(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	dto.SuccessResponse(c, concerts)
}
