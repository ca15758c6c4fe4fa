package api

import (
	"github.com/wb-go/wbf/ginext"

	"concerthub/cmd/middleware"
	"concerthub/internal/dto"
	"concerthub/internal/service"
	"concerthub/pkg/validator"
)

func (h *Handler) PurchaseTickets(c *ginext.Context) {
	var req dto.PurchaseTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, "invalid request body")
		return
	}
	if err := validator.Validate(c.Request.Context(), req); err != nil {
		dto.BadResponseError(c, dto.FieldIncorrect, err.Error())
		return
	}

	receipts, err := h.tickets.Purchase(c.Request.Context(), service.PurchaseInput{
		ConcertID: req.ConcertID,
		Quantity:  req.Quantity,
	}, middleware.UserEmail(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	res := make([]dto.TicketReceiptResponse, len(receipts))
	for i, r := range receipts {
		res[i] = dto.TicketReceiptResponse{
			ID:      r.ID,
			Barcode: r.Barcode,
			Price:   r.Price.StringFixed(2),
		}
	}
	dto.SuccessCreatedResponse(c, res)
}

func (h *Handler) ListCustomerTickets(c *ginext.Context) {
	tickets, err := h.tickets.CustomerTickets(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	dto.SuccessResponse(c, tickets)
}
