package transport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticket-office/internal/service"
)

type TicketHandler struct {
	ticketService service.TicketService
}

func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

func (h *TicketHandler) SellTicket(c *gin.Context) {
	var req service.SellTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ticket, err := h.ticketService.Sell(c.Request.Context(), credentials(c), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHandler) GetAllTickets(c *gin.Context) {
	tickets, err := h.ticketService.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tickets)
}

func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) DeleteTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.Delete(c.Request.Context(), credentials(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) GetAllBuyers(c *gin.Context) {
	buyers, err := h.ticketService.ListBuyers(c.Request.Context(), credentials(c))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, buyers)
}

func (h *TicketHandler) GetBuyer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	buyer, err := h.ticketService.GetBuyer(c.Request.Context(), credentials(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, buyer)
}

func (h *TicketHandler) DeleteBuyer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	buyer, err := h.ticketService.DeleteBuyer(c.Request.Context(), credentials(c), id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, buyer)
}
