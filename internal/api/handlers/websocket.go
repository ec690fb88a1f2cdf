package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faderbank/internal/api/middleware"
	"faderbank/internal/websocket"
)

type WSHandler struct {
	hub     *websocket.Hub
	router  *websocket.EventRouter
	tickets *middleware.TicketIssuer
}

func NewWSHandler(hub *websocket.Hub, router *websocket.EventRouter, tickets *middleware.TicketIssuer) *WSHandler {
	return &WSHandler{
		hub:     hub,
		router:  router,
		tickets: tickets,
	}
}

// IssueTicket godoc
// @Summary Mint a websocket handshake ticket
// @Description Browsers cannot attach credentials to an upgrade request, so the session is traded for a short-lived ticket here
// @Tags websocket
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /ws/ticket [post]
func (h *WSHandler) IssueTicket(c *gin.Context) {
	ticket, err := h.tickets.Issue(currentUser(c), currentDisplayName(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue ticket"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// HandleWebSocket godoc
// @Summary Open the realtime connection
// @Description Upgrades to a websocket. The ticket from /ws/ticket goes in the query string
// @Tags websocket
// @Param ticket query string true "Handshake ticket"
// @Success 101 {string} string "Switching protocols"
// @Failure 401 {object} map[string]interface{} "Missing or invalid ticket"
// @Router /ws [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	ticket := c.Query("ticket")
	if ticket == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "ticket query parameter is required"})
		return
	}
	userID, displayName, err := h.tickets.Verify(ticket)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid ticket"})
		return
	}
	websocket.ServeWS(h.hub, h.router, c.Writer, c.Request, userID, displayName)
}
