package handler

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"dinehub/internal/domain/repository"
	ws "dinehub/internal/infrastructure/websocket"
	"dinehub/pkg/errors"
)

type WebSocketHandler struct {
	wsManager    *ws.Manager
	customerRepo repository.CustomerRepository
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, customerRepo repository.CustomerRepository) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:    wsManager,
		customerRepo: customerRepo,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID, ok := c.Get("uid").(string)
	if !ok || userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	admin := false
	if customer, err := h.customerRepo.GetByID(c.Request().Context(), userID); err == nil {
		admin = customer.Role == "admin"
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		UserID: userID,
		Admin:  admin,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Register <- client

	go client.ReadPump(h.wsManager)
	go client.WritePump()

	return nil
}
