package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dinehub/internal/domain/entity"
	"dinehub/internal/usecase"
	"dinehub/pkg/response"
	"dinehub/pkg/utils"
)

type SupportChatHandler struct {
	supportChatUseCase *usecase.SupportChatUseCase
}

func NewSupportChatHandler(supportChatUseCase *usecase.SupportChatUseCase) *SupportChatHandler {
	return &SupportChatHandler{
		supportChatUseCase: supportChatUseCase,
	}
}

type openSessionRequest struct {
	OrderID  string `json:"order_id" validate:"required"`
	Issue    string `json:"issue" validate:"required"`
	Category string `json:"category"`
}

type appendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// OpenSession opens a new support session for one of the caller's orders.
func (h *SupportChatHandler) OpenSession(c echo.Context) error {
	var req openSessionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	customerID := c.Get("uid").(string)

	session, err := h.supportChatUseCase.OpenSession(c.Request().Context(), usecase.OpenSessionInput{
		OrderID:    req.OrderID,
		CustomerID: customerID,
		Issue:      req.Issue,
		Category:   req.Category,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, session)
}

// ListSessions returns the caller's support sessions, most recent first.
func (h *SupportChatHandler) ListSessions(c echo.Context) error {
	customerID := c.Get("uid").(string)
	limit, offset := utils.ParseLimitOffset(c, 20)

	sessions, total, err := h.supportChatUseCase.ListCustomerSessions(c.Request().Context(), customerID, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, sessions, total, limit, offset)
}

// GetSession returns a single session the caller owns.
func (h *SupportChatHandler) GetSession(c echo.Context) error {
	sessionID := c.Param("id")
	customerID := c.Get("uid").(string)

	session, err := h.supportChatUseCase.GetSession(c.Request().Context(), customerID, false, sessionID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, session)
}

// AppendMessage appends a customer message to a session.
func (h *SupportChatHandler) AppendMessage(c echo.Context) error {
	sessionID := c.Param("id")
	customerID := c.Get("uid").(string)

	var req appendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.supportChatUseCase.AppendMessage(c.Request().Context(), sessionID, entity.SenderCustomer, customerID, req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// MarkRead marks all admin messages in the session as read by the customer.
func (h *SupportChatHandler) MarkRead(c echo.Context) error {
	sessionID := c.Param("id")
	customerID := c.Get("uid").(string)

	_, err := h.supportChatUseCase.MarkRead(c.Request().Context(), sessionID, entity.SenderCustomer, customerID)
	if err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// AdminListSessions returns sessions filtered by status for the agent backlog.
func (h *SupportChatHandler) AdminListSessions(c echo.Context) error {
	sessionStatus := entity.SessionStatus(c.QueryParam("status"))
	if sessionStatus == "" {
		sessionStatus = entity.SessionStatusActive
	}
	limit, offset := utils.ParseLimitOffset(c, 20)

	sessions, total, err := h.supportChatUseCase.ListSessionsByStatus(c.Request().Context(), sessionStatus, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, sessions, total, limit, offset)
}

// AdminGetSession returns any session for an admin agent.
func (h *SupportChatHandler) AdminGetSession(c echo.Context) error {
	sessionID := c.Param("id")
	adminID := c.Get("uid").(string)

	session, err := h.supportChatUseCase.GetSession(c.Request().Context(), adminID, true, sessionID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, session)
}

// AdminAppendMessage appends an admin reply to a session.
func (h *SupportChatHandler) AdminAppendMessage(c echo.Context) error {
	sessionID := c.Param("id")
	adminID := c.Get("uid").(string)

	var req appendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.supportChatUseCase.AppendMessage(c.Request().Context(), sessionID, entity.SenderAdmin, adminID, req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// AdminMarkRead marks all customer messages in the session as read.
func (h *SupportChatHandler) AdminMarkRead(c echo.Context) error {
	sessionID := c.Param("id")
	adminID := c.Get("uid").(string)

	_, err := h.supportChatUseCase.MarkRead(c.Request().Context(), sessionID, entity.SenderAdmin, adminID)
	if err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// ResolveSession closes an active session. Terminal: subsequent appends are
// rejected and a second resolve reports ALREADY_RESOLVED.
func (h *SupportChatHandler) ResolveSession(c echo.Context) error {
	sessionID := c.Param("id")
	adminID := c.Get("uid").(string)

	session, err := h.supportChatUseCase.ResolveSession(c.Request().Context(), sessionID, adminID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, session)
}
