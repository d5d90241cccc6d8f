package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
	"github.com/squadup/squadup/internal/present/realtime"
	"github.com/squadup/squadup/internal/present/rest/middleware"
	"github.com/squadup/squadup/internal/present/rest/presenter"
	"github.com/squadup/squadup/internal/usecase"
)

type Handler struct {
	identity      *usecase.IdentityUsecase
	sessions      *usecase.SessionUsecase
	chat          *usecase.ChatUsecase
	trust         *usecase.TrustUsecase
	moderation    *usecase.ModerationUsecase
	notifications *usecase.NotificationUsecase
	catalog       *usecase.CatalogUsecase
	hub           *realtime.Hub
	auth          *middleware.AuthMiddleware
}

func NewHandler(
	identity *usecase.IdentityUsecase,
	sessions *usecase.SessionUsecase,
	chat *usecase.ChatUsecase,
	trust *usecase.TrustUsecase,
	moderation *usecase.ModerationUsecase,
	notifications *usecase.NotificationUsecase,
	catalog *usecase.CatalogUsecase,
	hub *realtime.Hub,
	auth *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		identity:      identity,
		sessions:      sessions,
		chat:          chat,
		trust:         trust,
		moderation:    moderation,
		notifications: notifications,
		catalog:       catalog,
		hub:           hub,
		auth:          auth,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/register", h.handleRegister, h.auth.RequireIdentity)
	api.GET("/games", h.handleGames)

	api.GET("/identities/:id", h.handleProfile)
	api.GET("/identities/:id/endorsements", h.handleEndorsements)
	api.POST("/identities/:id/endorse", h.handleEndorse, h.auth.RequireIdentity)
	api.GET("/compatibility/:id", h.handleCompatibility, h.auth.RequireIdentity)
	api.POST("/assessment", h.handleAssessment, h.auth.RequireIdentity)

	api.GET("/sessions", h.handleListSessions)
	api.POST("/sessions", h.handleCreateSession, h.auth.RequireIdentity)
	api.GET("/sessions/:id", h.handleGetSession)
	api.POST("/sessions/:id/join", h.handleJoin, h.auth.RequireIdentity)
	api.POST("/sessions/:id/leave", h.handleLeave, h.auth.RequireIdentity)
	api.POST("/sessions/:id/close", h.handleCloseSession, h.auth.RequireIdentity)
	api.DELETE("/sessions/:id", h.handleDeleteSession, h.auth.RequireIdentity)
	api.GET("/sessions/:id/messages", h.handleHistory, h.auth.RequireIdentity)
	api.POST("/sessions/:id/messages", h.handleSendMessage, h.auth.RequireIdentity)

	api.GET("/notifications", h.handleNotifications, h.auth.RequireIdentity)
	api.POST("/notifications/:id/read", h.handleMarkRead, h.auth.RequireIdentity)
	api.POST("/notifications/read-all", h.handleMarkAllRead, h.auth.RequireIdentity)

	mod := api.Group("/mod", h.auth.RequireStaff)
	mod.POST("/mute", h.handleMute)
	mod.POST("/shadow-ban", h.handleShadowBan)
	mod.POST("/lift", h.handleLift)
	mod.POST("/warn", h.handleWarn)
	mod.POST("/reputation", h.handleAdjustReputation)
	mod.GET("/flagged", h.handleFlagged)
	mod.GET("/messages/:id/context", h.handleMessageContext)
	mod.GET("/identities/:id/actions", h.handleActionsFor)
	mod.GET("/audit", h.handleAuditLog)
	mod.GET("/stats", h.handleStats)
	mod.POST("/sessions/:id/terminate", h.handleTerminate)

	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Username string `json:"username"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	identity, err := h.identity.Register(ctx, middleware.RequesterID(ctx), req.Username, middleware.RequesterRole(ctx))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, identity)
}

func (h *Handler) handleGames(c echo.Context) error {
	games, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, games)
}

func (h *Handler) handleProfile(c echo.Context) error {
	profile, err := h.trust.Profile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, profile)
}

func (h *Handler) handleEndorsements(c echo.Context) error {
	summary, err := h.trust.Endorsements(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, summary)
}

func (h *Handler) handleEndorse(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Category string `json:"category"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	result, err := h.trust.Endorse(ctx, middleware.RequesterID(ctx), c.Param("id"), req.Category)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, result)
}

func (h *Handler) handleCompatibility(c echo.Context) error {
	ctx := c.Request().Context()

	report, err := h.trust.Compatibility(ctx, middleware.RequesterID(ctx), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, report)
}

func (h *Handler) handleAssessment(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Answers []int `json:"answers"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	vector, tags, err := h.trust.SubmitAssessment(ctx, middleware.RequesterID(ctx), req.Answers)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"vector": vector, "playStyleTags": tags})
}

func (h *Handler) handleListSessions(c echo.Context) error {
	ctx := c.Request().Context()

	ranked := c.QueryParam("ranked") == "true"
	requesterID := middleware.RequesterID(ctx)
	if requesterID == "" {
		ranked = false
	}

	listings, err := h.sessions.List(ctx, c.QueryParam("game"), c.QueryParam("region"), requesterID, ranked)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, listings)
}

func (h *Handler) handleCreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		GameID           string   `json:"gameId"`
		Title            string   `json:"title"`
		Description      string   `json:"description"`
		Region           string   `json:"region"`
		MicRequired      bool     `json:"micRequired"`
		Capacity         int      `json:"capacity"`
		MinCompatibility *float64 `json:"minCompatibility"`
		MinTrust         *float64 `json:"minTrust"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	session, err := h.sessions.Create(ctx, usecase.CreateSessionInput{
		HostID:           middleware.RequesterID(ctx),
		GameID:           req.GameID,
		Title:            req.Title,
		Description:      req.Description,
		Region:           req.Region,
		MicRequired:      req.MicRequired,
		Capacity:         req.Capacity,
		MinCompatibility: req.MinCompatibility,
		MinTrust:         req.MinTrust,
	})
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, session)
}

func (h *Handler) handleGetSession(c echo.Context) error {
	session, members, err := h.sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"session": session, "members": members})
}

// handleJoin renders accepted and silently-blocked attempts identically; a
// shadow-banned caller must not be able to tell the difference.
func (h *Handler) handleJoin(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.sessions.Join(ctx, c.Param("id"), middleware.RequesterID(ctx))
	if err != nil {
		return presenter.DomainError(c, err)
	}

	switch result.Outcome {
	case usecase.Joined, usecase.SilentlyBlocked:
		return presenter.OK(c, echo.Map{"status": "ok"})
	default:
		return presenter.Forbidden(c, result.Reason)
	}
}

func (h *Handler) handleLeave(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.sessions.Leave(ctx, c.Param("id"), middleware.RequesterID(ctx))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok", "closed": result.Closed})
}

func (h *Handler) handleCloseSession(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.sessions.Close(ctx, c.Param("id"), middleware.RequesterID(ctx), middleware.RequesterRole(ctx).Staff())
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleDeleteSession(c echo.Context) error {
	ctx := c.Request().Context()

	notified, err := h.sessions.Delete(ctx, c.Param("id"), middleware.RequesterID(ctx), middleware.RequesterRole(ctx).Staff())
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok", "notified": notified})
}

func (h *Handler) handleHistory(c echo.Context) error {
	ctx := c.Request().Context()

	messages, err := h.chat.History(ctx, c.Param("id"), middleware.RequesterID(ctx))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, messages)
}

func (h *Handler) handleSendMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	message, err := h.chat.Send(ctx, c.Param("id"), middleware.RequesterID(ctx), req.Content)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, message)
}

func (h *Handler) handleNotifications(c echo.Context) error {
	ctx := c.Request().Context()
	requesterID := middleware.RequesterID(ctx)

	notifications, err := h.notifications.List(ctx, requesterID)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	unread, err := h.notifications.UnreadCount(ctx, requesterID)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"notifications": notifications, "unread": unread})
}

func (h *Handler) handleMarkRead(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.notifications.MarkRead(ctx, middleware.RequesterID(ctx), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleMarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.notifications.MarkAllRead(ctx, middleware.RequesterID(ctx))
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleMute(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		TargetID string `json:"targetId"`
		Minutes  int    `json:"minutes"`
		Reason   string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	action, err := h.moderation.IssueMute(ctx, middleware.RequesterID(ctx), req.TargetID, req.Minutes, req.Reason)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, action)
}

func (h *Handler) handleShadowBan(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		TargetID string `json:"targetId"`
		Reason   string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	action, err := h.moderation.IssueShadowBan(ctx, middleware.RequesterID(ctx), req.TargetID, req.Reason)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, action)
}

func (h *Handler) handleLift(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		TargetID string `json:"targetId"`
		Kind     string `json:"kind"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	kind := domain.ActionKind(req.Kind)
	if kind != domain.ActionMute && kind != domain.ActionShadowBan {
		return presenter.BadRequestMessage(c, "invalid action kind")
	}

	if err := h.moderation.Lift(ctx, middleware.RequesterID(ctx), req.TargetID, kind); err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleWarn(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		TargetID string `json:"targetId"`
		Message  string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.moderation.Warn(ctx, middleware.RequesterID(ctx), req.TargetID, req.Message); err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleAdjustReputation(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		TargetID string `json:"targetId"`
		Delta    int    `json:"delta"`
		Reason   string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	newScore, err := h.moderation.AdjustReputation(ctx, middleware.RequesterID(ctx), req.TargetID, req.Delta, req.Reason)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"newScore": newScore})
}

func (h *Handler) handleFlagged(c echo.Context) error {
	flagged, err := h.moderation.Flagged(c.Request().Context())
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, flagged)
}

func (h *Handler) handleMessageContext(c echo.Context) error {
	messages, err := h.moderation.MessageContext(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, messages)
}

func (h *Handler) handleActionsFor(c echo.Context) error {
	actions, err := h.moderation.ActionsFor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, actions)
}

func (h *Handler) handleAuditLog(c echo.Context) error {
	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limitInt, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter")
		}
		limit = limitInt
	}
	if limit > 200 {
		limit = 200
	}

	entries, err := h.moderation.AuditLog(c.Request().Context(), limit)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, entries)
}

func (h *Handler) handleStats(c echo.Context) error {
	stats, err := h.moderation.Stats(c.Request().Context())
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, stats)
}

func (h *Handler) handleTerminate(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	notified, err := h.sessions.Terminate(ctx, middleware.RequesterID(ctx), c.Param("id"), req.Reason)
	if err != nil {
		return presenter.DomainError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok", "notified": notified})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type    string `json:"type"`
	Session string `json:"session"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ctx := c.Request().Context()

	identityID := middleware.RequesterID(ctx)
	if identityID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}

	conn := realtime.NewConnection(identityID, middleware.RequesterRole(ctx).Staff(), ws)
	conn.Start()
	h.hub.Attach(conn)
	defer func() {
		h.hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "")
	}()

	for {
		var req realtimeRequest
		if err := ws.ReadJSON(&req); err != nil {
			wsErr, ok := err.(*websocket.CloseError)
			if ok {
				if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
					slog.DebugContext(
						ctx, "WebSocket closed",
						slog.String("error", wsErr.Error()),
						slog.String("module", "socket"),
					)
				}
			} else {
				slog.ErrorContext(
					ctx, "Error reading message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
			}
			return nil
		}

		switch req.Type {
		case "join":
			// Membership is checked by the history lookup; non-members
			// get neither the replay nor the room subscription.
			history, err := h.chat.History(ctx, req.Session, identityID)
			if err != nil {
				slog.DebugContext(
					ctx, "Socket join refused",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				continue
			}
			h.hub.JoinSession(conn, req.Session)
			h.replay(conn, req.Session, history)
		case "leave":
			h.hub.LeaveSession(conn, req.Session)
		case "h": // heartbeat
			// do nothing
		default:
			slog.InfoContext(
				ctx, "Unknown request type",
				slog.String("type", req.Type),
				slog.String("module", "socket"),
			)
		}
	}
}

// replay pushes the recent chat window to a single freshly joined
// connection, oldest first, before any live traffic it will receive.
func (h *Handler) replay(conn *realtime.Connection, sessionID string, history []domain.ChatMessage) {
	for _, message := range history {
		event, err := squadup.NewEvent(squadup.EventMessage, squadup.SessionChannel(sessionID), squadup.MessagePayload{
			ID:        message.ID,
			SessionID: message.SessionID,
			AuthorID:  message.AuthorID,
			Author:    message.Author,
			Content:   message.Content,
			Toxic:     message.Toxic,
			CreatedAt: message.CreatedAt,
		})
		if err != nil {
			continue
		}
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if err := conn.Send(payload); err != nil {
			return
		}
	}
}
