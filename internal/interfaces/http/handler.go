package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"elevex/internal/interfaces"
	"elevex/internal/repository"
	"elevex/internal/usecases"
)

// Handler wires the HTTP surface onto the use cases.
type Handler struct {
	auth     *usecases.AuthUsecase
	chat     *usecases.ChatService
	sessions *usecases.SessionService
	ledger   *usecases.QuotaLedger
	resolver *usecases.PolicyResolver
	devices  *usecases.DeviceUsecase
	admin    *AdminHandler
	log      *slog.Logger
}

func NewHandler(
	auth *usecases.AuthUsecase,
	chat *usecases.ChatService,
	sessions *usecases.SessionService,
	ledger *usecases.QuotaLedger,
	resolver *usecases.PolicyResolver,
	devices *usecases.DeviceUsecase,
	admin *AdminHandler,
	log *slog.Logger,
) *Handler {
	return &Handler{
		auth:     auth,
		chat:     chat,
		sessions: sessions,
		ledger:   ledger,
		resolver: resolver,
		devices:  devices,
		admin:    admin,
		log:      log,
	}
}

// Register mounts all routes on the engine.
func (h *Handler) Register(r *gin.Engine, rateLimitPerMin int) {
	r.Use(CORSMiddleware(), SecurityHeaders(), BodySizeLimit(1<<20))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.POST("/devices/link", h.linkDevice)

	authd := api.Group("")
	authd.Use(AuthMiddleware(h.auth), RateLimitMiddleware(rateLimitPerMin))
	{
		authd.POST("/chat/:sessionID/send", h.sendTurn)
		authd.GET("/sessions", h.listSessions)
		authd.GET("/sessions/:sessionID", h.getSession)
		authd.POST("/sessions/sync", h.syncSessions)
		authd.PATCH("/sessions/:sessionID", h.updateSession)
		authd.DELETE("/sessions/:sessionID", h.deleteSession)
		authd.GET("/quota", h.quotaStatus)
		authd.GET("/plans", h.listPlans)
		authd.GET("/devices", h.listDevices)
		authd.GET("/devices/qr", h.deviceQR)
		authd.DELETE("/devices/:deviceID", h.unlinkDevice)
	}

	h.admin.Register(authd.Group("/admin", AdminOnly()))
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Company  string `json:"company"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req.Name, req.Company, req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecases.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.log.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

type sendTurnRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *Handler) sendTurn(c *gin.Context) {
	var req sendTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := currentUser(c)
	sess, err := h.chat.SendTurn(c.Request.Context(), user, c.Param("sessionID"), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, usecases.ErrTurnInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "a turn is already in progress"})
		case errors.Is(err, interfaces.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		default:
			h.log.Error("turn failed", "session_id", c.Param("sessionID"), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "turn failed"})
		}
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.log.Error("list sessions failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) getSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("sessionID"))
	if errors.Is(err, interfaces.ErrSessionNotFound) || (err == nil && sess.UserID != currentUser(c).ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

type syncRequest struct {
	Force bool `json:"force"`
}

func (h *Handler) syncSessions(c *gin.Context) {
	var req syncRequest
	_ = c.ShouldBindJSON(&req)
	sessions, err := h.sessions.PullAll(c.Request.Context(), currentUser(c).ID, req.Force)
	if err != nil {
		h.log.Warn("sync failed", "user_id", currentUser(c).ID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "sync unavailable"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

type updateSessionRequest struct {
	Title    *string `json:"title"`
	Archived *bool   `json:"archived"`
	Clear    bool    `json:"clear"`
}

func (h *Handler) updateSession(c *gin.Context) {
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	id := c.Param("sessionID")

	sess, err := h.sessions.Get(ctx, id)
	if errors.Is(err, interfaces.ErrSessionNotFound) || (err == nil && sess.UserID != currentUser(c).ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}

	if req.Title != nil {
		err = h.sessions.Rename(ctx, id, *req.Title)
	}
	if err == nil && req.Archived != nil {
		err = h.sessions.SetArchived(ctx, id, *req.Archived)
	}
	if err == nil && req.Clear {
		err = h.sessions.ClearMessages(ctx, id)
	}
	if err != nil {
		h.log.Error("update session failed", "session_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	sess, _ = h.sessions.Get(ctx, id)
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) deleteSession(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("sessionID")
	sess, err := h.sessions.Get(ctx, id)
	if errors.Is(err, interfaces.ErrSessionNotFound) || (err == nil && sess.UserID != currentUser(c).ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	if err := h.sessions.Delete(ctx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) quotaStatus(c *gin.Context) {
	user := currentUser(c)
	status, err := h.ledger.Status(c.Request.Context(), user.ID, user.Plan)
	if err != nil {
		h.log.Error("quota status failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "quota unavailable"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) listPlans(c *gin.Context) {
	plans, err := h.resolver.ResolveAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "plans unavailable"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *Handler) deviceQR(c *gin.Context) {
	png, err := h.devices.PairingQR(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

type linkDeviceRequest struct {
	Token string `json:"token" binding:"required"`
	Name  string `json:"name"`
}

func (h *Handler) linkDevice(c *gin.Context) {
	var req linkDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dev, err := h.devices.Link(c.Request.Context(), req.Token, req.Name)
	if err != nil {
		if errors.Is(err, usecases.ErrDeviceLimitReached) {
			c.JSON(http.StatusForbidden, gin.H{"error": "device limit reached"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pairing token"})
		return
	}
	c.JSON(http.StatusCreated, dev)
}

func (h *Handler) listDevices(c *gin.Context) {
	devs, err := h.devices.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, devs)
}

func (h *Handler) unlinkDevice(c *gin.Context) {
	err := h.devices.Unlink(c.Request.Context(), currentUser(c).ID, c.Param("deviceID"))
	if errors.Is(err, repository.ErrDeviceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unlink failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
