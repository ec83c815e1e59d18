package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"elevex/internal/entities"
	"elevex/internal/repository"
	"elevex/internal/usecases"
)

// AdminHandler serves the management surface: plan overrides, the brand and
// model catalog, agents and account administration.
type AdminHandler struct {
	resolver *usecases.PolicyResolver
	ledger   *usecases.QuotaLedger
	accounts *usecases.AccountAdmin
	users    *repository.UserRepository
	catalog  *repository.CatalogRepository
	agents   *repository.AgentRepository
	log      *slog.Logger
}

func NewAdminHandler(
	resolver *usecases.PolicyResolver,
	ledger *usecases.QuotaLedger,
	accounts *usecases.AccountAdmin,
	users *repository.UserRepository,
	catalog *repository.CatalogRepository,
	agents *repository.AgentRepository,
	log *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		resolver: resolver,
		ledger:   ledger,
		accounts: accounts,
		users:    users,
		catalog:  catalog,
		agents:   agents,
		log:      log,
	}
}

// Register mounts the admin routes.
func (h *AdminHandler) Register(g *gin.RouterGroup) {
	g.PUT("/plans/overrides", h.saveOverrides)
	g.GET("/users", h.listUsers)
	g.PATCH("/users/:userID/status", h.updateUserStatus)
	g.PATCH("/users/:userID/plan", h.updateUserPlan)
	g.POST("/users/:userID/quota/reset", h.resetQuota)
	g.GET("/brands", h.listBrands)
	g.POST("/brands", h.createBrand)
	g.DELETE("/brands/:brandID", h.deleteBrand)
	g.GET("/brands/:brandID/models", h.listModels)
	g.POST("/models", h.createModel)
	g.DELETE("/models/:modelID", h.deleteModel)
	g.GET("/agents", h.listAgents)
	g.POST("/agents", h.createAgent)
	g.DELETE("/agents/:agentID", h.deleteAgent)
}

func (h *AdminHandler) saveOverrides(c *gin.Context) {
	var req map[string]entities.PlanOverride
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.resolver.SaveOverrides(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plans, err := h.resolver.ResolveAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.log.Error("list users failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, users)
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive overdue pending_payment"`
}

func (h *AdminHandler) updateUserStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := h.users.UpdateStatus(c.Request.Context(), c.Param("userID"), req.Status)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

type planRequest struct {
	Plan string `json:"plan" binding:"required"`
}

func (h *AdminHandler) updateUserPlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := entities.BuiltinPlans()[req.Plan]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan"})
		return
	}
	err := h.accounts.ApplyPlan(c.Request.Context(), c.Param("userID"), req.Plan)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) resetQuota(c *gin.Context) {
	if err := h.ledger.Reset(c.Request.Context(), c.Param("userID")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listBrands(c *gin.Context) {
	brands, err := h.catalog.ListBrands(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, brands)
}

type brandRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *AdminHandler) createBrand(c *gin.Context) {
	var req brandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b := entities.Brand{ID: uuid.NewString(), Name: req.Name}
	if err := h.catalog.CreateBrand(c.Request.Context(), b); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "brand exists"})
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *AdminHandler) deleteBrand(c *gin.Context) {
	if err := h.catalog.DeleteBrand(c.Request.Context(), c.Param("brandID")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listModels(c *gin.Context) {
	// The path carries the brand name, matching how chat filters.
	models, err := h.catalog.ListModelsByBrand(c.Request.Context(), c.Param("brandID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, models)
}

type modelRequest struct {
	BrandID string `json:"brand_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

func (h *AdminHandler) createModel(c *gin.Context) {
	var req modelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := entities.Model{ID: uuid.NewString(), BrandID: req.BrandID, Name: req.Name}
	if err := h.catalog.CreateModel(c.Request.Context(), m); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "model exists"})
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *AdminHandler) deleteModel(c *gin.Context) {
	if err := h.catalog.DeleteModel(c.Request.Context(), c.Param("modelID")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) listAgents(c *gin.Context) {
	agents, err := h.agents.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, agents)
}

type agentRequest struct {
	Name              string `json:"name" binding:"required"`
	Description       string `json:"description"`
	SystemInstruction string `json:"system_instruction" binding:"required"`
	BrandName         string `json:"brand_name"`
}

func (h *AdminHandler) createAgent(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a := entities.Agent{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Description:       req.Description,
		SystemInstruction: req.SystemInstruction,
		BrandName:         req.BrandName,
		IsCustom:          true,
		CreatedBy:         currentUser(c).ID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := h.agents.Create(c.Request.Context(), a); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *AdminHandler) deleteAgent(c *gin.Context) {
	err := h.agents.Delete(c.Request.Context(), c.Param("agentID"))
	if errors.Is(err, repository.ErrAgentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
