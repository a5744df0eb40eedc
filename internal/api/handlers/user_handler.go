package handlers

import (
	"net/http"

	"example.com/backstage/services/picking/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles actor registration and warehouse invites
type UserHandler struct {
	users   service.UserService
	invites service.InviteService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users service.UserService, invites service.InviteService) *UserHandler {
	return &UserHandler{users: users, invites: invites}
}

// InviteRequest names the address to invite
type InviteRequest struct {
	Email string `json:"email" binding:"required"`
}

// AcceptInviteRequest redeems an invite code for the actor
type AcceptInviteRequest struct {
	Email string `json:"email" binding:"required"`
	Token string `json:"token" binding:"required"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// IssueInvite creates an invite code. The code is returned to the caller,
// who delivers it out of band.
func (h *UserHandler) IssueInvite(c *gin.Context) {
	warehouseID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req InviteRequest
	if !bindJSON(c, &req) {
		return
	}

	code, err := h.invites.IssueInvite(c.Request.Context(), warehouseID, req.Email)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

func (h *UserHandler) AcceptInvite(c *gin.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req AcceptInviteRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.invites.AcceptInvite(c.Request.Context(), actorID, req.Email, req.Token)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// RegisterRoutes registers the handler's routes
func (h *UserHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/users", h.Register)
	api.GET("/users/:id", h.GetUser)
	api.POST("/warehouses/:id/invites", h.IssueInvite)
	api.POST("/invites/accept", h.AcceptInvite)
}
