package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yaroslav/recipebox/internal/api/middleware"
	"github.com/yaroslav/recipebox/internal/service"
	"github.com/yaroslav/recipebox/models"
)

// UserHandler handles the /api/user endpoints.
type UserHandler struct {
	users  *service.UserService
	limits *middleware.AdvancedRateLimitMiddleware
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *service.UserService, limits *middleware.AdvancedRateLimitMiddleware) *UserHandler {
	return &UserHandler{
		users:  users,
		limits: limits,
	}
}

// CreateToken handles POST /api/user/token.
//
// Any problem with the posted credentials, including a malformed body,
// answers 400 "Invalid credentials" and counts as a failed login for the
// client IP. Once the IP's budget is spent the endpoint answers 429. A
// successful login clears the count.
func (h *UserHandler) CreateToken(c *gin.Context) {
	if !h.limits.CheckAuthFailures(c) {
		return
	}

	var req models.TokenCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.limits.RecordAuthFailure(c)
		respondError(c, http.StatusBadRequest, models.ErrInvalidCredentials.Error())
		return
	}

	out, err := h.users.IssueToken(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			h.limits.RecordAuthFailure(c)
		}
		mapErrorToResponse(c, err)
		return
	}

	h.limits.ResetAuthFailures(c)
	c.JSON(http.StatusOK, out)
}

// CreateUser handles POST /api/user/users.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), &req)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, user.Out())
}

// ListUsers handles GET /api/user/users.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	out := make([]models.UserOut, 0, len(users))
	for i := range users {
		out = append(out, users[i].Out())
	}
	c.JSON(http.StatusOK, out)
}

// UpdateUserName handles PATCH /api/user/users/:user_id.
func (h *UserHandler) UpdateUserName(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}

	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.UpdateName(c.Request.Context(), middleware.GetUser(c), id, req.Name)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Out())
}

// UpdateUserPassword handles PATCH /api/user/users/:user_id/password.
func (h *UserHandler) UpdateUserPassword(c *gin.Context) {
	id, ok := parseID(c, "user_id")
	if !ok {
		return
	}

	var req models.UserPasswordUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.users.UpdatePassword(c.Request.Context(), middleware.GetUser(c), id, req.Password)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, user.Out())
}

// Me handles GET /api/user/me.
func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		mapErrorToResponse(c, models.ErrAuthenticationRequired)
		return
	}
	c.JSON(http.StatusOK, user.Out())
}
