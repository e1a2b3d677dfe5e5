package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sereneleaf/backend/internal/domain/auth"
	"github.com/sereneleaf/backend/internal/domain/user"
)

// UserHandler serves the admin user management endpoints.
type UserHandler struct {
	users user.Repository
	svc   *auth.Service
}

func NewUserHandler(users user.Repository, svc *auth.Service) *UserHandler {
	return &UserHandler{users: users, svc: svc}
}

type listUsersRequest struct {
	Name  string `form:"name"`
	Email string `form:"email"`
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}

// List returns users matching the optional name/email filters.
func (h *UserHandler) List(c *gin.Context) {
	var req listUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	users, total, err := h.users.List(c.Request.Context(), user.Filter{
		Name:  req.Name,
		Email: req.Email,
		Page:  req.Page,
		Limit: req.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]userView, len(users))
	for i := range users {
		views[i] = toUserView(&users[i])
	}
	respondList(c, "", views, total, req.Page, req.Limit)
}

// Get returns a single user.
func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toUserView(u))
}

type createUserRequest struct {
	Name     string    `json:"name" binding:"required"`
	Email    string    `json:"email" binding:"required,email"`
	Password string    `json:"password" binding:"required,min=6"`
	Role     user.Role `json:"role" binding:"omitempty,oneof=customer admin"`
	Address  string    `json:"address"`
	Phone    string    `json:"phone"`
}

// Create registers an account with an explicit role.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.svc.Register(c.Request.Context(), auth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Address:  req.Address,
		Phone:    req.Phone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "user created", toUserView(u))
}

type updateUserRequest struct {
	Name    *string    `json:"name"`
	Role    *user.Role `json:"role" binding:"omitempty,oneof=customer admin"`
	Address *string    `json:"address"`
	Phone   *string    `json:"phone"`
}

// Update applies the provided fields to an existing user. Email and password
// are managed through the auth flows and cannot be changed here.
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	u, err := h.users.GetByID(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	if req.Phone != nil {
		u.Phone = *req.Phone
	}

	if err := h.users.Update(ctx, u); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "user updated", toUserView(u))
}

// Delete removes a user.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "user deleted", nil)
}
