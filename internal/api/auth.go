package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sereneleaf/backend/internal/domain/auth"
	"github.com/sereneleaf/backend/internal/domain/user"
)

// AuthHandler serves signup, login, profile, and password flows.
type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserView(u *user.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Address:   u.Address,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// Signup registers a customer account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	u, err := h.svc.Register(c.Request.Context(), auth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     user.RoleCustomer,
		Address:  req.Address,
		Phone:    req.Phone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "registration successful", toUserView(u))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, u, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "login successful", gin.H{
		"token": token,
		"user":  toUserView(u),
	})
}

// Profile returns the authenticated user's account.
func (h *AuthHandler) Profile(c *gin.Context) {
	u, err := h.svc.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", toUserView(u))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword replaces the authenticated user's password after verifying
// the current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(), currentUserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "password changed", nil)
}

type otpRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestOTP emails a fresh one-time code to a known account.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req otpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.RequestOTP(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "OTP sent", nil)
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

// VerifyOTP checks a one-time code without consuming it.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.svc.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "OTP valid", nil)
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ResetPassword sets a new password after OTP verification.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := h.svc.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "password reset", nil)
}
