package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"admissions-advisor/internal/app"
	"admissions-advisor/internal/model"
	"admissions-advisor/internal/transport/http/middleware"
	"admissions-advisor/internal/transport/http/response"
)

// AuthHandler serves staff account management. There is no open registration:
// /auth/bootstrap works only while the staff table is empty, later accounts
// are created by an admin under /staff.
type AuthHandler struct {
	authService *app.AuthService
}

type BootstrapRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type CreateStaffRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"omitempty,oneof=admin officer"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Bootstrap creates the first admin account.
func (h *AuthHandler) Bootstrap(c *gin.Context) {
	var req BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Bootstrap(app.StaffInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrAlreadyBootstrap):
			response.Error(c, http.StatusConflict, response.CodeForbidden, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "bootstrap failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token": result.Token,
		"staff": staffPayload(result.Staff),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
		case errors.Is(err, app.ErrStaffDisabled):
			response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "login failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token": result.Token,
		"staff": staffPayload(result.Staff),
	})
}

func (h *AuthHandler) Me(c *gin.Context) {
	staffID, ok := middleware.StaffID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "staff not found in token")
		return
	}

	staff, err := h.authService.GetStaffByID(staffID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch current staff failed")
		return
	}
	if staff == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "staff not found")
		return
	}

	response.OK(c, staffPayload(staff))
}

// CreateStaff adds an account; admin only.
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	actorID, ok := middleware.StaffID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "staff not found in token")
		return
	}

	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	staff, err := h.authService.CreateStaff(actorID, app.StaffInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.staffManagementError(c, err, "create staff failed")
		return
	}
	response.OK(c, staffPayload(staff))
}

func (h *AuthHandler) ListStaff(c *gin.Context) {
	actorID, ok := middleware.StaffID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "staff not found in token")
		return
	}

	accounts, err := h.authService.ListStaff(actorID)
	if err != nil {
		h.staffManagementError(c, err, "list staff failed")
		return
	}

	payload := make([]gin.H, 0, len(accounts))
	for i := range accounts {
		payload = append(payload, staffPayload(&accounts[i]))
	}
	response.OK(c, payload)
}

// DeactivateStaff disables an account; admin only.
func (h *AuthHandler) DeactivateStaff(c *gin.Context) {
	actorID, ok := middleware.StaffID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "staff not found in token")
		return
	}

	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid staff id")
		return
	}

	if err := h.authService.Deactivate(actorID, uint(id64)); err != nil {
		switch {
		case errors.Is(err, app.ErrStaffNotFound):
			response.Error(c, http.StatusNotFound, response.CodeStaffNotFound, err.Error())
		default:
			h.staffManagementError(c, err, "deactivate staff failed")
		}
		return
	}
	response.OK(c, gin.H{"deactivated_staff_id": uint(id64)})
}

func (h *AuthHandler) staffManagementError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrNotAdmin), errors.Is(err, app.ErrStaffDisabled):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrStaffExists):
		response.Error(c, http.StatusBadRequest, response.CodeStaffExists, err.Error())
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func staffPayload(staff *model.Staff) gin.H {
	return gin.H{
		"id":       staff.ID,
		"username": staff.Username,
		"email":    staff.Email,
		"role":     staff.Role,
		"active":   staff.Active,
	}
}
