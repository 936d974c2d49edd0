package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codemaster/internal/model"
	"github.com/sakif/codemaster/internal/service"
)

type AuthHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string     `json:"name"     validate:"required,min=2,max=100"`
	Email    string     `json:"email"    validate:"required,email"`
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Password string     `json:"password" validate:"required,min=8,max=72"`
	Role     model.Role `json:"role"     validate:"omitempty,oneof=DEVELOPER REVIEWER ADMIN"`
}

type githubRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

// authResponse is returned by every successful login or registration.
type authResponse struct {
	Token    string     `json:"token"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

func respondAuth(w http.ResponseWriter, status int, res *service.AuthResult) {
	writeJSON(w, status, authResponse{
		Token:    res.Token,
		Username: res.User.Username,
		Role:     res.User.Role,
	})
}

// HandleLogin serves POST /api/v1/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	respondAuth(w, http.StatusOK, res)
}

// HandleRegister serves POST /api/v1/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respondAuth(w, http.StatusCreated, res)
}

// HandleGitHub serves POST /api/v1/auth/github. The client runs the OAuth
// device flow itself and sends the resulting access token.
func (h *AuthHandler) HandleGitHub(w http.ResponseWriter, r *http.Request) {
	var req githubRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.LoginGitHub(r.Context(), req.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}
	respondAuth(w, http.StatusOK, res)
}
