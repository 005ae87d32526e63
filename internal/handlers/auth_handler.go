package handlers

import (
	"net/http"

	"familycard/internal/service"
)

// AuthHandler handles registration, login and password reset
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Home reports service liveness
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Family Scheme Card API running",
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register creates an account with the auth backend
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "email & password required")
		return
	}

	data, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, data)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session payload
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "email & password required")
		return
	}

	data, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, data)
}

type forgotPasswordRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to"`
}

// ForgotPassword asks the auth backend to send a recovery email
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email required")
		return
	}

	data, err := h.authService.RequestPasswordReset(r.Context(), req.Email, req.RedirectTo)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, data)
}
