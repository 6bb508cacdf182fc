package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rinova/internal/domain"
	"rinova/internal/middleware"
)

const tokenTTL = 24 * time.Hour

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	GenerationCount int    `json:"generation_count"`
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	if len(req.Password) < 8 {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 8 characters")
		return
	}

	if _, err := a.Users.GetByEmail(r.Context(), req.Email); err == nil {
		a.error(w, http.StatusConflict, "email_taken", "email already registered")
		return
	} else if !errors.Is(err, domain.ErrNotFound) {
		a.Logger.Error().Err(err).Msg("register: email lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.Logger.Error().Err(err).Msg("register: hash password failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}
	user, err := a.Users.Create(r.Context(), &domain.User{
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("register: create user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}
	a.issueToken(w, user)
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := a.Users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		// Same response as a wrong password so emails cannot be probed.
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}
	a.issueToken(w, user)
}

func (a *App) issueToken(w http.ResponseWriter, user *domain.User) {
	token, err := middleware.SignJWT(a.JWTSecret, middleware.TokenClaims{
		Sub:      user.ID,
		Role:     string(user.Role),
		Exp:      time.Now().Add(tokenTTL).Unix(),
		Issuer:   "rinova",
		Audience: "rinova-clients",
	})
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign jwt failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, authResponse{
		Token: token,
		User: userDTO{
			ID:              user.ID,
			Email:           user.Email,
			Role:            string(user.Role),
			GenerationCount: user.GenerationCount,
		},
	})
}
