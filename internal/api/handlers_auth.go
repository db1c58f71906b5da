// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/gamedex/gamedex/internal/models"
)

// LoginRequestValidation mirrors the login body for validator tags.
type LoginRequestValidation struct {
	Username string `validate:"required,min=1,max=64"`
	Password string `validate:"required,min=1,max=128"`
}

// Login authenticates against the configured admin credentials and issues
// a JWT, both in the response body and as an HTTP-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err)
		return
	}

	if apiErr := validateRequest(&LoginRequestValidation{Username: req.Username, Password: req.Password}); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	if h.config == nil || h.config.Security.AuthMode != "jwt" {
		respondError(w, http.StatusForbidden, "AUTH_DISABLED", "Authentication is disabled", nil)
		return
	}
	if h.jwtManager == nil {
		respondError(w, http.StatusInternalServerError, "AUTH_NOT_CONFIGURED", "JWT manager not initialized", nil)
		return
	}

	if req.Username != h.config.Security.AdminUsername || req.Password != h.config.Security.AdminPassword {
		respondError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password", nil)
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate authentication token", err)
		return
	}

	expiresAt := time.Now().Add(h.jwtManager.SessionTimeout())

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: models.LoginResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			Username:  req.Username,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
