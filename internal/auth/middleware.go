// Gamedex - Game Catalog Ingestion and Analytics
// Copyright 2026 Gamedex contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gamedex/gamedex

package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gamedex/gamedex/internal/logging"
)

type contextKey string

// ClaimsContextKey is the context key holding the authenticated claims.
const ClaimsContextKey contextKey = "claims"

// Middleware enforces authentication on guarded routes.
type Middleware struct {
	jwtManager   *JWTManager
	authMode     string
	loginLimiter *RateLimiter
}

// NewMiddleware creates the authentication middleware. loginReqs/loginWindow
// bound login attempts per client IP; the data-endpoint rate limits are
// applied separately at the router.
func NewMiddleware(jwtManager *JWTManager, authMode string, loginReqs int, loginWindow time.Duration) *Middleware {
	m := &Middleware{
		jwtManager:   jwtManager,
		authMode:     authMode,
		loginLimiter: NewRateLimiter(loginReqs, loginWindow),
	}

	go m.loginLimiter.startCleanup(5 * time.Minute)

	return m
}

// Authenticate rejects requests without a valid bearer token. When auth mode
// is "none" every request passes through with no claims attached.
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == "none" {
			next(w, r)
			return
		}

		token, err := m.extractToken(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Token validation failed")
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// LimitLogin applies the per-IP login attempt limiter.
func (m *Middleware) LimitLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.loginLimiter.Allow(clientIP(r)) {
			http.Error(w, "Too many login attempts", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// extractToken pulls the JWT from the Authorization header or the token
// cookie set at login.
func (m *Middleware) extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		cookie, err := r.Cookie("token")
		if err != nil {
			return "", fmt.Errorf("unauthorized: missing token")
		}
		return cookie.Value, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("unauthorized: invalid authorization header")
	}

	return parts[1], nil
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
