package devserver

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/attendly/leavecore/workflow"
)

// =============================================================================
// TOKEN ISSUE / VERIFY
// =============================================================================

// tokenTTL keeps dev tokens short-lived enough to exercise expiry handling.
const tokenTTL = 8 * time.Hour

func (s *Server) issueToken(u workflow.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":     strconv.Itoa(u.ID),
		"role_id": int(u.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
		"jti":     uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) verifyToken(token string) (int, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(sub)
}

// =============================================================================
// AUTH MIDDLEWARE
// =============================================================================

type contextKey string

const userKey contextKey = "authenticated-user"

// authenticate resolves the bearer token to a live user and stashes it in
// the request context. Missing, malformed, expired, or orphaned tokens all
// answer 401.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.verifyToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := s.store.GetUser(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "token user no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a route group on workflow roles.
func requireRole(roles ...workflow.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := actorFrom(r)
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient role")
		})
	}
}

func actorFrom(r *http.Request) workflow.User {
	u, _ := r.Context().Value(userKey).(workflow.User)
	return u
}
