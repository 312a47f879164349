package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// loginRequest is the body accepted by POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the body returned by a successful login.
type loginResponse struct {
	Token string `json:"token"`
}

// signToken issues an HS256 JWT for the given person id.
func (s *Server) signToken(personID string) (string, error) {
	now := time.Now()
	ttl := time.Duration(s.cfg.Auth.TokenTTLMins) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := jwt.RegisteredClaims{
		Subject:   personID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret()))
}

// verifyToken validates a JWT and returns the subject claim.
func (s *Server) verifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return []byte(s.jwtSecret()), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// throttleKey identifies a login client: username plus remote host.
func throttleKey(username string, r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return username + "|" + host
}

// handleLogin validates credentials under the login throttle and issues a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := throttleKey(req.Username, r)
	if !s.throttle.Allow(key) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", fmt.Sprint(s.throttle.SecondsUntilReset(key)))
		writeJSONError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	per, err := s.persons.GetByUsername(r.Context(), req.Username)
	if err != nil || !per.Active ||
		bcrypt.CompareHashAndPassword([]byte(per.PasswordHash), []byte(req.Password)) != nil {
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprint(s.throttle.Remaining(key)))
		writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.throttle.Reset(key)

	token, err := s.signToken(per.ID)
	if err != nil {
		s.logger.Error("sign token", slog.Any("err", err))
		writeJSONError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// handleMe returns the currently authenticated person.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	if actor == nil {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

// authMiddleware enforces JWT authentication on wrapped handlers and loads
// the acting person into the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		subject, err := s.verifyToken(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		actor, err := s.persons.Get(r.Context(), subject)
		if err != nil || !actor.Active {
			writeJSONError(w, http.StatusUnauthorized, "unknown or inactive account")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithActor(r.Context(), actor)))
	})
}
