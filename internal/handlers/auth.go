package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ecoforge/apiserver/config"
	"github.com/ecoforge/apiserver/internal/services"
	"github.com/ecoforge/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler provides the registration and login endpoints.
type AuthHandler struct {
	userService *services.UserService
	secret      []byte
	tokenTTL    time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, jwtCfg config.JWTConfig) *AuthHandler {
	ttl := jwtCfg.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthHandler{
		userService: userService,
		secret:      []byte(jwtCfg.Secret),
		tokenTTL:    ttl,
	}
}

// AuthRouter registers the unauthenticated auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, jwtCfg config.JWTConfig) {
	handler := NewAuthHandler(userService, jwtCfg)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

// RequireAuth enforces JWT authentication and injects the subject into context.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret))
}

func requireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing username or password")
		return
	}

	if _, err := h.userService.Register(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		if errors.Is(err, services.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{
		Msg: fmt.Sprintf("User %s created successfully", req.Username),
	})
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{AccessToken: token, UserID: user.ID})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      int    `json:"user_id"`
}

func issueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
