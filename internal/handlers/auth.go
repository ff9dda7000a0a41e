package handlers

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/diewo77/go-materiel/auth"
	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/internal/services"
)

type AuthHandler struct {
	users  *services.UserService
	tokens *auth.TokenIssuer
	log    *slog.Logger
}

func NewAuthHandler(users *services.UserService, tokens *auth.TokenIssuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token exchanges a username and password for a bearer token. The
// credentials come as an OAuth2 password form or as a JSON object.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if !decode(w, r, &creds) {
			return
		}
	} else {
		creds.Username = r.FormValue("username")
		creds.Password = r.FormValue("password")
	}
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		writeServiceError(w, r, h.log, auth.ErrInvalidCredentials)
		return
	}

	u, err := h.users.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	token, err := h.tokens.Issue(u.ID, u.Username, u.IsAdmin)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.log.InfoContext(r.Context(), "token issued", slog.String("username", u.Username))
	httpx.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
	})
}
