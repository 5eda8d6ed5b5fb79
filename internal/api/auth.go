package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/models"
)

// AuthClient talks to the auth service.
type AuthClient struct {
	baseURL string
	hc      *http.Client
	logger  zerolog.Logger
}

func NewAuthClient(baseURL string, hc *http.Client, logger zerolog.Logger) *AuthClient {
	return &AuthClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		logger:  logger.With().Str("client", "auth").Logger(),
	}
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new account. The auth service does not hand out a
// token here; callers log in afterwards to obtain a session.
func (c *AuthClient) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, apperr.InvalidArg("username and password are required")
	}

	body, _ := json.Marshal(RegisterRequest{Username: username, Email: email, Password: password})
	var user models.User
	if err := doRequest(ctx, c.hc, c.logger, http.MethodPost, c.baseURL+"/users", jsonHeader(), body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a session. The endpoint is
// form-encoded, unlike the rest of the surface.
func (c *AuthClient) Login(ctx context.Context, username, password string) (*models.AuthSession, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/x-www-form-urlencoded")

	var sess models.AuthSession
	if err := doRequest(ctx, c.hc, c.logger, http.MethodPost, c.baseURL+"/login", h, []byte(form.Encode()), &sess); err != nil {
		return nil, err
	}
	if sess.AccessToken == "" {
		return nil, apperr.Protocol("login response missing access token", nil)
	}
	return &sess, nil
}
