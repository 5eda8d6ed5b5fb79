package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZorinDanil/vestnik/internal/apperr"
	"github.com/ZorinDanil/vestnik/internal/models"
)

// ProfileClient talks to the profile service.
type ProfileClient struct {
	baseURL string
	hc      *http.Client
	logger  zerolog.Logger
}

func NewProfileClient(baseURL string, hc *http.Client, logger zerolog.Logger) *ProfileClient {
	return &ProfileClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		logger:  logger.With().Str("client", "profile").Logger(),
	}
}

// GetProfile fetches one profile by user id.
func (c *ProfileClient) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, apperr.InvalidArg("user id is required")
	}
	var p models.Profile
	if err := doRequest(ctx, c.hc, c.logger, http.MethodGet, c.baseURL+"/"+userID, jsonHeader(), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProfiles fetches the user directory.
func (c *ProfileClient) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	if err := doRequest(ctx, c.hc, c.logger, http.MethodGet, c.baseURL+"/", jsonHeader(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile patches a profile. Omitted fields are left untouched;
// profile pictures travel through the same call as any other field.
func (c *ProfileClient) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	if userID == "" {
		return nil, apperr.InvalidArg("user id is required")
	}
	body, err := json.Marshal(update)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "encode profile update", err)
	}
	var p models.Profile
	if err := doRequest(ctx, c.hc, c.logger, http.MethodPatch, c.baseURL+"/"+userID, jsonHeader(), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
