// Package clerk calls the Clerk Backend API to fetch account profiles.
package clerk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/user"
)

// Client fetches user profiles from the Clerk Backend API.
type Client struct {
	http   *resty.Client
	apiURL string
	log    zerolog.Logger
}

var _ user.ProfileFetcher = (*Client)(nil)

// clerkUser mirrors the fields we consume from Clerk's user object.
type clerkUser struct {
	ID             string `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ImageURL       string `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

// NewClient constructs a Clerk Backend API client authenticated with the
// instance secret key.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.ClerkAPIURL, "/")).
		SetAuthToken(cfg.ClerkSecretKey).
		SetTimeout(10 * time.Second)

	return &Client{
		http:   http,
		apiURL: cfg.ClerkAPIURL,
		log:    log.With().Str("component", "clerk-client").Logger(),
	}
}

// FetchProfile retrieves the account profile for a Clerk user id.
func (c *Client) FetchProfile(ctx context.Context, clerkID string) (*user.Profile, error) {
	var result clerkUser
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetPathParam("id", clerkID).
		Get("/v1/users/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetch clerk user %s: %w", clerkID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch clerk user %s: status %d", clerkID, resp.StatusCode())
	}

	return profileFrom(clerkID, result), nil
}

func profileFrom(clerkID string, raw clerkUser) *user.Profile {
	profile := &user.Profile{ClerkID: clerkID}

	if len(raw.EmailAddresses) > 0 && raw.EmailAddresses[0].EmailAddress != "" {
		email := raw.EmailAddresses[0].EmailAddress
		profile.Email = &email
	}
	if name := strings.TrimSpace(strings.Join(nonEmpty(raw.FirstName, raw.LastName), " ")); name != "" {
		profile.Name = &name
	}
	if raw.ImageURL != "" {
		avatar := raw.ImageURL
		profile.Avatar = &avatar
	}
	return profile
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
