package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	svix "github.com/svix/svix-webhooks/go"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/user"
	"fridgewiz/server/internal/utils/platformerrors"
)

// WebhookHandler receives Clerk identity webhooks. Payloads are
// Svix-signed; anything that fails signature verification is rejected
// before parsing.
type WebhookHandler struct {
	secret string
	users  *user.Service
	log    zerolog.Logger
}

func NewWebhookHandler(cfg *config.Config, users *user.Service, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		secret: cfg.ClerkWebhookSecret,
		users:  users,
		log:    log.With().Str("component", "webhook-handler").Logger(),
	}
}

// clerkEvent mirrors the Clerk webhook envelope.
type clerkEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ImageURL       string `json:"image_url"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// HandleClerk handles POST /api/webhooks/clerk. After the signature check
// passes, processing errors are swallowed and 200 returned so Clerk does
// not retry events we already attempted.
func (h *WebhookHandler) HandleClerk(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		platformerrors.WriteValidationError(c, "Failed to read request body")
		return
	}

	wh, err := svix.NewWebhook(h.secret)
	if err != nil {
		h.log.Error().Err(err).Msg("invalid webhook secret")
		platformerrors.WriteInternalError(c, "Webhook secret not configured")
		return
	}

	if err := wh.Verify(payload, c.Request.Header); err != nil {
		h.log.Warn().Err(err).Msg("webhook signature verification failed")
		platformerrors.WriteValidationError(c, "Invalid webhook signature")
		return
	}

	var evt clerkEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		platformerrors.WriteValidationError(c, "Invalid webhook payload")
		return
	}

	event := user.SyncEvent{
		Type:    user.EventType(evt.Type),
		Profile: profileFromEvent(evt),
	}
	if err := h.users.ApplyEvent(c.Request.Context(), event); err != nil {
		// Swallowed so Clerk does not retry
		h.log.Error().Err(err).Str("event_type", evt.Type).Msg("failed to apply webhook event")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Success"})
}

func profileFromEvent(evt clerkEvent) user.Profile {
	profile := user.Profile{ClerkID: evt.Data.ID}

	if len(evt.Data.EmailAddresses) > 0 && evt.Data.EmailAddresses[0].EmailAddress != "" {
		email := evt.Data.EmailAddresses[0].EmailAddress
		profile.Email = &email
	}

	parts := make([]string, 0, 2)
	for _, p := range []string{evt.Data.FirstName, evt.Data.LastName} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		name := strings.Join(parts, " ")
		profile.Name = &name
	}

	if evt.Data.ImageURL != "" {
		avatar := evt.Data.ImageURL
		profile.Avatar = &avatar
	}
	return profile
}
