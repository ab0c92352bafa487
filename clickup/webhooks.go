package clickup

import (
	"context"
	"fmt"
	"net/url"

	synchttp "github.com/xtraqtiv/clickup-sync/http"
)

// CreateWebhook registers endpoint for events in a workspace. Nil events
// subscribe DefaultWebhookEvents and an empty status means active.
func (c *Client) CreateWebhook(ctx context.Context, workspaceID, endpoint string, events []string, status string) (Webhook, error) {
	if events == nil {
		events = DefaultWebhookEvents
	}
	if status == "" {
		status = WebhookActive
	}
	if err := checkWebhookStatus(status); err != nil {
		return Webhook{}, err
	}

	resp, err := c.rest.Post(ctx, &synchttp.Request{
		Path:  "/team/" + url.PathEscape(workspaceID) + "/webhook",
		Route: routeTeamWebhooks,
		Body: map[string]any{
			"endpoint": endpoint,
			"events":   events,
			"status":   status,
		},
	})
	if err != nil {
		return Webhook{}, fmt.Errorf("create webhook for %s: %w", endpoint, err)
	}
	hook, err := decodeWebhook(resp)
	if err != nil {
		return Webhook{}, err
	}
	c.logger.Info().
		Str("webhook_id", hook.ID).
		Str("endpoint", endpoint).
		Interface("events", events).
		Msg("Created webhook")
	return hook, nil
}

// DeleteWebhook removes a webhook.
func (c *Client) DeleteWebhook(ctx context.Context, webhookID string) error {
	if _, err := c.rest.Delete(ctx, &synchttp.Request{Path: webhookPath(webhookID), Route: routeWebhook}); err != nil {
		return fmt.Errorf("delete webhook %s: %w", webhookID, err)
	}
	return nil
}

// GetWebhooks lists the webhooks of a workspace.
func (c *Client) GetWebhooks(ctx context.Context, workspaceID string) ([]Webhook, error) {
	resp, err := c.rest.Get(ctx, &synchttp.Request{
		Path:  "/team/" + url.PathEscape(workspaceID) + "/webhook",
		Route: routeTeamWebhooks,
	})
	if err != nil {
		return nil, fmt.Errorf("get webhooks of workspace %s: %w", workspaceID, err)
	}
	var body struct {
		Webhooks []Webhook `json:"webhooks"`
	}
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	if body.Webhooks == nil {
		return []Webhook{}, nil
	}
	return body.Webhooks, nil
}

// UpdateWebhookStatus activates or deactivates a webhook.
func (c *Client) UpdateWebhookStatus(ctx context.Context, webhookID, status string) (Webhook, error) {
	if err := checkWebhookStatus(status); err != nil {
		return Webhook{}, err
	}
	resp, err := c.rest.Put(ctx, &synchttp.Request{
		Path:  webhookPath(webhookID),
		Route: routeWebhook,
		Body:  map[string]string{"status": status},
	})
	if err != nil {
		return Webhook{}, fmt.Errorf("update webhook %s: %w", webhookID, err)
	}
	return decodeWebhook(resp)
}

func checkWebhookStatus(status string) error {
	if status != WebhookActive && status != WebhookInactive {
		return fmt.Errorf("%w: %q", ErrInvalidWebhookStatus, status)
	}
	return nil
}

func webhookPath(webhookID string) string {
	return "/webhook/" + url.PathEscape(webhookID)
}

// decodeWebhook reads {"id": ..., "webhook": {...}} responses.
func decodeWebhook(resp map[string]any) (Webhook, error) {
	var body struct {
		ID      string  `json:"id"`
		Webhook Webhook `json:"webhook"`
	}
	if err := decode(resp, &body); err != nil {
		return Webhook{}, err
	}
	hook := body.Webhook
	if hook.ID == "" {
		hook.ID = body.ID
	}
	return hook, nil
}
