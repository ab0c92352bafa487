package clickup

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtraqtiv/clickup-sync/logger"
)

const webhookResponse = `{"id":"wh1","webhook":{"id":"wh1","endpoint":"https://example.test/hook","events":["taskCreated"],"health":{"status":"active","fail_count":0},"secret":"s3cr3t"}}`

func TestCreateWebhookDefaults(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("POST /team/77/webhook", 200, webhookResponse)

	hook, err := c.CreateWebhook(context.Background(), "77", "https://example.test/hook", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "wh1", hook.ID)
	assert.Equal(t, "active", hook.Health.Status)
	assert.Equal(t, "s3cr3t", hook.Secret)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{
		"endpoint": "https://example.test/hook",
		"events":   []any{"taskCreated", "taskUpdated", "taskDeleted", "taskStatusUpdated"},
		"status":   "active",
	}, reqs[0].Body)
}

func TestCreateWebhookCustomEvents(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("POST /team/77/webhook", 200, webhookResponse)

	_, err := c.CreateWebhook(context.Background(), "77", "https://example.test/hook", []string{"taskMoved"}, WebhookInactive)
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{"taskMoved"}, reqs[0].Body["events"])
	assert.Equal(t, "inactive", reqs[0].Body["status"])
}

func TestCreateWebhookLogsEvents(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("POST /team/77/webhook", 200, webhookResponse)
	var buf bytes.Buffer
	c = New(c.rest, logger.NewWithWriter(&buf, "info", false))

	_, err := c.CreateWebhook(context.Background(), "77", "https://example.test/hook", []string{"taskMoved"}, "")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"message":"Created webhook"`)
	assert.Contains(t, buf.String(), `"events":["taskMoved"]`)
	assert.Contains(t, buf.String(), `"webhook_id":"wh1"`)
}

func TestWebhookStatusValidation(t *testing.T) {
	api, c := newFakeAPI(t)

	_, err := c.CreateWebhook(context.Background(), "77", "https://example.test/hook", nil, "paused")
	assert.ErrorIs(t, err, ErrInvalidWebhookStatus)

	_, err = c.UpdateWebhookStatus(context.Background(), "wh1", "on")
	assert.ErrorIs(t, err, ErrInvalidWebhookStatus)

	assert.Empty(t, api.recorded())
}

func TestGetWebhooks(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("GET /team/77/webhook", 200, `{"webhooks":[{"id":"wh1","endpoint":"https://a"},{"id":"wh2","endpoint":"https://b"}]}`)
	api.handle("GET /team/78/webhook", 200, `{}`)

	hooks, err := c.GetWebhooks(context.Background(), "77")
	require.NoError(t, err)
	require.Len(t, hooks, 2)
	assert.Equal(t, "https://b", hooks[1].Endpoint)

	none, err := c.GetWebhooks(context.Background(), "78")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateAndDeleteWebhook(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("PUT /webhook/wh1", 200, `{"id":"wh1","webhook":{"endpoint":"https://a","health":{"status":"inactive"}}}`)
	api.handle("DELETE /webhook/wh1", 200, `{}`)

	hook, err := c.UpdateWebhookStatus(context.Background(), "wh1", WebhookInactive)
	require.NoError(t, err)
	assert.Equal(t, "wh1", hook.ID)
	assert.Equal(t, "inactive", hook.Health.Status)

	require.NoError(t, c.DeleteWebhook(context.Background(), "wh1"))

	reqs := api.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, map[string]any{"status": "inactive"}, reqs[0].Body)
	assert.Equal(t, "DELETE", reqs[1].Method)
}

func TestDeleteWebhookNotFound(t *testing.T) {
	_, c := newFakeAPI(t)
	err := c.DeleteWebhook(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete webhook missing")
}
