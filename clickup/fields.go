package clickup

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/singleflight"

	synchttp "github.com/xtraqtiv/clickup-sync/http"
)

// GetCustomFields returns the field definitions of listID. Concurrent calls
// for the same list share one request. The shared request is not tied to any
// caller's cancellation; each caller stops waiting when its own ctx is done.
func (c *Client) GetCustomFields(ctx context.Context, listID string) ([]CustomField, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.fields.DoChan(listID, func() (any, error) {
		return c.fetchCustomFields(detached, listID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get custom fields of list %s: %w", listID, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("get custom fields of list %s: %w", listID, res.Err)
	}
	if res.Shared {
		c.logger.Debug().Str("list_id", listID).Msg("Shared custom field lookup")
	}
	fields := res.Val.([]CustomField)
	return append([]CustomField(nil), fields...), nil
}

func (c *Client) fetchCustomFields(ctx context.Context, listID string) ([]CustomField, error) {
	resp, err := c.rest.Get(ctx, &synchttp.Request{
		Path:  "/list/" + url.PathEscape(listID) + "/field",
		Route: routeListFields,
	})
	if err != nil {
		return nil, err
	}
	var body struct {
		Fields []CustomField `json:"fields"`
	}
	if err := decode(resp, &body); err != nil {
		return nil, err
	}
	return body.Fields, nil
}

// UpdateCustomFieldValue sets one field of a task.
func (c *Client) UpdateCustomFieldValue(ctx context.Context, taskID, fieldID string, value any) error {
	_, err := c.rest.Post(ctx, &synchttp.Request{
		Path:  taskPath(taskID) + "/field/" + url.PathEscape(fieldID),
		Route: routeTaskField,
		Body:  map[string]any{"value": value},
	})
	if err != nil {
		return fmt.Errorf("set field %s on task %s: %w", fieldID, taskID, err)
	}
	return nil
}

// BulkUpdateCustomFields sends several field values in one task update.
func (c *Client) BulkUpdateCustomFields(ctx context.Context, taskID string, values []CustomFieldValue) (Task, error) {
	resp, err := c.rest.Put(ctx, &synchttp.Request{
		Path:  taskPath(taskID),
		Route: routeTask,
		Body:  map[string]any{"custom_fields": values},
	})
	if err != nil {
		return Task{}, fmt.Errorf("update custom fields of task %s: %w", taskID, err)
	}
	return decodeTask(resp)
}

// SetCustomFieldValue resolves fieldName through the task's list and sets it.
func (c *Client) SetCustomFieldValue(ctx context.Context, taskID, fieldName string, value any) error {
	task, err := c.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task.List.ID == "" {
		return fmt.Errorf("%w for task %s", ErrListUnknown, taskID)
	}

	fields, err := c.GetCustomFields(ctx, task.List.ID)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if f.Name == fieldName && f.ID != "" {
			return c.UpdateCustomFieldValue(ctx, taskID, f.ID, value)
		}
	}
	return fmt.Errorf("%w: %q for task %s", ErrFieldNotFound, fieldName, taskID)
}

// GetTaskCustomFields returns the custom fields and values set on a task.
func (c *Client) GetTaskCustomFields(ctx context.Context, taskID string) ([]CustomField, error) {
	task, err := c.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.CustomFields == nil {
		return []CustomField{}, nil
	}
	return task.CustomFields, nil
}
