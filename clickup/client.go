// Package clickup exposes the ClickUp API v2 operations used by clickup-sync.
// Every call goes through the resilient request client, so failures surface
// as *synchttp.Error values.
package clickup

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/sync/singleflight"

	synchttp "github.com/xtraqtiv/clickup-sync/http"
	"github.com/xtraqtiv/clickup-sync/logger"
)

// Client calls the ClickUp API.
type Client struct {
	rest   synchttp.Client
	logger logger.Logger
	fields singleflight.Group
}

// New wraps rest, which must already carry the base URL and token.
func New(rest synchttp.Client, log logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{rest: rest, logger: log}
}

// CreateTask creates a task in listID.
func (c *Client) CreateTask(ctx context.Context, listID string, in TaskInput) (Task, error) {
	resp, err := c.rest.Post(ctx, &synchttp.Request{
		Path:  "/list/" + url.PathEscape(listID) + "/task",
		Route: routeListTasks,
		Body:  in,
	})
	if err != nil {
		return Task{}, fmt.Errorf("create task %q: %w", in.Name, err)
	}
	task, err := decodeTask(resp)
	if err != nil {
		return Task{}, fmt.Errorf("create task %q: %w", in.Name, err)
	}
	c.logger.Info().Str("task_id", task.ID).Str("name", in.Name).Str("parent", in.Parent).Msg("Created task")
	return task, nil
}

// CreateSubtask creates a task in listID under parentID.
func (c *Client) CreateSubtask(ctx context.Context, listID, parentID string, in TaskInput) (Task, error) {
	in.Parent = parentID
	return c.CreateTask(ctx, listID, in)
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, taskID string) (Task, error) {
	resp, err := c.rest.Get(ctx, &synchttp.Request{Path: taskPath(taskID), Route: routeTask})
	if err != nil {
		return Task{}, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return decodeTask(resp)
}

// UpdateTaskStatus moves a task to status.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID, status string) (Task, error) {
	resp, err := c.rest.Put(ctx, &synchttp.Request{
		Path:  taskPath(taskID),
		Route: routeTask,
		Body:  map[string]string{"status": status},
	})
	if err != nil {
		return Task{}, fmt.Errorf("update status of task %s: %w", taskID, err)
	}
	return decodeTask(resp)
}

// GetTasks lists tasks of listID.
func (c *Client) GetTasks(ctx context.Context, listID string, q TaskQuery) (TaskPage, error) {
	resp, err := c.rest.Get(ctx, &synchttp.Request{
		Path:  "/list/" + url.PathEscape(listID) + "/task",
		Route: routeListTasks,
		Query: q.values(),
	})
	if err != nil {
		return TaskPage{}, fmt.Errorf("get tasks of list %s: %w", listID, err)
	}
	var page TaskPage
	if err := decode(resp, &page); err != nil {
		return TaskPage{}, err
	}
	return page, nil
}

func (q TaskQuery) values() url.Values {
	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "created"
	}
	v := url.Values{}
	v.Set("archived", strconv.FormatBool(q.Archived))
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("order_by", orderBy)
	v.Set("reverse", strconv.FormatBool(!q.Oldest))
	v.Set("subtasks", strconv.FormatBool(!q.NoSubtasks))
	v.Set("include_closed", strconv.FormatBool(q.IncludeClosed))
	for _, s := range q.Statuses {
		v.Add("statuses[]", s)
	}
	for _, a := range q.Assignees {
		v.Add("assignees[]", a)
	}
	if q.DueDateGt != 0 {
		v.Set("due_date_gt", strconv.FormatInt(q.DueDateGt, 10))
	}
	if q.DueDateLt != 0 {
		v.Set("due_date_lt", strconv.FormatInt(q.DueDateLt, 10))
	}
	return v
}

// Route templates name the request spans.
const (
	routeListTasks    = "/list/{list_id}/task"
	routeListFields   = "/list/{list_id}/field"
	routeTask         = "/task/{task_id}"
	routeTaskField    = "/task/{task_id}/field/{field_id}"
	routeTeamWebhooks = "/team/{team_id}/webhook"
	routeWebhook      = "/webhook/{webhook_id}"
)

func taskPath(taskID string) string {
	return "/task/" + url.PathEscape(taskID)
}
