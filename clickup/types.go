package clickup

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// DefaultStatus is the status new tasks are created in.
	DefaultStatus = "to do"
	// DefaultPriority is ClickUp's "normal" priority.
	DefaultPriority = 3

	WebhookActive   = "active"
	WebhookInactive = "inactive"
)

// DefaultWebhookEvents are subscribed when CreateWebhook gets no events.
var DefaultWebhookEvents = []string{"taskCreated", "taskUpdated", "taskDeleted", "taskStatusUpdated"}

var (
	// ErrListUnknown means a task response carried no list id.
	ErrListUnknown = errors.New("could not determine list id")
	// ErrFieldNotFound means no custom field of the list has the requested name.
	ErrFieldNotFound = errors.New("custom field not found")
	// ErrInvalidWebhookStatus rejects statuses other than active and inactive.
	ErrInvalidWebhookStatus = errors.New("webhook status must be active or inactive")
)

// TaskInput is the payload of a task or subtask creation.
type TaskInput struct {
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	Status              string             `json:"status"`
	Priority            int                `json:"priority"`
	MarkdownDescription bool               `json:"markdown_description"`
	Parent              string             `json:"parent,omitempty"`
	CustomFields        []CustomFieldValue `json:"custom_fields,omitempty"`
}

// NewTaskInput returns a payload with the default status and priority.
func NewTaskInput(name, description string) TaskInput {
	return TaskInput{
		Name:                name,
		Description:         description,
		Status:              DefaultStatus,
		Priority:            DefaultPriority,
		MarkdownDescription: true,
	}
}

// CustomFieldValue sets one custom field by id.
type CustomFieldValue struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// Ref is the {id, name} shape ClickUp uses for lists, folders and spaces.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type TaskStatus struct {
	Status string `json:"status"`
	Color  string `json:"color,omitempty"`
	Type   string `json:"type,omitempty"`
}

// CustomField is a field definition, with its value when read from a task.
type CustomField struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type,omitempty"`
	TypeConfig map[string]any `json:"type_config,omitempty"`
	Required   bool           `json:"required,omitempty"`
	Value      any            `json:"value,omitempty"`
}

// Task is the subset of the ClickUp task object this tool reads. Raw keeps
// the full response.
type Task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	URL          string        `json:"url,omitempty"`
	Parent       string        `json:"parent,omitempty"`
	Status       TaskStatus    `json:"status"`
	List         Ref           `json:"list"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`

	Raw map[string]any `json:"-"`
}

// TaskPage is one page of GetTasks.
type TaskPage struct {
	Tasks    []Task `json:"tasks"`
	LastPage bool   `json:"last_page"`
}

type WebhookHealth struct {
	Status    string `json:"status"`
	FailCount int    `json:"fail_count"`
}

type Webhook struct {
	ID       string        `json:"id"`
	Endpoint string        `json:"endpoint"`
	Events   []string      `json:"events"`
	Health   WebhookHealth `json:"health"`
	Secret   string        `json:"secret,omitempty"`
}

// TaskQuery holds the filters of GetTasks. The zero value asks for the first
// page ordered by creation date, newest first, subtasks included.
type TaskQuery struct {
	Archived      bool
	Page          int
	OrderBy       string // created, updated or due_date; empty means created
	Oldest        bool   // ascending order instead of ClickUp's reverse=true default
	NoSubtasks    bool
	IncludeClosed bool
	Statuses      []string
	Assignees     []string
	DueDateGt     int64 // unix millis, 0 means unset
	DueDateLt     int64
}

// decode maps a decoded JSON object onto out.
func decode(m map[string]any, out any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to re-encode response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unexpected response shape: %w", err)
	}
	return nil
}

func decodeTask(m map[string]any) (Task, error) {
	var task Task
	if err := decode(m, &task); err != nil {
		return Task{}, err
	}
	task.Raw = m
	return task, nil
}
