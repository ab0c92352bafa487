package clickup

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	synchttp "github.com/xtraqtiv/clickup-sync/http"
	"github.com/xtraqtiv/clickup-sync/logger"
)

const testToken = "pk_test"

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
}

// fakeAPI serves canned JSON per "METHOD /path" and records every request.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]func(w nethttp.ResponseWriter, r *nethttp.Request)
	url      string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{routes: map[string]func(nethttp.ResponseWriter, *nethttp.Request){}}
	server := httptest.NewServer(nethttp.HandlerFunc(api.serve(t)))
	t.Cleanup(server.Close)
	api.url = server.URL

	rest := synchttp.NewBuilder(logger.Nop()).
		WithBaseURL(server.URL).
		WithToken(testToken).
		WithRetries(0, time.Millisecond).
		WithSleeper(func(context.Context, time.Duration) error { return nil }).
		Build()
	return api, New(rest, logger.Nop())
}

func (f *fakeAPI) serve(t *testing.T) func(nethttp.ResponseWriter, *nethttp.Request) {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		assert.Equal(t, testToken, r.Header.Get("Authorization"))
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &rec.Body))
		}
		f.mu.Lock()
		f.requests = append(f.requests, rec)
		handler, ok := f.routes[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(nethttp.StatusNotFound)
			_, _ = w.Write([]byte(`{"err":"Route not found","ECODE":"APP_001"}`))
			return
		}
		handler(w, r)
	}
}

func (f *fakeAPI) handle(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[route] = func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func TestNewTaskInputDefaults(t *testing.T) {
	in := NewTaskInput("Docs", "Write docs")
	assert.Equal(t, "Docs", in.Name)
	assert.Equal(t, "Write docs", in.Description)
	assert.Equal(t, DefaultStatus, in.Status)
	assert.Equal(t, DefaultPriority, in.Priority)
	assert.True(t, in.MarkdownDescription)
	assert.Empty(t, in.Parent)
}

func TestCreateTask(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("POST /list/900/task", 200,
		`{"id":"t1","name":"Docs","status":{"status":"to do","type":"open"},"list":{"id":"900"},"url":"https://app.clickup.com/t/t1"}`)

	in := NewTaskInput("Docs", "Write docs")
	in.CustomFields = []CustomFieldValue{{ID: "f1", Value: "high"}}

	task, err := c.CreateTask(context.Background(), "900", in)
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, "to do", task.Status.Status)
	assert.Equal(t, "900", task.List.ID)
	assert.Equal(t, "t1", task.Raw["id"])

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{
		"name":                 "Docs",
		"description":          "Write docs",
		"status":               "to do",
		"priority":             float64(3),
		"markdown_description": true,
		"custom_fields":        []any{map[string]any{"id": "f1", "value": "high"}},
	}, reqs[0].Body)
}

func TestCreateSubtaskSetsParent(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("POST /list/900/task", 200, `{"id":"t2","name":"Child","parent":"t1"}`)

	task, err := c.CreateSubtask(context.Background(), "900", "t1", NewTaskInput("Child", ""))
	require.NoError(t, err)
	assert.Equal(t, "t1", task.Parent)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "t1", reqs[0].Body["parent"])
}

func TestCreateTaskClientError(t *testing.T) {
	_, c := newFakeAPI(t)

	_, err := c.CreateTask(context.Background(), "missing", NewTaskInput("Docs", ""))
	require.Error(t, err)
	assert.True(t, synchttp.IsErrorType(err, synchttp.ClientError))
	assert.True(t, synchttp.IsHTTPStatusError(err, 404))
	assert.Contains(t, err.Error(), `create task "Docs"`)
}

func TestGetTaskAndUpdateStatus(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("GET /task/t1", 200, `{"id":"t1","name":"Docs","status":{"status":"to do"}}`)
	api.handle("PUT /task/t1", 200, `{"id":"t1","name":"Docs","status":{"status":"complete"}}`)

	task, err := c.GetTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Docs", task.Name)

	updated, err := c.UpdateTaskStatus(context.Background(), "t1", "complete")
	require.NoError(t, err)
	assert.Equal(t, "complete", updated.Status.Status)

	reqs := api.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, map[string]any{"status": "complete"}, reqs[1].Body)
}

func TestGetTasksQuery(t *testing.T) {
	tests := []struct {
		name  string
		query TaskQuery
		want  map[string][]string
	}{
		{
			name:  "defaults",
			query: TaskQuery{},
			want: map[string][]string{
				"archived": {"false"}, "page": {"0"}, "order_by": {"created"},
				"reverse": {"true"}, "subtasks": {"true"}, "include_closed": {"false"},
			},
		},
		{
			name: "filters",
			query: TaskQuery{
				Page: 2, OrderBy: "due_date", Oldest: true, NoSubtasks: true, IncludeClosed: true,
				Statuses: []string{"open", "review"}, Assignees: []string{"42"},
				DueDateGt: 1700000000000, DueDateLt: 1800000000000,
			},
			want: map[string][]string{
				"archived": {"false"}, "page": {"2"}, "order_by": {"due_date"},
				"reverse": {"false"}, "subtasks": {"false"}, "include_closed": {"true"},
				"statuses[]": {"open", "review"}, "assignees[]": {"42"},
				"due_date_gt": {"1700000000000"}, "due_date_lt": {"1800000000000"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, c := newFakeAPI(t)
			api.handle("GET /list/900/task", 200, `{"tasks":[{"id":"a","name":"A"},{"id":"b","name":"B"}],"last_page":true}`)

			page, err := c.GetTasks(context.Background(), "900", tt.query)
			require.NoError(t, err)
			require.Len(t, page.Tasks, 2)
			assert.True(t, page.LastPage)

			reqs := api.recorded()
			require.Len(t, reqs, 1)
			assert.Equal(t, tt.want, reqs[0].Query)
		})
	}
}

func TestPathSegmentsAreEscaped(t *testing.T) {
	api, c := newFakeAPI(t)

	_, _ = c.GetTask(context.Background(), "a/b")
	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/task/a/b", reqs[0].Path, "server sees the decoded path")
}

func TestGetCustomFieldsSharesConcurrentLookups(t *testing.T) {
	api, c := newFakeAPI(t)

	var calls int32
	release := make(chan struct{})
	api.mu.Lock()
	api.routes["GET /list/900/field"] = func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(`{"fields":[{"id":"f1","name":"Effort","type":"number"}]}`))
	}
	api.mu.Unlock()

	var wg sync.WaitGroup
	results := make([][]CustomField, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fields, err := c.GetCustomFields(context.Background(), "900")
			assert.NoError(t, err)
			results[i] = fields
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
	for _, fields := range results {
		require.Len(t, fields, 1)
		assert.Equal(t, "Effort", fields[0].Name)
	}
}

func TestGetCustomFieldsCancelledCallerDoesNotFailOthers(t *testing.T) {
	api, c := newFakeAPI(t)

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	t.Cleanup(func() { once.Do(func() { close(release) }) })
	api.mu.Lock()
	api.routes["GET /list/L/field"] = func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		_, _ = w.Write([]byte(`{"fields":[{"id":"f1","name":"Effort"}]}`))
	}
	api.mu.Unlock()

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetCustomFields(ctxA, "L")
		errA <- err
	}()
	<-started

	type result struct {
		fields []CustomField
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		fields, err := c.GetCustomFields(context.Background(), "L")
		resB <- result{fields, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	once.Do(func() { close(release) })
	select {
	case got := <-resB:
		require.NoError(t, got.err)
		require.Len(t, got.fields, 1)
		assert.Equal(t, "Effort", got.fields[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("waiting caller did not return")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUpdateCustomFieldValue(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("POST /task/t1/field/f1", 200, `{}`)

	require.NoError(t, c.UpdateCustomFieldValue(context.Background(), "t1", "f1", 5))
	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"value": float64(5)}, reqs[0].Body)
}

func TestBulkUpdateCustomFields(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("PUT /task/t1", 200, `{"id":"t1","custom_fields":[{"id":"f1","name":"Effort","value":"5"}]}`)

	task, err := c.BulkUpdateCustomFields(context.Background(), "t1", []CustomFieldValue{{ID: "f1", Value: 5}, {ID: "f2", Value: "x"}})
	require.NoError(t, err)
	require.Len(t, task.CustomFields, 1)

	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{
		map[string]any{"id": "f1", "value": float64(5)},
		map[string]any{"id": "f2", "value": "x"},
	}, reqs[0].Body["custom_fields"])
}

func TestSetCustomFieldValue(t *testing.T) {
	t.Run("resolves field by name", func(t *testing.T) {
		api, c := newFakeAPI(t)
		api.handle("GET /task/t1", 200, `{"id":"t1","list":{"id":"900"}}`)
		api.handle("GET /list/900/field", 200, `{"fields":[{"id":"f0","name":"Owner"},{"id":"f1","name":"Effort"}]}`)
		api.handle("POST /task/t1/field/f1", 200, `{}`)

		require.NoError(t, c.SetCustomFieldValue(context.Background(), "t1", "Effort", 8))
		reqs := api.recorded()
		require.Len(t, reqs, 3)
		assert.Equal(t, "/task/t1/field/f1", reqs[2].Path)
	})

	t.Run("unknown list", func(t *testing.T) {
		api, c := newFakeAPI(t)
		api.handle("GET /task/t1", 200, `{"id":"t1"}`)

		err := c.SetCustomFieldValue(context.Background(), "t1", "Effort", 8)
		assert.ErrorIs(t, err, ErrListUnknown)
	})

	t.Run("unknown field", func(t *testing.T) {
		api, c := newFakeAPI(t)
		api.handle("GET /task/t1", 200, `{"id":"t1","list":{"id":"900"}}`)
		api.handle("GET /list/900/field", 200, `{"fields":[{"id":"f0","name":"Owner"}]}`)

		err := c.SetCustomFieldValue(context.Background(), "t1", "Effort", 8)
		assert.ErrorIs(t, err, ErrFieldNotFound)
		assert.Len(t, api.recorded(), 2)
	})

	t.Run("task lookup failure", func(t *testing.T) {
		_, c := newFakeAPI(t)
		err := c.SetCustomFieldValue(context.Background(), "t1", "Effort", 8)
		assert.True(t, synchttp.IsErrorType(err, synchttp.ClientError))
	})
}

func TestGetTaskCustomFields(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("GET /task/t1", 200, `{"id":"t1","custom_fields":[{"id":"f1","name":"Effort","value":3}]}`)
	api.handle("GET /task/t2", 200, `{"id":"t2"}`)

	fields, err := c.GetTaskCustomFields(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, float64(3), fields[0].Value)

	empty, err := c.GetTaskCustomFields(context.Background(), "t2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestProtocolErrorOnUnexpectedShape(t *testing.T) {
	api, c := newFakeAPI(t)
	api.handle("GET /task/t1", 200, `{"id":12}`)

	_, err := c.GetTask(context.Background(), "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected response shape")
}

func TestSpansUseRouteTemplates(t *testing.T) {
	api, _ := newFakeAPI(t)
	api.handle("POST /list/901/task", 200, `{"id":"t1"}`)
	api.handle("GET /task/t1", 200, `{"id":"t1"}`)
	api.handle("POST /task/t1/field/f9", 200, `{}`)

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	rest := synchttp.NewBuilder(logger.Nop()).
		WithBaseURL(api.url).
		WithToken(testToken).
		WithRetries(0, time.Millisecond).
		WithTracerProvider(tp).
		Build()
	c := New(rest, logger.Nop())

	ctx := context.Background()
	_, err := c.CreateTask(ctx, "901", NewTaskInput("Docs", ""))
	require.NoError(t, err)
	_, err = c.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.NoError(t, c.UpdateCustomFieldValue(ctx, "t1", "f9", 1))

	var names []string
	for _, s := range spans.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"clickup POST /list/{list_id}/task",
		"clickup GET /task/{task_id}",
		"clickup POST /task/{task_id}/field/{field_id}",
	}, names)
}
