// Package hierarchy creates a task forest in ClickUp and reports the outcome
// of every node.
package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtraqtiv/clickup-sync/clickup"
	"github.com/xtraqtiv/clickup-sync/logger"
	"github.com/xtraqtiv/clickup-sync/tasks"
	reqtrace "github.com/xtraqtiv/clickup-sync/trace"
)

// ErrParentFailed is attached to nodes skipped because an ancestor failed.
var ErrParentFailed = errors.New("parent task was not created")

// TaskCreator is the part of the ClickUp client the creator needs.
type TaskCreator interface {
	CreateTask(ctx context.Context, listID string, in clickup.TaskInput) (clickup.Task, error)
	CreateSubtask(ctx context.Context, listID, parentID string, in clickup.TaskInput) (clickup.Task, error)
}

// Creator turns task nodes into ClickUp tasks and subtasks.
type Creator struct {
	tasks       TaskCreator
	logger      logger.Logger
	concurrency int
}

// Option configures a Creator.
type Option func(*Creator)

// WithConcurrency sets how many root hierarchies are created at once.
func WithConcurrency(n int) Option {
	return func(c *Creator) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewCreator returns a Creator that processes one root at a time by default.
func NewCreator(tc TaskCreator, log logger.Logger, opts ...Option) *Creator {
	if log == nil {
		log = logger.Nop()
	}
	c := &Creator{tasks: tc, logger: log, concurrency: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create builds every root in listID. A failed node is recorded, its subtree
// is skipped and its siblings still run, so the report may be partial.
func (c *Creator) Create(ctx context.Context, listID string, roots []tasks.Node) *Report {
	if _, ok := reqtrace.RunIDFromContext(ctx); !ok {
		ctx = reqtrace.WithRunID(ctx, reqtrace.NewRunID())
	}
	runID, _ := reqtrace.RunIDFromContext(ctx)
	start := time.Now()

	perRoot := make([][]NodeResult, len(roots))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i := range roots {
		g.Go(func() error {
			perRoot[i] = c.createNode(ctx, listID, "", roots[i], nil)
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{}
	for i, results := range perRoot {
		report.Results = append(report.Results, results...)
		if failedRoot(results) {
			c.logger.Error().Str("name", roots[i].Name).Msg("Failed to create task hierarchy")
		} else {
			c.logger.Info().Str("name", roots[i].Name).Msg("Successfully created task hierarchy")
		}
	}

	c.logger.Info().
		Str("run_id", runID).
		Int("created", len(report.Created())).
		Int("failed", len(report.Failed())).
		Int("skipped", len(report.Skipped())).
		Dur("elapsed", time.Since(start)).
		Msg("Task synchronization finished")
	return report
}

func (c *Creator) createNode(ctx context.Context, listID, parentID string, node tasks.Node, parentPath []string) []NodeResult {
	path := append(append([]string(nil), parentPath...), node.Name)
	result := NodeResult{Path: path, Name: node.Name, ParentID: parentID}

	if err := ctx.Err(); err != nil {
		result.Status = StatusSkipped
		result.Err = err
		return append([]NodeResult{result}, skipAll(node.Subtasks, path, err)...)
	}

	in := clickup.NewTaskInput(node.Name, node.Description)
	for _, f := range node.CustomFields {
		in.CustomFields = append(in.CustomFields, clickup.CustomFieldValue{ID: f.ID, Value: f.Value})
	}

	var (
		task clickup.Task
		err  error
	)
	if parentID == "" {
		task, err = c.tasks.CreateTask(ctx, listID, in)
	} else {
		task, err = c.tasks.CreateSubtask(ctx, listID, parentID, in)
	}

	if err != nil {
		c.logger.Error().Err(err).Str("name", node.Name).Int("depth", len(parentPath)).Msg("Failed to create task")
		result.Status = StatusFailed
		result.Err = err
		skipped := skipAll(node.Subtasks, path, fmt.Errorf("%w: %s", ErrParentFailed, node.Name))
		return append([]NodeResult{result}, skipped...)
	}

	c.logger.Info().Str("task_id", task.ID).Str("name", node.Name).Int("depth", len(parentPath)).Msg("Created task")
	result.Status = StatusCreated
	result.TaskID = task.ID

	results := []NodeResult{result}
	for _, child := range node.Subtasks {
		results = append(results, c.createNode(ctx, listID, task.ID, child, path)...)
	}
	return results
}

func skipAll(nodes []tasks.Node, parentPath []string, cause error) []NodeResult {
	var results []NodeResult
	for _, node := range nodes {
		path := append(append([]string(nil), parentPath...), node.Name)
		results = append(results, NodeResult{Path: path, Name: node.Name, Status: StatusSkipped, Err: cause})
		results = append(results, skipAll(node.Subtasks, path, cause)...)
	}
	return results
}

func failedRoot(results []NodeResult) bool {
	return len(results) > 0 && results[0].Status != StatusCreated
}
