// Package tasks describes the task hierarchy that clickup-sync creates.
package tasks

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default_tasks.json
var defaultTasks []byte

// Node is one task and its subtasks, to any depth.
type Node struct {
	Name         string        `json:"name" yaml:"name" validate:"required"`
	Description  string        `json:"description" yaml:"description"`
	Subtasks     []Node        `json:"subtasks,omitempty" yaml:"subtasks,omitempty" validate:"dive"`
	CustomFields []CustomField `json:"custom_fields,omitempty" yaml:"custom_fields,omitempty" validate:"dive"`
}

// CustomField is a value set on the task when it is created.
type CustomField struct {
	ID    string `json:"id" yaml:"id" validate:"required"`
	Value any    `json:"value" yaml:"value"`
}

// Count returns the number of nodes in the forest.
func Count(nodes []Node) int {
	n := 0
	for _, node := range nodes {
		n += 1 + Count(node.Subtasks)
	}
	return n
}

// Default returns the built-in hierarchy.
func Default() ([]Node, error) {
	var nodes []Node
	if err := json.Unmarshal(defaultTasks, &nodes); err != nil {
		return nil, fmt.Errorf("failed to decode default tasks: %w", err)
	}
	return nodes, nil
}

// Load reads a hierarchy from path. Files ending in .yaml or .yml are YAML,
// everything else is JSON.
func Load(path string) ([]Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}

	var nodes []Node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &nodes)
	default:
		err = json.Unmarshal(data, &nodes)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse task file %s: %w", path, err)
	}

	if err := Validate(nodes); err != nil {
		return nil, fmt.Errorf("invalid task file %s: %w", path, err)
	}
	return nodes, nil
}

// Save writes nodes to path as indented JSON.
func Save(path string, nodes []Node) error {
	data, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write task file: %w", err)
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks that every node has a name.
func Validate(nodes []Node) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	var errs []error
	for i := range nodes {
		if err := validate.Struct(nodes[i]); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					errs = append(errs, fmt.Errorf("task[%d]%s: %s is %s", i, strings.TrimPrefix(fe.Namespace(), "Node"), fe.Field(), fe.Tag()))
				}
				continue
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var bullets = []string{"•", "◦", "▪"}

// Preview writes the hierarchy as an indented bullet list.
func Preview(w io.Writer, nodes []Node) error {
	return preview(w, nodes, 0)
}

func preview(w io.Writer, nodes []Node, depth int) error {
	bullet := bullets[min(depth, len(bullets)-1)]
	indent := strings.Repeat("  ", depth)
	for _, node := range nodes {
		if _, err := fmt.Fprintf(w, "%s%s %s\n", indent, bullet, node.Name); err != nil {
			return err
		}
		if node.Description != "" {
			if _, err := fmt.Fprintf(w, "%s  Description: %s\n", indent, node.Description); err != nil {
				return err
			}
		}
		if err := preview(w, node.Subtasks, depth+1); err != nil {
			return err
		}
	}
	return nil
}
