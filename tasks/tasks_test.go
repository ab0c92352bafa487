package tasks

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []Node {
	return []Node{
		{
			Name:        "Root",
			Description: "Top level",
			Subtasks: []Node{
				{
					Name:        "Child",
					Description: "Second level",
					Subtasks: []Node{
						{Name: "Leaf", Description: "Third level", Subtasks: []Node{{Name: "Deep"}}},
					},
				},
				{Name: "Sibling", CustomFields: []CustomField{{ID: "f1", Value: "high"}}},
			},
		},
	}
}

func TestDefault(t *testing.T) {
	nodes, err := Default()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "XTRAQTIV Project Implementation", nodes[0].Name)
	assert.Len(t, nodes[0].Subtasks, 4)
	assert.NoError(t, Validate(nodes))
	assert.Equal(t, 19, Count(nodes))
}

func TestSaveLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task_structure.json")
	require.NoError(t, Save(path, sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"name\": \"Root\"")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), loaded)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: Root
  description: Top level
  subtasks:
    - name: Child
      custom_fields:
        - id: f1
          value: 3
`), 0o600))

	nodes, err := Load(path)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Len(t, nodes[0].Subtasks, 1)
	assert.Equal(t, "Child", nodes[0].Subtasks[0].Name)
	assert.Equal(t, "f1", nodes[0].Subtasks[0].CustomFields[0].ID)
	assert.Equal(t, 3, nodes[0].Subtasks[0].CustomFields[0].Value)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read task file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":`), 0o600))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "failed to parse task file")

	unnamed := filepath.Join(dir, "unnamed.json")
	require.NoError(t, os.WriteFile(unnamed, []byte(`[{"name":"Root","subtasks":[{"description":"no name"}]}]`), 0o600))
	_, err = Load(unnamed)
	assert.ErrorContains(t, err, "invalid task file")
	assert.ErrorContains(t, err, "task[0].Subtasks[0].Name")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(sample()))
	assert.NoError(t, Validate(nil))

	err := Validate([]Node{{Name: ""}, {Name: "ok", CustomFields: []CustomField{{Value: 1}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task[0].Name: Name is required")
	assert.Contains(t, err.Error(), "task[1].CustomFields[0].ID: ID is required")
}

func TestPreview(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Preview(&buf, sample()))

	want := "• Root\n" +
		"  Description: Top level\n" +
		"  ◦ Child\n" +
		"    Description: Second level\n" +
		"    ▪ Leaf\n" +
		"      Description: Third level\n" +
		"      ▪ Deep\n" +
		"  ◦ Sibling\n"
	assert.Equal(t, want, buf.String())
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(nil))
	assert.Equal(t, 5, Count(sample()))
}
