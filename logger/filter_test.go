package logger

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterString(t *testing.T) {
	f := NewSensitiveDataFilter(nil)

	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{key: "Authorization", value: "pk_1", expected: DefaultMaskValue},
		{key: "clickup_api_token", value: "pk_1", expected: DefaultMaskValue},
		{key: "token", value: "", expected: ""},
		{key: "task_name", value: "Docs", expected: "Docs"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.FilterString(tt.key, tt.value))
		})
	}
}

func TestFilterValueNested(t *testing.T) {
	f := NewSensitiveDataFilter(&FilterConfig{SensitiveFields: []string{"token"}})

	in := map[string]any{
		"clickup": map[string]any{
			"api_token": "pk_1",
			"list_id":   "42",
		},
		"items": []any{map[string]any{"token": "x"}},
	}

	out, ok := f.FilterValue("config", in).(map[string]any)
	if !assert.True(t, ok) {
		return
	}
	clickup := out["clickup"].(map[string]any)
	assert.Equal(t, DefaultMaskValue, clickup["api_token"])
	assert.Equal(t, "42", clickup["list_id"])
	item := out["items"].([]any)[0].(map[string]any)
	assert.Equal(t, DefaultMaskValue, item["token"])

	// the input map is not modified
	assert.Equal(t, "pk_1", in["clickup"].(map[string]any)["api_token"])
}

func TestFilterValueHeaders(t *testing.T) {
	f := NewSensitiveDataFilter(nil)

	h := http.Header{}
	h.Set("Authorization", "pk_1")
	h.Set("Content-Type", "application/json")

	out := f.FilterValue("headers", h).(http.Header)
	assert.Equal(t, DefaultMaskValue, out.Get("Authorization"))
	assert.Equal(t, "application/json", out.Get("Content-Type"))

	strs := f.FilterValue("headers", map[string]string{"X-Api-Token": "a", "Accept": "b"}).(map[string]string)
	assert.Equal(t, DefaultMaskValue, strs["X-Api-Token"])
	assert.Equal(t, "b", strs["Accept"])
}

func TestCustomMaskValue(t *testing.T) {
	f := NewSensitiveDataFilter(&FilterConfig{SensitiveFields: []string{"secret"}, MaskValue: "[MASKED]"})
	assert.Equal(t, "[MASKED]", f.FilterString("client_secret", "s"))
}
