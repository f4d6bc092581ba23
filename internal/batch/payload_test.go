package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAtPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want map[string]any
	}{
		{
			name: "single segment",
			path: "title",
			want: map[string]any{"title": "v"},
		},
		{
			name: "two segments",
			path: "work.title",
			want: map[string]any{"work": map[string]any{"title": "v"}},
		},
		{
			name: "deep nesting",
			path: "work.custom.field_12.value",
			want: map[string]any{
				"work": map[string]any{
					"custom": map[string]any{
						"field_12": map[string]any{"value": "v"},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := map[string]any{}
			SetAtPath(doc, tt.path, "v")
			assert.Equal(t, tt.want, doc)
		})
	}
}

func TestSetAtPathSharedPrefix(t *testing.T) {
	doc := map[string]any{}
	SetAtPath(doc, "work.title", "engineer")
	SetAtPath(doc, "work.site", "berlin")

	assert.Equal(t, map[string]any{
		"work": map[string]any{
			"title": "engineer",
			"site":  "berlin",
		},
	}, doc)
}

func TestSetAtPathOverwritesNonObject(t *testing.T) {
	doc := map[string]any{"work": "scalar"}
	SetAtPath(doc, "work.title", "engineer")

	assert.Equal(t, map[string]any{
		"work": map[string]any{"title": "engineer"},
	}, doc)
}

func TestFieldPayload(t *testing.T) {
	payload := FieldPayload("personal.honorific", "Dr")
	assert.Equal(t, map[string]any{
		"personal": map[string]any{"honorific": "Dr"},
	}, payload)
}
