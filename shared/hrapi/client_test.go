package hrapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestClient(server *httptest.Server) *Client {
	return NewClient(&Config{BaseURL: server.URL, Token: "test-token"}, testLogger())
}

func TestListEmployees(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/people", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"employees": []map[string]string{
				{"id": "id-1", "employeeId": "EMP-1", "email": "a@example.com", "fullName": "Ada L"},
				{"id": "id-2", "employeeId": "EMP-2", "email": "b@example.com", "fullName": "Grace H"},
			},
		})
	}))
	defer server.Close()

	employees, err := newTestClient(server).ListEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "id-1", employees[0].ID)
	assert.Equal(t, "EMP-2", employees[1].EmployeeID)
}

func TestSearchEmployee(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/people/search", r.URL.Path)
		identifier := r.URL.Query().Get("identifier")
		if identifier != "EMP-7" {
			_ = json.NewEncoder(w).Encode(map[string]any{"employees": []any{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"employees": []map[string]string{{"id": "id-7", "employeeId": "EMP-7"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server)

	found, err := client.SearchEmployee(context.Background(), "EMP-7")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "id-7", found.ID)

	// A miss is not an error.
	missing, err := client.SearchEmployee(context.Background(), "EMP-8")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/company/named-lists/sites", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"values": []map[string]string{{"id": "101", "label": "Berlin Office"}},
		})
	}))
	defer server.Close()

	values, err := newTestClient(server).ListValues(context.Background(), "sites")
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "101", values[0].ID)
	assert.Equal(t, "Berlin Office", values[0].Label)
}

func TestUpdateFieldOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantSnippet string
	}{
		{name: "success", status: 200, body: "", wantSnippet: ""},
		{name: "not modified", status: 304, body: "", wantSnippet: ""},
		{name: "not found", status: 404, body: `{"error":"no such employee"}`, wantSnippet: `{"error":"no such employee"}`},
		{name: "validation rejection", status: 422, body: `{"error":"invalid value"}`, wantSnippet: `{"error":"invalid value"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/v1/people/id-1", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var payload map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Contains(t, payload, "work")

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			code, snippet, err := newTestClient(server).UpdateField(context.Background(),
				"id-1", map[string]any{"work": map[string]any{"title": "Engineer"}})
			require.NoError(t, err)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, tt.wantSnippet, snippet)
		})
	}
}

func TestUpdateFieldTruncatesErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	code, snippet, err := newTestClient(server).UpdateField(context.Background(),
		"id-1", map[string]any{"work": "x"})
	require.NoError(t, err)
	assert.Equal(t, 500, code)
	assert.Len(t, snippet, maxErrorBody)
}

func TestUpdateFieldTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	code, _, err := newTestClient(server).UpdateField(context.Background(),
		"id-1", map[string]any{"work": "x"})
	require.Error(t, err)
	assert.Zero(t, code)
}

func TestGetFieldValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/people/id-1", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "id-1",
			"work": map[string]any{
				"title":    "Engineer",
				"siteCode": 42,
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)

	value, err := client.GetFieldValue(context.Background(), "id-1", "work.title")
	require.NoError(t, err)
	assert.Equal(t, "Engineer", value)

	// Non-string values are rendered, not rejected.
	value, err = client.GetFieldValue(context.Background(), "id-1", "work.siteCode")
	require.NoError(t, err)
	assert.Equal(t, "42", value)

	_, err = client.GetFieldValue(context.Background(), "id-1", "work.missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not present")
}

func TestGetJSONNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"bad token"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).ListEmployees(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "bad token")
}

func TestValueAtPath(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "deep"}},
		"n": nil,
		"s": "flat",
	}

	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{name: "flat", path: "s", want: "flat", wantOK: true},
		{name: "deep", path: "a.b.c", want: "deep", wantOK: true},
		{name: "null leaf", path: "n", want: "", wantOK: true},
		{name: "missing segment", path: "a.x", wantOK: false},
		{name: "path through scalar", path: "s.x", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := valueAtPath(doc, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
