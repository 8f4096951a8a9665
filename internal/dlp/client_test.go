package dlp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/config"
)

type capturedRequest struct {
	path string
	body map[string]interface{}
}

func deidentifyServer(t *testing.T, captured *capturedRequest, status int, redacted string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &captured.body))

		w.WriteHeader(status)
		if status >= 200 && status < 300 {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"item": map[string]interface{}{"value": redacted},
			})
		}
	}))
}

func TestDeidentify_TemplateMode(t *testing.T) {
	var captured capturedRequest
	server := deidentifyServer(t, &captured, http.StatusOK, "redacted text")
	defer server.Close()

	client := NewClient(config.RedactionConfig{
		Endpoint: server.URL,
		Project:  "child-safety",
		Template: "projects/child-safety/deidentifyTemplates/pii-default",
	})

	out, err := client.Deidentify(context.Background(), "contact jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "redacted text", out)

	assert.Equal(t, "/v2/projects/child-safety/content:deidentify", captured.path)
	assert.Equal(t, "projects/child-safety", captured.body["parent"])
	assert.Equal(t, "projects/child-safety/deidentifyTemplates/pii-default", captured.body["deidentifyTemplateName"])

	item, ok := captured.body["item"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "contact jane.doe@example.com", item["value"])

	// Template mode must not carry an inline configuration.
	assert.NotContains(t, captured.body, "inspectConfig")
	assert.NotContains(t, captured.body, "deidentifyConfig")
}

func TestDeidentify_InlineInfoTypes(t *testing.T) {
	var captured capturedRequest
	server := deidentifyServer(t, &captured, http.StatusOK, "[EMAIL_ADDRESS]")
	defer server.Close()

	client := NewClient(config.RedactionConfig{
		Endpoint:  server.URL,
		Project:   "child-safety",
		InfoTypes: []string{"EMAIL_ADDRESS", "PHONE_NUMBER"},
	})

	out, err := client.Deidentify(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "[EMAIL_ADDRESS]", out)

	assert.NotContains(t, captured.body, "deidentifyTemplateName")

	inspect, ok := captured.body["inspectConfig"].(map[string]interface{})
	require.True(t, ok)
	infoTypes, ok := inspect["infoTypes"].([]interface{})
	require.True(t, ok)
	require.Len(t, infoTypes, 2)
	assert.Equal(t, map[string]interface{}{"name": "EMAIL_ADDRESS"}, infoTypes[0])
	assert.Equal(t, map[string]interface{}{"name": "PHONE_NUMBER"}, infoTypes[1])

	deidentify, ok := captured.body["deidentifyConfig"].(map[string]interface{})
	require.True(t, ok)
	transforms, ok := deidentify["infoTypeTransformations"].(map[string]interface{})
	require.True(t, ok)
	list, ok := transforms["transformations"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	primitive := list[0].(map[string]interface{})["primitiveTransformation"].(map[string]interface{})
	assert.Contains(t, primitive, "replaceWithInfoTypeConfig")
}

func TestDeidentify_TemplateWinsOverInfoTypes(t *testing.T) {
	var captured capturedRequest
	server := deidentifyServer(t, &captured, http.StatusOK, "x")
	defer server.Close()

	client := NewClient(config.RedactionConfig{
		Endpoint:  server.URL,
		Project:   "child-safety",
		Template:  "projects/child-safety/deidentifyTemplates/pii-default",
		InfoTypes: []string{"EMAIL_ADDRESS"},
	})

	_, err := client.Deidentify(context.Background(), "text")
	require.NoError(t, err)

	assert.Equal(t, "projects/child-safety/deidentifyTemplates/pii-default", captured.body["deidentifyTemplateName"])
	assert.NotContains(t, captured.body, "inspectConfig")
}

func TestDeidentify_NonSuccessStatus(t *testing.T) {
	var captured capturedRequest
	server := deidentifyServer(t, &captured, http.StatusForbidden, "")
	defer server.Close()

	client := NewClient(config.RedactionConfig{
		Endpoint: server.URL,
		Project:  "child-safety",
		Template: "projects/child-safety/deidentifyTemplates/pii-default",
	})

	_, err := client.Deidentify(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestDeidentify_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewClient(config.RedactionConfig{
		Endpoint: server.URL,
		Project:  "child-safety",
		Template: "projects/child-safety/deidentifyTemplates/pii-default",
	})

	_, err := client.Deidentify(context.Background(), "text")
	require.Error(t, err)
}
