package ingress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aegis/internal/broker"
	"aegis/internal/logger"
)

type fakeProducer struct {
	published []broker.Message
	topics    []string
	err       error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, msg broker.Message) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.published = append(p.published, msg)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func setupRouter(producer *fakeProducer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(producer, "signal-events", logger.NopLogger()).RegisterRoutes(router)
	return router
}

func post(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload_data", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validBatch() string {
	return `[
		{
			"user_id": "user-1",
			"timestamp": "2024-05-01T10:00:00Z",
			"signal_type": "chat_message",
			"flag_type": "grooming_risk",
			"confidence": 0.9,
			"source_platform": "discord",
			"event_details": {"context": "hello", "corroborating_signals": ["a"]}
		},
		{
			"user_id": "user-2",
			"timestamp": "2024-05-01T11:00:00Z",
			"signal_type": "chat_message",
			"flag_type": "self_harm_risk",
			"confidence": 0.4
		}
	]`
}

func TestUploadData_PublishesEachEvent(t *testing.T) {
	producer := &fakeProducer{}
	router := setupRouter(producer)

	w := post(router, validBatch())
	require.Equal(t, http.StatusOK, w.Code)

	var resp PublishResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, resp.MessagesPublished)

	require.Len(t, producer.published, 2)
	assert.Equal(t, []string{"signal-events", "signal-events"}, producer.topics)
	assert.Equal(t, []byte("user-1"), producer.published[0].Key)

	var published EventRequest
	require.NoError(t, json.Unmarshal(producer.published[0].Value, &published))
	assert.Equal(t, "user-1", published.UserID)
	require.NotNil(t, published.Confidence)
	assert.Equal(t, 0.9, *published.Confidence)
}

func TestUploadData_RejectsInvalidBatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not a list", `{"user_id":"u1"}`},
		{"missing user_id", `[{"timestamp":"2024-05-01T10:00:00Z","signal_type":"s","flag_type":"f","confidence":0.5}]`},
		{"missing confidence", `[{"user_id":"u1","timestamp":"2024-05-01T10:00:00Z","signal_type":"s","flag_type":"f"}]`},
		{"one bad entry rejects batch", `[
			{"user_id":"u1","timestamp":"t","signal_type":"s","flag_type":"f","confidence":0.5},
			{"user_id":"u2"}
		]`},
		{"empty batch", `[]`},
		{"malformed json", `[{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			producer := &fakeProducer{}
			router := setupRouter(producer)

			w := post(router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, producer.published)
		})
	}
}

func TestUploadData_ZeroConfidenceAccepted(t *testing.T) {
	producer := &fakeProducer{}
	router := setupRouter(producer)

	w := post(router, `[{"user_id":"u1","timestamp":"2024-05-01T10:00:00Z","signal_type":"s","flag_type":"f","confidence":0}]`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, producer.published, 1)
}

func TestUploadData_PublishFailure(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unreachable")}
	router := setupRouter(producer)

	w := post(router, validBatch())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
