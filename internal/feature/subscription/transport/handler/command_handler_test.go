package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"spawnwatch/internal/feature/subscription/transport/command"
	"spawnwatch/internal/feature/subscription/transport/handler"
)

// mockResponder はCommandResponderインターフェースのモック実装です。
type mockResponder struct {
	RespondFunc func(ctx context.Context, authorID string, cmd command.Command) ([]string, error)
}

func (m *mockResponder) Respond(ctx context.Context, authorID string, cmd command.Command) ([]string, error) {
	return m.RespondFunc(ctx, authorID, cmd)
}

type sentText struct {
	channelID, replyTo, content string
}

// mockReplier はReplierインターフェースのモック実装です。
type mockReplier struct {
	sent []sentText
	err  error
}

func (m *mockReplier) SendText(_ context.Context, channelID, replyTo, content string) (string, error) {
	m.sent = append(m.sent, sentText{channelID, replyTo, content})
	return "reply-id", m.err
}

func TestCommandHandler_CommandEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parser := command.NewParser("bot", "")

	tests := []struct {
		name           string
		body           string
		respond        func(ctx context.Context, authorID string, cmd command.Command) ([]string, error)
		replyErr       error
		expectedStatus int
		expectedBody   string
		expectedSent   int
	}{
		{
			name: "success: add command",
			body: `{"message_id":"m1","channel_id":"c1","author_id":"u1","content":"<@bot> cl add Eevee"}`,
			respond: func(_ context.Context, authorID string, cmd command.Command) ([]string, error) {
				assert.Equal(t, "u1", authorID)
				assert.Equal(t, command.KindAdd, cmd.Kind)
				return []string{"Added Eevee to your ping list."}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"replies":["Added Eevee to your ping list."]}`,
			expectedSent:   1,
		},
		{
			name: "success: reply delivery failure is logged only",
			body: `{"message_id":"m1","channel_id":"c1","author_id":"u1","content":"<@bot> cl list"}`,
			respond: func(context.Context, string, command.Command) ([]string, error) {
				return []string{"**Your list:**\n1. A", "51. B"}, nil
			},
			replyErr:       errors.New("gateway down"),
			expectedStatus: http.StatusOK,
			expectedBody:   `{"replies":["**Your list:**\n1. A","51. B"]}`,
			expectedSent:   2,
		},
		{
			name:           "error: not a command",
			body:           `{"message_id":"m1","channel_id":"c1","author_id":"u1","content":"hello there"}`,
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"not a command"}`,
		},
		{
			name:           "error: missing content",
			body:           `{"message_id":"m1","channel_id":"c1","author_id":"u1"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name: "error: save failed still replies",
			body: `{"message_id":"m1","channel_id":"c1","author_id":"u1","content":"<@bot> cl add Eevee"}`,
			respond: func(context.Context, string, command.Command) ([]string, error) {
				return []string{"Could not save your list, please try again."}, errors.New("persist")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"command failed"}`,
			expectedSent:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			replier := &mockReplier{err: tt.replyErr}
			h := handler.NewCommandHandler(parser, &mockResponder{RespondFunc: tt.respond}, replier)

			router := gin.New()
			router.POST("/v1/events/command", h.CommandEvent)

			req := httptest.NewRequest(http.MethodPost, "/v1/events/command", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Len(t, replier.sent, tt.expectedSent)
			for _, s := range replier.sent {
				assert.Equal(t, "c1", s.channelID)
				assert.Equal(t, "m1", s.replyTo)
			}
		})
	}
}
