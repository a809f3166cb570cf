package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatdesk-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConversationService struct {
	listFunc           func() ([]*models.Conversation, error)
	recordActivityFunc func(string, string, time.Time) error
}

func (m *mockConversationService) List() ([]*models.Conversation, error) {
	return m.listFunc()
}

func (m *mockConversationService) RecordActivity(phone, displayName string, at time.Time) error {
	return m.recordActivityFunc(phone, displayName, at)
}

type mockMessageService struct {
	recordFunc  func(string, string, string, models.Direction, time.Time) (*models.Message, error)
	historyFunc func(string, int) ([]*models.Message, error)
}

func (m *mockMessageService) Record(phone, displayName, body string, direction models.Direction, at time.Time) (*models.Message, error) {
	return m.recordFunc(phone, displayName, body, direction, at)
}

func (m *mockMessageService) History(phone string, limit int) ([]*models.Message, error) {
	return m.historyFunc(phone, limit)
}

func newDashboardRouter(conversations ConversationServiceInterface, messages MessageServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewDashboardHandler(conversations, messages)
	router.GET("/api/conversations", handler.ListConversations)
	router.GET("/api/messages", handler.ListMessages)
	return router
}

func TestListConversations(t *testing.T) {
	conversations := &mockConversationService{
		listFunc: func() ([]*models.Conversation, error) {
			return []*models.Conversation{
				{Phone: "+15550002", DisplayName: "Grace", LastSeen: time.Now()},
				{Phone: "+15550001", LastSeen: time.Now().Add(-time.Hour)},
			}, nil
		},
	}
	router := newDashboardRouter(conversations, &mockMessageService{})

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Conversations, 2)
	assert.Equal(t, "+15550002", response.Conversations[0].Phone)
}

func TestListConversationsServiceError(t *testing.T) {
	conversations := &mockConversationService{
		listFunc: func() ([]*models.Conversation, error) {
			return nil, errors.New("db down")
		},
	}
	router := newDashboardRouter(conversations, &mockMessageService{})

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListMessages(t *testing.T) {
	var gotPhone string
	var gotLimit int
	messages := &mockMessageService{
		historyFunc: func(phone string, limit int) ([]*models.Message, error) {
			gotPhone = phone
			gotLimit = limit
			return []*models.Message{
				{ID: "1", Phone: phone, Body: "hi", Direction: models.DirectionIncoming},
			}, nil
		},
	}
	router := newDashboardRouter(&mockConversationService{}, messages)

	req := httptest.NewRequest(http.MethodGet, "/api/messages?phone=%2B15551234&limit=50", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "+15551234", gotPhone)
	assert.Equal(t, 50, gotLimit)

	var response struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Messages, 1)
	assert.Equal(t, "hi", response.Messages[0].Body)
}

func TestListMessagesRequiresPhone(t *testing.T) {
	called := false
	messages := &mockMessageService{
		historyFunc: func(phone string, limit int) ([]*models.Message, error) {
			called = true
			return nil, nil
		},
	}
	router := newDashboardRouter(&mockConversationService{}, messages)

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestListMessagesInvalidLimit(t *testing.T) {
	router := newDashboardRouter(&mockConversationService{}, &mockMessageService{})

	req := httptest.NewRequest(http.MethodGet, "/api/messages?phone=%2B15551234&limit=abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMessagesServiceError(t *testing.T) {
	messages := &mockMessageService{
		historyFunc: func(phone string, limit int) ([]*models.Message, error) {
			return nil, errors.New("db down")
		},
	}
	router := newDashboardRouter(&mockConversationService{}, messages)

	req := httptest.NewRequest(http.MethodGet, "/api/messages?phone=%2B15551234", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
