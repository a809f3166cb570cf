package db

import (
	"errors"
	"testing"
	"time"

	"chatdesk-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationUpsertAndGet(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	now := time.Now()
	err := repo.Upsert(&models.Conversation{
		Phone:       "+15551234",
		DisplayName: "Ada",
		LastSeen:    now,
	})
	require.NoError(t, err)

	conv, err := repo.Get("+15551234")
	require.NoError(t, err)
	assert.Equal(t, "+15551234", conv.Phone)
	assert.Equal(t, "Ada", conv.DisplayName)
	assert.Equal(t, now.UnixNano(), conv.LastSeen.UnixNano())
}

func TestConversationUpsertValidation(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	assert.Error(t, repo.Upsert(nil))
	assert.Error(t, repo.Upsert(&models.Conversation{}))
}

func TestConversationUpsertKeepsDisplayName(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	base := time.Now()
	require.NoError(t, repo.Upsert(&models.Conversation{
		Phone:       "+15551234",
		DisplayName: "Ada",
		LastSeen:    base,
	}))

	// A later touch without a display name must not erase the stored one.
	require.NoError(t, repo.Upsert(&models.Conversation{
		Phone:    "+15551234",
		LastSeen: base.Add(time.Minute),
	}))

	conv, err := repo.Get("+15551234")
	require.NoError(t, err)
	assert.Equal(t, "Ada", conv.DisplayName)
	assert.Equal(t, base.Add(time.Minute).UnixNano(), conv.LastSeen.UnixNano())

	// A new display name replaces the stored one.
	require.NoError(t, repo.Upsert(&models.Conversation{
		Phone:       "+15551234",
		DisplayName: "Ada L.",
		LastSeen:    base.Add(2 * time.Minute),
	}))

	conv, err = repo.Get("+15551234")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", conv.DisplayName)
}

func TestConversationListOrder(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	base := time.Now()
	require.NoError(t, repo.Upsert(&models.Conversation{Phone: "+15550001", LastSeen: base.Add(-2 * time.Hour)}))
	require.NoError(t, repo.Upsert(&models.Conversation{Phone: "+15550002", LastSeen: base}))
	require.NoError(t, repo.Upsert(&models.Conversation{Phone: "+15550003", LastSeen: base.Add(-time.Hour)}))

	conversations, err := repo.List()
	require.NoError(t, err)
	require.Len(t, conversations, 3)

	// Most recently active first
	assert.Equal(t, "+15550002", conversations[0].Phone)
	assert.Equal(t, "+15550003", conversations[1].Phone)
	assert.Equal(t, "+15550001", conversations[2].Phone)
}

func TestConversationGetNotFound(t *testing.T) {
	repo := NewConversationRepository(setupTestDB(t))

	conv, err := repo.Get("+19999999")
	assert.Nil(t, conv)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = repo.Get("")
	assert.Error(t, err)
}
