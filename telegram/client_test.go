package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtap/luckywheel-backend/wheel"
)

func TestSendMessage(t *testing.T) {
	var got struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bot"+testBotToken+"/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(testBotToken, srv.URL, zerolog.Nop())
	err := c.SendMessage(context.Background(), 42, "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, "hello", got.Text)
}

func TestSendMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "bot was blocked by the user"})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(testBotToken, srv.URL, zerolog.Nop())
	err := c.SendMessage(context.Background(), 42, "hello")
	assert.ErrorContains(t, err, "blocked")
}

func TestNotifyPrizeSkipsEmptySectors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(testBotToken, srv.URL, zerolog.Nop())
	c.NotifyPrize(context.Background(), 42, wheel.PrizeEmpty, 0)
	assert.Zero(t, calls)

	c.NotifyPrize(context.Background(), 42, wheel.PrizeCurrency, 100)
	assert.Equal(t, 1, calls)
}
