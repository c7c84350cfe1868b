package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/glowtap/luckywheel-backend/wheel"
)

// Client calls the Telegram Bot API. Only used for fire-and-forget player
// notifications after the ledger has committed; failures are logged and
// never propagated back into the spin.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(token string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: "https://api.telegram.org",
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("component", "telegram").Logger(),
	}
}

// NewClientWithBaseURL points the client at a different API host (tests).
func NewClientWithBaseURL(token, baseURL string, log zerolog.Logger) *Client {
	c := NewClient(token, log)
	c.baseURL = baseURL
	return c
}

// SendMessage posts a sendMessage call for the given chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var data struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&data)
	if !data.OK {
		return fmt.Errorf("telegram: sendMessage failed: %s", data.Description)
	}
	return nil
}

// NotifyPrize tells the player what they won. Implements spin.Notifier.
func (c *Client) NotifyPrize(ctx context.Context, accountID int64, kind wheel.PrizeKind, amount int) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	var text string
	switch kind {
	case wheel.PrizeCurrency:
		text = fmt.Sprintf("🎉 You won %d coins on the wheel!", amount)
	case wheel.PrizeTickets:
		text = fmt.Sprintf("🎟 You won %d extra tickets!", amount)
	case wheel.PrizeBox:
		text = "🎁 You won a mystery box! Open the app to see what's inside."
	case wheel.PrizeSponsor:
		text = "⭐ You won a sponsor gift! Check the app for details."
	default:
		return
	}
	if err := c.SendMessage(ctx, accountID, text); err != nil {
		c.log.Warn().Err(err).Int64("account", accountID).Msg("prize notification failed")
	}
}

// NotifyRestore tells the player a free ticket came back.
func (c *Client) NotifyRestore(ctx context.Context, accountID int64) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.SendMessage(ctx, accountID, "🎡 Your free spin is back. Come try your luck!"); err != nil {
		c.log.Warn().Err(err).Int64("account", accountID).Msg("restore notification failed")
	}
}
