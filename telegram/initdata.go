package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// User is the WebApp user payload embedded in initData.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Language  string `json:"language_code"`
}

var (
	ErrInitDataMalformed = errors.New("telegram: malformed initData")
	ErrInitDataHash      = errors.New("telegram: initData hash mismatch")
	ErrInitDataExpired   = errors.New("telegram: initData expired")
)

// ValidateInitData checks the WebApp initData signature against the bot
// token and returns the embedded user. Rejects payloads whose auth_date is
// older than maxAge (0 disables the freshness check).
// https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app
func ValidateInitData(raw, botToken string, maxAge time.Duration) (User, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return User{}, ErrInitDataMalformed
	}
	hash := values.Get("hash")
	if hash == "" {
		return User{}, ErrInitDataMalformed
	}
	if !hmac.Equal([]byte(checksum(values, botToken)), []byte(hash)) {
		return User{}, ErrInitDataHash
	}
	if maxAge > 0 {
		authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
		if err != nil {
			return User{}, ErrInitDataMalformed
		}
		if time.Since(time.Unix(authDate, 0)) > maxAge {
			return User{}, ErrInitDataExpired
		}
	}
	var u User
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil || u.ID == 0 {
		return User{}, ErrInitDataMalformed
	}
	return u, nil
}

// SignInitData produces a signed initData query string from the given
// values. Used by tests and local tooling; the hash key is overwritten.
func SignInitData(values url.Values, botToken string) string {
	values.Set("hash", checksum(values, botToken))
	return values.Encode()
}

// checksum computes the Telegram data-check-string HMAC: all fields except
// hash, sorted by key, joined as k=v lines, keyed by
// HMAC-SHA256("WebAppData", botToken).
func checksum(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
