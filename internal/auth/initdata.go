package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strings"
)

// ErrUnauthenticated is the only failure the verifier reports. Malformed
// input and a bad signature are deliberately indistinguishable to callers.
var ErrUnauthenticated = errors.New("init data: unauthenticated")

// TelegramUser is the user object embedded in signed WebApp init data.
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
}

// VerifyInitData validates the signature Telegram attaches to Mini App
// requests and returns the embedded user. The scheme: drop the hash pair,
// sort the remaining key=value pairs by key, join them with newlines, and
// HMAC-SHA256 the result with a secret derived as
// HMAC-SHA256(key="WebAppData", msg=botToken).
//
// Pure function of (raw, botToken); every failure returns ErrUnauthenticated.
func VerifyInitData(raw, botToken string) (*TelegramUser, error) {
	if botToken == "" || strings.TrimSpace(raw) == "" {
		return nil, ErrUnauthenticated
	}

	pairs, providedHash, err := parsePairs(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if providedHash == "" {
		return nil, ErrUnauthenticated
	}

	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+pairs[k])
	}
	dataCheck := strings.Join(parts, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	secretKey := secret.Sum(nil)

	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(dataCheck))
	calculated := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(calculated), []byte(providedHash)) {
		return nil, ErrUnauthenticated
	}

	userRaw, ok := pairs["user"]
	if !ok {
		return nil, ErrUnauthenticated
	}
	var user TelegramUser
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return nil, ErrUnauthenticated
	}
	if user.ID == 0 {
		return nil, ErrUnauthenticated
	}
	return &user, nil
}

// parsePairs splits raw init data into decoded key/value pairs, detaching the
// hash pair. Each pair is cut on the first '=' only; values such as the
// serialized user JSON may contain '=' themselves.
func parsePairs(raw string) (map[string]string, string, error) {
	pairs := make(map[string]string)
	var hash string
	for _, pair := range strings.Split(raw, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, "", ErrUnauthenticated
		}
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, "", ErrUnauthenticated
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, "", ErrUnauthenticated
		}
		if key == "hash" {
			hash = value
			continue
		}
		pairs[key] = value
	}
	return pairs, hash, nil
}
