package gravatar

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jon4hz/foodgram/internal/config"
)

const baseURL = "https://www.gravatar.com/avatar/"

// AvatarURL returns the Gravatar URL of a user's email address.
// Returns an empty string if Gravatar is disabled or email is empty.
func AvatarURL(email string, cfg *config.GravatarConfig) string {
	if cfg == nil || !cfg.Enabled {
		return ""
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}

	avatar := baseURL + fmt.Sprintf("%x", sha256.Sum256([]byte(email)))

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Add("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Add("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Add("s", strconv.Itoa(cfg.Size))
	}
	if len(params) > 0 {
		avatar += "?" + params.Encode()
	}
	return avatar
}
