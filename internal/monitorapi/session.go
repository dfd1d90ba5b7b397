package monitorapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshLeeway is how long before token expiry a session stops being
// handed out, so a run never starts on a token about to lapse.
const refreshLeeway = 60 * time.Second

// Session is an authenticated monitoring endpoint session.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// FreshAt reports whether the session is still usable at the given time.
func (s *Session) FreshAt(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return now.Before(s.ExpiresAt.Add(-refreshLeeway))
}

// tokenExpiry reads the exp claim from the access token. Vendor tokens are
// JWTs in practice; opaque tokens fall back to the configured session TTL.
func (c *Client) tokenExpiry(token string, now time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time.UTC()
		}
	}
	return now.Add(c.cfg.SessionTTL)
}
