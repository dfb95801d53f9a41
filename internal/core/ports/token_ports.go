package ports

import "time"

type AdminClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenService issues and checks the admin bearer tokens guarding the
// lifecycle endpoints and the all-elections live feed.
type TokenService interface {
	Issue(subject string, ttl time.Duration) (string, error)
	Verify(token string) (*AdminClaims, error)
}
