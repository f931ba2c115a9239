package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenExpired = errors.New("access token has expired")

// tokens without an exp claim are reported as valid for this long
const unknownExpiryLifetime = time.Hour

// StaticToken serves a pre-issued bearer token. The signature is not
// checked here; the service does that. Only the exp claim is read so an
// expired token fails before any request is made.
type StaticToken struct {
	token     string
	expiresOn time.Time
	now       func() time.Time
}

func NewStaticToken(raw string) (*StaticToken, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	s := &StaticToken{token: raw, now: time.Now}
	if claims.ExpiresAt != nil {
		s.expiresOn = claims.ExpiresAt.Time
		if !s.now().Before(s.expiresOn) {
			return nil, fmt.Errorf("%w at %s", ErrTokenExpired, s.expiresOn.Format(time.RFC3339))
		}
	}

	return s, nil
}

func (s *StaticToken) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	now := s.now()

	if s.expiresOn.IsZero() {
		return azcore.AccessToken{Token: s.token, ExpiresOn: now.Add(unknownExpiryLifetime)}, nil
	}
	if !now.Before(s.expiresOn) {
		return azcore.AccessToken{}, ErrTokenExpired
	}

	return azcore.AccessToken{Token: s.token, ExpiresOn: s.expiresOn}, nil
}
