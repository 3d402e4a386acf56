// internal/services/identity.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
)

// Identity is the profile the identity provider vouches for.
type Identity struct {
	Subject    string
	Email      string
	FirstName  string
	LastName   string
	PictureURL string
}

// IdentityVerifier turns a provider token into a verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// GoogleVerifier checks Google ID tokens against the configured client id.
type GoogleVerifier struct {
	clientID string
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID}
}

func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if g.clientID == "" {
		return nil, errors.New("google sign-in is not configured")
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(token, []string{g.clientID}); err != nil {
		return nil, fmt.Errorf("invalid google id token: %w", err)
	}

	claimSet, err := googleAuthIDTokenVerifier.Decode(token)
	if err != nil {
		return nil, fmt.Errorf("failed to decode id token: %w", err)
	}
	if claimSet.Sub == "" {
		return nil, errors.New("id token has no subject")
	}

	first, last := splitName(claimSet.Name)
	return &Identity{
		Subject:   claimSet.Sub,
		Email:     claimSet.Email,
		FirstName: first,
		LastName:  last,
	}, nil
}

// splitName puts the last word in LastName and the rest in FirstName.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}
