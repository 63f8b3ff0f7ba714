package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"

	"github.com/gastrogenius/restaurant-pos/models"
)

// OIDCVerifier accepts ID tokens from an OpenID Connect issuer and reads the
// caller's role from a configurable claim.
type OIDCVerifier struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim string
}

// NewOIDCVerifier discovers the issuer's keys. It performs network I/O.
func NewOIDCVerifier(ctx context.Context, issuer, clientID, roleClaim string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to discover oidc issuer %s", issuer)
	}
	return WrapOIDCVerifier(provider.Verifier(&oidc.Config{ClientID: clientID}), roleClaim), nil
}

func WrapOIDCVerifier(v *oidc.IDTokenVerifier, roleClaim string) *OIDCVerifier {
	return &OIDCVerifier{verifier: v, roleClaim: roleClaim}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (Identity, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Identity{}, errors.Wrap(err, "failed to verify token")
	}

	var claims map[string]interface{}
	if err := token.Claims(&claims); err != nil {
		return Identity{}, errors.Wrap(err, "failed to parse claims")
	}

	username := token.Subject
	for _, key := range []string{"preferred_username", "email", "name"} {
		if s, ok := claims[key].(string); ok && s != "" {
			username = s
			break
		}
	}

	role := models.RoleWaiter
	switch r := claims[v.roleClaim].(type) {
	case string:
		role = NormalizeRole(r)
	case []interface{}:
		// group lists: the most privileged recognised entry wins
		for _, g := range r {
			switch candidate := NormalizeRole(fmt.Sprint(g)); candidate {
			case models.RoleManager:
				role = candidate
			case models.RoleKitchen:
				if role == models.RoleWaiter {
					role = candidate
				}
			}
		}
	}

	return Identity{Username: username, Role: role}, nil
}
