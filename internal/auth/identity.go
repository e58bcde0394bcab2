package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is what the identity provider knows about the caller.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// TokenVerifier turns a bearer credential into an Identity.
type TokenVerifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// FirebaseVerifier validates Firebase ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, credential string) (*Identity, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: missing authorization token", ErrUnauthenticated)
	}
	token, err := v.client.VerifyIDToken(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.DisplayName = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		id.PhotoURL = picture
	}
	return id, nil
}

// HeaderVerifier trusts the credential as the user's uid. The middleware
// feeds it the X-User-Id header. Use this ONLY for development/testing.
type HeaderVerifier struct{}

func (HeaderVerifier) Verify(_ context.Context, credential string) (*Identity, error) {
	uid := strings.TrimSpace(credential)
	if uid == "" {
		return nil, fmt.Errorf("%w: missing X-User-Id header", ErrUnauthenticated)
	}
	return &Identity{UID: uid}, nil
}
