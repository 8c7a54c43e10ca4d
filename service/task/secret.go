package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/viant/scy"
)

// TokenSource supplies a registry token for publishing.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// SecretToken reveals a token stored in a scy secret resource.
type SecretToken struct {
	URL     string
	Key     string
	service *scy.Service
}

// NewSecretToken creates a token source for the secret URL encrypted with key.
func NewSecretToken(URL, key string) *SecretToken {
	return &SecretToken{URL: URL, Key: key, service: scy.New()}
}

// Token loads and decrypts the secret.
func (s *SecretToken) Token(ctx context.Context) (string, error) {
	resource := scy.NewResource(nil, s.URL, s.Key)
	secret, err := s.service.Load(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("failed to load secret from %s: %w", s.URL, err)
	}
	return strings.TrimSpace(secret.String()), nil
}
