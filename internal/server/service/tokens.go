package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Miura55/freee-labor-bot/internal/server/repository"
	cryptohelper "github.com/Miura55/freee-labor-bot/internal/shared/crypto"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

var (
	// ErrTokenUnavailable is returned when the tenant has no usable bearer token.
	ErrTokenUnavailable = errors.New("bearer token unavailable")
	// ErrNoTokenKey is returned when a sealed token is read without a key.
	ErrNoTokenKey = errors.New("token is sealed but no token key is configured")
)

// TokenProvider reads and writes the tenant's freee bearer token. It never
// refreshes; an external job keeps the record current through Put.
type TokenProvider struct {
	repo   Repository
	sealer *cryptohelper.Sealer
}

// CurrentAccessToken returns the stored access token for tenantID.
func (p *TokenProvider) CurrentAccessToken(ctx context.Context, tenantID string) (string, error) {
	t, err := p.Get(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if t.AccessToken == "" {
		return "", ErrTokenUnavailable
	}
	return t.AccessToken, nil
}

// Get returns the whole token record with secrets opened.
func (p *TokenProvider) Get(ctx context.Context, tenantID string) (models.BearerToken, error) {
	t, err := p.repo.GetToken(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.BearerToken{}, ErrTokenUnavailable
	}
	if err != nil {
		return models.BearerToken{}, fmt.Errorf("load token for tenant %s: %w", tenantID, err)
	}
	if t.AccessToken, err = p.open(t.AccessToken, tenantID); err != nil {
		return models.BearerToken{}, err
	}
	if t.RefreshToken, err = p.open(t.RefreshToken, tenantID); err != nil {
		return models.BearerToken{}, err
	}
	return t, nil
}

// Put stores t, sealing both secrets when a token key is configured.
func (p *TokenProvider) Put(ctx context.Context, t models.BearerToken) error {
	if t.TenantID == "" {
		return errors.New("tenant id is required")
	}
	if p.sealer != nil {
		var err error
		if t.AccessToken, err = p.seal(t.AccessToken, t.TenantID); err != nil {
			return err
		}
		if t.RefreshToken, err = p.seal(t.RefreshToken, t.TenantID); err != nil {
			return err
		}
	}
	return p.repo.PutToken(ctx, t)
}

func (p *TokenProvider) seal(v, tenantID string) (string, error) {
	if v == "" {
		return "", nil
	}
	return p.sealer.Seal(v, tenantID)
}

func (p *TokenProvider) open(v, tenantID string) (string, error) {
	if !cryptohelper.IsSealed(v) {
		return v, nil
	}
	if p.sealer == nil {
		return "", ErrNoTokenKey
	}
	out, err := p.sealer.Open(v, tenantID)
	if err != nil {
		return "", fmt.Errorf("open token for tenant %s: %w", tenantID, err)
	}
	return out, nil
}
