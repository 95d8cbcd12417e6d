package backend

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Gunvolt24/storefront-sync/internal/ports"
)

var (
	_ ports.TokenSource = StaticToken("")
	_ ports.TokenSource = (*OAuthToken)(nil)
)

// OAuthConfig — учётные данные сервиса для client credentials.
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// OAuthToken — сервисный токен от сервера авторизации; переиспользуется до истечения.
type OAuthToken struct {
	source oauth2.TokenSource
}

// NewOAuthToken — hc может быть nil, тогда запросы за токеном идут http.DefaultClient.
// Обновление токена не зависит от отмены ctx.
func NewOAuthToken(ctx context.Context, cfg OAuthConfig, hc *http.Client) *OAuthToken {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	ctx = context.WithoutCancel(ctx)
	if hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)
	}
	return &OAuthToken{source: oauth2.ReuseTokenSource(nil, cc.TokenSource(ctx))}
}

func (t *OAuthToken) GetToken(context.Context) (string, error) {
	tok, err := t.source.Token()
	if err != nil {
		return "", fmt.Errorf("oauth token: %w", err)
	}
	return tok.AccessToken, nil
}
