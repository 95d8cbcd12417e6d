// Package auth — проверка JWT (HS256), выданных внешним сервисом авторизации витрины.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized — токен отсутствует, не проходит проверку или не даёт нужной роли.
var ErrUnauthorized = errors.New("unauthorized")

// Роли токена.
const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

// Principal — кто обращается к сервису.
type Principal struct {
	Subject    string
	CustomerID string
	StoreIDs   []string
	Role       string
}

// CanReadCustomer — покупатель видит только свои заказы, админ — любые.
func (p *Principal) CanReadCustomer(customerID string) bool {
	if p == nil || customerID == "" {
		return false
	}
	return p.Role == RoleAdmin || (p.Role == RoleCustomer && p.CustomerID == customerID)
}

// CanReadStores — продавец видит только магазины из своего токена.
func (p *Principal) CanReadStores(storeIDs []string) bool {
	if p == nil || len(storeIDs) == 0 {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	if p.Role != RoleMerchant {
		return false
	}
	for _, id := range storeIDs {
		if !slices.Contains(p.StoreIDs, id) {
			return false
		}
	}
	return true
}

func (p *Principal) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

// claims — полезная нагрузка токена.
type claims struct {
	jwt.RegisteredClaims
	CustomerID string   `json:"customer_id,omitempty"`
	StoreIDs   []string `json:"store_ids,omitempty"`
	Role       string   `json:"role,omitempty"`
}

// Verifier — проверяет подпись, срок действия и издателя.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
	leeway time.Duration
}

type Option func(*Verifier)

// WithClock — источник времени для проверки exp/nbf.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// WithLeeway — допуск на рассинхронизацию часов.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) { v.leeway = d }
}

func NewVerifier(secret, issuer string, opts ...Option) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("auth secret is empty")
	}
	v := &Verifier{secret: []byte(secret), issuer: issuer, now: time.Now, leeway: 30 * time.Second}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify — разбирает токен (с префиксом "Bearer " или без) в Principal.
func (v *Verifier) Verify(raw string) (*Principal, error) {
	token := strings.TrimSpace(raw)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", ErrUnauthorized)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}

	var c claims
	if _, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, parserOpts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	p := &Principal{
		Subject:    c.Subject,
		CustomerID: c.CustomerID,
		StoreIDs:   c.StoreIDs,
		Role:       strings.ToLower(c.Role),
	}
	if p.Role == "" {
		p.Role = RoleCustomer
	}
	// у покупателя sub и есть его id, если customer_id не выдан отдельно
	if p.Role == RoleCustomer && p.CustomerID == "" {
		p.CustomerID = p.Subject
	}
	switch p.Role {
	case RoleCustomer:
		if p.CustomerID == "" {
			return nil, fmt.Errorf("%w: customer token without subject", ErrUnauthorized)
		}
	case RoleMerchant:
		if len(p.StoreIDs) == 0 {
			return nil, fmt.Errorf("%w: merchant token without store_ids", ErrUnauthorized)
		}
	case RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrUnauthorized, p.Role)
	}
	return p, nil
}

// Sign — выпускает токен с тем же секретом (локальная разработка и тесты).
func Sign(secret, issuer string, p Principal, ttl time.Duration, now time.Time) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		CustomerID: p.CustomerID,
		StoreIDs:   p.StoreIDs,
		Role:       p.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}
