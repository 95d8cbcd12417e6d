// Package backend — REST-клиент внешнего бэкенда витрины.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/dnscache"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/realtime"
	"github.com/Gunvolt24/storefront-sync/pkg/metrics"
	"github.com/Gunvolt24/storefront-sync/pkg/telemetry"
)

var _ ports.OrderSource = (*Client)(nil)

// ErrNotFound — бэкенд ответил 404.
var ErrNotFound = errors.New("not found")

const (
	defaultTimeout  = 5 * time.Second
	defaultMaxPages = 20
	maxResponseBody = 8 << 20
)

// StatusError — неуспешный HTTP-статус бэкенда.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Code, e.Body)
}

// StaticToken — TokenSource с неизменным сервисным токеном.
type StaticToken string

func (t StaticToken) GetToken(context.Context) (string, error) { return string(t), nil }

// Client — чтение заказов из бэкенда. Записи нормализуются так же, как события канала.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   ports.TokenSource
	log      ports.Logger
	maxPages int
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithResolver — транспорт с кэшем DNS.
func WithResolver(r *dnscache.Resolver, timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Transport: NewTransport(r), Timeout: timeout}
	}
}

func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

func New(baseURL string, tokens ports.TokenSource, log ports.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Transport: NewTransport(nil), Timeout: defaultTimeout},
		tokens:   tokens,
		log:      log,
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrder — (nil, nil), если заказа нет.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.OrderRecord, error) {
	body, err := c.get(ctx, "get_order", "/orders/"+url.PathEscape(orderID), nil)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	obj, err := parseOne(body)
	if err != nil {
		return nil, fmt.Errorf("backend get order %s: %w", orderID, err)
	}
	raw, _ := obj.Value().(map[string]any)
	rec, err := realtime.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("backend get order %s: %w", orderID, err)
	}
	if rec.SoftDeleted() {
		return nil, nil
	}
	return rec, nil
}

func (c *Client) ListCustomerOrders(ctx context.Context, customerID string) ([]*domain.OrderRecord, error) {
	q := url.Values{"customer_id": {customerID}}
	return c.list(ctx, "list_customer_orders", q)
}

func (c *Client) ListStoreOrders(ctx context.Context, storeIDs []string) ([]*domain.OrderRecord, error) {
	q := url.Values{"store_ids": {strings.Join(storeIDs, ",")}}
	return c.list(ctx, "list_store_orders", q)
}

// list — проходит страницы, пока бэкенд сообщает о продолжении (не больше maxPages).
func (c *Client) list(ctx context.Context, op string, q url.Values) ([]*domain.OrderRecord, error) {
	var out []*domain.OrderRecord
	for pageNo := 1; pageNo <= c.maxPages; pageNo++ {
		q.Set("page", strconv.Itoa(pageNo))
		body, err := c.get(ctx, op, "/orders", q)
		if err != nil {
			return nil, err
		}
		p, err := parseList(body)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", op, err)
		}
		out = append(out, c.normalizeAll(ctx, op, p.items)...)
		if !p.hasMore {
			return out, nil
		}
	}
	c.log.Warnf(ctx, "backend %s: stopped after %d pages", op, c.maxPages)
	return out, nil
}

// normalizeAll — записи без id и мягко удалённые пропускаются.
func (c *Client) normalizeAll(ctx context.Context, op string, items []gjson.Result) []*domain.OrderRecord {
	out := make([]*domain.OrderRecord, 0, len(items))
	for _, it := range items {
		raw, ok := it.Value().(map[string]any)
		if !ok {
			c.log.Warnf(ctx, "backend %s: skip non-object item", op)
			continue
		}
		rec, err := realtime.Normalize(raw)
		if err != nil {
			c.log.Warnf(ctx, "backend %s: skip item: %v", op, err)
			continue
		}
		if rec.SoftDeleted() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values) (_ []byte, err error) {
	ctx, span := telemetry.StartSpan(ctx, "backend."+op, attribute.String("http.route", path))
	start := time.Now()
	defer func() {
		telemetry.EndSpan(span, err)
		metrics.BackendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		outcome := "ok"
		switch {
		case errors.Is(err, ErrNotFound):
			outcome = "not_found"
		case err != nil:
			outcome = "error"
		}
		metrics.BackendRequests.WithLabelValues(op, outcome).Inc()
	}()

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("backend %s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	telemetry.InjectHeaders(ctx, req.Header)

	if c.tokens != nil {
		token, tErr := c.tokens.GetToken(ctx)
		if tErr != nil {
			return nil, fmt.Errorf("backend %s: get token: %w", op, tErr)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s: do request: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("backend %s: read response: %w", op, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("backend %s: %w", op, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("backend %s: %w", op, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 256)})
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
