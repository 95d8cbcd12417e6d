package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/storefront-sync/internal/auth"
	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/ports"
	"github.com/Gunvolt24/storefront-sync/internal/usecase"
	"github.com/Gunvolt24/storefront-sync/pkg/httpx"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Handler struct {
	service  ports.OrderReadService
	admin    ports.CacheAdmin
	streams  *streamDeps
	verifier *auth.Verifier
	log      ports.Logger
	timeout  time.Duration // 0 — без таймаута на обращение к сервису
}

type HandlerOption func(*Handler)

// WithCacheAdmin — включает ручное управление кэшем.
func WithCacheAdmin(admin ports.CacheAdmin) HandlerOption {
	return func(h *Handler) { h.admin = admin }
}

// WithAuth — проверка JWT; без неё авторизация выключена.
func WithAuth(v *auth.Verifier) HandlerOption {
	return func(h *Handler) { h.verifier = v }
}

func NewHandler(service ports.OrderReadService, log ports.Logger, timeout time.Duration, opts ...HandlerOption) *Handler {
	h := &Handler{service: service, log: log, timeout: timeout}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return c.Request.Context(), func() {}
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func (h *Handler) getOrderByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty id"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	order, err := h.service.GetOrder(ctx, id)
	if err != nil {
		h.fail(c, "GetOrder", id, err)
		return
	}
	// чужой заказ неотличим от отсутствующего
	if order == nil || !h.canReadOrder(c, order) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) canReadOrder(c *gin.Context, o *domain.OrderRecord) bool {
	if h.verifier == nil {
		return true
	}
	p := principal(c)
	return p.IsAdmin() || p.CanReadCustomer(o.CustomerID) || p.CanReadStores([]string{o.StoreID})
}

func (h *Handler) listCustomerOrders(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty customer id"})
		return
	}
	if !h.canReadCustomer(c, id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	orders, err := h.service.CustomerOrders(ctx, id)
	if err != nil {
		h.fail(c, "CustomerOrders", id, err)
		return
	}
	writePage(c, orders)
}

func (h *Handler) listStoreOrders(c *gin.Context) {
	storeIDs, ok := h.storeScope(c)
	if !ok {
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	orders, err := h.service.StoreOrders(ctx, storeIDs)
	if err != nil {
		h.fail(c, "StoreOrders", strings.Join(storeIDs, ","), err)
		return
	}
	writePage(c, orders)
}

// storeScope — магазины из ?store_id=a,b (параметр можно повторять);
// без параметра продавец получает все магазины из своего токена.
func (h *Handler) storeScope(c *gin.Context) ([]string, bool) {
	ids := usecase.NormalizeIDs(httpx.QueryList(c, "store_id"))
	if len(ids) == 0 {
		if p := principal(c); p != nil && p.Role == auth.RoleMerchant {
			ids = usecase.NormalizeIDs(p.StoreIDs)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store_id is required"})
		return nil, false
	}
	if !h.canReadStores(c, ids) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return ids, true
}

// writePage — окно списка по limit/offset; полный размер в X-Total-Count.
func writePage(c *gin.Context, orders []*domain.OrderRecord) {
	limit, offset := httpx.ParseLimitOffset(c, defaultListLimit, maxListLimit)
	lo, hi := httpx.Window(len(orders), limit, offset)
	c.Header("X-Total-Count", strconv.Itoa(len(orders)))
	page := orders[lo:hi]
	if page == nil {
		page = []*domain.OrderRecord{}
	}
	c.JSON(http.StatusOK, page)
}

type invalidateRequest struct {
	Tags []string `json:"tags" binding:"required,min=1"`
}

func (h *Handler) invalidateCache(c *gin.Context) {
	if h.admin == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "cache admin disabled"})
		return
	}
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tags are required"})
		return
	}
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tags are required"})
		return
	}
	h.admin.InvalidateTags(c.Request.Context(), tags)
	c.JSON(http.StatusOK, gin.H{"invalidated": tags})
}

func (h *Handler) clearCache(c *gin.Context) {
	if h.admin == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "cache admin disabled"})
		return
	}
	h.admin.ClearCache(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// fail — ответ на ошибку сервиса; подробности только в логе.
func (h *Handler) fail(c *gin.Context, op, id string, err error) {
	switch {
	case errors.Is(err, usecase.ErrEmptyScope):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		h.log.Warnf(c.Request.Context(), "%s timed out id=%s", op, id)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream timeout"})
	default:
		h.log.Errorf(c.Request.Context(), "%s failed id=%s err=%v", op, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
