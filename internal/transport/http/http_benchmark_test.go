//go:build !integration

package rest_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Gunvolt24/storefront-sync/internal/auth"
	"github.com/Gunvolt24/storefront-sync/internal/cache/tagged"
	"github.com/Gunvolt24/storefront-sync/internal/domain"
	"github.com/Gunvolt24/storefront-sync/internal/kvstore/memory"
	rest "github.com/Gunvolt24/storefront-sync/internal/transport/http"
	"github.com/Gunvolt24/storefront-sync/internal/usecase"
)

// benchSource — бэкенд, который отдаёт заранее собранные заказы.
type benchSource struct{ orders []*domain.OrderRecord }

func (s benchSource) GetOrder(_ context.Context, id string) (*domain.OrderRecord, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (s benchSource) ListCustomerOrders(context.Context, string) ([]*domain.OrderRecord, error) {
	return s.orders, nil
}

func (s benchSource) ListStoreOrders(context.Context, []string) ([]*domain.OrderRecord, error) {
	return s.orders, nil
}

func benchOrders(n int) []*domain.OrderRecord {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]*domain.OrderRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &domain.OrderRecord{
			ID:          "bench-" + strconv.Itoa(i),
			StoreID:     "s" + strconv.Itoa(i%3),
			CustomerID:  "bench-cust",
			Status:      domain.StatusPreparing,
			TotalAmount: decimal.RequireFromString("149.90"),
			CreatedAt:   ts.Add(time.Duration(i) * time.Minute),
			UpdatedAt:   ts,
		})
	}
	return out
}

// benchRouter — полный роутер поверх сервиса с тегированным кэшем в памяти.
func benchRouter(b *testing.B, n int, opts ...rest.HandlerOption) http.Handler {
	b.Helper()
	gin.SetMode(gin.ReleaseMode)
	cache := tagged.New(memory.NewStore(), noopLogger{})
	svc := usecase.NewOrderService(benchSource{orders: benchOrders(n)}, cache, noopLogger{}, time.Hour)
	h := rest.NewHandler(svc, noopLogger{}, 2*time.Second, opts...)
	return rest.NewRouter(h, "", "")
}

func serveGET(b *testing.B, r http.Handler, path string, header http.Header, want int) {
	b.Helper()
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			for k, v := range header {
				req.Header[k] = v
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			_, _ = io.Copy(io.Discard, w.Body)
			if w.Code != want {
				b.Fatalf("status=%d", w.Code)
			}
		}
	})
}

// Заказ из прогретого кэша: разбор записи кэша + маршалинг ответа.
func BenchmarkHTTP_GetOrder_CacheHit(b *testing.B) {
	r := benchRouter(b, 1)
	serveGET(b, r, "/orders/bench-0", nil, http.StatusOK)
}

// Окно списка покупателя: на каждый запрос декодируется весь список из кэша.
func BenchmarkHTTP_CustomerOrders_Window(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run("N="+strconv.Itoa(n), func(b *testing.B) {
			r := benchRouter(b, n)
			serveGET(b, r, "/customers/bench-cust/orders?limit=20&offset=5", nil, http.StatusOK)
		})
	}
}

func BenchmarkHTTP_StoreOrders_MultiStore(b *testing.B) {
	r := benchRouter(b, 100)
	serveGET(b, r, "/stores/orders?store_id=s0,s1&store_id=s2", nil, http.StatusOK)
}

// Цена проверки JWT на каждом запросе.
func BenchmarkHTTP_GetOrder_WithJWT(b *testing.B) {
	v, err := auth.NewVerifier(testSecret, testIssuer)
	if err != nil {
		b.Fatal(err)
	}
	tok, err := auth.Sign(testSecret, testIssuer,
		auth.Principal{Subject: "u1", CustomerID: "bench-cust", Role: auth.RoleCustomer}, time.Hour, time.Now())
	if err != nil {
		b.Fatal(err)
	}

	r := benchRouter(b, 1, rest.WithAuth(v))
	serveGET(b, r, "/orders/bench-0", http.Header{"Authorization": {"Bearer " + tok}}, http.StatusOK)
}

func BenchmarkHTTP_UnknownRoute(b *testing.B) {
	r := benchRouter(b, 0)
	serveGET(b, r, "/nope", nil, http.StatusNotFound)
}
