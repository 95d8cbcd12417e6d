package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/storefront-sync/pkg/httpx"
)

// Утилита для создания *gin.Context с query-строкой
func ctxWithQuery(rawQuery string) *gin.Context {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+rawQuery, http.NoBody)
	return c
}

func TestClampInt(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		v, lo, hi int
		want      int
	}{
		{"below_min", 0, 1, 10, 1},
		{"above_max", 11, 1, 10, 10},
		{"inside", 5, 1, 10, 5},
		{"equal_min", 1, 1, 10, 1},
		{"equal_max", 10, 1, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, httpx.ClampInt(tt.v, tt.lo, tt.hi))
		})
	}
}

func TestParseLimitOffset(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		rawQuery     string
		defaultLimit int
		maxLimit     int
		wantLimit    int
		wantOffset   int
	}{
		// без параметров
		{"defaults", "", 50, 200, 50, 0},
		{"default_above_max", "", 500, 200, 200, 0},
		{"default_zero", "", 0, 200, 1, 0},
		// корректные значения
		{"ok_both", "limit=25&offset=10", 50, 200, 25, 10},
		{"ok_only_offset", "offset=7", 50, 200, 50, 7},
		// клампинг limit
		{"limit_zero", "limit=0", 50, 200, 1, 0},
		{"limit_negative", "limit=-5", 50, 200, 1, 0},
		{"limit_above_max", "limit=999", 50, 200, 200, 0},
		// мусор
		{"limit_non_int", "limit=foo", 50, 200, 50, 0},
		{"offset_non_int", "offset=bar", 50, 200, 50, 0},
		{"offset_negative", "limit=10&offset=-3", 50, 200, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			limit, offset := httpx.ParseLimitOffset(ctxWithQuery(tt.rawQuery), tt.defaultLimit, tt.maxLimit)
			require.Equal(t, tt.wantLimit, limit, "limit, query=%q", tt.rawQuery)
			require.Equal(t, tt.wantOffset, offset, "offset, query=%q", tt.rawQuery)
		})
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                 string
		total, limit, offset int
		lo, hi               int
	}{
		{"first_page", 10, 3, 0, 0, 3},
		{"middle", 10, 3, 4, 4, 7},
		{"tail", 10, 3, 8, 8, 10},
		{"offset_past_end", 10, 3, 50, 10, 10},
		{"empty", 0, 50, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lo, hi := httpx.Window(tt.total, tt.limit, tt.offset)
			require.Equal(t, tt.lo, lo)
			require.Equal(t, tt.hi, hi)
		})
	}
}

func TestQueryList(t *testing.T) {
	t.Parallel()
	c := ctxWithQuery("store_id=a,b&store_id=c&store_id=,%20d%20,")
	require.Equal(t, []string{"a", "b", "c", "d"}, httpx.QueryList(c, "store_id"))
	require.Nil(t, httpx.QueryList(c, "missing"))
}
