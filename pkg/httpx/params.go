package httpx

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClampInt — ограничение значения v в диапазоне [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ParseLimitOffset — limit/offset из query с дефолтами и границами.
// Нечисловой limit даёт значение по умолчанию, отрицательный offset — ноль.
func ParseLimitOffset(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = ClampInt(defaultLimit, 1, maxLimit)
	if v, err := strconv.Atoi(c.Query("limit")); err == nil {
		limit = ClampInt(v, 1, maxLimit)
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// Window — границы [lo, hi) страницы списка длины total.
func Window(total, limit, offset int) (lo, hi int) {
	lo = ClampInt(offset, 0, total)
	hi = ClampInt(lo+limit, lo, total)
	return lo, hi
}

// QueryList — значения повторяемого параметра, каждое ещё и через запятую:
// ?store_id=a,b&store_id=c → [a b c]. Пустые элементы отбрасываются.
func QueryList(c *gin.Context, name string) []string {
	var out []string
	for _, v := range c.QueryArray(name) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
