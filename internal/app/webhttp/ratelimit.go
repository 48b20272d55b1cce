package webhttp

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// submitLimiter ограничивает частоту отправок формы по ключу (сессия или адрес клиента).
// nil-лимитер пропускает все запросы.
type submitLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastPrune time.Time
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// newSubmitLimiter возвращает nil при perMinute <= 0: ограничение выключено.
func newSubmitLimiter(perMinute int) *submitLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &submitLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
		limiters: map[string]*limiterEntry{},
	}
}

// Allow списывает один токен из корзины ключа.
func (l *submitLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}

	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > limiterIdleTTL {
		l.pruneLocked(now)
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// pruneLocked выбрасывает корзины, которыми давно не пользовались.
func (l *submitLimiter) pruneLocked(now time.Time) {
	for key, e := range l.limiters {
		if now.Sub(e.seen) > limiterIdleTTL {
			delete(l.limiters, key)
		}
	}
	l.lastPrune = now
}

func (l *submitLimiter) retryAfter() time.Duration {
	if l == nil || l.limit <= 0 {
		return time.Second
	}
	return max(time.Duration(float64(time.Second)/float64(l.limit)), time.Second)
}

// Middleware отклоняет запросы сверх лимита обработчиком reject.
func (l *submitLimiter) Middleware(key func(*http.Request) string, reject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.Allow(key(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.retryAfter().Seconds())))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.burst))
			w.Header().Set("X-RateLimit-Remaining", "0")
			reject(w, r)
		})
	}
}
