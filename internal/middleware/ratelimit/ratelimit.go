// Package ratelimit limits write requests per client with a fixed window.
package ratelimit

import (
	"math"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"
)

// Limiter counts requests per client key within fixed windows.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time

	limit   int
	span    time.Duration
	sweep   time.Duration
	methods []string
}

type window struct {
	start time.Time
	count int
}

// Config holds rate limiter configuration. Zero fields take the defaults.
type Config struct {
	RequestsPerMinute int
	// Window is the length of one counting window.
	Window          time.Duration
	CleanupInterval time.Duration
	// Methods are the limited request methods; others pass through.
	Methods []string
}

// DefaultConfig returns the defaults: 60 POSTs per minute per client.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		Window:            time.Minute,
		CleanupInterval:   5 * time.Minute,
		Methods:           []string{http.MethodPost},
	}
}

// NewLimiter starts a limiter and its sweeper. Call Stop when done.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if len(cfg.Methods) == 0 {
		cfg.Methods = def.Methods
	}

	rl := &Limiter{
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
		now:     time.Now,
		limit:   cfg.RequestsPerMinute,
		span:    cfg.Window,
		sweep:   cfg.CleanupInterval,
		methods: cfg.Methods,
	}
	go rl.sweepLoop()
	return rl
}

// Allow records a request from key and reports whether it fits the window.
func (rl *Limiter) Allow(key string) bool {
	ok, _ := rl.take(key)
	return ok
}

// take is Allow that also returns how long until the key's window resets.
func (rl *Limiter) take(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.span {
		w = &window{start: now}
		rl.windows[key] = w
	}
	w.count++
	return w.count <= rl.limit, w.start.Add(rl.span).Sub(now)
}

func (rl *Limiter) sweepLoop() {
	ticker := time.NewTicker(rl.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.forgetIdle()
		case <-rl.stop:
			return
		}
	}
}

// forgetIdle drops keys whose window started more than ten windows ago.
func (rl *Limiter) forgetIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-10 * rl.span)
	for key, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, key)
		}
	}
}

// ActiveClients returns the number of tracked keys.
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware limits the configured methods per key(r). Rejected requests get
// a Retry-After header with the seconds left in the window and are passed to
// onLimit, or answered with a plain 429 when onLimit is nil.
func (rl *Limiter) Middleware(key func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(rl.methods, r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ok, reset := rl.take(key(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}
