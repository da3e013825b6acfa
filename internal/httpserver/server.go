// internal/httpserver/server.go
//
// HTTP server wiring for the word search backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Round endpoints: POST /round/new, then token-gated /round/* routes.
//   - The SSE event stream and the per-round one-second timer.
//   - A sweeper that drops rounds once their token has expired.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the round cookie works).
//   - Round tokens are HS256 JWTs; a round is only reachable by its token holder.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/internal/events"
	"github.com/robalobadob/wordsearch/internal/store"
)

// Config carries the static game and transport settings.
type Config struct {
	Words         []string      // target words, in match-priority order
	GridSize      int           // side length of the grid
	StraightLines bool          // restrict drags to straight lines
	Secret        string        // HS256 key for round tokens
	TokenTTL      time.Duration // round token lifetime
	DailySalt     string        // key for the daily grid seed
	ClientOrigin  string        // allowed CORS origin
	CookieName    string        // round token cookie
	SecureCookies bool          // Secure + SameSite=None cookies
	TickInterval  time.Duration // round timer period
	IdleTicks     int           // ticks with no listener before a timer parks
	SweepInterval time.Duration // how often expired rounds are dropped
}

func (c *Config) setDefaults() {
	if c.GridSize <= 0 {
		c.GridSize = 10
	}
	if c.Secret == "" {
		c.Secret = "dev_secret_change_me"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 24 * time.Hour
	}
	if c.DailySalt == "" {
		c.DailySalt = "local_dev_salt"
	}
	if c.ClientOrigin == "" {
		c.ClientOrigin = "http://localhost:5173"
	}
	if c.CookieName == "" {
		c.CookieName = "wordsearch_round"
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.IdleTicks <= 0 {
		c.IdleTicks = 60
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
}

// Server bundles router, round store, event hub and timers.
type Server struct {
	r      *chi.Mux
	cfg    Config
	store  store.Store
	hub    *events.Hub
	timers *roundTimers
	now    func() time.Time

	ctx    context.Context // parent of every round timer
	cancel context.CancelFunc
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, st store.Store, hub *events.Hub) *Server {
	cfg.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		r:      chi.NewRouter(),
		cfg:    cfg,
		store:  st,
		hub:    hub,
		timers: newRoundTimers(cfg.TickInterval),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"wordsearch-go","endpoints":["/health","POST /round/new","/round/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", s.handleDebugWords)
	})

	s.mountRound()
	go s.sweepLoop()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops every round timer and the sweeper.
func (s *Server) Close() { s.cancel() }

// sweepLoop drops expired rounds until the server closes.
func (s *Server) sweepLoop() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep(s.now())
		}
	}
}

// sweep removes rounds whose token expired before now, with their timers.
func (s *Server) sweep(now time.Time) int {
	gone := s.store.Sweep(s.ctx, now)
	for _, id := range gone {
		s.timers.stop(id)
	}
	if len(gone) > 0 {
		log.Debug().Int("rounds", len(gone)).Msg("expired rounds swept")
	}
	return len(gone)
}

// ServeHTTP lets the server be used directly as a handler (tests).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.r.ServeHTTP(w, r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ diagnostics --------------------------------

func (s *Server) handleDebugWords(w http.ResponseWriter, r *http.Request) {
	longest := 0
	for _, wd := range s.cfg.Words {
		if len(wd) > longest {
			longest = len(wd)
		}
	}
	writeJSON(w, map[string]any{
		"words":    len(s.cfg.Words),
		"longest":  longest,
		"gridSize": s.cfg.GridSize,
	})
}
