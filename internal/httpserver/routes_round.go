// internal/httpserver/routes_round.go
//
// HTTP routes for playing a round. These are the presentation-layer inputs:
//   - POST /round/new               → onRoundStart (new grid, new token)
//   - GET  /round                   → grid, selection, found words, phase, elapsed
//   - POST /round/start             → explicit start of the round timer
//   - POST /round/reset             → regenerate the grid, clear progress
//   - POST /round/selection/start   → onSelectionStart(coord)
//   - POST /round/selection/extend  → onSelectionExtend(coord)
//   - POST /round/selection/end     → onSelectionEnd(), validates the drag
//   - GET  /round/events            → SSE: found / complete / tick
//
// A completed round stays complete until the client posts /round/reset,
// which the complete event names as its next step.
//
// Every call for a round runs inside store.Update, so a round sees its
// events one at a time in arrival order.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordsearch/internal/daily"
	"github.com/robalobadob/wordsearch/internal/events"
	"github.com/robalobadob/wordsearch/internal/game"
	"github.com/robalobadob/wordsearch/internal/store"
)

// mountRound registers all /round routes.
func (s *Server) mountRound() {
	s.r.Route("/round", func(r chi.Router) {
		r.With(chimw.Timeout(10*time.Second), jsonContentType).Post("/new", s.handleNewRound)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRound)
			// no timeout: the stream lives as long as the client
			r.Get("/events", s.handleEvents)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(10 * time.Second))
				r.Use(jsonContentType)
				r.Get("/", s.handleGetRound)
				r.Post("/start", s.handleStart)
				r.Post("/reset", s.handleReset)
				r.Post("/selection/start", s.handleSelectionStart)
				r.Post("/selection/extend", s.handleSelectionExtend)
				r.Post("/selection/end", s.handleSelectionEnd)
			})
		})
	})
}

// -----------------------------------------------------------------------------
// payloads

// roundView is the full client-facing state of a round.
type roundView struct {
	RoundID        string                  `json:"roundId"`
	Daily          string                  `json:"daily,omitempty"`
	Size           int                     `json:"size"`
	Grid           []string                `json:"grid"`
	Words          []string                `json:"words"`
	Found          []string                `json:"found"`
	FoundCells     map[string][]game.Coord `json:"foundCells"`
	Selection      []game.Coord            `json:"selection"`
	Phase          game.Phase              `json:"phase"`
	ElapsedSeconds float64                 `json:"elapsedSeconds"`
	Timings        []float64               `json:"timings"`
	Unplaced       []string                `json:"unplaced,omitempty"`
	Summary        *summaryJSON            `json:"summary,omitempty"`
}

type summaryJSON struct {
	Words          int     `json:"words"`
	TotalSeconds   float64 `json:"totalSeconds"`
	AverageSeconds float64 `json:"averageSeconds"`
}

type newRoundReq struct {
	Daily bool `json:"daily"`
}

type newRoundRes struct {
	Token string `json:"token"`
	roundView
}

type selectionRes struct {
	Accepted  bool         `json:"accepted"`
	Selection []game.Coord `json:"selection"`
}

type selectionEndRes struct {
	Letters      string       `json:"letters"`
	Word         string       `json:"word,omitempty"`
	Matched      bool         `json:"matched"`
	AlreadyFound bool         `json:"alreadyFound,omitempty"`
	Cells        []game.Coord `json:"cells,omitempty"`
	Found        []string     `json:"found"`
	Phase        game.Phase   `json:"phase"`
	Complete     bool         `json:"complete"`
	Summary      *summaryJSON `json:"summary,omitempty"`
	Next         string       `json:"next,omitempty"`
}

// foundEvent is the audio cue payload.
type foundEvent struct {
	Word  string       `json:"word"`
	Cells []game.Coord `json:"cells"`
}

// completeEvent carries the round summary. Once the client has shown it,
// posting to Next (POST /round/reset) plays a new grid on the same token.
type completeEvent struct {
	summaryJSON
	Next string `json:"next"`
}

type tickEvent struct {
	ElapsedSeconds int `json:"elapsedSeconds"`
}

func toSummaryJSON(sm game.Summary) *summaryJSON {
	return &summaryJSON{
		Words:          sm.Words,
		TotalSeconds:   sm.Total.Seconds(),
		AverageSeconds: sm.Average.Seconds(),
	}
}

func viewOf(rd *game.Round, dateKey string) roundView {
	timings := rd.Timings()
	secs := make([]float64, len(timings))
	for i, d := range timings {
		secs[i] = d.Seconds()
	}
	v := roundView{
		RoundID:        rd.ID,
		Daily:          dateKey,
		Size:           rd.Size(),
		Grid:           rd.Grid().Rows(),
		Words:          rd.Words(),
		Found:          nonNil(rd.Found()),
		FoundCells:     rd.FoundPlacements(),
		Selection:      nonNilCoords(rd.Selection()),
		Phase:          rd.Phase(),
		ElapsedSeconds: rd.Elapsed().Seconds(),
		Timings:        secs,
		Unplaced:       rd.Unplaced(),
	}
	if sm, ok := rd.Summary(); ok {
		v.Summary = toSummaryJSON(sm)
	}
	return v
}

// -----------------------------------------------------------------------------
// /round/new

// handleNewRound generates a new round and hands back its token. A round
// referenced by the caller's existing token is discarded.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	if tok := s.bearerOrCookie(r); tok != "" {
		if old, err := s.parseRoundToken(tok); err == nil {
			s.timers.stop(old.RoundID)
			_ = s.store.Delete(r.Context(), old.RoundID)
		}
	}

	opts := []game.Option{game.WithClock(s.now), game.WithStraightLines(s.cfg.StraightLines)}
	dateKey := ""
	if req.Daily {
		now := s.now()
		dateKey = daily.DateKey(now)
		opts = append(opts, game.WithRand(daily.Rand(now, s.cfg.DailySalt)))
	}
	rd := game.NewRound(s.cfg.Words, s.cfg.GridSize, opts...)
	if un := rd.Unplaced(); len(un) > 0 {
		log.Warn().Str("roundId", rd.ID).Strs("words", un).Msg("words could not be placed")
	}
	tok, exp, err := s.signRoundToken(rd.ID, dateKey)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	// the round is unreachable once its token expires
	if err := s.store.Save(r.Context(), rd, exp); err != nil {
		log.Error().Err(err).Msg("save round")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setRoundCookie(w, tok, exp)
	log.Info().Str("roundId", rd.ID).Str("daily", dateKey).Msg("round created")

	writeJSON(w, newRoundRes{Token: tok, roundView: viewOf(rd, dateKey)})
}

// -----------------------------------------------------------------------------
// /round, /round/start, /round/reset

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	var v roundView
	err := s.store.Update(r.Context(), c.RoundID, func(rd *game.Round) error {
		v = viewOf(rd, c.Daily)
		return nil
	})
	if err != nil {
		writeRoundErr(w, err)
		return
	}
	writeJSON(w, v)
}

// handleStart starts the round clock without waiting for the first find.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	var v roundView
	err := s.store.Update(r.Context(), c.RoundID, func(rd *game.Round) error {
		rd.Start()
		v = viewOf(rd, c.Daily)
		return nil
	})
	if err != nil {
		writeRoundErr(w, err)
		return
	}
	if v.Phase == game.PhaseRunning {
		s.startTimer(c)
	}
	writeJSON(w, v)
}

// handleReset regenerates the grid. A daily round regenerates the same
// daily grid.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	s.timers.stop(c.RoundID)

	var v roundView
	err := s.store.Update(r.Context(), c.RoundID, func(rd *game.Round) error {
		if day, err := time.Parse("2006-01-02", c.Daily); err == nil {
			rd.ResetWith(daily.Rand(day, s.cfg.DailySalt))
		} else {
			rd.Reset()
		}
		v = viewOf(rd, c.Daily)
		return nil
	})
	if err != nil {
		writeRoundErr(w, err)
		return
	}
	log.Info().Str("roundId", c.RoundID).Msg("round reset")
	writeJSON(w, v)
}

// -----------------------------------------------------------------------------
// /round/selection/*

func (s *Server) handleSelectionStart(w http.ResponseWriter, r *http.Request) {
	var at game.Coord
	if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	c := claimsFrom(r)
	var res selectionRes
	err := s.store.Update(r.Context(), c.RoundID, func(rd *game.Round) error {
		if err := rd.BeginSelection(at); err != nil {
			return err
		}
		res = selectionRes{Accepted: true, Selection: rd.Selection()}
		return nil
	})
	if err != nil {
		writeRoundErr(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleSelectionExtend(w http.ResponseWriter, r *http.Request) {
	var at game.Coord
	if err := json.NewDecoder(r.Body).Decode(&at); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	c := claimsFrom(r)
	var res selectionRes
	err := s.store.Update(r.Context(), c.RoundID, func(rd *game.Round) error {
		ok, err := rd.ExtendSelection(at)
		if err != nil {
			return err
		}
		res = selectionRes{Accepted: ok, Selection: nonNilCoords(rd.Selection())}
		return nil
	})
	if err != nil {
		writeRoundErr(w, err)
		return
	}
	writeJSON(w, res)
}

// handleSelectionEnd closes the drag, validates it and fires the found /
// complete notifications.
func (s *Server) handleSelectionEnd(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	var res selectionEndRes
	err := s.store.Update(r.Context(), c.RoundID, func(rd *game.Round) error {
		out := rd.EndSelection()
		res = selectionEndRes{
			Letters:      out.Letters,
			Word:         out.Word,
			Matched:      out.Matched,
			AlreadyFound: out.AlreadyFound,
			Found:        nonNil(rd.Found()),
			Phase:        rd.Phase(),
			Complete:     out.Complete,
		}
		if out.Matched {
			res.Cells, _ = rd.Placement(out.Word)
		}
		if out.Summary != nil {
			res.Summary = toSummaryJSON(*out.Summary)
			res.Next = "/round/reset"
		}
		return nil
	})
	if err != nil {
		writeRoundErr(w, err)
		return
	}

	if res.Matched {
		log.Info().Str("roundId", c.RoundID).Str("word", res.Word).Msg("word found")
		s.notify(c.RoundID, events.Event{Name: events.NameFound, Data: foundEvent{Word: res.Word, Cells: res.Cells}})
		if res.Phase == game.PhaseRunning {
			s.startTimer(c)
		}
	}
	if res.Complete {
		s.timers.stop(c.RoundID)
		log.Info().
			Str("roundId", c.RoundID).
			Float64("totalSeconds", res.Summary.TotalSeconds).
			Float64("averageSeconds", res.Summary.AverageSeconds).
			Msg("round complete")
		s.notify(c.RoundID, events.Event{Name: events.NameComplete, Data: completeEvent{summaryJSON: *res.Summary, Next: res.Next}})
	}
	writeJSON(w, res)
}

// -----------------------------------------------------------------------------
// /round/events

// handleEvents streams round events. A running round whose timer parked
// for lack of listeners gets it back here.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c := claimsFrom(r)
	running := false
	err := s.store.Update(r.Context(), c.RoundID, func(rd *game.Round) error {
		running = rd.Phase() == game.PhaseRunning
		return nil
	})
	if err != nil {
		writeRoundErr(w, err)
		return
	}
	if running {
		s.startTimer(c)
	}
	s.hub.ServeSSE(w, r, c.RoundID)
}

// -----------------------------------------------------------------------------
// helpers

// startTimer begins the one-second tick for a running round. A round that
// already has a timer keeps it. The timer ends when the round stops
// running, when its token expires (the round is dropped too), or after
// cfg.IdleTicks ticks in a row with nobody listening.
func (s *Server) startTimer(c *roundClaims) {
	roundID := c.RoundID
	var exp time.Time
	if c.ExpiresAt != nil {
		exp = c.ExpiresAt.Time
	}
	idle := 0
	s.timers.start(s.ctx, roundID, func(ctx context.Context) bool {
		if !exp.IsZero() && s.now().After(exp) {
			_ = s.store.Delete(ctx, roundID)
			log.Debug().Str("roundId", roundID).Msg("round expired")
			return false
		}
		if s.hub.ClientCount(roundID) == 0 {
			idle++
			return idle < s.cfg.IdleTicks
		}
		idle = 0

		var elapsed time.Duration
		running := false
		err := s.store.Update(ctx, roundID, func(rd *game.Round) error {
			running = rd.Phase() == game.PhaseRunning
			elapsed = rd.Elapsed()
			return nil
		})
		if err != nil || !running {
			return false
		}
		s.notify(roundID, events.Event{Name: events.NameTick, Data: tickEvent{ElapsedSeconds: int(elapsed / time.Second)}})
		return true
	})
}

// notify publishes an event. Delivery failures never touch round state.
func (s *Server) notify(roundID string, ev events.Event) {
	err := s.hub.Publish(roundID, ev)
	switch {
	case err == nil:
	case errors.Is(err, events.ErrNoListeners):
		log.Debug().Str("roundId", roundID).Str("event", ev.Name).Msg("no listeners")
	default:
		log.Warn().Err(err).Str("roundId", roundID).Str("event", ev.Name).Msg("notify")
	}
}

// writeRoundErr maps store/game errors to JSON HTTP errors.
func writeRoundErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	case errors.Is(err, game.ErrOutOfBounds):
		http.Error(w, `{"error":"out_of_bounds"}`, http.StatusBadRequest)
	case errors.Is(err, game.ErrRoundComplete):
		http.Error(w, `{"error":"round_complete"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("round update")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilCoords(s []game.Coord) []game.Coord {
	if s == nil {
		return []game.Coord{}
	}
	return s
}
