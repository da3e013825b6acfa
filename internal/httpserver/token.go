package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// roundClaims identify the round a token grants access to.
// Daily is the date key of a daily round, empty for a random one.
type roundClaims struct {
	RoundID string `json:"rid"`
	Daily   string `json:"daily,omitempty"`
	jwt.RegisteredClaims
}

// ctxRoundKey is the context key type for storing *roundClaims.
type ctxRoundKey struct{}

// signRoundToken creates an HS256 JWT for a round.
func (s *Server) signRoundToken(roundID, daily string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.TokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, roundClaims{
		RoundID: roundID,
		Daily:   daily,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString([]byte(s.cfg.Secret))
	return ss, exp, err
}

// parseRoundToken verifies a token and returns its claims.
func (s *Server) parseRoundToken(tok string) (*roundClaims, error) {
	claims := &roundClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !t.Valid || claims.RoundID == "" {
		return nil, errors.New("invalid round token")
	}
	return claims, nil
}

// requireRound enforces a valid round token and injects its claims into the
// request context.
func (s *Server) requireRound(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := s.bearerOrCookie(r)
		if tok == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		claims, err := s.parseRoundToken(tok)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxRoundKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// claimsFrom returns the claims placed by requireRound.
func claimsFrom(r *http.Request) *roundClaims {
	c, _ := r.Context().Value(ctxRoundKey{}).(*roundClaims)
	return c
}

// bearerOrCookie extracts a bearer token from Authorization header or round cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// setRoundCookie writes the round token cookie with appropriate security attributes.
func (s *Server) setRoundCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
		Expires:  exp,
	})
}
