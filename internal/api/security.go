package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/thriftease/marketplace/internal/domain/auth"
)

// identityKey is the context key for the authenticated identity.
type identityKey struct{}

// IdentityFrom extracts the authenticated identity from the context. The
// zero Identity is returned when authentication did not run.
func IdentityFrom(ctx context.Context) auth.Identity {
	if id, ok := ctx.Value(identityKey{}).(auth.Identity); ok {
		return id
	}
	return auth.Identity{}
}

// Security authenticates requests via HMAC-SHA256 hashed API keys. The
// resulting Identity (user id and role) is trusted by every handler; no
// further identity checks happen downstream.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security with the given API key repository and HMAC
// pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{apikeys: apikeys, pepper: pepper}
}

// Authenticate validates an API key: it computes the HMAC-SHA256 of the key,
// looks it up, and performs a constant-time comparison to prevent timing
// attacks.
func (s *Security) Authenticate(ctx context.Context, apiKey string) (auth.Identity, bool) {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(apiKey))
	hash := mac.Sum(nil)

	info, err := s.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return auth.Identity{}, false
	}

	// Constant-time comparison guards against timing side-channels even
	// though the lookup already succeeded — the stored hash could differ
	// from what we computed if the repository returns a stale/wrong row.
	storedBytes, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return auth.Identity{}, false
	}
	if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
		return auth.Identity{}, false
	}

	return auth.Identity{UserID: info.UserID, Role: info.Role}, true
}

// Middleware rejects requests without a valid X-API-Key header and stores
// the authenticated identity in the request context.
func (s *Security) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			respondError(w, http.StatusUnauthorized, "missing api key")
			return
		}

		identity, ok := s.Authenticate(r.Context(), apiKey)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin responds 403 and returns false unless the caller holds the
// admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !IdentityFrom(r.Context()).IsAdmin() {
		respondError(w, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}
