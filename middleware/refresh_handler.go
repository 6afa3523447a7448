package middleware

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/MrEthical07/jwtauth"
)

// maxRefreshBody bounds the request body; a refresh token is well under 4 KiB.
const maxRefreshBody = 16 << 10

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RefreshHandler serves POST requests with body {"refresh_token": "..."} and answers with
// a new token pair. The remote address becomes the throttle key.
func RefreshHandler(svc *jwtauth.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}
		if svc == nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "not configured"})
			return
		}

		var req refreshRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRefreshBody))
		if err := dec.Decode(&req); err != nil || req.RefreshToken == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
			return
		}

		ctx := jwtauth.WithClientIP(r.Context(), remoteIP(r.RemoteAddr))
		res, err := svc.ExecuteRefreshToken(ctx, req.RefreshToken)
		if err != nil {
			status, msg := refreshStatus(err)
			writeJSON(w, status, errorResponse{Error: msg})
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, refreshResponse{
			AccessToken:  res.AccessToken,
			RefreshToken: res.RefreshToken,
		})
	})
}

func refreshStatus(err error) (int, string) {
	switch {
	case errors.Is(err, jwtauth.ErrRefreshRateLimited):
		return http.StatusTooManyRequests, "rate limited"
	case errors.Is(err, jwtauth.ErrTokenAlreadyUsed):
		return http.StatusUnauthorized, "token already used"
	case errors.Is(err, jwtauth.ErrVerification):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, jwtauth.ErrWrongTokenType):
		return http.StatusBadRequest, "wrong token type"
	case errors.Is(err, jwtauth.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
