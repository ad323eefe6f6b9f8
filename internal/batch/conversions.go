// Package batch adapts query-string endpoints to HTTP handlers and lets a
// client run several of them in one request.
package batch

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/EmpoweredVote/fairlending-api/internal/httputil"
	"go.uber.org/zap"
)

// ErrBadRequest marks errors that should be reported as HTTP 400.
var ErrBadRequest = errors.New("bad request")

type badRequest struct{ msg string }

func (e badRequest) Error() string        { return e.msg }
func (e badRequest) Is(target error) bool { return target == ErrBadRequest }

// BadRequest returns an error carrying a client-facing message.
func BadRequest(msg string) error { return badRequest{msg: msg} }

// Params are the request's query parameters, first value per key.
type Params map[string]string

// Get returns "" for absent keys.
func (p Params) Get(key string) string { return p[key] }

// ParamsFromQuery flattens url.Values into Params.
func ParamsFromQuery(q url.Values) Params {
	p := make(Params, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			p[k] = vs[0]
		}
	}
	return p
}

// Endpoint computes a JSON-able result from query parameters.
type Endpoint func(ctx context.Context, p Params) (any, error)

// UseGETIn serves fn with the request's query string as input.
func UseGETIn(fn Endpoint, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := fn(r.Context(), ParamsFromQuery(r.URL.Query()))
		if err != nil {
			writeError(w, r, err, log)
			return
		}
		httputil.WriteJSON(w, result)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error, log *zap.Logger) {
	if errors.Is(err, ErrBadRequest) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Error("endpoint failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

