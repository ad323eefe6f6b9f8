package batch

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/EmpoweredVote/fairlending-api/internal/httputil"
	"go.uber.org/zap"
)

// Registry maps the public endpoint names accepted by /batch to their
// implementations.
type Registry map[string]Endpoint

// Names lists the registered endpoints in sorted order.
func (reg Registry) Names() []string {
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler runs every ?endpoint= with the shared query parameters and returns
// one object keyed by endpoint name. Any 400 from an endpoint fails the batch.
func Handler(reg Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		endpoints := q["endpoint"]
		if len(endpoints) == 0 {
			http.Error(w, "Missing endpoint", http.StatusBadRequest)
			return
		}

		for _, name := range endpoints {
			if _, ok := reg[name]; !ok {
				http.Error(w, fmt.Sprintf("Unknown endpoint %q; expected one of %s",
					name, strings.Join(reg.Names(), ", ")), http.StatusBadRequest)
				return
			}
		}

		params := ParamsFromQuery(q)
		delete(params, "endpoint")

		out := make(map[string]any, len(endpoints))
		for _, name := range endpoints {
			if _, done := out[name]; done {
				continue
			}
			result, err := reg[name](r.Context(), params)
			if err != nil {
				writeError(w, r, err, log)
				return
			}
			out[name] = result
		}

		httputil.WriteJSON(w, out)
	}
}
