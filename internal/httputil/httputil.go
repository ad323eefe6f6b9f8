package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

func WriteJSON(w http.ResponseWriter, v any) {
	WriteJSONStatus(w, http.StatusOK, v)
}

// WriteJSONStatus writes v as JSON with a specific HTTP status code.
func WriteJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// AddServerTiming appends a Server-Timing header entry per metric.
func AddServerTiming(w http.ResponseWriter, kv ...[2]string) {
	// kv: [][2]string{{"dbread","12.3"}}
	if len(kv) == 0 {
		return
	}
	parts := make([]string, 0, len(kv))
	for _, p := range kv {
		parts = append(parts, fmt.Sprintf("%s;dur=%s", p[0], p[1]))
	}
	w.Header().Add("Server-Timing", strings.Join(parts, ", "))
}

// Millis formats a duration for Server-Timing.
func Millis(d time.Duration) string {
	return fmt.Sprintf("%.1f", float64(d.Microseconds())/1000)
}

func AddCacheHeaders(w http.ResponseWriter, maxAge time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())))
	w.Header().Set("Vary", "Accept-Encoding")
}
