// Package ingress serves the inbound callback that delivers the second code
// fragment. It accepts deliveries from any caller at any time after start
// and forwards them to a ports.FragmentSink.
//
// There is no authentication, idempotency key or replay protection. A
// repeated delivery overwrites the previous one and is logged as a warning.
package ingress

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bft-labs/codeshake/internal/ports"
)

// DefaultCallbackPath is the route the callback is served on.
const DefaultCallbackPath = "/webhook"

const maxCallbackBytes = 64 << 10

var errTrailingData = errors.New("unexpected data after JSON object")

// CodePart is the callback body. Part2 is optional.
type CodePart struct {
	Part2 *string `json:"part2"`
}

// Ack is the response body for every callback.
type Ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Handler publishes callback payloads into a FragmentSink.
type Handler struct {
	sink   ports.FragmentSink
	logger ports.Logger
}

// NewHandler creates a callback handler.
func NewHandler(sink ports.FragmentSink, logger ports.Logger) *Handler {
	return &Handler{sink: sink, logger: logger}
}

// ServeHTTP decodes a CodePart and publishes its fragment. An absent or null
// part2, or an empty body, is published as an empty fragment; the driver
// rejects it when it resumes. A malformed body, or one with data after the
// JSON object, is refused and publishes nothing.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var part CodePart
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	err := dec.Decode(&part)
	if err == nil && dec.More() {
		err = errTrailingData
	}
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("rejected callback", ports.Err(err))
		writeJSON(w, http.StatusBadRequest, Ack{OK: false, Error: "invalid payload"})
		return
	}

	var fragment string
	if part.Part2 != nil {
		fragment = *part.Part2
	} else {
		h.logger.Warn("callback without part2")
	}

	if replaced := h.sink.Publish(fragment); replaced {
		h.logger.Warn("callback replaced an earlier delivery")
	}
	h.logger.Info("callback received",
		ports.Int("part2_len", len(fragment)),
		ports.String("request_id", middleware.GetReqID(r.Context())),
	)

	writeJSON(w, http.StatusOK, Ack{OK: true})
}

// NewRouter mounts the callback handler at callbackPath and a liveness probe
// at /healthz.
func NewRouter(callbackPath string, h *Handler) http.Handler {
	if callbackPath == "" {
		callbackPath = DefaultCallbackPath
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ack{OK: true})
	})
	r.Post(callbackPath, h.ServeHTTP)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
