package lifecycle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/Proton-105/fish-shop-bot/internal/health"
)

// Probes serves liveness and readiness endpoints. Readiness runs the
// dependency checks; liveness only reports that the process is serving and
// not shutting down.
type Probes struct {
	checker  *health.Checker
	draining atomic.Bool
	log      *slog.Logger
}

// NewProbes creates a new Probes instance.
func NewProbes(checker *health.Checker, log *slog.Logger) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{checker: checker, log: log}
}

// Drain makes readiness fail so traffic moves away before shutdown.
func (p *Probes) Drain() {
	p.draining.Store(true)
}

type probeResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (p *Probes) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeProbe(w, http.StatusOK, probeResponse{Status: "ok"})
}

func (p *Probes) Readiness(w http.ResponseWriter, r *http.Request) {
	if p.draining.Load() {
		writeProbe(w, http.StatusServiceUnavailable, probeResponse{Status: "draining"})
		return
	}

	results, healthy := p.check(r.Context())
	if !healthy {
		p.log.Warn("readiness probe failed", slog.Any("components", results))
		writeProbe(w, http.StatusServiceUnavailable, probeResponse{Status: "unavailable", Components: results})
		return
	}

	writeProbe(w, http.StatusOK, probeResponse{Status: "ok", Components: results})
}

func (p *Probes) check(ctx context.Context) (map[string]string, bool) {
	if p.checker == nil {
		return nil, true
	}
	return p.checker.Check(ctx)
}

func writeProbe(w http.ResponseWriter, status int, body probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
