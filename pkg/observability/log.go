package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug line on a structured logger.
// It implements FamilyHooks, CacheHooks and HTTPHooks.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks creates hooks that write to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnLoad(_ context.Context, familyID string, nodeCount int, d time.Duration, err error) {
	h.logger.Debug("family loaded", "family", familyID, "nodes", nodeCount, "took", d, "err", err)
}

func (h *LogHooks) OnUnlink(_ context.Context, familyID, patientID string, removed int, d time.Duration, err error) {
	h.logger.Debug("patient unlinked", "family", familyID, "patient", patientID, "removed", removed, "took", d, "err", err)
}

func (h *LogHooks) OnImage(_ context.Context, familyID string, cached bool, d time.Duration, err error) {
	h.logger.Debug("image served", "family", familyID, "cached", cached, "took", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Info("request", "method", method, "route", route, "status", status, "took", d)
}

var (
	_ FamilyHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
)
