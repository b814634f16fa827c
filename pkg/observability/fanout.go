package observability

import (
	"context"
	"time"
)

// Hooks implements every hook interface.
type Hooks interface {
	FamilyHooks
	CacheHooks
	HTTPHooks
}

// Fanout forwards each event to all of its hooks, in order.
type Fanout []Hooks

// SetAll registers h for family, cache and HTTP events.
func SetAll(h Hooks) {
	SetFamilyHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (f Fanout) OnLoad(ctx context.Context, familyID string, nodeCount int, d time.Duration, err error) {
	for _, h := range f {
		h.OnLoad(ctx, familyID, nodeCount, d, err)
	}
}

func (f Fanout) OnUnlink(ctx context.Context, familyID, patientID string, removed int, d time.Duration, err error) {
	for _, h := range f {
		h.OnUnlink(ctx, familyID, patientID, removed, d, err)
	}
}

func (f Fanout) OnImage(ctx context.Context, familyID string, cached bool, d time.Duration, err error) {
	for _, h := range f {
		h.OnImage(ctx, familyID, cached, d, err)
	}
}

func (f Fanout) OnCacheHit(ctx context.Context, keyType string) {
	for _, h := range f {
		h.OnCacheHit(ctx, keyType)
	}
}

func (f Fanout) OnCacheMiss(ctx context.Context, keyType string) {
	for _, h := range f {
		h.OnCacheMiss(ctx, keyType)
	}
}

func (f Fanout) OnCacheSet(ctx context.Context, keyType string, size int) {
	for _, h := range f {
		h.OnCacheSet(ctx, keyType, size)
	}
}

func (f Fanout) OnRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	for _, h := range f {
		h.OnRequest(ctx, method, route, status, d)
	}
}

var _ Hooks = Fanout(nil)
