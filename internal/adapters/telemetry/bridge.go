package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*LogBridge)(nil)

// LogBridge implements sdktrace.SpanProcessor and reports finished node spans
// to a logger. Nodes that were skipped or verified are not reported.
type LogBridge struct {
	logger ports.Logger
}

// NewLogBridge returns a new LogBridge.
func NewLogBridge(logger ports.Logger) *LogBridge {
	return &LogBridge{logger: logger}
}

// OnStart does nothing.
func (b *LogBridge) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *LogBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	kind, state := nodeAttributes(s.Attributes())
	if kind == "" {
		return
	}

	elapsed := s.EndTime().Sub(s.StartTime()).Round(time.Millisecond)

	st := domain.NormalizeNodeState(state)

	if s.Status().Code == codes.Error || (st.IsTerminal() && !st.IsSuccess()) {
		b.logger.Warn(fmt.Sprintf("%s %s failed after %s: %s", kind, s.Name(), elapsed, s.Status().Description))
		return
	}

	if st == domain.NodeStateSucceeded {
		b.logger.Info(fmt.Sprintf("built %s in %s", s.Name(), elapsed))
	}
}

// nodeAttributes extracts the node kind and state set by the scheduler.
// Spans that do not belong to a node have an empty kind.
func nodeAttributes(attrs []attribute.KeyValue) (kind, state string) {
	for _, kv := range attrs {
		switch string(kv.Key) {
		case ports.AttrNodeKind:
			kind = kv.Value.AsString()
		case ports.AttrNodeState:
			state = kv.Value.AsString()
		}
	}
	return kind, state
}

// ForceFlush does nothing.
func (b *LogBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *LogBridge) Shutdown(context.Context) error {
	return nil
}
