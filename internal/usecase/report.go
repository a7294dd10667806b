package usecase

import (
	"go.uber.org/zap"

	"vocabtalk/internal/domain"
	"vocabtalk/internal/ports"
)

// Observer receives view-level counters.
type Observer interface {
	ObserveViewError(view domain.View, code domain.ErrorCode)
	ObserveTurn(role domain.Role)
}

// Option configures a controller.
type Option func(*reporter)

func WithLogger(logger *zap.Logger) Option {
	return func(r *reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(r *reporter) {
		r.observer = observer
	}
}

// reporter turns failures into view error events, log lines and counters.
type reporter struct {
	view     domain.View
	events   ports.EventSink
	logger   *zap.Logger
	observer Observer
}

func newReporter(view domain.View, events ports.EventSink, opts []Option) reporter {
	r := reporter{view: view, events: events, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&r)
	}
	r.logger = r.logger.With(zap.String("view", string(view)))
	return r
}

func (r reporter) fail(code domain.ErrorCode, err error) {
	r.logger.Warn("view action failed", zap.String("code", string(code)), zap.Error(err))
	if r.observer != nil {
		r.observer.ObserveViewError(r.view, code)
	}
	r.events.ViewError(r.view, code, err.Error())
}

// backendCode classifies a failed backend call; unknown errors count as network.
func backendCode(err error) domain.ErrorCode {
	if code := domain.CodeOf(err); code != domain.ErrorCodeUnknown {
		return code
	}
	return domain.ErrorCodeNetwork
}
