package scheduler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Service bundles the engine components behind a single constructor
// for hosts that do not need to wire Enqueuer, Dispatcher, Recorder,
// and Processor individually.
type Service struct {
	cfg       Config
	store     Store
	enqueuer  *Enqueuer
	processor *Processor
	logger    *slog.Logger
}

// New creates a fully wired scheduler service on top of the given store
func New(store Store, cfg Config, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	cfg = cfg.normalize()

	options := &serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	enqueuer, err := NewEnqueuer(store, WithEnqueuerLogger(logger))
	if err != nil {
		return nil, err
	}

	dispatcherOpts := []DispatcherOption{
		WithBaseURL(cfg.APIURL),
		WithSigningSecret(cfg.SigningSecret),
		WithDispatcherLogger(logger),
	}
	if options.client != nil {
		dispatcherOpts = append(dispatcherOpts, WithHTTPClient(options.client))
	}
	dispatcher := NewDispatcher(dispatcherOpts...)
	for endpoint, handler := range options.handlers {
		dispatcher.RegisterHandler(endpoint, handler)
	}

	rescheduler, err := NewRescheduler(store, logger)
	if err != nil {
		return nil, err
	}

	recorder, err := NewRecorder(store, rescheduler,
		WithErrorHooks(options.hooks...),
		WithRecorderLogger(logger))
	if err != nil {
		return nil, err
	}

	processor, err := NewProcessor(store, dispatcher, recorder,
		WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
		WithMaxConcurrent(cfg.MaxConcurrent),
		WithProcessorLogger(logger))
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:       cfg,
		store:     store,
		enqueuer:  enqueuer,
		processor: processor,
		logger:    logger,
	}, nil
}

// Enqueue schedules a new action
func (s *Service) Enqueue(ctx context.Context, req ActionRequest) (*Action, error) {
	return s.enqueuer.Enqueue(ctx, req)
}

// RunCycle performs one processing cycle over the currently due batch
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	return s.processor.Run(ctx)
}

// Summary returns the last persisted cycle summary
func (s *Service) Summary(ctx context.Context) (RunSummary, error) {
	return s.store.GetRunSummary(ctx)
}

// ServiceOption is a functional option for configuring a Service
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	handlers map[string]HandlerFunc
	hooks    []ErrorHook
	client   *http.Client
	logger   *slog.Logger
}

// WithAction registers a local action handler under the given endpoint
func WithAction(endpoint string, handler HandlerFunc) ServiceOption {
	return func(o *serviceOptions) {
		if o.handlers == nil {
			o.handlers = make(map[string]HandlerFunc)
		}
		o.handlers[endpoint] = handler
	}
}

// WithServiceErrorHooks registers hooks invoked on failure-class outcomes
func WithServiceErrorHooks(hooks ...ErrorHook) ServiceOption {
	return func(o *serviceOptions) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithServiceHTTPClient sets the HTTP client used for remote dispatch
func WithServiceHTTPClient(client *http.Client) ServiceOption {
	return func(o *serviceOptions) {
		o.client = client
	}
}

// WithLogger sets the logger used by every component
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
