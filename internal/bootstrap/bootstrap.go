package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/notewise/internal/config"
	"github.com/kirillkom/notewise/internal/core/domain"
	"github.com/kirillkom/notewise/internal/core/ports"
	"github.com/kirillkom/notewise/internal/core/usecase"
	"github.com/kirillkom/notewise/internal/infrastructure/classifier/huggingface"
	"github.com/kirillkom/notewise/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/notewise/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/notewise/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/notewise/internal/infrastructure/feed"
	"github.com/kirillkom/notewise/internal/infrastructure/queue/nats"
	"github.com/kirillkom/notewise/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/notewise/internal/infrastructure/repository/sqlite"
	"github.com/kirillkom/notewise/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config
	Origin string

	Repo     ports.NoteRepository
	Notes    ports.NoteService
	State    *feed.StateBox
	Bus      *feed.Bus
	Executor *resilience.Executor

	// Queue, QueueExecutor and Bulk are nil when no NATS URL is configured.
	Queue         *nats.Queue
	QueueExecutor *resilience.Executor
	Bulk          ports.BulkRecategorizer

	Exporter      ports.NoteExporter
	PDFExtractor  ports.TextExtractor
	TextExtractor ports.TextExtractor

	closeFn func()
}

type Option func(*options)

type options struct {
	role               string
	breakerObserver    resilience.StateObserver
	categorizeObserver CategorizationObserver
}

// WithRole prefixes the process origin carried on published note events.
func WithRole(role string) Option {
	return func(o *options) {
		o.role = role
	}
}

func WithBreakerObserver(observer resilience.StateObserver) Option {
	return func(o *options) {
		o.breakerObserver = observer
	}
}

func WithCategorizationObserver(observer CategorizationObserver) Option {
	return func(o *options) {
		o.categorizeObserver = observer
	}
}

func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{role: "notewise"}
	for _, opt := range opts {
		opt(&o)
	}
	origin := o.role + "-" + uuid.NewString()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	executor := resilience.NewExecutor(executorConfig(cfg))
	if o.breakerObserver != nil {
		executor.WithStateObserver(o.breakerObserver)
	}

	classifier := huggingface.NewWithOptions(cfg.ClassifierURL, cfg.ClassifierModel, cfg.ClassifierToken, huggingface.Options{
		ResilienceExecutor: executor,
	})

	state := feed.NewStateBox()
	bus := feed.NewBus()

	var categorizer ports.NoteCategorizer = usecase.NewCategorizeUseCase(classifier, state, usecase.CategoryPolicy{
		Threshold: cfg.CategoryThreshold,
		MaxLabels: cfg.CategoryMaxLabels,
		Fallback:  cfg.CategoryFallback,
	})
	if o.categorizeObserver != nil {
		categorizer = observeCategorizer(categorizer, o.categorizeObserver)
	}

	var (
		queue         *nats.Queue
		queueExecutor *resilience.Executor
		bulk          ports.BulkRecategorizer
	)
	noteOpts := []usecase.NoteOption{}
	if cfg.NATSURL != "" {
		queueExecutor = resilience.NewExecutor(resilience.DefaultConfig())
		if o.breakerObserver != nil {
			queueExecutor.WithStateObserver(o.breakerObserver)
		}
		queue, err = nats.NewWithOptions(cfg.NATSURL, queueOptions(cfg, origin, queueExecutor))
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		noteOpts = append(noteOpts, usecase.WithEventPublisher(queue, origin))
		bulk = usecase.NewRecategorizeAllUseCase(repo, queue)
	}

	notes := usecase.NewNoteUseCase(repo, categorizer, bus, noteOpts...)

	return &App{
		Config:   cfg,
		Origin:   origin,
		Repo:     repo,
		Notes:    notes,
		State:    state,
		Bus:      bus,
		Executor: executor,

		Queue:         queue,
		QueueExecutor: queueExecutor,
		Bulk:          bulk,

		Exporter:      xlsx.NewExporter(time.Local),
		PDFExtractor:  pdf.NewExtractor(0),
		TextExtractor: plaintext.NewExtractor(),

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			bus.Close()
			closeStore()
		},
	}, nil
}

// RelayRemoteEvents republishes note events from other processes onto the
// local bus so watchers see their changes. Without NATS it polls the shared
// store instead. It blocks until ctx is done.
func (a *App) RelayRemoteEvents(ctx context.Context) error {
	if a.Queue == nil {
		interval := time.Duration(a.Config.StorePollIntervalMS) * time.Millisecond
		return feed.NewStorePoller(a.Repo, a.Bus, interval).Run(ctx)
	}
	return a.Queue.SubscribeNoteEvents(ctx, a.Origin, a.Bus.Publish)
}

// ClassifierBreakerState reports the classifier circuit breaker state.
func (a *App) ClassifierBreakerState() gobreaker.State {
	return a.Executor.State(huggingface.ClassifyOperation)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func queueOptions(cfg config.Config, origin string, executor *resilience.Executor) nats.Options {
	return nats.Options{
		Name:                origin,
		EventsSubject:       cfg.NATSEventsSubject,
		RecategorizeSubject: cfg.NATSRecategorizeSubject,
		ResilienceExecutor:  executor,
	}
}

func executorConfig(cfg config.Config) resilience.Config {
	rc := resilience.NoRetryConfig()
	rc.BreakerEnabled = cfg.BreakerEnabled
	if cfg.BreakerMinRequests > 0 {
		rc.BreakerMinRequests = uint32(cfg.BreakerMinRequests)
	}
	if cfg.BreakerFailureRatio > 0 {
		rc.BreakerFailureRatio = cfg.BreakerFailureRatio
	}
	if cfg.BreakerOpenTimeoutSecs > 0 {
		rc.BreakerOpenTimeout = time.Duration(cfg.BreakerOpenTimeoutSecs) * time.Second
	}
	if cfg.BreakerHalfOpenMaxCalls > 0 {
		rc.BreakerHalfOpenMaxCalls = uint32(cfg.BreakerHalfOpenMaxCalls)
	}
	return rc
}

func openStore(ctx context.Context, cfg config.Config) (ports.NoteRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewNoteRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil
	case config.StoreSQLite, "":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := sqlite.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		repo := sqlite.NewNoteRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil
	default:
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "open store", fmt.Errorf("unknown store driver %q", cfg.StoreDriver))
	}
}
