package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config"
	"github.com/Toasterson/bastel-project-webhookinator/constants"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/accesslog"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/log"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/metrics"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/script"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/tracing"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/tracing/instrumentations"
	"github.com/Toasterson/bastel-project-webhookinator/proxy"
	"github.com/Toasterson/bastel-project-webhookinator/proxy/middlewares"
	"github.com/Toasterson/bastel-project-webhookinator/status"
	"github.com/Toasterson/bastel-project-webhookinator/status/health"
	"github.com/Toasterson/bastel-project-webhookinator/utils"
	"github.com/Toasterson/bastel-project-webhookinator/worker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrApplicationStarted = errors.New("already started")
	ErrApplicationStopped = errors.New("already stopped")
)

// Banner receives the startup summary.
var Banner io.Writer = os.Stdout

type Application struct {
	nodeID string

	cfg *config.Config

	mux     sync.Mutex
	started bool

	stop     chan struct{}
	stopOnce sync.Once

	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	tracer  *tracing.Tracer

	status  *status.Status
	gateway *proxy.Gateway
	worker  *worker.Worker
}

func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		nodeID: utils.UUID(),
		cfg:    cfg,
		stop:   make(chan struct{}),
	}

	err := app.initialize()
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) initialize() error {
	cfg := app.cfg

	log, err := log.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}
	app.log = log

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		app.log.Error(err)
	}))

	// tracing
	tracer, err := tracing.New(&cfg.Tracing)
	if err != nil {
		return err
	}
	app.tracer = tracer

	app.metrics, err = metrics.New(cfg.Metrics)
	if err != nil {
		return err
	}

	// worker
	app.worker, err = worker.NewWorker(cfg.Worker, cfg.Script, worker.Options{
		Metrics: app.metrics,
		Tracer:  tracer,
	})
	if err != nil {
		return err
	}

	// gateway
	opts := proxy.Options{
		Listen:    cfg.Listen,
		Evaluator: app.worker,
	}
	if cfg.AccessLog.Enabled {
		accessLogger, err := app.newAccessLogger("proxy")
		if err != nil {
			return err
		}
		opts.Middlewares = append(opts.Middlewares, accesslog.NewMiddleware(accessLogger))
	}
	if app.tracer.Enabled() {
		opts.Middlewares = append(opts.Middlewares,
			otelhttp.NewMiddleware("api.proxy"),
			instrumentations.NewInstrumentedMux(app.tracer).Handle,
		)
	}
	if app.metrics.Enabled {
		opts.Middlewares = append(opts.Middlewares, middlewares.NewMetricsMiddleware(app.metrics).Handle)
	}
	app.gateway = proxy.NewGateway(opts)

	if cfg.Status.IsEnabled() {
		var accessLogger accesslog.AccessLogger
		if cfg.AccessLog.Enabled {
			accessLogger, err = app.newAccessLogger("status")
			if err != nil {
				return err
			}
		}
		app.status = status.NewStatus(cfg.Status, status.Options{
			NodeID:     app.nodeID,
			AccessLog:  accessLogger,
			Tracer:     app.tracer,
			Indicators: app.indicators(),
			Stats:      func() any { return app.worker.Stats() },
		})
	}

	return nil
}

func (app *Application) newAccessLogger(name string) (accesslog.AccessLogger, error) {
	return accesslog.NewAccessLogger(name, accesslog.Options{
		File:    app.cfg.AccessLog.File,
		Format:  string(app.cfg.AccessLog.Format),
		Colored: app.cfg.AccessLog.Colored,
	})
}

func (app *Application) indicators() []*health.Indicator {
	host := script.NewHost(script.Options{Timeout: time.Second})
	ping := script.NewSource("health", "body.ping === true")
	return []*health.Indicator{
		{
			Name: "worker",
			Check: func() error {
				if app.worker.Stats().Pool.Closed {
					return errors.New("worker pool is closed")
				}
				return nil
			},
		},
		{
			Name: "evaluation",
			Check: func() error {
				res, err := host.Evaluate(context.Background(), map[string]any{"ping": true}, ping)
				if err != nil {
					return err
				}
				if res != true {
					return fmt.Errorf("unexpected result: %v", res)
				}
				return nil
			},
		},
	}
}

func (app *Application) NodeID() string {
	return app.nodeID
}

func (app *Application) Config() *config.Config {
	return app.cfg
}

func (app *Application) Worker() *worker.Worker {
	return app.worker
}

func (app *Application) Gateway() *proxy.Gateway {
	return app.gateway
}

func (app *Application) Status() *status.Status {
	return app.status
}

// Start starts application. A listener that cannot be bound fails Start and
// leaves nothing running.
func (app *Application) Start() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if app.started {
		return ErrApplicationStarted
	}

	app.log.Infof("starting whinator %s", config.VERSION)

	if err := app.worker.Start(); err != nil {
		return err
	}
	if err := app.gateway.Start(); err != nil {
		_ = app.worker.Stop()
		return err
	}
	if app.status != nil {
		if err := app.status.Start(); err != nil {
			ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			_ = app.gateway.Stop(ctx)
			_ = app.worker.Stop()
			return err
		}
	}

	app.printBanner(Banner)
	app.started = true

	return nil
}

func (app *Application) printBanner(w io.Writer) {
	statusURL := "off"
	if app.status != nil {
		statusURL = utils.ListenAddrToURL(false, app.status.Addr().String())
	}
	_, _ = fmt.Fprintf(w, "whinator %s\n\n", config.VERSION)
	_, _ = fmt.Fprintf(w, "- Webhook URL: %s\n", utils.ListenAddrToURL(false, app.gateway.Addr().String()))
	_, _ = fmt.Fprintf(w, "- Status URL: %s\n", statusURL)
	_, _ = fmt.Fprintf(w, "- Script: %s\n\n", app.worker.Source().Name)
}

// Wait blocks until the application is stopped.
func (app *Application) Wait() {
	<-app.stop
}

// Stop stops accepting webhooks, lets in-flight evaluations finish and
// releases telemetry exporters.
func (app *Application) Stop() error {
	app.mux.Lock()
	defer app.mux.Unlock()

	if !app.started {
		return ErrApplicationStopped
	}

	app.log.Info("exiting 👋")

	defer func() {
		app.log.Info("exit")
		_ = app.log.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.gateway.Stop(gctx) })
	if app.status != nil {
		g.Go(func() error { return app.status.Stop(gctx) })
	}
	err := g.Wait()

	_ = app.worker.Stop()
	_ = app.metrics.Stop()
	_ = app.tracer.Stop()

	app.started = false
	app.stopOnce.Do(func() { close(app.stop) })

	return err
}
