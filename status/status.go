package status

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config/modules"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/accesslog"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/tracing"
	"github.com/Toasterson/bastel-project-webhookinator/status/health"
	"go.uber.org/zap"
)

type Status struct {
	api *API
	cfg *modules.StatusConfig
	s   *http.Server
	log *zap.SugaredLogger

	mux      sync.Mutex
	listener net.Listener
	wait     sync.WaitGroup
}

type Options struct {
	NodeID     string
	AccessLog  accesslog.AccessLogger
	Tracer     *tracing.Tracer
	Indicators []*health.Indicator
	// Stats is reported under "worker" by the index endpoint.
	Stats func() any
}

func NewStatus(cfg modules.StatusConfig, opts Options) *Status {
	api := &API{
		startAt:        time.Now(),
		nodeID:         opts.NodeID,
		debugEndpoints: cfg.DebugEndpoints,
		healthTimeout:  cfg.HealthTimeoutDuration(),
		tracer:         opts.Tracer,
		accessLogger:   opts.AccessLog,
		indicators:     opts.Indicators,
		stats:          opts.Stats,
	}
	s := &http.Server{
		Handler:      api.Handler(),
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	status := &Status{
		api: api,
		cfg: &cfg,
		s:   s,
		log: zap.S().Named("status"),
	}

	return status
}

func (s *Status) Name() string {
	return "status"
}

func (s *Status) Start() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	l, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return errs.New(errs.KindBindAddress, fmt.Errorf("failed to listen on %q: %w", s.cfg.Listen, err))
	}
	s.listener = l

	s.wait.Add(1)
	go func() {
		defer s.wait.Done()
		if err := s.s.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorf("status HTTP server stopped: %v", err)
		}
	}()

	s.log.Infow(fmt.Sprintf(`listening on address "%s"`, l.Addr()))

	if s.cfg.DebugEndpoints {
		s.log.Infow("serving debug endpoints at /debug", "pprof", "/debug/pprof/")
	}
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Status) Addr() net.Addr {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Status) Stop(ctx context.Context) error {
	if s.Addr() == nil {
		return nil
	}
	s.log.Infof("exiting")
	if err := s.s.Shutdown(ctx); err != nil {
		return err
	}
	s.wait.Wait()
	s.log.Infof("exit")
	return nil
}
