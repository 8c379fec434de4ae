package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/Toasterson/bastel-project-webhookinator/constants"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/errs"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/http/middlewares"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/http/response"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Options struct {
	Listen      string
	Evaluator   Evaluator
	Middlewares []Middleware
}

// Gateway receives webhooks and answers them with the outcome of the
// evaluation.
type Gateway struct {
	listen    string
	log       *zap.SugaredLogger
	s         *http.Server
	evaluator Evaluator

	mux      sync.Mutex
	listener net.Listener
	wait     sync.WaitGroup
}

func NewGateway(opts Options) *Gateway {
	gw := &Gateway{
		listen:    opts.Listen,
		log:       zap.S().Named("proxy"),
		evaluator: opts.Evaluator,
	}

	gw.s = &http.Server{
		Handler:           gw.Handler(opts.Middlewares...),
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}

	return gw
}

// Handler returns the webhook router. Middlewares run inside the request id
// and recovery middlewares, in the order given.
func (gw *Gateway) Handler(mws ...Middleware) http.Handler {
	r := mux.NewRouter()
	r.Use(middlewares.RequestID)
	r.Use(middlewares.Recover(gw.recovered))
	for _, m := range mws {
		r.Use(mux.MiddlewareFunc(m))
	}
	r.HandleFunc("/", gw.Handle).Methods(http.MethodPost)
	return r
}

func (gw *Gateway) recovered(w http.ResponseWriter, _ *http.Request, err error) {
	response.Text(w, http.StatusInternalServerError, constants.ErrorMessagePrefix+err.Error())
}

func (gw *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := DecodePayload(r.Body)
	if err == nil {
		_, err = gw.evaluator.Evaluate(r.Context(), payload)
	}

	if err != nil {
		gw.log.Errorw("Failed to handle webhook",
			"kind", errs.KindOf(err),
			"error", err,
			"request_id", middlewares.RequestIDFromContext(r.Context()),
		)
		response.Text(w, http.StatusInternalServerError, constants.ErrorMessagePrefix+err.Error())
		return
	}

	response.Empty(w, http.StatusOK)
}

// DecodePayload reads a whole JSON document. Any JSON value is accepted,
// including scalars and null. Failures are payload errors.
func DecodePayload(body io.Reader) (any, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, errs.New(errs.KindPayload, fmt.Errorf("failed to read body: %w", err))
	}

	var payload any
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, errs.New(errs.KindPayload, err)
	}
	return payload, nil
}

// Start binds the listener and serves in the background. A listen failure is
// returned as a bind_address error.
func (gw *Gateway) Start() error {
	gw.mux.Lock()
	defer gw.mux.Unlock()

	if gw.listener != nil {
		return errors.New("already started")
	}

	l, err := net.Listen("tcp", gw.listen)
	if err != nil {
		return errs.New(errs.KindBindAddress, fmt.Errorf("failed to listen on %q: %w", gw.listen, err))
	}
	gw.listener = l

	gw.wait.Add(1)
	go func() {
		defer gw.wait.Done()
		if err := gw.s.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			gw.log.Errorw("server stopped", "error", errs.New(errs.KindTransport, err))
		}
	}()

	gw.log.Infof(`listening on address "%s"`, l.Addr())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (gw *Gateway) Addr() net.Addr {
	gw.mux.Lock()
	defer gw.mux.Unlock()
	if gw.listener == nil {
		return nil
	}
	return gw.listener.Addr()
}

// Stop stops accepting connections and waits for in-flight requests until
// ctx is done.
func (gw *Gateway) Stop(ctx context.Context) error {
	gw.mux.Lock()
	started := gw.listener != nil
	gw.mux.Unlock()
	if !started {
		return nil
	}

	gw.log.Info("exiting")
	if err := gw.s.Shutdown(ctx); err != nil {
		return err
	}
	gw.wait.Wait()
	gw.log.Info("exit")
	return nil
}
