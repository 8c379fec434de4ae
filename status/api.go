package status

import (
	"net/http"
	"net/http/pprof"
	"runtime"
	"time"

	"github.com/Toasterson/bastel-project-webhookinator/config"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/accesslog"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/http/middlewares"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/http/response"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/tracing"
	"github.com/Toasterson/bastel-project-webhookinator/pkg/tracing/instrumentations"
	"github.com/Toasterson/bastel-project-webhookinator/status/health"
	"github.com/Toasterson/bastel-project-webhookinator/utils"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type API struct {
	startAt        time.Time
	nodeID         string
	debugEndpoints bool
	healthTimeout  time.Duration
	tracer         *tracing.Tracer
	accessLogger   accesslog.AccessLogger
	indicators     []*health.Indicator
	stats          func() any
}

func (api *API) Index(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Version: config.VERSION,
		NodeID:  api.nodeID,
		UpTime:  time.Since(api.startAt).Round(time.Second).String(),
		Runtime: RuntimeStats{
			Go:         runtime.Version(),
			Goroutines: runtime.NumGoroutine(),
			CPUs:       runtime.NumCPU(),
		},
		Memory: readMemoryStats(),
	}
	if api.stats != nil {
		resp.Worker = api.stats()
	}

	response.JSON(w, http.StatusOK, resp)
}

func (api *API) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:     health.StatusUp,
		Components: make(map[string]HealthResult),
	}
	for name, err := range health.Run(api.indicators, api.healthTimeout) {
		res := HealthResult{
			Status: health.StatusUp,
		}
		if err != nil {
			resp.Status = health.StatusDown

			res.Status = health.StatusDown
			res.Error = utils.Pointer(err.Error())
		}
		resp.Components[name] = res
	}

	if resp.Status != health.StatusUp {
		response.JSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	response.JSON(w, http.StatusOK, resp)
}

func (api *API) Handler() http.Handler {
	r := mux.NewRouter()

	if api.accessLogger != nil {
		r.Use(accesslog.NewMiddleware(api.accessLogger))
	}

	if api.tracer.Enabled() {
		r.Use(otelhttp.NewMiddleware("api.status"))
		r.Use(instrumentations.NewInstrumentedMux(api.tracer).Handle)
	}
	r.Use(middlewares.Recover(nil))

	r.HandleFunc("/", api.Index).Methods("GET")
	r.HandleFunc("/health", api.Health).Methods("GET")

	if api.debugEndpoints {
		r.HandleFunc("/debug/pprof/profile", pprof.Profile).Methods("GET")
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol).Methods("GET")
		r.HandleFunc("/debug/pprof/trace", pprof.Trace).Methods("GET")
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline).Methods("GET")
		r.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index).Methods("GET")
	}

	return r
}
