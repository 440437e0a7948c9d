// Package httprpc hosts an actor's update/query methods as HTTP routes and
// dials other actors' methods as a client. It is the concrete instantiation
// of "the host platform's message-routing substrate" that spec.md §1 takes
// as an external, out-of-scope primitive.
package httprpc

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "governance_actor_requests_total",
		Help: "Requests served by an actor's httprpc host, by method.",
	},
	[]string{"method"},
)

func init() {
	prometheus.MustRegister(requestsTotal)
}

// HandlerFunc processes one method call's raw request body and returns the
// raw response body to send back.
type HandlerFunc func(r *http.Request, body []byte) ([]byte, error)

// Server hosts the methods registered on it (cmd/governd registers every
// actor's methods on one Server): every registered method becomes a route
// under its own name, grounded on the teacher's walletserver/routes.go +
// cmd/explorer/server.go route-registration idiom.
type Server struct {
	router *mux.Router
}

// NewServer builds an actor host with the logging middleware and a
// /metrics endpoint already wired in.
func NewServer() *Server {
	s := &Server{router: mux.NewRouter()}
	s.router.Use(LoggingMiddleware)
	s.router.Handle("/metrics", promhttp.Handler())
	return s
}

// Handle registers fn as the handler for method, reachable at POST
// /<method>.
func (s *Server) Handle(method string, fn HandlerFunc) {
	s.router.HandleFunc("/"+method, func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues(method).Inc()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		out, err := fn(r, body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/cbor")
		_, _ = w.Write(out)
	}).Methods(http.MethodPost)
}

// ListenAndServe blocks serving the actor's routes on addr.
func (s *Server) ListenAndServe(addr string) error {
	logrus.Infof("actor listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router exposes the underlying mux.Router for tests that want to drive
// requests through httptest without binding a real listener.
func (s *Server) Router() *mux.Router {
	return s.router
}
