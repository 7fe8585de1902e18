// Package api exposes the scheduling service over HTTP/JSON for the customer
// date picker and the affiliate schedule editor.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"pickupsched/internal/schedule"
)

// Options tune the transport.
type Options struct {
	RequestsPerSecond float64
	Burst             int
}

type Server struct {
	svc     *schedule.Service
	logger  zerolog.Logger
	limiter *clientLimiter
	mux     *http.ServeMux
}

func NewServer(svc *schedule.Service, opts Options, logger zerolog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger.With().Str("component", "api").Logger(),
		mux:    http.NewServeMux(),
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = newClientLimiter(opts.RequestsPerSecond, opts.Burst)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	const base = "/api/v1/affiliates/{id}"

	s.handle("GET "+base+"/availability", "availability_range", s.handleAvailabilityRange)
	s.handle("GET "+base+"/availability/export", "availability_export", s.handleAvailabilityExport)
	s.handle("GET "+base+"/availability/{date}", "availability_day", s.handleAvailabilityDay)
	s.handle("GET "+base+"/calendar", "calendar", s.handleCalendar)

	s.handle("POST "+base+"/schedule", "enable_scheduling", s.handleEnableScheduling)
	s.handle("GET "+base+"/template", "template_get", s.handleGetTemplate)
	s.handle("PUT "+base+"/template", "template_put", s.handlePutTemplate)
	s.handle("GET "+base+"/exceptions", "exceptions_list", s.handleListExceptions)
	s.handle("PUT "+base+"/exceptions/{date}", "exception_put", s.handlePutException)
	s.handle("DELETE "+base+"/exceptions/{exceptionID}", "exception_delete", s.handleDeleteException)
	s.handle("GET "+base+"/settings", "settings_get", s.handleGetSettings)
	s.handle("PUT "+base+"/settings", "settings_put", s.handlePutSettings)
}

func (s *Server) handle(pattern, route string, h http.HandlerFunc) {
	s.mux.Handle(pattern, instrument(route, h))
}

// Handler returns the routed API with its middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.limiter != nil {
		h = s.limiter.middleware(h)
	}
	h = recovery(h)
	return requestLogger(s.logger)(h)
}
