package api

import (
	"github.com/okian/minisched/internal/adapters/icalfeed"
	"github.com/okian/minisched/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigin sets the Access-Control-Allow-Origin value. Default "*".
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		if origin != "" {
			s.corsOrigin = origin
		}
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCalendarEncoder replaces the iCalendar encoder behind /events.ics.
func WithCalendarEncoder(enc *icalfeed.Encoder) Option {
	return func(s *Server) {
		if enc != nil {
			s.calendar = enc
		}
	}
}
