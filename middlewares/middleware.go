package middlewares

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/kamalnath14061995/IndusionCricket-sub001/config"
	log "github.com/sirupsen/logrus"
)

// RequestID makes sure every request carries an X-Request-ID.
func RequestID(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	if r.Header.Get("X-Request-ID") == "" {
		r.Header.Set("X-Request-ID", uuid.New().String())
	}
	rw.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
	next(rw, r)
}

func LoggerRequest(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	requestLogger := log.WithFields(log.Fields{"request_id": r.Header.Get("X-Request-ID"), "method": r.Method, "host": r.Host, "url": r.URL.Path})
	requestLogger.Info("logger_request")
	next(rw, r.WithContext(config.WithLogger(r.Context(), requestLogger)))
}
