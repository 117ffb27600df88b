package middlewares

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kamalnath14061995/IndusionCricket-sub001/config"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type ResponseWriter struct {
	Writer   http.ResponseWriter
	Logger   *log.Entry
	Language string
}

func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	rw := &ResponseWriter{
		Writer: w,
		Logger: config.LoggerFrom(r.Context()),
	}
	rw.GetRequestLanguage(r)
	return rw
}

type generalResponse struct {
	Errors  []*errorResponse `json:"errors"`
	Success bool             `json:"success"`
	Data    interface{}      `json:"data"`
	Message string           `json:"message,omitempty"`
}

type errorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Scope   string      `json:"scope"`
	Type    int         `json:"type"`
	Data    interface{} `json:"data"`
}

type ErrOption func(*errorResponse)

func WithErrorType(errType int) ErrOption {
	return func(err *errorResponse) {
		err.Type = errType
	}
}

func WithErrorScope(scope string) ErrOption {
	return func(err *errorResponse) {
		err.Scope = scope
	}
}

func WithErrorData(data interface{}) ErrOption {
	return func(err *errorResponse) {
		err.Data = data
	}
}

// GetRequestLanguage picks the response language from Accept-Language.
func (r *ResponseWriter) GetRequestLanguage(req *http.Request) string {
	r.Language = Language.English
	for _, part := range strings.Split(req.Header.Get("Accept-Language"), ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		if len(tag) >= 2 {
			if _, ok := LanguageMap[tag[:2]]; ok {
				r.Language = tag[:2]
				break
			}
		}
	}
	return r.Language
}

func (r *ResponseWriter) logger() *log.Entry {
	if r.Logger != nil {
		return r.Logger
	}
	return config.GetLogger()
}

func (r *ResponseWriter) writeJSONResponse(code int, errors []*errorResponse, data interface{}, message string) {
	response := &generalResponse{Errors: errors, Success: errors == nil, Data: data, Message: message}
	b, err := json.Marshal(response)
	if err != nil {
		r.logger().WithError(err).Error("failed marshaling response")
		r.Writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	r.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	r.Writer.WriteHeader(code)
	if _, err := r.Writer.Write(b); err != nil {
		r.logger().WithError(err).Warnf("could not respond - code: %d", code)
	}
}

// Write answers with a localized message.
func (r *ResponseWriter) Write(statusCode int, data interface{}, err error, message *NewRM) {
	msg := message.Get(r.Language)
	fields := log.Fields{"status_code": statusCode}
	if statusCode >= 300 {
		if err == nil {
			err = errors.New(message.Get(Language.English))
		}
		r.logger().WithFields(fields).Error(err)
		r.writeJSONResponse(statusCode, []*errorResponse{{Code: statusCode, Message: msg, Data: data}}, nil, msg)
		return
	}
	r.logger().WithFields(fields).Info("success")
	r.writeJSONResponse(statusCode, nil, data, msg)
}

func (r *ResponseWriter) WriteJSON(statusCode int, data interface{}, err error, message string) {
	fields := log.Fields{"status_code": statusCode}
	if statusCode >= 200 && statusCode <= 299 {
		r.logger().WithFields(fields).Info("success")
		r.writeJSONResponse(statusCode, nil, data, message)
		return
	}
	if err == nil {
		err = errors.New(message)
	}
	fields["errors"] = data
	r.logger().WithFields(fields).Error(err)
	r.writeJSONResponse(statusCode, []*errorResponse{{Code: statusCode, Message: message, Data: data}}, nil, message)
}

func (r *ResponseWriter) JSON(code int, data interface{}) {
	r.writeJSONResponse(code, nil, data, "")
}

// HTML serves a rendered page.
func (r *ResponseWriter) HTML(code int, page []byte) {
	r.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	r.Writer.Header().Set("Cache-Control", "no-store")
	r.Writer.WriteHeader(code)
	if _, err := r.Writer.Write(page); err != nil {
		r.logger().WithError(err).Warnf("could not respond - code: %d", code)
	}
}

func (r *ResponseWriter) Stringf(code int, format string, args ...interface{}) {
	r.String(code, fmt.Sprintf(format, args...))
}

func (r *ResponseWriter) String(code int, msg string) {
	r.Writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	r.Writer.WriteHeader(code)
	if _, err := r.Writer.Write([]byte(msg)); err != nil {
		r.logger().WithError(err).Warnf("could not respond - code: %d", code)
	}
}

func (r *ResponseWriter) Error(code int, msg string, opts ...ErrOption) {
	err := &errorResponse{Code: code, Message: msg}
	for _, With := range opts {
		With(err)
	}
	r.writeJSONResponse(code, []*errorResponse{err}, nil, "")
}
