package serving

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/logger"
	"github.com/zefrenchwan/egonet.git/versioned"
	"go.uber.org/zap"
)

// REQUEST_ID_HEADER is the response header with the request id
const REQUEST_ID_HEADER = "X-Request-Id"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "egonet_http_requests_total",
		Help: "Total number of http requests per pattern and status code",
	}, []string{"pattern", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "egonet_http_request_duration_seconds",
		Help:    "Duration of http requests per pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"pattern"})
)

// DeserializeMomentFromURL returns either a parsed moment, or a 400 error
func DeserializeMomentFromURL(value string) (lifetimes.Moment, error) {
	moment, err := lifetimes.ParseMoment(value)
	if err != nil {
		return moment, NewServiceHttpClientError("invalid moment: " + err.Error())
	}

	return moment, nil
}

// RequestContextKey is key type for context keys when using specific info (such as current user)
type RequestContextKey string

// InitService returns a new valid servemux to launch
func InitService(store *versioned.Store, initialContext context.Context, logger *zap.SugaredLogger, auth Authenticator) *http.ServeMux {
	mux := http.NewServeMux()

	parameters := ServiceParameters{
		Store:  store,
		Ctx:    initialContext,
		Logger: logger,
		Auth:   auth,
	}

	if parameters.Logger == nil {
		parameters.Logger = zap.NewNop().Sugar()
	}

	// ADMIN PART
	AddGetServiceHandlerToMux(mux, "/status/", checkStatusHandler, parameters)
	AddPostServiceHandlerToMux(mux, "/token/", checkUserAndGenerateTokenHandler, parameters)
	mux.Handle("/metrics", promhttp.Handler())
	// SCHEMA OPERATIONS
	AddAuthenticatedPostServiceHandlerToMux(mux, "/attributes/declare/", declareAttributeHandler, parameters)
	AddAuthenticatedGetServiceHandlerToMux(mux, "/attributes/list/{domain}/", listAttributesHandler, parameters)
	// LIFETIMES OPERATIONS
	AddAuthenticatedPostServiceHandlerToMux(mux, "/lifetimes/add/", addLifetimeHandler, parameters)
	AddAuthenticatedPostServiceHandlerToMux(mux, "/lifetimes/remove/", removeLifetimeHandler, parameters)
	AddAuthenticatedPostServiceHandlerToMux(mux, "/alters/rename/", renameAlterHandler, parameters)
	AddAuthenticatedGetServiceHandlerToMux(mux, "/entities/between/{start}/and/{end}/", entitiesBetweenHandler, parameters)
	// VALUES OPERATIONS
	AddAuthenticatedPostServiceHandlerToMux(mux, "/values/set/", setValueHandler, parameters)
	AddAuthenticatedGetServiceHandlerToMux(mux, "/values/get/{domain}/{attribute}/at/{moment}/", getValueHandler, parameters)
	AddAuthenticatedGetServiceHandlerToMux(mux, "/values/history/{domain}/{attribute}/", historyHandler, parameters)
	AddAuthenticatedGetServiceHandlerToMux(mux, "/values/all/{domain}/{attribute}/at/{moment}/", allValuesHandler, parameters)
	AddAuthenticatedGetServiceHandlerToMux(mux, "/secondary/{datumId}/", getSecondaryHandler, parameters)
	AddAuthenticatedPostServiceHandlerToMux(mux, "/secondary/{datumId}/", setSecondaryHandler, parameters)
	AddAuthenticatedPostServiceHandlerToMux(mux, "/import/", importHandler, parameters)
	// GRAPHS OPERATIONS
	AddAuthenticatedGetServiceHandlerToMux(mux, "/snapshot/at/{moment}/", snapshotHandler, parameters)
	// mux is complete, all handlers are set
	return mux
}

// AddGetServiceHandlerToMux adds an handler to to the current mux for a GET
func AddGetServiceHandlerToMux(mux *http.ServeMux, urlPattern string, handler ServiceHandler, parameters ServiceParameters) {
	AddServiceHandlerToMux(mux, "GET", urlPattern, false, handler, parameters)
}

// AddPostServiceHandlerToMux adds an handler to to the current mux for a POST
func AddPostServiceHandlerToMux(mux *http.ServeMux, urlPattern string, handler ServiceHandler, parameters ServiceParameters) {
	AddServiceHandlerToMux(mux, "POST", urlPattern, false, handler, parameters)
}

// AddAuthenticatedGetServiceHandlerToMux adds an handler to to the current mux for a GET
func AddAuthenticatedGetServiceHandlerToMux(mux *http.ServeMux, urlPattern string, handler ServiceHandler, parameters ServiceParameters) {
	AddServiceHandlerToMux(mux, "GET", urlPattern, true, handler, parameters)
}

// AddAuthenticatedPostServiceHandlerToMux adds an handler to to the current mux for a POST
func AddAuthenticatedPostServiceHandlerToMux(mux *http.ServeMux, urlPattern string, handler ServiceHandler, parameters ServiceParameters) {
	AddServiceHandlerToMux(mux, "POST", urlPattern, true, handler, parameters)
}

// statusWriter keeps the status code for metrics
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (s *statusWriter) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// AddServiceHandlerToMux adds an handler to current mux.
// Patterns are registered with the method, so that GET and POST on the same url may have different handlers
func AddServiceHandlerToMux(mux *http.ServeMux, method string, urlPattern string, testAuth bool, handler ServiceHandler, parameters ServiceParameters) {
	handlerFunction := func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		writer := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		writer.Header().Set(REQUEST_ID_HEADER, requestID)
		timer := prometheus.NewTimer(requestDuration.WithLabelValues(urlPattern))
		defer func() {
			timer.ObserveDuration()
			requestsTotal.WithLabelValues(urlPattern, strconv.Itoa(writer.code)).Inc()
		}()

		current := parameters
		current.Ctx = logger.WithRequestID(parameters.Ctx, requestID)
		current.Logger = logger.FromContext(current.Ctx, parameters.Logger)

		// test if user is valid
		if testAuth && current.Auth.Enabled() {
			if login, auth, err := current.Auth.validateAuthentication(r); err != nil {
				http.Error(writer, err.Error(), http.StatusUnauthorized)
				return
			} else if !auth {
				http.Error(writer, "should authenticate", http.StatusUnauthorized)
				return
			} else {
				current.Ctx = context.WithValue(current.Ctx, RequestContextKey("user"), login)
			}
		}

		start := time.Now()
		errHandler := handler(current, writer, r)
		if errHandler != nil {
			switch customError, ok := errHandler.(ServiceHttpError); ok {
			case true:
				http.Error(writer, customError.Error(), customError.HttpCode())
			default:
				current.Logger.Errorw("request failed", "url", r.URL.Path, "error", errHandler)
				http.Error(writer, "Internal error: "+errHandler.Error(), http.StatusInternalServerError)
			}
		}

		current.Logger.Debugw("request", "method", method, "url", r.URL.Path, "code", writer.code, "duration", time.Since(start))
	}

	// register url matching
	mux.HandleFunc(method+" "+urlPattern, handlerFunction)
	// deal with /value/ <=> /value
	size := len(urlPattern)
	if strings.HasSuffix(urlPattern, "/") {
		mux.HandleFunc(method+" "+urlPattern[0:size-1], handlerFunction)
	} else {
		mux.HandleFunc(method+" "+urlPattern+"/", handlerFunction)
	}
}

// ServiceParameters contains all parameters to use for a service
type ServiceParameters struct {
	Store  *versioned.Store
	Ctx    context.Context
	Logger *zap.SugaredLogger
	Auth   Authenticator
}

// ServiceHandler adds more parameters than usual handler function
type ServiceHandler func(wrapper ServiceParameters, w http.ResponseWriter, r *http.Request) error

// CurrentUser returns the current user if any, and a boolean to explicit if found
func (sp ServiceParameters) CurrentUser() (string, bool) {
	switch userValue := sp.Ctx.Value(RequestContextKey("user")); userValue {
	case nil:
		return "", false
	default:
		return userValue.(string), true
	}
}
