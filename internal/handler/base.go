package handler

import (
	"reflect"
	"time"

	"github.com/deppfellow/go-blog/internal/middleware"
	"github.com/deppfellow/go-blog/internal/server"
	"github.com/deppfellow/go-blog/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Handler is the base handler type that holds shared application
// dependencies. Concrete handlers embed it.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint: it receives a bound and validated
// request and returns the response body or an error.
//
// Req is a pointer type (e.g. *model.CreateUserRequest) so echo can bind
// into it.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// ResponseHandler writes a successful result and names the operation for
// logs and traces.
type ResponseHandler interface {
	Handle(c echo.Context, result interface{}) error
	GetOperation() string
	AddAttributes(txn *newrelic.Transaction, result interface{})
}

// JSONResponseHandler writes JSON responses with a given status code.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

// AddAttributes records the number of items of list responses.
func (h JSONResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if txn == nil || result == nil {
		return
	}
	if v := reflect.ValueOf(result); v.Kind() == reflect.Slice {
		txn.AddAttribute("response.items", v.Len())
	}
}

// newRequest returns a zero value of the type proto points to, so every
// request binds into its own struct.
func newRequest[Req validation.Validatable](proto Req) Req {
	t := reflect.TypeOf(proto)
	if t == nil || t.Kind() != reflect.Pointer {
		return proto
	}
	return reflect.New(t.Elem()).Interface().(Req)
}

// phase records the outcome and duration of one pipeline phase
// ("validation", "handler") on the New Relic transaction.
func phase(txn *newrelic.Transaction, name string, err error, d time.Duration) {
	if txn == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	txn.AddAttribute(name+".status", status)
	txn.AddAttribute(name+".duration_ms", d.Milliseconds())
}

// handleRequest is the shared execution pipeline of every typed endpoint:
// bind + validate, run the handler, write the response, with structured
// logging, New Relic attributes and timings around each phase.
//
// Errors are returned untouched: EnhanceTracing notices them and
// GlobalErrorHandler renders and logs them.
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", route).
		Logger()

	bindStart := time.Now()
	err := validation.BindAndValidate(c, req)
	bindDuration := time.Since(bindStart)
	phase(txn, "validation", err, bindDuration)

	if err != nil {
		logger.Debug().Err(err).Dur("validation_duration", bindDuration).Msg("request validation failed")
		return err
	}

	runStart := time.Now()
	result, err := handler(c, req)
	runDuration := time.Since(runStart)
	phase(txn, "handler", err, runDuration)

	if txn != nil {
		txn.AddAttribute("total.duration_ms", time.Since(start).Milliseconds())
	}

	if err != nil {
		logger.Debug().Err(err).Dur("handler_duration", runDuration).Msg("handler execution failed")
		return err
	}

	if txn != nil {
		responseHandler.AddAttributes(txn, result)
	}

	logger.Debug().
		Dur("validation_duration", bindDuration).
		Dur("handler_duration", runDuration).
		Dur("total_duration", time.Since(start)).
		Msg("request completed")

	return responseHandler.Handle(c, result)
}

// Handle wraps a typed handler into an echo.HandlerFunc. req is only a
// type witness: each request binds into a fresh value.
//
//	users.POST("", handler.Handle(h.Users.Handler, h.Users.CreateUser, http.StatusCreated, &model.CreateUserRequest{}))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}
