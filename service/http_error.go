package service

import (
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegisterErrorHandler installs the registry error handler on e.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), logger).Handler
}

// NewErrorCodeToStatusCodeMaps is the inverse of FromStatus: the status the stub registry answers for each code.
func NewErrorCodeToStatusCodeMaps() map[string]int {
	return map[string]int{
		ErrValidation:          http.StatusBadRequest,
		ErrAuthentication:      http.StatusUnauthorized,
		ErrEntityNotFound:      http.StatusNotFound,
		ErrResourceGone:        http.StatusGone,
		ErrInternalServerError: http.StatusInternalServerError,
	}
}

// HTTPErrorHandler turns handler errors into registry error responses.
type HTTPErrorHandler struct {
	errorCodeToHTTPStatusCodeMap map[string]int
	logger                       log.Logger
}

// NewHTTPErrorHandler creates a new instance of the HTTPErrorHandler.
func NewHTTPErrorHandler(errorCodeToStatusCodeMaps map[string]int, logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		errorCodeToHTTPStatusCodeMap: errorCodeToStatusCodeMaps,
		logger:                       logger,
	}
}

func (h *HTTPErrorHandler) getStatusCode(errorCode string) int {
	if status, ok := h.errorCodeToHTTPStatusCodeMap[errorCode]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Handler handles errors returned by echo handlers. The body is {"Error": message, "code": code},
// the shape the registry client reads details from.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var statusCode int
	regErr := ToRegistryError(err)
	if he, ok := err.(*echo.HTTPError); ok {
		statusCode = he.Code
		m, _ := he.Message.(string)
		if m == "" {
			m = http.StatusText(he.Code)
		}
		regErr = NewRegistryError(ErrInternalServerError, m, "", err)
	} else {
		if regErr == nil {
			regErr = NewInternalServerError("an internal server error has occurred", err)
		}
		statusCode = h.getStatusCode(regErr.Code)
	}

	level.Error(h.logger).Log(
		"msg", "HTTP request error",
		"status", statusCode,
		"err", err,
	)

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(statusCode)
		return
	}
	_ = c.JSON(statusCode, ErrResponse{Error: regErr.Message, Code: regErr.Code})
}

// ErrResponse is the registry error body.
type ErrResponse struct {
	Error string `json:"Error"`
	Code  string `json:"code,omitempty"`
}
