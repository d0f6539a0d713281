package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/affiliateai/copilot/internal/adapter"
	"github.com/affiliateai/copilot/internal/registry"
	"github.com/affiliateai/copilot/internal/translator"
)

type requestError struct {
	Status  int
	Message string
	Type    string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error struct {
		Message  string `json:"message"`
		Type     string `json:"type"`
		Provider string `json:"provider,omitempty"`
	} `json:"error"`
}

func writeError(c echo.Context, status int, message, errType, providerID string) error {
	var payload errorBody
	payload.Error.Message = message
	payload.Error.Type = errType
	payload.Error.Provider = providerID
	return c.JSON(status, payload)
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = writeError(c, reqErr.Status, reqErr.Message, reqErr.Type, "")
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		_ = writeError(c, he.Code, msg, "invalid_request_error", "")
		return
	}

	_ = writeError(c, http.StatusInternalServerError, "internal server error", "server_error", "")
}

// toHTTPError maps generation failures onto wire errors so callers can
// distinguish their own mistakes from upstream ones.
func toHTTPError(err error) error {
	var missing *translator.MissingCredentialError
	if errors.As(err, &missing) {
		return requestError{
			Status:  http.StatusUnauthorized,
			Message: err.Error(),
			Type:    "missing_credential",
		}
	}

	if errors.Is(err, registry.ErrUnsupportedProvider) {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
			Type:    "invalid_request_error",
		}
	}

	var provErr *translator.ProviderResponseError
	if errors.As(err, &provErr) {
		return requestError{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
			Type:    "provider_error",
		}
	}

	var empty *translator.EmptyResultError
	if errors.As(err, &empty) {
		return requestError{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
			Type:    "empty_result",
		}
	}

	var transport *adapter.TransportError
	if errors.As(err, &transport) {
		return requestError{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
			Type:    "transport_error",
		}
	}

	var gen *adapter.GenerationError
	if errors.As(err, &gen) {
		return requestError{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
			Type:    "generation_error",
		}
	}

	return requestError{
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		Type:    "server_error",
	}
}
