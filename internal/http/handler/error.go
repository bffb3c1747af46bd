package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"

	"skinscan/internal/http/middleware"
	"skinscan/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	rid, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return rid
}

// writeError writes a standardized JSON error response. message must be safe
// to show to clients.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

type errorMapping struct {
	kind    error
	status  int
	code    string
	message string // empty: use the wrapped detail
}

var serviceErrors = []errorMapping{
	{service.ErrValidation, fiber.StatusBadRequest, "VALIDATION_ERROR", ""},
	{service.ErrUnauthenticated, fiber.StatusUnauthorized, "UNAUTHENTICATED", "authentication required"},
	{service.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "access to this resource is not allowed"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", ""},
	{service.ErrConflict, fiber.StatusConflict, "CONFLICT", ""},
	{service.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds the upload limit"},
	{service.ErrServiceMisconfigured, fiber.StatusServiceUnavailable, "SERVICE_MISCONFIGURED", "classification service is not configured"},
	{service.ErrUpstreamFetch, fiber.StatusBadGateway, "UPSTREAM_FETCH_ERROR", "failed to fetch image"},
	{service.ErrUpstreamStorage, fiber.StatusBadGateway, "UPSTREAM_STORAGE_ERROR", "failed to store image"},
	{service.ErrClassification, fiber.StatusBadGateway, "CLASSIFICATION_SERVICE_ERROR", "classification service failed"},
	{service.ErrIdentityProvider, fiber.StatusBadGateway, "IDENTITY_PROVIDER_ERROR", "identity provider unavailable"},
}

// respondError maps a service error to its status and code. Upstream and
// unknown errors are logged; clients only see the fixed message.
func respondError(c *fiber.Ctx, err error) error {
	log := zerolog.Ctx(c.UserContext())
	for _, m := range serviceErrors {
		if !errors.Is(err, m.kind) {
			continue
		}
		if m.status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("code", m.code).Msg("request failed")
		}
		msg := m.message
		if msg == "" {
			msg = detail(err, m.kind)
		}
		return writeError(c, m.status, m.code, msg)
	}
	log.Error().Err(err).Msg("unhandled error")
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// detail strips the kind prefix from "kind: detail".
func detail(err, kind error) string {
	msg := err.Error()
	if d := strings.TrimPrefix(msg, kind.Error()+": "); d != "" && d != msg {
		return d
	}
	return msg
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "VALIDATION_ERROR", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHENTICATED", fe.Message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", "request body exceeds the upload limit")
		}
		// any other client error raised by fiber keeps its status
		if fe != nil && status >= fiber.StatusBadRequest && status < fiber.StatusInternalServerError {
			return writeError(c, status, "REQUEST_ERROR", utils.StatusMessage(status))
		}
		zerolog.Ctx(c.UserContext()).Error().Err(err).Msg("unhandled error")
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
