package handler

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/rs/zerolog"
)

const (
	apiSecretHeader = "X-API-Secret"
	requestIDHeader = "X-Request-ID"
	// apiOperator names requests authenticated by the API secret
	apiOperator = "api"
)

func SetMiddlewares(ctx context.Context, ginRouter *gin.Engine) {
	ginRouter.Use(LoggerMiddleware(ctx))
}

// LoggerMiddleware attaches a request-scoped logger to the request context
func LoggerMiddleware(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		zlog := zerolog.Ctx(ctx).With().
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Str("request_id", requestID).
			Logger()
		c.Request = c.Request.WithContext(zlog.WithContext(c.Request.Context()))
		c.Next()

		zlog.Debug().Int("status", c.Writer.Status()).Msg("request handled")
	}
}

// SharedSecretMiddleware requires a valid X-API-Secret header and marks the
// request as coming from an operator
func SharedSecretMiddleware(apiSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedSecret := c.GetHeader(apiSecretHeader)

		// Check if secret is provided
		if providedSecret == "" {
			err := domain.NewError(
				domain.ErrorCodeAuthNotAuthenticated,
				errors.New("missing API secret header"),
				domain.WithMsg("Missing API secret"),
			)
			respondWithError(c, err)
			return
		}

		if !validSecret(providedSecret, apiSecret) {
			err := domain.NewError(
				domain.ErrorCodeAuthNotAuthenticated,
				errors.New("invalid API secret provided"),
				domain.WithMsg("Invalid API secret"),
			)
			respondWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(service.WithOperator(c.Request.Context(), apiOperator))
		c.Next()
	}
}

// OptionalSharedSecretMiddleware marks the request as an operator request
// when a valid X-API-Secret header is present. Requests without the header
// pass through unchanged so they can authorize with a nonce instead.
func OptionalSharedSecretMiddleware(apiSecret string) gin.HandlerFunc {
	strict := SharedSecretMiddleware(apiSecret)
	return func(c *gin.Context) {
		if c.GetHeader(apiSecretHeader) == "" {
			c.Next()
			return
		}
		strict(c)
	}
}

func validSecret(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
