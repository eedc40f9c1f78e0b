package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saas-starter/auth-service/internal/apperr"
	"github.com/saas-starter/auth-service/internal/dto"
)

// respondError is the single place application errors become HTTP. Typed
// errors serialize to their JSON shape, redirect errors become 302s to the
// client error page, and anything else is logged and hidden behind a
// generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode, dto.ErrorResponse{
			Code:       appErr.Code,
			Message:    appErr.Message,
			StatusCode: appErr.StatusCode,
		})
		return
	}

	var redirectErr *apperr.RedirectError
	if errors.As(err, &redirectErr) {
		c.Redirect(http.StatusFound, redirectErr.RedirectURL)
		return
	}

	logger.Error("Unhandled error", zap.Error(err), zap.String("path", c.Request.URL.Path))
	internal := apperr.Internal()
	c.JSON(internal.StatusCode, dto.ErrorResponse{
		Code:       internal.Code,
		Message:    internal.Message,
		StatusCode: internal.StatusCode,
	})
}
