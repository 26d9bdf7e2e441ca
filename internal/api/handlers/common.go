package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/slife/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// writeError renders the safe part of err. The full chain is attached to the
// gin context so the request logger records it.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(utils.HTTPStatus(err), toAPIError(err))
}

func toAPIError(err error) APIError {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return APIError{Code: ae.Code, Message: ae.Message}
	}
	status := utils.HTTPStatus(err)
	return APIError{Code: utils.CodeInternal, Message: http.StatusText(status)}
}
