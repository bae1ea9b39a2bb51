package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/raphaelgruber/logoforge/internal/batch"
	"github.com/raphaelgruber/logoforge/internal/db"
	"github.com/raphaelgruber/logoforge/internal/imagegen"
	"github.com/raphaelgruber/logoforge/internal/llm"
	"github.com/raphaelgruber/logoforge/internal/service"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, batch.ErrNilTasks):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrAlreadyExists), errors.Is(err, db.ErrTransactionConflict):
		return http.StatusConflict
	case errors.Is(err, llm.ErrFatalAPI), errors.Is(err, llm.ErrEmptyResult), errors.Is(err, imagegen.ErrNoImages):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError records err for the logging middleware and writes {"error": msg}.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

// bindJSON decodes and validates the request body, writing a 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, fmt.Errorf("%w: %s", service.ErrInvalidInput, describeBindError(err)))
		return false
	}
	return true
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
