package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/raphaelgruber/logoforge/internal/batch"
	"github.com/raphaelgruber/logoforge/internal/db"
	"github.com/raphaelgruber/logoforge/internal/imagegen"
	"github.com/raphaelgruber/logoforge/internal/llm"
	"github.com/raphaelgruber/logoforge/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("%w: prompt is empty", service.ErrInvalidInput), http.StatusBadRequest},
		{"nil tasks", batch.ErrNilTasks, http.StatusBadRequest},
		{"not found", fmt.Errorf("logo abc: %w", service.ErrNotFound), http.StatusNotFound},
		{"conflict", db.ErrTransactionConflict, http.StatusConflict},
		{"bedrock fatal", fmt.Errorf("bedrock converse: %w: %w", llm.ErrFatalAPI, errors.New("AccessDeniedException")), http.StatusBadGateway},
		{"prompter fatal", fmt.Errorf("grade logo: %w", fmt.Errorf("%w: quota", llm.ErrFatalAPI)), http.StatusBadGateway},
		{"empty llm result", llm.ErrEmptyResult, http.StatusBadGateway},
		{"no images", fmt.Errorf("generate: %w", imagegen.ErrNoImages), http.StatusBadGateway},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
