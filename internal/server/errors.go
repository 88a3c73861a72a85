package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/persona-chat/internal/character"
	"github.com/jonathan/persona-chat/internal/chat"
	"github.com/jonathan/persona-chat/internal/pipeline"
)

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		invalidUsername   *pipeline.ErrInvalidUsername
		alreadyRunning    *pipeline.ErrAlreadyRunning
		analyticsNotReady *character.ErrAnalyticsNotReady
		characterNotFound *chat.ErrCharacterNotFound
		inference         *chat.ErrInference
	)
	switch {
	case errors.As(err, &invalidUsername):
		return http.StatusBadRequest
	case errors.As(err, &alreadyRunning):
		return http.StatusConflict
	case errors.As(err, &analyticsNotReady):
		return http.StatusFailedDependency
	case errors.As(err, &characterNotFound):
		return http.StatusNotFound
	case errors.As(err, &inference):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
