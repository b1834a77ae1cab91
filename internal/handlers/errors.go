package handlers

import (
	"errors"
	"net/http"

	"uninews/internal/services"
	helpers "uninews/internal/utils/helpers"
)

// serviceError маппит таксономию ошибок сервисного слоя на HTTP-статусы.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		helpers.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotAllowed):
		helpers.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		helpers.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrUpstream):
		helpers.Error(w, http.StatusBadGateway, err.Error())
	default:
		helpers.Error(w, http.StatusInternalServerError, err.Error())
	}
}
