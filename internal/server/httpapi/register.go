package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Miura55/freee-labor-bot/internal/server/repository"
	"github.com/Miura55/freee-labor-bot/internal/server/service"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	r.limitBody(w, req)
	var body models.RegisterRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if body.RegistrationToken == "" || body.EmployeeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "registration_token and employee_id required"})
		return
	}
	user, err := r.services.Registration.Register(req.Context(), body.RegistrationToken, body.EmployeeID)
	switch {
	case errors.Is(err, service.ErrInvalidRegistration):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid registration token or employee id"})
		return
	case errors.Is(err, repository.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already registered"})
		return
	case err != nil:
		r.logger.Error("register user", "request_id", getRequestID(req.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
