package handler

import (
	"encoding/json"
	"net/http"

	"github.com/jaekwang-park/task-sync/internal/service"
)

type ProfileHandler struct {
	svc *service.ProfileService
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// ServeHTTP routes /api/v1/profile
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut:
		h.handleSave(w, r)
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

func (h *ProfileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Get(r.Context(), getUserID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

type saveProfileRequest struct {
	Name string `json:"name"`
	Age  *int   `json:"age,omitempty"`
}

func (h *ProfileHandler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	user, err := h.svc.Save(r.Context(), getUserID(r), service.SaveProfileInput{
		Name: req.Name,
		Age:  req.Age,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}
