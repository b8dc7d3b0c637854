package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"linecheck/internal/service"
)

type changeRequest struct {
	TaskID    uint  `json:"task_id" validate:"required"`
	Completed *bool `json:"completed" validate:"required"`
}

type applyRequest struct {
	Changes []changeRequest `json:"changes" validate:"required,min=1,dive"`
	Checkin bool            `json:"checkin"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "listID")
	if !ok {
		return
	}
	user := userFrom(r)

	checkout, err := s.checkouts.Checkout(r.Context(), listID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"checked_out_by": checkout.UserID,
	})
}

func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "listID")
	if !ok {
		return
	}
	user := userFrom(r)

	if err := s.checkouts.Checkin(r.Context(), listID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleForceRelease(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "listID")
	if !ok {
		return
	}
	user := userFrom(r)

	if err := s.checkouts.ForceRelease(r.Context(), listID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleApplyCompletions(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "listID")
	if !ok {
		return
	}
	user := userFrom(r)

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	changes := make([]service.Change, len(req.Changes))
	for i, c := range req.Changes {
		changes[i] = service.Change{TaskID: c.TaskID, Completed: *c.Completed}
	}

	result, err := s.batches.Apply(r.Context(), listID, user.ID, changes, req.Checkin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompleteInstance(w http.ResponseWriter, r *http.Request) {
	instanceID, ok := pathID(w, r, "instanceID")
	if !ok {
		return
	}
	user := userFrom(r)

	if err := s.instances.Complete(r.Context(), instanceID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	listID, ok := pathID(w, r, "listID")
	if !ok {
		return
	}
	view, err := s.lists.Checklist(r.Context(), listID, userFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleLocationLists(w http.ResponseWriter, r *http.Request) {
	locationID, ok := pathID(w, r, "locationID")
	if !ok {
		return
	}
	lists, err := s.lists.LocationLists(r.Context(), locationID, userFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// pathID parses a positive integer URL parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return uint(id), true
}

// writeValidationError reports field-level validation detail.
func writeValidationError(w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := make([]map[string]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, map[string]string{
			"field":  fe.Namespace(),
			"reason": fe.Tag(),
		})
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"error":   "validation failed",
		"fields":  fields,
	})
}
