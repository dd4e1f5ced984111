package handlers

import (
	"net/http"

	"github.com/fieldmates/fieldmates/middleware"
	"github.com/fieldmates/fieldmates/models"
	"github.com/fieldmates/fieldmates/services"
)

type ParticipantHandler struct {
	groupPostService *services.GroupPostService
}

func NewParticipantHandler(gps *services.GroupPostService) *ParticipantHandler {
	return &ParticipantHandler{groupPostService: gps}
}

// ListHandler обрабатывает GET /group-posts/{groupPostID}/participants
func (h *ParticipantHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participants, err := h.groupPostService.ListParticipants(r.Context(), currentProfileID, postID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AddHandler обрабатывает POST /group-posts/{groupPostID}/participants
func (h *ParticipantHandler) AddHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to add participants")
		return
	}

	var input struct {
		ParticipantIDs []int                  `json:"participant_ids"`
		Role           models.ParticipantRole `json:"role"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.groupPostService.AddParticipants(r.Context(), currentProfileID, postID, input.ParticipantIDs, input.Role)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveHandler обрабатывает DELETE /group-posts/{groupPostID}/participants
func (h *ParticipantHandler) RemoveHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to remove participant")
		return
	}

	var input struct {
		ParticipantID int `json:"participant_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.groupPostService.RemoveParticipant(r.Context(), currentProfileID, postID, input.ParticipantID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateRoleHandler обрабатывает PATCH /group-posts/{groupPostID}/participants
func (h *ParticipantHandler) UpdateRoleHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to change participant role")
		return
	}

	var input struct {
		ParticipantID int                    `json:"participant_id"`
		Role          models.ParticipantRole `json:"role"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.groupPostService.UpdateParticipantRole(r.Context(), currentProfileID, postID, input.ParticipantID, input.Role)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AttestHandler обрабатывает POST /group-posts/{groupPostID}/attest
func (h *ParticipantHandler) AttestHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to attest participation")
		return
	}

	var input struct {
		Status models.ParticipantStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, post, err := h.groupPostService.Attest(r.Context(), currentProfileID, postID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant, "group_post": post}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetAttestationHandler обрабатывает GET /group-posts/{groupPostID}/attest
func (h *ParticipantHandler) GetAttestationHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participant, err := h.groupPostService.GetOwnAttestation(r.Context(), currentProfileID, postID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
