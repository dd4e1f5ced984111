package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fieldmates/fieldmates/middleware"
	"github.com/fieldmates/fieldmates/services"
)

type GolfHandler struct {
	golfService *services.GolfService
}

func NewGolfHandler(gs *services.GolfService) *GolfHandler {
	return &GolfHandler{golfService: gs}
}

func groupPostIDFromQuery(r *http.Request) (int, error) {
	idStr := r.URL.Query().Get("group_post_id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid or missing group_post_id query parameter")
	}
	return id, nil
}

func participantIDFromQuery(r *http.Request) (*int, error) {
	idStr := r.URL.Query().Get("participant_id")
	if idStr == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return nil, errors.New("invalid participant_id query parameter")
	}
	return &id, nil
}

// CreateScorecardHandler обрабатывает POST /golf/scorecards
func (h *GolfHandler) CreateScorecardHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create scorecard")
		return
	}

	var input services.CreateScorecardInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	card, err := h.golfService.CreateScorecard(r.Context(), currentProfileID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"golf_data": card}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetScorecardHandler обрабатывает GET /golf/scorecards?group_post_id=
func (h *GolfHandler) GetScorecardHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	postID, err := groupPostIDFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	card, err := h.golfService.GetScorecard(r.Context(), currentProfileID, postID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"golf_data": card}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateScorecardHandler обрабатывает PATCH /golf/scorecards?group_post_id=
func (h *GolfHandler) UpdateScorecardHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to update scorecard")
		return
	}
	postID, err := groupPostIDFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateScorecardInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	card, err := h.golfService.UpdateScorecard(r.Context(), currentProfileID, postID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"golf_data": card}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RecordScoresHandler обрабатывает POST /golf/scores
func (h *GolfHandler) RecordScoresHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to record scores")
		return
	}

	var input services.RecordScoresInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	record, err := h.golfService.RecordHoleScores(r.Context(), currentProfileID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmScoresHandler обрабатывает POST /golf/scores/confirm
func (h *GolfHandler) ConfirmScoresHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to confirm scores")
		return
	}

	var input struct {
		GroupPostID int  `json:"group_post_id"`
		ProfileID   *int `json:"participant_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	record, err := h.golfService.ConfirmScores(r.Context(), currentProfileID, input.GroupPostID, input.ProfileID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnlockScoresHandler обрабатывает POST /golf/scores/unlock
func (h *GolfHandler) UnlockScoresHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to unlock scores")
		return
	}

	var input struct {
		GroupPostID int `json:"group_post_id"`
		ProfileID   int `json:"participant_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.ProfileID <= 0 {
		badRequestResponse(w, r, errors.New("participant_id is required"))
		return
	}

	record, err := h.golfService.UnlockScores(r.Context(), currentProfileID, input.GroupPostID, input.ProfileID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetScoresHandler обрабатывает GET /golf/scores?group_post_id=&participant_id=
func (h *GolfHandler) GetScoresHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	postID, err := groupPostIDFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	profileID, err := participantIDFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	records, err := h.golfService.GetScores(r.Context(), currentProfileID, postID, profileID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": records}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
