package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fieldmates/fieldmates/middleware"
	"github.com/fieldmates/fieldmates/models"
	"github.com/fieldmates/fieldmates/services"
)

type GroupPostHandler struct {
	groupPostService *services.GroupPostService
}

func NewGroupPostHandler(gps *services.GroupPostService) *GroupPostHandler {
	return &GroupPostHandler{groupPostService: gps}
}

// CreateHandler обрабатывает POST /group-posts
func (h *GroupPostHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create group post")
		return
	}

	var input services.CreateGroupPostInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	post, err := h.groupPostService.CreateGroupPost(r.Context(), currentProfileID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"group_post": post}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByIDHandler обрабатывает GET /group-posts/{groupPostID}
func (h *GroupPostHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	post, err := h.groupPostService.GetGroupPost(r.Context(), currentProfileID, id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group_post": post}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /group-posts
func (h *GroupPostHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.ListGroupPostsInput
	query := r.URL.Query()

	if typeStr := query.Get("type"); typeStr != "" {
		postType := models.GroupPostType(typeStr)
		input.Type = &postType
	}
	if statusStr := query.Get("status"); statusStr != "" {
		status := models.GroupPostStatus(statusStr)
		input.Status = &status
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			input.Limit = limit
		} else {
			badRequestResponse(w, r, errors.New("invalid limit query parameter"))
			return
		}
	}
	if cursorStr := query.Get("cursor"); cursorStr != "" {
		if cursor, err := strconv.Atoi(cursorStr); err == nil && cursor > 0 {
			input.Cursor = &cursor
		} else {
			badRequestResponse(w, r, errors.New("invalid cursor query parameter"))
			return
		}
	}

	posts, hasMore, nextCursor, err := h.groupPostService.ListGroupPosts(r.Context(), currentProfileID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"group_posts": posts,
		"has_more":    hasMore,
	}
	if nextCursor != nil {
		response["next_cursor"] = *nextCursor
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler обрабатывает PATCH /group-posts/{groupPostID}
func (h *GroupPostHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to update group post")
		return
	}

	var input services.UpdateGroupPostInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	post, err := h.groupPostService.UpdateGroupPost(r.Context(), currentProfileID, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"group_post": post}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteHandler обрабатывает DELETE /group-posts/{groupPostID}
func (h *GroupPostHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "groupPostID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentProfileID, err := middleware.GetProfileIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to delete group post")
		return
	}

	if err := h.groupPostService.DeleteGroupPost(r.Context(), currentProfileID, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
