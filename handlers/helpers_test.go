package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldmates/fieldmates/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"post not found", services.ErrGroupPostNotFound, http.StatusNotFound},
		{"participant not found hides membership", services.ErrParticipantNotFound, http.StatusNotFound},
		{"scorecard conflict", services.ErrScorecardConflict, http.StatusConflict},
		{"participant conflict", services.ErrParticipantConflict, http.StatusConflict},
		{"validation failure", services.ErrHolesPlayedOutOfRange, http.StatusBadRequest},
		{"empty update", services.ErrEmptyUpdate, http.StatusBadRequest},
		{"creator-only action", services.ErrCreatorOnlyOperation, http.StatusForbidden},
		{"locked scores", services.ErrScoresLocked, http.StatusForbidden},
		{"cannot remove creator", services.ErrCannotRemoveCreator, http.StatusForbidden},
		{"unexpected error", errors.New("pq: connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/group-posts/1", nil)

			mapServiceErrorToHTTP(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q, want application/json", ct)
			}
		})
	}

	t.Run("wrapped errors unwrap", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/group-posts/1", nil)

		wrapped := errors.Join(errors.New("context"), services.ErrGroupPostNotFound)
		mapServiceErrorToHTTP(rec, req, wrapped)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404 for a wrapped not-found", rec.Code)
		}
	})
}
