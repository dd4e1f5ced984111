package services

import (
	"errors"
	"testing"

	"github.com/fieldmates/fieldmates/models"
)

func TestGuardCan(t *testing.T) {
	post := &models.GroupPost{ID: 1, CreatorID: 10, Visibility: models.VisibilityPublic}
	privatePost := &models.GroupPost{ID: 2, CreatorID: 10, Visibility: models.VisibilityPrivate}

	organizer := &models.Participant{ID: 2, GroupPostID: 1, ProfileID: 20, Role: models.RoleOrganizer}
	member := &models.Participant{ID: 3, GroupPostID: 1, ProfileID: 30, Role: models.RoleParticipant}
	creatorRow := &models.Participant{ID: 1, GroupPostID: 1, ProfileID: 10, Role: models.RoleCreator}

	tests := []struct {
		name    string
		actorID int
		op      Operation
		gc      GuardContext
		wantErr error
	}{
		{"unauthenticated actor denied", 0, OpCreatePost, GuardContext{}, ErrForbiddenOperation},
		{"any authenticated actor may create", 99, OpCreatePost, GuardContext{}, nil},

		{"creator may update post", 10, OpUpdatePost, GuardContext{Post: post}, nil},
		{"stranger update on public post forbidden", 99, OpUpdatePost, GuardContext{Post: post}, ErrCreatorOnlyOperation},
		{"stranger update on private post looks like missing", 99, OpUpdatePost, GuardContext{Post: privatePost}, ErrGroupPostNotFound},
		{"member update still creator-only", 30, OpUpdatePost, GuardContext{Post: post, Actor: member}, ErrCreatorOnlyOperation},
		{"creator may delete post", 10, OpDeletePost, GuardContext{Post: post}, nil},

		{"creator may add participants", 10, OpAddParticipants, GuardContext{Post: post}, nil},
		{"organizer may add participants", 20, OpAddParticipants, GuardContext{Post: post, Actor: organizer}, nil},
		{"plain member may not add participants", 30, OpAddParticipants, GuardContext{Post: post, Actor: member}, ErrOrganizerActionForbidden},

		{"member may remove themself", 30, OpRemoveParticipant, GuardContext{Post: post, Actor: member, Subject: member}, nil},
		{"organizer may remove a member", 20, OpRemoveParticipant, GuardContext{Post: post, Actor: organizer, Subject: member}, nil},
		{"creator row can never be removed", 10, OpRemoveParticipant, GuardContext{Post: post, Subject: creatorRow}, ErrCannotRemoveCreator},
		{"creator row removal rejected even for organizer", 20, OpRemoveParticipant, GuardContext{Post: post, Actor: organizer, Subject: creatorRow}, ErrCannotRemoveCreator},
		{"stranger may not remove a member", 99, OpRemoveParticipant, GuardContext{Post: post, Subject: member}, ErrOrganizerActionForbidden},

		{"participant attests own row", 30, OpAttest, GuardContext{Post: post, Actor: member}, nil},
		{"non-participant attest reads as not found", 99, OpAttest, GuardContext{Post: post}, ErrParticipantNotFound},

		{"creator may create scorecard", 10, OpCreateScorecard, GuardContext{Post: post}, nil},
		{"member may not create scorecard", 30, OpCreateScorecard, GuardContext{Post: post, Actor: member}, ErrCreatorOnlyOperation},
		{"anyone with read access reads scorecard", 99, OpReadScorecard, GuardContext{Post: post}, nil},
		{"stranger cannot read private scorecard", 99, OpReadScorecard, GuardContext{Post: privatePost}, ErrGroupPostNotFound},
		{"participant reads private scorecard", 30, OpReadScorecard, GuardContext{Post: privatePost, Actor: member}, nil},

		{"participant records own scores", 30, OpRecordScores, GuardContext{Post: post, Subject: member}, nil},
		{"entered_by actor records scores", 20, OpRecordScores, GuardContext{Post: post, Subject: member, EnteredBy: 20}, nil},
		{"organizer may not record for others", 20, OpRecordScores, GuardContext{Post: post, Actor: organizer, Subject: member}, ErrForbiddenOperation},
		{"creator may not confirm for others", 10, OpConfirmScores, GuardContext{Post: post, Subject: member}, ErrForbiddenOperation},

		{"creator may unlock scores", 10, OpUnlockScores, GuardContext{Post: post}, nil},
		{"organizer may not unlock scores", 20, OpUnlockScores, GuardContext{Post: post, Actor: organizer}, ErrCreatorOnlyOperation},

		{"role change forbidden on creator row", 10, OpUpdateParticipantRole, GuardContext{Post: post, Subject: creatorRow}, ErrForbiddenOperation},
		{"organizer changes member role", 20, OpUpdateParticipantRole, GuardContext{Post: post, Actor: organizer, Subject: member}, nil},
	}

	guard := NewGuard()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Can(tt.actorID, tt.op, tt.gc)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Can(%d, %s) = %v, want %v", tt.actorID, tt.op, err, tt.wantErr)
			}
		})
	}
}
