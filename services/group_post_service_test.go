package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fieldmates/fieldmates/models"
)

func newTestGroupPostService() (*GroupPostService, *fakeGroupPostRepo, *fakeParticipantRepo, *fakeScorecardRepo, *capturedEvents) {
	posts := newFakeGroupPostRepo()
	participants := newFakeParticipantRepo()
	scorecards := newFakeScorecardRepo()
	posts.participants = participants
	events := &capturedEvents{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewGroupPostService(posts, participants, scorecards, NewGuard(), events, logger)
	return svc, posts, participants, scorecards, events
}

func validCreateInput() CreateGroupPostInput {
	return CreateGroupPostInput{
		Type:  models.TypeGolfRound,
		Title: "Saturday Round",
		Date:  time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestCreateGroupPostCreatesCreatorParticipant(t *testing.T) {
	svc, _, participants, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, err := svc.CreateGroupPost(ctx, 10, validCreateInput())
	if err != nil {
		t.Fatalf("CreateGroupPost: %v", err)
	}
	if post.ID == 0 {
		t.Fatal("post was not assigned an id")
	}
	if post.CreatorID != 10 {
		t.Errorf("creator_id = %d, want 10", post.CreatorID)
	}
	if post.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", post.Status)
	}

	rows, err := participants.ListByPost(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("participant count = %d, want exactly 1", len(rows))
	}
	creator := rows[0]
	if creator.Role != models.RoleCreator {
		t.Errorf("role = %q, want creator", creator.Role)
	}
	if creator.Status != models.ParticipantConfirmed {
		t.Errorf("status = %q, want confirmed", creator.Status)
	}
	if creator.AttestedAt == nil {
		t.Error("creator attested_at is nil, want a timestamp")
	}
}

func TestCreateGroupPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CreateGroupPostInput)
		wantErr error
	}{
		{"unknown type", func(i *CreateGroupPostInput) { i.Type = "curling_match" }, ErrInvalidPostType},
		{"missing title", func(i *CreateGroupPostInput) { i.Title = "" }, ErrPostTitleRequired},
		{"missing date", func(i *CreateGroupPostInput) { i.Date = time.Time{} }, ErrPostDateRequired},
		{"bad visibility", func(i *CreateGroupPostInput) {
			v := models.GroupPostVisibility("friends_of_friends")
			i.Visibility = &v
		}, ErrInvalidVisibility},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, posts, _, _, _ := newTestGroupPostService()
			input := validCreateInput()
			tt.mutate(&input)

			_, err := svc.CreateGroupPost(context.Background(), 10, input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if len(posts.posts) != 0 {
				t.Error("post was persisted despite validation failure")
			}
		})
	}
}

func TestCreateGroupPostSurvivesCreatorInsertFailure(t *testing.T) {
	svc, posts, participants, _, _ := newTestGroupPostService()
	participants.failCreateForProfile = 10

	post, err := svc.CreateGroupPost(context.Background(), 10, validCreateInput())
	if err != nil {
		t.Fatalf("CreateGroupPost must tolerate the creator participant failure, got %v", err)
	}
	if _, ok := posts.posts[post.ID]; !ok {
		t.Fatal("post is missing from the store")
	}
	rows, _ := participants.ListByPost(context.Background(), post.ID)
	if len(rows) != 0 {
		t.Errorf("participant count = %d, want 0 in the failure window", len(rows))
	}
}

func TestAddParticipantsConflictIsAllOrNothing(t *testing.T) {
	svc, _, participants, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, err := svc.CreateGroupPost(ctx, 10, validCreateInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddParticipants(ctx, 10, post.ID, []int{20, 30}, ""); err != nil {
		t.Fatalf("first AddParticipants: %v", err)
	}

	_, err = svc.AddParticipants(ctx, 10, post.ID, []int{40, 20}, "")
	if !errors.Is(err, ErrParticipantConflict) {
		t.Fatalf("err = %v, want ErrParticipantConflict", err)
	}
	if _, err := participants.FindByPostAndProfile(ctx, post.ID, 40); err == nil {
		t.Error("profile 40 was inserted despite the batch conflict")
	}
}

func TestAddParticipantsAuthorization(t *testing.T) {
	svc, _, _, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, err := svc.CreateGroupPost(ctx, 10, validCreateInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddParticipants(ctx, 10, post.ID, []int{20, 30}, ""); err != nil {
		t.Fatal(err)
	}

	// Обычный участник приглашать не может.
	_, err = svc.AddParticipants(ctx, 30, post.ID, []int{50}, "")
	if !errors.Is(err, ErrOrganizerActionForbidden) {
		t.Fatalf("plain member err = %v, want ErrOrganizerActionForbidden", err)
	}

	// После повышения до организатора — может.
	if _, err := svc.UpdateParticipantRole(ctx, 10, post.ID, 30, models.RoleOrganizer); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddParticipants(ctx, 30, post.ID, []int{50}, ""); err != nil {
		t.Fatalf("organizer err = %v, want nil", err)
	}
}

func TestAddParticipantsRejectsCreatorRole(t *testing.T) {
	svc, _, _, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())
	_, err := svc.AddParticipants(ctx, 10, post.ID, []int{20}, models.RoleCreator)
	if !errors.Is(err, ErrInvalidParticipantRole) {
		t.Fatalf("err = %v, want ErrInvalidParticipantRole", err)
	}
}

func TestRemoveCreatorAlwaysRejected(t *testing.T) {
	svc, _, participants, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())

	err := svc.RemoveParticipant(ctx, 10, post.ID, 10)
	if !errors.Is(err, ErrCannotRemoveCreator) {
		t.Fatalf("creator self-removal err = %v, want ErrCannotRemoveCreator", err)
	}
	if _, err := participants.FindByPostAndProfile(ctx, post.ID, 10); err != nil {
		t.Error("creator participant row disappeared")
	}
}

func TestRemoveParticipantSelfCascades(t *testing.T) {
	svc, _, participants, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())
	if _, err := svc.AddParticipants(ctx, 10, post.ID, []int{20}, ""); err != nil {
		t.Fatal(err)
	}

	if err := svc.RemoveParticipant(ctx, 20, post.ID, 20); err != nil {
		t.Fatalf("self removal: %v", err)
	}
	if _, err := participants.FindByPostAndProfile(ctx, post.ID, 20); err == nil {
		t.Error("participant row still present after removal")
	}
}

func TestAttestLifecycle(t *testing.T) {
	svc, _, _, _, events := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())
	if _, err := svc.AddParticipants(ctx, 10, post.ID, []int{20}, ""); err != nil {
		t.Fatal(err)
	}

	p, _, err := svc.Attest(ctx, 20, post.ID, models.ParticipantConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if p.Status != models.ParticipantConfirmed || p.AttestedAt == nil {
		t.Errorf("after confirm: status=%q attested_at=%v", p.Status, p.AttestedAt)
	}

	p, _, err = svc.Attest(ctx, 20, post.ID, models.ParticipantDeclined)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if p.Status != models.ParticipantDeclined || p.AttestedAt != nil {
		t.Errorf("after decline: status=%q attested_at=%v, want declined/nil", p.Status, p.AttestedAt)
	}

	// maybe не трогает attested_at (остаётся nil после decline)
	p, _, err = svc.Attest(ctx, 20, post.ID, models.ParticipantMaybe)
	if err != nil {
		t.Fatalf("maybe: %v", err)
	}
	if p.Status != models.ParticipantMaybe || p.AttestedAt != nil {
		t.Errorf("after maybe: status=%q attested_at=%v, want maybe/nil", p.Status, p.AttestedAt)
	}

	var attestedEvents int
	for _, e := range events.events {
		if e.Type == EventParticipantAttested {
			attestedEvents++
		}
	}
	if attestedEvents != 3 {
		t.Errorf("attested events = %d, want 3", attestedEvents)
	}
}

func TestAttestByNonParticipantIsNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())
	_, _, err := svc.Attest(ctx, 99, post.ID, models.ParticipantConfirmed)
	if !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("err = %v, want ErrParticipantNotFound (membership must not leak)", err)
	}
}

func TestAttestToPendingIsRejected(t *testing.T) {
	svc, _, participants, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())
	if _, err := svc.AddParticipants(ctx, 10, post.ID, []int{20}, ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Attest(ctx, 20, post.ID, models.ParticipantConfirmed); err != nil {
		t.Fatal(err)
	}

	_, _, err := svc.Attest(ctx, 20, post.ID, models.ParticipantPending)
	if !errors.Is(err, ErrInvalidAttestStatus) {
		t.Fatalf("attest to pending err = %v, want ErrInvalidAttestStatus", err)
	}

	row, _ := participants.FindByPostAndProfile(ctx, post.ID, 20)
	if row.Status != models.ParticipantConfirmed || row.AttestedAt == nil {
		t.Errorf("row changed by rejected attest: status=%q attested_at=%v", row.Status, row.AttestedAt)
	}
}

func TestAttestRepeatedConfirmIsIdempotent(t *testing.T) {
	svc, _, participants, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())
	if _, err := svc.AddParticipants(ctx, 10, post.ID, []int{20}, ""); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Attest(ctx, 20, post.ID, models.ParticipantConfirmed); err != nil {
		t.Fatal(err)
	}
	first, _ := participants.FindByPostAndProfile(ctx, post.ID, 20)

	if _, _, err := svc.Attest(ctx, 20, post.ID, models.ParticipantConfirmed); err != nil {
		t.Fatal(err)
	}
	second, _ := participants.FindByPostAndProfile(ctx, post.ID, 20)

	if first.Status != second.Status {
		t.Errorf("status changed on repeat: %q vs %q", first.Status, second.Status)
	}
	if (first.AttestedAt == nil) != (second.AttestedAt == nil) {
		t.Errorf("attested_at presence changed on repeat")
	}
}

func TestUpdateGroupPost(t *testing.T) {
	svc, _, _, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())

	if _, err := svc.UpdateGroupPost(ctx, 10, post.ID, UpdateGroupPostInput{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Errorf("empty update err = %v, want ErrEmptyUpdate", err)
	}

	_, err := svc.UpdateGroupPost(ctx, 99, post.ID, UpdateGroupPostInput{Title: ptr("Hijacked")})
	if !errors.Is(err, ErrCreatorOnlyOperation) {
		t.Errorf("non-creator update err = %v, want ErrCreatorOnlyOperation", err)
	}

	status := models.StatusActive
	updated, err := svc.UpdateGroupPost(ctx, 10, post.ID, UpdateGroupPostInput{
		Title:  ptr("Sunday Round"),
		Status: &status,
	})
	if err != nil {
		t.Fatalf("creator update: %v", err)
	}
	if updated.Title != "Sunday Round" || updated.Status != models.StatusActive {
		t.Errorf("update not applied: title=%q status=%q", updated.Title, updated.Status)
	}
	if updated.Type != models.TypeGolfRound || updated.CreatorID != 10 {
		t.Errorf("immutable fields changed: type=%q creator=%d", updated.Type, updated.CreatorID)
	}
}

func TestDeleteGroupPostCascades(t *testing.T) {
	svc, posts, participants, _, _ := newTestGroupPostService()
	ctx := context.Background()

	post, _ := svc.CreateGroupPost(ctx, 10, validCreateInput())
	if _, err := svc.AddParticipants(ctx, 10, post.ID, []int{20, 30}, ""); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteGroupPost(ctx, 10, post.ID); err != nil {
		t.Fatalf("DeleteGroupPost: %v", err)
	}
	if len(posts.posts) != 0 {
		t.Error("post still present after delete")
	}
	rows, _ := participants.ListByPost(ctx, post.ID)
	if len(rows) != 0 {
		t.Errorf("participants remain after cascade: %d", len(rows))
	}
}

func TestListGroupPostsVisibilityAndPaging(t *testing.T) {
	svc, _, _, _, _ := newTestGroupPostService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateGroupPost(ctx, 10, validCreateInput()); err != nil {
			t.Fatal(err)
		}
	}
	private := validCreateInput()
	v := models.VisibilityPrivate
	private.Visibility = &v
	if _, err := svc.CreateGroupPost(ctx, 11, private); err != nil {
		t.Fatal(err)
	}

	// Посторонний зритель видит только публичные посты.
	page1, hasMore, cursor, err := svc.ListGroupPosts(ctx, 99, ListGroupPostsInput{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page1) != 2 || !hasMore || cursor == nil {
		t.Fatalf("page1: len=%d has_more=%v cursor=%v", len(page1), hasMore, cursor)
	}

	page2, hasMore, _, err := svc.ListGroupPosts(ctx, 99, ListGroupPostsInput{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatal(err)
	}
	if len(page2) != 1 || hasMore {
		t.Fatalf("page2: len=%d has_more=%v, want 1/false", len(page2), hasMore)
	}

	// Создатель приватного поста видит все четыре.
	all, _, _, err := svc.ListGroupPosts(ctx, 11, ListGroupPostsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("creator-visible posts = %d, want 4", len(all))
	}
}

func TestAuthorizeRead(t *testing.T) {
	svc, _, _, _, _ := newTestGroupPostService()
	ctx := context.Background()

	private := validCreateInput()
	v := models.VisibilityPrivate
	private.Visibility = &v
	post, err := svc.CreateGroupPost(ctx, 10, private)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddParticipants(ctx, 10, post.ID, []int{20}, ""); err != nil {
		t.Fatal(err)
	}

	if err := svc.AuthorizeRead(ctx, 10, post.ID); err != nil {
		t.Errorf("creator err = %v, want nil", err)
	}
	if err := svc.AuthorizeRead(ctx, 20, post.ID); err != nil {
		t.Errorf("participant err = %v, want nil", err)
	}

	// Посторонний не отличает приватный пост от несуществующего.
	if err := svc.AuthorizeRead(ctx, 99, post.ID); !errors.Is(err, ErrGroupPostNotFound) {
		t.Errorf("stranger err = %v, want ErrGroupPostNotFound", err)
	}
	if err := svc.AuthorizeRead(ctx, 99, post.ID+1000); !errors.Is(err, ErrGroupPostNotFound) {
		t.Errorf("missing post err = %v, want ErrGroupPostNotFound", err)
	}
}

func ptr[T any](v T) *T { return &v }
