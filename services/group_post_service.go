package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldmates/fieldmates/models"
	"github.com/fieldmates/fieldmates/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// GroupPostService владеет графом GroupPost/Participant: создание поста с
// участником-создателем, приглашения, подтверждение участия, обновление и
// каскадное удаление.
type GroupPostService struct {
	posts        repositories.GroupPostRepository
	participants repositories.ParticipantRepository
	scorecards   repositories.GolfScorecardRepository
	guard        *Guard
	notifier     NotificationPublisher
	logger       *slog.Logger
}

func NewGroupPostService(
	posts repositories.GroupPostRepository,
	participants repositories.ParticipantRepository,
	scorecards repositories.GolfScorecardRepository,
	guard *Guard,
	notifier NotificationPublisher,
	logger *slog.Logger,
) *GroupPostService {
	return &GroupPostService{
		posts:        posts,
		participants: participants,
		scorecards:   scorecards,
		guard:        guard,
		notifier:     notifier,
		logger:       logger,
	}
}

type CreateGroupPostInput struct {
	Type           models.GroupPostType        `json:"type"`
	Title          string                      `json:"title"`
	Date           time.Time                   `json:"date"`
	Description    *string                     `json:"description"`
	Location       *string                     `json:"location"`
	Visibility     *models.GroupPostVisibility `json:"visibility"`
	SocialPostID   *int                        `json:"social_post_id"`
	ParticipantIDs []int                       `json:"participant_ids"`
}

// CreateGroupPost создаёт пост и строку участника-создателя. Это намеренно
// двухфазная запись: если вставка участника-создателя не удалась, пост уже
// существует и возвращается вызывающему, а сбой логируется. Конкурентный
// читатель может наблюдать пост без строки создателя в этом окне.
func (s *GroupPostService) CreateGroupPost(ctx context.Context, creatorID int, input CreateGroupPostInput) (*models.GroupPost, error) {
	if err := s.guard.Can(creatorID, OpCreatePost, GuardContext{}); err != nil {
		return nil, err
	}

	if !input.Type.Valid() {
		return nil, ErrInvalidPostType
	}
	if input.Title == "" {
		return nil, ErrPostTitleRequired
	}
	if input.Date.IsZero() {
		return nil, ErrPostDateRequired
	}
	visibility := models.VisibilityPublic
	if input.Visibility != nil {
		if !input.Visibility.Valid() {
			return nil, ErrInvalidVisibility
		}
		visibility = *input.Visibility
	}

	post := &models.GroupPost{
		CreatorID:    creatorID,
		Type:         input.Type,
		Title:        input.Title,
		Description:  input.Description,
		Date:         input.Date,
		Location:     input.Location,
		Visibility:   visibility,
		Status:       models.StatusPending,
		SocialPostID: input.SocialPostID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create group post: %w", err)
	}

	now := time.Now().UTC()
	creator := &models.Participant{
		GroupPostID: post.ID,
		ProfileID:   creatorID,
		Role:        models.RoleCreator,
		Status:      models.ParticipantConfirmed,
		AttestedAt:  &now,
	}
	if err := s.participants.Create(ctx, creator); err != nil {
		// Пост уже создан и возвращается вызывающему; сбой вставки строки
		// создателя логируется и не проваливает операцию.
		s.logger.Error("creator participant insert failed after post creation",
			slog.Int("group_post_id", post.ID),
			slog.Int("creator_id", creatorID),
			slog.Any("error", err),
		)
	} else {
		post.Participants = append(post.Participants, creator)
	}

	if len(input.ParticipantIDs) > 0 {
		invited, err := s.insertInvitees(ctx, post, creatorID, input.ParticipantIDs, models.RoleParticipant)
		if err != nil {
			s.logger.Error("initial participant invitations failed",
				slog.Int("group_post_id", post.ID),
				slog.Any("error", err),
			)
		} else {
			post.Participants = append(post.Participants, invited...)
		}
	}

	return post, nil
}

func (s *GroupPostService) insertInvitees(ctx context.Context, post *models.GroupPost, creatorID int, profileIDs []int, role models.ParticipantRole) ([]*models.Participant, error) {
	seen := make(map[int]bool, len(profileIDs))
	rows := make([]*models.Participant, 0, len(profileIDs))
	for _, id := range profileIDs {
		if id <= 0 || id == creatorID || seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, &models.Participant{
			GroupPostID: post.ID,
			ProfileID:   id,
			Role:        role,
			Status:      models.ParticipantPending,
		})
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := s.participants.CreateBatch(ctx, rows); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrParticipantConflict
		}
		return nil, fmt.Errorf("insert invitees: %w", err)
	}
	for _, p := range rows {
		s.notifier.Publish(Event{
			Type:        EventParticipantInvited,
			GroupPostID: post.ID,
			ProfileID:   p.ProfileID,
			Payload:     p,
		})
	}
	return rows, nil
}

// GetGroupPost возвращает пост с участниками и (для гольф-раундов) скоркардом.
func (s *GroupPostService) GetGroupPost(ctx context.Context, viewerID, postID int) (*models.GroupPost, error) {
	post, actor, err := s.loadPostAndActor(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(viewerID, OpReadPost, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participants.ListByPost(gctx, post.ID)
		if err != nil {
			return err
		}
		post.Participants = participants
		return nil
	})
	if post.Type == models.TypeGolfRound {
		g.Go(func() error {
			card, err := s.scorecards.FindByPost(gctx, post.ID)
			if err != nil {
				if errors.Is(err, repositories.ErrScorecardNotFound) {
					return nil
				}
				return err
			}
			post.GolfData = card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load group post details: %w", err)
	}
	return post, nil
}

type ListGroupPostsInput struct {
	Type   *models.GroupPostType
	Status *models.GroupPostStatus
	Limit  int
	Cursor *int
}

// ListGroupPosts возвращает страницу постов, видимых зрителю, и курсор
// следующей страницы (keyset по убыванию id).
func (s *GroupPostService) ListGroupPosts(ctx context.Context, viewerID int, input ListGroupPostsInput) ([]*models.GroupPost, bool, *int, error) {
	if input.Type != nil && !input.Type.Valid() {
		return nil, false, nil, ErrInvalidPostType
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, false, nil, ErrInvalidPostStatus
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	posts, err := s.posts.List(ctx, repositories.ListGroupPostsFilter{
		ViewerID: viewerID,
		Type:     input.Type,
		Status:   input.Status,
		Limit:    limit + 1, // одна лишняя строка для has_more
		Cursor:   input.Cursor,
	})
	if err != nil {
		return nil, false, nil, fmt.Errorf("list group posts: %w", err)
	}

	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}
	var nextCursor *int
	if hasMore && len(posts) > 0 {
		last := posts[len(posts)-1].ID
		nextCursor = &last
	}
	return posts, hasMore, nextCursor, nil
}

type UpdateGroupPostInput struct {
	Title       *string                     `json:"title"`
	Description *string                     `json:"description"`
	Date        *time.Time                  `json:"date"`
	Location    *string                     `json:"location"`
	Visibility  *models.GroupPostVisibility `json:"visibility"`
	Status      *models.GroupPostStatus     `json:"status"`
}

func (i UpdateGroupPostInput) empty() bool {
	return i.Title == nil && i.Description == nil && i.Date == nil &&
		i.Location == nil && i.Visibility == nil && i.Status == nil
}

// UpdateGroupPost изменяет пост; разрешено только создателю. Тип и создатель
// поста неизменяемы и здесь не принимаются вовсе.
func (s *GroupPostService) UpdateGroupPost(ctx context.Context, actorID, postID int, input UpdateGroupPostInput) (*models.GroupPost, error) {
	if input.empty() {
		return nil, ErrEmptyUpdate
	}

	post, actor, err := s.loadPostAndActor(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(actorID, OpUpdatePost, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}

	if input.Title != nil {
		if *input.Title == "" {
			return nil, ErrPostTitleRequired
		}
		post.Title = *input.Title
	}
	if input.Description != nil {
		post.Description = input.Description
	}
	if input.Date != nil {
		if input.Date.IsZero() {
			return nil, ErrPostDateRequired
		}
		post.Date = *input.Date
	}
	if input.Location != nil {
		post.Location = input.Location
	}
	if input.Visibility != nil {
		if !input.Visibility.Valid() {
			return nil, ErrInvalidVisibility
		}
		post.Visibility = *input.Visibility
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidPostStatus
		}
		post.Status = *input.Status
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, repositories.ErrGroupPostNotFound) {
			return nil, ErrGroupPostNotFound
		}
		return nil, fmt.Errorf("update group post: %w", err)
	}
	return post, nil
}

// DeleteGroupPost удаляет пост; участники, скоркард и результаты
// каскадируются на уровне хранилища.
func (s *GroupPostService) DeleteGroupPost(ctx context.Context, actorID, postID int) error {
	post, actor, err := s.loadPostAndActor(ctx, actorID, postID)
	if err != nil {
		return err
	}
	if err := s.guard.Can(actorID, OpDeletePost, GuardContext{Post: post, Actor: actor}); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, repositories.ErrGroupPostNotFound) {
			return ErrGroupPostNotFound
		}
		return fmt.Errorf("delete group post: %w", err)
	}
	return nil
}

// AddParticipants приглашает профили на пост. Вся пачка вставляется
// атомарно: если хоть один профиль уже участвует — конфликт, и ни одна
// строка пачки не сохраняется.
func (s *GroupPostService) AddParticipants(ctx context.Context, actorID, postID int, profileIDs []int, role models.ParticipantRole) ([]*models.Participant, error) {
	if role == "" {
		role = models.RoleParticipant
	}
	if !role.Valid() || role == models.RoleCreator {
		return nil, ErrInvalidParticipantRole
	}

	post, actor, err := s.loadPostAndActor(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(actorID, OpAddParticipants, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(profileIDs))
	for _, id := range profileIDs {
		if id == post.CreatorID {
			return nil, ErrParticipantConflict
		}
		ids = append(ids, id)
	}
	participants, err := s.insertInvitees(ctx, post, post.CreatorID, ids, role)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipantIDs
	}
	return participants, nil
}

func (s *GroupPostService) ListParticipants(ctx context.Context, viewerID, postID int) ([]*models.Participant, error) {
	post, actor, err := s.loadPostAndActor(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(viewerID, OpReadPost, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}
	participants, err := s.participants.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return participants, nil
}

// RemoveParticipant удаляет участника; строка создателя неудаляема. Результаты
// удаляемого участника каскадируются.
func (s *GroupPostService) RemoveParticipant(ctx context.Context, actorID, postID, profileID int) error {
	post, actor, err := s.loadPostAndActor(ctx, actorID, postID)
	if err != nil {
		return err
	}
	subject, err := s.participants.FindByPostAndProfile(ctx, postID, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("find participant: %w", err)
	}
	if err := s.guard.Can(actorID, OpRemoveParticipant, GuardContext{Post: post, Actor: actor, Subject: subject}); err != nil {
		return err
	}
	if err := s.participants.Delete(ctx, subject.ID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("delete participant: %w", err)
	}
	s.notifier.Publish(Event{
		Type:        EventParticipantRemoved,
		GroupPostID: postID,
		ProfileID:   profileID,
	})
	return nil
}

// UpdateParticipantRole меняет роль участника (кроме строки создателя).
func (s *GroupPostService) UpdateParticipantRole(ctx context.Context, actorID, postID, profileID int, role models.ParticipantRole) (*models.Participant, error) {
	if !role.Valid() || role == models.RoleCreator {
		return nil, ErrInvalidParticipantRole
	}
	post, actor, err := s.loadPostAndActor(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	subject, err := s.participants.FindByPostAndProfile(ctx, postID, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("find participant: %w", err)
	}
	if err := s.guard.Can(actorID, OpUpdateParticipantRole, GuardContext{Post: post, Actor: actor, Subject: subject}); err != nil {
		return nil, err
	}
	if err := s.participants.UpdateRole(ctx, subject.ID, role); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("update participant role: %w", err)
	}
	subject.Role = role
	return subject, nil
}

// Attest применяет подтверждение/отказ/«возможно» к собственной строке
// участника. Повторное подтверждение идемпотентно.
func (s *GroupPostService) Attest(ctx context.Context, actorID, postID int, status models.ParticipantStatus) (*models.Participant, *models.GroupPost, error) {
	if !status.Valid() {
		return nil, nil, ErrInvalidAttestStatus
	}

	post, actor, err := s.loadPostAndActor(ctx, actorID, postID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.guard.Can(actorID, OpAttest, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, nil, err
	}

	if err := ApplyAttestation(actor, status, time.Now().UTC()); err != nil {
		return nil, nil, err
	}
	if err := s.participants.UpdateAttestation(ctx, actor.ID, actor.Status, actor.AttestedAt); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, nil, ErrParticipantNotFound
		}
		return nil, nil, fmt.Errorf("update attestation: %w", err)
	}

	s.notifier.Publish(Event{
		Type:        EventParticipantAttested,
		GroupPostID: postID,
		ProfileID:   actorID,
		Payload:     actor,
	})
	return actor, post, nil
}

// AuthorizeRead проверяет, что зритель вправе читать пост, не загружая
// ничего сверх самой строки поста. Используется подпиской на поток событий:
// невидимый пост неотличим от несуществующего.
func (s *GroupPostService) AuthorizeRead(ctx context.Context, viewerID, postID int) error {
	post, actor, err := s.loadPostAndActor(ctx, viewerID, postID)
	if err != nil {
		return err
	}
	return s.guard.Can(viewerID, OpReadPost, GuardContext{Post: post, Actor: actor})
}

// GetOwnAttestation возвращает строку участника самого зрителя.
func (s *GroupPostService) GetOwnAttestation(ctx context.Context, actorID, postID int) (*models.Participant, error) {
	post, actor, err := s.loadPostAndActor(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(actorID, OpAttest, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}
	return actor, nil
}

// loadPostAndActor загружает пост и строку участника действующего профиля
// (nil, если профиль не участвует).
func (s *GroupPostService) loadPostAndActor(ctx context.Context, actorID, postID int) (*models.GroupPost, *models.Participant, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupPostNotFound) {
			return nil, nil, ErrGroupPostNotFound
		}
		return nil, nil, fmt.Errorf("find group post: %w", err)
	}

	actor, err := s.participants.FindByPostAndProfile(ctx, postID, actorID)
	if err != nil {
		if !errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, nil, fmt.Errorf("find actor participant: %w", err)
		}
		actor = nil
	}
	return post, actor, nil
}
