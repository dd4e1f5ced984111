package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldmates/fieldmates/models"
	"github.com/fieldmates/fieldmates/repositories"
)

// defaultHolePar используется при вычислении to_par для лунок без явного пара.
const defaultHolePar = 4

// GolfService связывает гольф-данные с групповым постом: один скоркард на
// пост (ExtensionDataBinder) и результаты участников с подтверждением и
// блокировкой (ParticipantScoreAggregator).
type GolfService struct {
	posts        repositories.GroupPostRepository
	participants repositories.ParticipantRepository
	scorecards   repositories.GolfScorecardRepository
	scores       repositories.GolfScoresRepository
	guard        *Guard
	notifier     NotificationPublisher
	logger       *slog.Logger
}

func NewGolfService(
	posts repositories.GroupPostRepository,
	participants repositories.ParticipantRepository,
	scorecards repositories.GolfScorecardRepository,
	scores repositories.GolfScoresRepository,
	guard *Guard,
	notifier NotificationPublisher,
	logger *slog.Logger,
) *GolfService {
	return &GolfService{
		posts:        posts,
		participants: participants,
		scorecards:   scorecards,
		scores:       scores,
		guard:        guard,
		notifier:     notifier,
		logger:       logger,
	}
}

type CreateScorecardInput struct {
	GroupPostID       int                  `json:"group_post_id"`
	CourseName        string               `json:"course_name"`
	CourseID          *string              `json:"course_id"`
	RoundType         models.GolfRoundType `json:"round_type"`
	HolesPlayed       int                  `json:"holes_played"`
	TeeColor          *string              `json:"tee_color"`
	SlopeRating       *int                 `json:"slope_rating"`
	CourseRating      *float64             `json:"course_rating"`
	WeatherConditions *string              `json:"weather_conditions"`
	Temperature       *int                 `json:"temperature"`
	WindSpeed         *int                 `json:"wind_speed"`
}

// CreateScorecard создаёт единственный скоркард поста. Вся валидация
// выполняется до записи; повторная попытка — конфликт, а не перезапись.
func (s *GolfService) CreateScorecard(ctx context.Context, actorID int, input CreateScorecardInput) (*models.GolfScorecard, error) {
	post, actor, err := s.loadPostAndActor(ctx, actorID, input.GroupPostID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(actorID, OpCreateScorecard, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}
	if post.Type != models.TypeGolfRound {
		return nil, ErrPostTypeMismatch
	}
	if input.CourseName == "" {
		return nil, ErrCourseNameRequired
	}
	if !input.RoundType.Valid() {
		return nil, ErrInvalidRoundType
	}
	if input.HolesPlayed < 1 || input.HolesPlayed > 18 {
		return nil, ErrHolesPlayedOutOfRange
	}

	card := &models.GolfScorecard{
		GroupPostID:       post.ID,
		CourseName:        input.CourseName,
		CourseID:          input.CourseID,
		RoundType:         input.RoundType,
		HolesPlayed:       input.HolesPlayed,
		TeeColor:          input.TeeColor,
		SlopeRating:       input.SlopeRating,
		CourseRating:      input.CourseRating,
		WeatherConditions: input.WeatherConditions,
		Temperature:       input.Temperature,
		WindSpeed:         input.WindSpeed,
	}
	if err := s.scorecards.Create(ctx, card); err != nil {
		switch {
		case errors.Is(err, repositories.ErrScorecardConflict):
			return nil, ErrScorecardConflict
		case errors.Is(err, repositories.ErrScorecardPostInvalid):
			return nil, ErrGroupPostNotFound
		}
		return nil, fmt.Errorf("create scorecard: %w", err)
	}
	return card, nil
}

// GetScorecard возвращает скоркард поста любому, кто видит сам пост.
func (s *GolfService) GetScorecard(ctx context.Context, viewerID, groupPostID int) (*models.GolfScorecard, error) {
	post, actor, err := s.loadPostAndActor(ctx, viewerID, groupPostID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(viewerID, OpReadScorecard, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}
	card, err := s.scorecards.FindByPost(ctx, groupPostID)
	if err != nil {
		if errors.Is(err, repositories.ErrScorecardNotFound) {
			return nil, ErrScorecardNotFound
		}
		return nil, fmt.Errorf("find scorecard: %w", err)
	}
	return card, nil
}

type UpdateScorecardInput struct {
	CourseName        *string               `json:"course_name"`
	CourseID          *string               `json:"course_id"`
	RoundType         *models.GolfRoundType `json:"round_type"`
	HolesPlayed       *int                  `json:"holes_played"`
	TeeColor          *string               `json:"tee_color"`
	SlopeRating       *int                  `json:"slope_rating"`
	CourseRating      *float64              `json:"course_rating"`
	WeatherConditions *string               `json:"weather_conditions"`
	Temperature       *int                  `json:"temperature"`
	WindSpeed         *int                  `json:"wind_speed"`
}

func (i UpdateScorecardInput) empty() bool {
	return i.CourseName == nil && i.CourseID == nil && i.RoundType == nil &&
		i.HolesPlayed == nil && i.TeeColor == nil && i.SlopeRating == nil &&
		i.CourseRating == nil && i.WeatherConditions == nil &&
		i.Temperature == nil && i.WindSpeed == nil
}

// UpdateScorecard изменяет скоркард, пока ни один участник не подтвердил
// свои результаты; после первого подтверждения скоркард заморожен.
func (s *GolfService) UpdateScorecard(ctx context.Context, actorID, groupPostID int, input UpdateScorecardInput) (*models.GolfScorecard, error) {
	if input.empty() {
		return nil, ErrEmptyUpdate
	}

	post, actor, err := s.loadPostAndActor(ctx, actorID, groupPostID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(actorID, OpUpdateScorecard, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}

	card, err := s.scorecards.FindByPost(ctx, groupPostID)
	if err != nil {
		if errors.Is(err, repositories.ErrScorecardNotFound) {
			return nil, ErrScorecardNotFound
		}
		return nil, fmt.Errorf("find scorecard: %w", err)
	}

	allScores, err := s.scores.ListByPost(ctx, groupPostID)
	if err != nil {
		return nil, fmt.Errorf("list scores for lock check: %w", err)
	}
	for _, sc := range allScores {
		if sc.ScoresConfirmed {
			return nil, ErrScorecardLocked
		}
	}

	if input.CourseName != nil {
		if *input.CourseName == "" {
			return nil, ErrCourseNameRequired
		}
		card.CourseName = *input.CourseName
	}
	if input.CourseID != nil {
		card.CourseID = input.CourseID
	}
	if input.RoundType != nil {
		if !input.RoundType.Valid() {
			return nil, ErrInvalidRoundType
		}
		card.RoundType = *input.RoundType
	}
	if input.HolesPlayed != nil {
		if *input.HolesPlayed < 1 || *input.HolesPlayed > 18 {
			return nil, ErrHolesPlayedOutOfRange
		}
		card.HolesPlayed = *input.HolesPlayed
	}
	if input.TeeColor != nil {
		card.TeeColor = input.TeeColor
	}
	if input.SlopeRating != nil {
		card.SlopeRating = input.SlopeRating
	}
	if input.CourseRating != nil {
		card.CourseRating = input.CourseRating
	}
	if input.WeatherConditions != nil {
		card.WeatherConditions = input.WeatherConditions
	}
	if input.Temperature != nil {
		card.Temperature = input.Temperature
	}
	if input.WindSpeed != nil {
		card.WindSpeed = input.WindSpeed
	}

	if err := s.scorecards.Update(ctx, card); err != nil {
		if errors.Is(err, repositories.ErrScorecardNotFound) {
			return nil, ErrScorecardNotFound
		}
		return nil, fmt.Errorf("update scorecard: %w", err)
	}
	return card, nil
}

type HoleScoreInput struct {
	HoleNumber        int   `json:"hole_number"`
	Strokes           int   `json:"strokes"`
	Putts             *int  `json:"putts"`
	Par               *int  `json:"par"`
	FairwayHit        *bool `json:"fairway_hit"`
	GreenInRegulation *bool `json:"green_in_regulation"`
}

type RecordScoresInput struct {
	GroupPostID int              `json:"group_post_id"`
	ProfileID   *int             `json:"participant_id"` // чей результат; по умолчанию сам актор
	Holes       []HoleScoreInput `json:"holes"`
}

// RecordHoleScores записывает лунки участника как upsert по номеру лунки.
// После подтверждения результатов запись отклоняется как locked.
func (s *GolfService) RecordHoleScores(ctx context.Context, actorID int, input RecordScoresInput) (*models.GolfParticipantScores, error) {
	if err := validateHoleScores(input.Holes); err != nil {
		return nil, err
	}

	post, subject, err := s.loadPostAndSubject(ctx, actorID, input.GroupPostID, input.ProfileID)
	if err != nil {
		return nil, err
	}
	if post.Type != models.TypeGolfRound {
		return nil, ErrPostTypeMismatch
	}

	enteredBy := 0
	existing, err := s.scores.FindByParticipant(ctx, subject.ID)
	if err != nil && !errors.Is(err, repositories.ErrScoresNotFound) {
		return nil, fmt.Errorf("find participant scores: %w", err)
	}
	if existing != nil {
		enteredBy = existing.EnteredBy
	}

	if err := s.guard.Can(actorID, OpRecordScores, GuardContext{Post: post, Subject: subject, EnteredBy: enteredBy}); err != nil {
		return nil, err
	}
	if existing != nil && existing.ScoresConfirmed {
		return nil, ErrScoresLocked
	}

	record, err := s.scores.GetOrCreate(ctx, subject.ID, actorID)
	if err != nil {
		return nil, fmt.Errorf("ensure participant scores: %w", err)
	}
	if record.ScoresConfirmed {
		return nil, ErrScoresLocked
	}

	holes := make([]*models.GolfHoleScore, 0, len(input.Holes))
	for _, h := range input.Holes {
		holes = append(holes, &models.GolfHoleScore{
			HoleNumber:        h.HoleNumber,
			Strokes:           h.Strokes,
			Putts:             h.Putts,
			Par:               h.Par,
			FairwayHit:        h.FairwayHit,
			GreenInRegulation: h.GreenInRegulation,
		})
	}
	if err := s.scores.UpsertHoles(ctx, record.ID, holes); err != nil {
		return nil, fmt.Errorf("upsert hole scores: %w", err)
	}

	now := time.Now().UTC()
	if err := s.participants.MarkContribution(ctx, subject.ID, now); err != nil {
		// Флаг вклада вторичен по отношению к самим результатам.
		s.logger.Error("failed to mark participant contribution",
			slog.Int("participant_id", subject.ID),
			slog.Any("error", err),
		)
	}

	return s.loadScoresWithHoles(ctx, subject.ID)
}

// ConfirmScores пересчитывает итоги по записанным лункам и блокирует их.
func (s *GolfService) ConfirmScores(ctx context.Context, actorID, groupPostID int, profileID *int) (*models.GolfParticipantScores, error) {
	post, subject, err := s.loadPostAndSubject(ctx, actorID, groupPostID, profileID)
	if err != nil {
		return nil, err
	}

	record, err := s.scores.FindByParticipant(ctx, subject.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoresNotFound) {
			return nil, ErrScoresNotFound
		}
		return nil, fmt.Errorf("find participant scores: %w", err)
	}
	if err := s.guard.Can(actorID, OpConfirmScores, GuardContext{Post: post, Subject: subject, EnteredBy: record.EnteredBy}); err != nil {
		return nil, err
	}

	holes, err := s.scores.ListHoles(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("list hole scores: %w", err)
	}
	total, toPar := computeTotals(holes)

	if err := s.scores.SetTotals(ctx, record.ID, total, toPar, len(holes), true); err != nil {
		return nil, fmt.Errorf("confirm scores: %w", err)
	}

	record.TotalScore = total
	record.ToPar = toPar
	record.HolesCompleted = len(holes)
	record.ScoresConfirmed = true
	record.Holes = holes

	s.notifier.Publish(Event{
		Type:        EventScoresConfirmed,
		GroupPostID: groupPostID,
		ProfileID:   subject.ProfileID,
		Payload:     record,
	})
	return record, nil
}

// UnlockScores снимает блокировку с подтверждённых результатов участника,
// открывая путь к исправлению. Доступно только создателю поста.
func (s *GolfService) UnlockScores(ctx context.Context, actorID, groupPostID, profileID int) (*models.GolfParticipantScores, error) {
	post, actor, err := s.loadPostAndActor(ctx, actorID, groupPostID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(actorID, OpUnlockScores, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}

	subject, err := s.participants.FindByPostAndProfile(ctx, groupPostID, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("find participant: %w", err)
	}
	record, err := s.scores.FindByParticipant(ctx, subject.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoresNotFound) {
			return nil, ErrScoresNotFound
		}
		return nil, fmt.Errorf("find participant scores: %w", err)
	}

	if err := s.scores.SetConfirmed(ctx, record.ID, false); err != nil {
		return nil, fmt.Errorf("unlock scores: %w", err)
	}
	record.ScoresConfirmed = false

	s.notifier.Publish(Event{
		Type:        EventScoresUnlocked,
		GroupPostID: groupPostID,
		ProfileID:   profileID,
	})
	return record, nil
}

// GetScores возвращает результаты одного участника или всех участников поста.
func (s *GolfService) GetScores(ctx context.Context, viewerID, groupPostID int, profileID *int) ([]*models.GolfParticipantScores, error) {
	post, actor, err := s.loadPostAndActor(ctx, viewerID, groupPostID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Can(viewerID, OpReadScorecard, GuardContext{Post: post, Actor: actor}); err != nil {
		return nil, err
	}

	if profileID != nil {
		subject, err := s.participants.FindByPostAndProfile(ctx, groupPostID, *profileID)
		if err != nil {
			if errors.Is(err, repositories.ErrParticipantNotFound) {
				return nil, ErrParticipantNotFound
			}
			return nil, fmt.Errorf("find participant: %w", err)
		}
		record, err := s.loadScoresWithHoles(ctx, subject.ID)
		if err != nil {
			return nil, err
		}
		return []*models.GolfParticipantScores{record}, nil
	}

	records, err := s.scores.ListByPost(ctx, groupPostID)
	if err != nil {
		return nil, fmt.Errorf("list scores by post: %w", err)
	}
	for _, record := range records {
		holes, err := s.scores.ListHoles(ctx, record.ID)
		if err != nil {
			return nil, fmt.Errorf("list hole scores: %w", err)
		}
		record.Holes = holes
	}
	return records, nil
}

func (s *GolfService) loadScoresWithHoles(ctx context.Context, participantID int) (*models.GolfParticipantScores, error) {
	record, err := s.scores.FindByParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrScoresNotFound) {
			return nil, ErrScoresNotFound
		}
		return nil, fmt.Errorf("find participant scores: %w", err)
	}
	holes, err := s.scores.ListHoles(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("list hole scores: %w", err)
	}
	record.Holes = holes
	return record, nil
}

func (s *GolfService) loadPostAndActor(ctx context.Context, actorID, postID int) (*models.GroupPost, *models.Participant, error) {
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

// loadPostAndSubject разрешает участника, над результатами которого идёт
// работа: profileID из запроса либо сам актор.
func (s *GolfService) loadPostAndSubject(ctx context.Context, actorID, postID int, profileID *int) (*models.GroupPost, *models.Participant, error) {
	post, _, err := s.loadPostAndActor(ctx, actorID, postID)
	if err != nil {
		return nil, nil, err
	}

	targetProfile := actorID
	if profileID != nil {
		targetProfile = *profileID
	}
	subject, err := s.participants.FindByPostAndProfile(ctx, postID, targetProfile)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, nil, ErrParticipantNotFound
		}
		return nil, nil, fmt.Errorf("find subject participant: %w", err)
	}
	return post, subject, nil
}

func validateHoleScores(holes []HoleScoreInput) error {
	if len(holes) == 0 {
		return ErrNoHoleScores
	}
	seen := make(map[int]bool, len(holes))
	for _, h := range holes {
		if h.HoleNumber < 1 || h.HoleNumber > 18 {
			return ErrHoleNumberOutOfRange
		}
		if seen[h.HoleNumber] {
			return ErrDuplicateHoleNumber
		}
		seen[h.HoleNumber] = true
		if h.Strokes < 1 || h.Strokes > 15 {
			return ErrStrokesOutOfRange
		}
		if h.Putts != nil && (*h.Putts < 0 || *h.Putts > h.Strokes) {
			return ErrPuttsOutOfRange
		}
		if h.Par != nil && (*h.Par < 3 || *h.Par > 6) {
			return ErrParOutOfRange
		}
	}
	return nil
}

func computeTotals(holes []*models.GolfHoleScore) (total, toPar int) {
	for _, h := range holes {
		total += h.Strokes
		par := defaultHolePar
		if h.Par != nil {
			par = *h.Par
		}
		toPar += h.Strokes - par
	}
	return total, toPar
}
