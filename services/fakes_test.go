package services

import (
	"context"
	"sort"
	"time"

	"github.com/fieldmates/fieldmates/models"
	"github.com/fieldmates/fieldmates/repositories"
)

// In-memory repository doubles. They mirror the constraint behavior of the
// postgres implementations: unique (group_post_id, profile_id), unique
// scorecard per post, all-or-nothing batch inserts, cascading deletes.

type fakeGroupPostRepo struct {
	nextID int
	posts  map[int]*models.GroupPost

	participants *fakeParticipantRepo // for cascade on Delete
}

func newFakeGroupPostRepo() *fakeGroupPostRepo {
	return &fakeGroupPostRepo{nextID: 1, posts: make(map[int]*models.GroupPost)}
}

func (r *fakeGroupPostRepo) Create(_ context.Context, post *models.GroupPost) error {
	post.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	stored := *post
	r.posts[post.ID] = &stored
	return nil
}

func (r *fakeGroupPostRepo) FindByID(_ context.Context, id int) (*models.GroupPost, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrGroupPostNotFound
	}
	cp := *post
	return &cp, nil
}

func (r *fakeGroupPostRepo) List(_ context.Context, filter repositories.ListGroupPostsFilter) ([]*models.GroupPost, error) {
	var out []*models.GroupPost
	for _, post := range r.posts {
		if filter.Type != nil && post.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && post.Status != *filter.Status {
			continue
		}
		if filter.Cursor != nil && post.ID >= *filter.Cursor {
			continue
		}
		visible := post.Visibility == models.VisibilityPublic || post.CreatorID == filter.ViewerID
		if !visible && r.participants != nil {
			if _, err := r.participants.FindByPostAndProfile(context.Background(), post.ID, filter.ViewerID); err == nil {
				visible = true
			}
		}
		if !visible {
			continue
		}
		cp := *post
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeGroupPostRepo) Update(_ context.Context, post *models.GroupPost) error {
	stored, ok := r.posts[post.ID]
	if !ok {
		return repositories.ErrGroupPostNotFound
	}
	stored.Title = post.Title
	stored.Description = post.Description
	stored.Date = post.Date
	stored.Location = post.Location
	stored.Visibility = post.Visibility
	stored.Status = post.Status
	stored.UpdatedAt = time.Now().UTC()
	post.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeGroupPostRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrGroupPostNotFound
	}
	delete(r.posts, id)
	if r.participants != nil {
		r.participants.deleteByPost(id)
	}
	return nil
}

type fakeParticipantRepo struct {
	nextID int
	rows   map[int]*models.Participant

	scores *fakeScoresRepo // for cascade on Delete

	failCreateForProfile int // когда >0, Create для этого профиля падает
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{nextID: 1, rows: make(map[int]*models.Participant)}
}

func (r *fakeParticipantRepo) insert(p *models.Participant) error {
	for _, row := range r.rows {
		if row.GroupPostID == p.GroupPostID && row.ProfileID == p.ProfileID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = time.Now().UTC()
	stored := *p
	r.rows[p.ID] = &stored
	return nil
}

func (r *fakeParticipantRepo) Create(_ context.Context, p *models.Participant) error {
	if r.failCreateForProfile != 0 && p.ProfileID == r.failCreateForProfile {
		return context.DeadlineExceeded
	}
	return r.insert(p)
}

func (r *fakeParticipantRepo) CreateBatch(_ context.Context, participants []*models.Participant) error {
	// Проверка всей пачки до вставки: частичных вставок не бывает.
	for _, p := range participants {
		for _, row := range r.rows {
			if row.GroupPostID == p.GroupPostID && row.ProfileID == p.ProfileID {
				return repositories.ErrParticipantConflict
			}
		}
	}
	seen := make(map[int]bool)
	for _, p := range participants {
		if seen[p.ProfileID] {
			return repositories.ErrParticipantConflict
		}
		seen[p.ProfileID] = true
	}
	for _, p := range participants {
		if err := r.insert(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeParticipantRepo) FindByID(_ context.Context, id int) (*models.Participant, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeParticipantRepo) FindByPostAndProfile(_ context.Context, groupPostID, profileID int) (*models.Participant, error) {
	for _, row := range r.rows {
		if row.GroupPostID == groupPostID && row.ProfileID == profileID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) ListByPost(_ context.Context, groupPostID int) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, row := range r.rows {
		if row.GroupPostID == groupPostID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeParticipantRepo) UpdateAttestation(_ context.Context, id int, status models.ParticipantStatus, attestedAt *time.Time) error {
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	row.Status = status
	row.AttestedAt = attestedAt
	return nil
}

func (r *fakeParticipantRepo) UpdateRole(_ context.Context, id int, role models.ParticipantRole) error {
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	row.Role = role
	return nil
}

func (r *fakeParticipantRepo) MarkContribution(_ context.Context, id int, at time.Time) error {
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrParticipantNotFound
	}
	row.DataContributed = true
	row.LastContribution = &at
	return nil
}

func (r *fakeParticipantRepo) Delete(_ context.Context, id int) error {
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrParticipantNotFound
	}
	delete(r.rows, id)
	if r.scores != nil {
		r.scores.deleteByParticipant(id)
	}
	return nil
}

func (r *fakeParticipantRepo) deleteByPost(groupPostID int) {
	for id, row := range r.rows {
		if row.GroupPostID == groupPostID {
			delete(r.rows, id)
			if r.scores != nil {
				r.scores.deleteByParticipant(id)
			}
		}
	}
}

type fakeScorecardRepo struct {
	nextID int
	cards  map[int]*models.GolfScorecard // keyed by group_post_id
}

func newFakeScorecardRepo() *fakeScorecardRepo {
	return &fakeScorecardRepo{nextID: 1, cards: make(map[int]*models.GolfScorecard)}
}

func (r *fakeScorecardRepo) Create(_ context.Context, card *models.GolfScorecard) error {
	if _, ok := r.cards[card.GroupPostID]; ok {
		return repositories.ErrScorecardConflict
	}
	card.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now
	stored := *card
	r.cards[card.GroupPostID] = &stored
	return nil
}

func (r *fakeScorecardRepo) FindByPost(_ context.Context, groupPostID int) (*models.GolfScorecard, error) {
	card, ok := r.cards[groupPostID]
	if !ok {
		return nil, repositories.ErrScorecardNotFound
	}
	cp := *card
	return &cp, nil
}

func (r *fakeScorecardRepo) Update(_ context.Context, card *models.GolfScorecard) error {
	stored, ok := r.cards[card.GroupPostID]
	if !ok {
		return repositories.ErrScorecardNotFound
	}
	id, created := stored.ID, stored.CreatedAt
	*stored = *card
	stored.ID = id
	stored.CreatedAt = created
	stored.UpdatedAt = time.Now().UTC()
	card.UpdatedAt = stored.UpdatedAt
	return nil
}

type fakeScoresRepo struct {
	nextID  int
	records map[int]*models.GolfParticipantScores // keyed by participant_id
	holes   map[int]map[int]*models.GolfHoleScore // scores_id -> hole_number -> row
}

func newFakeScoresRepo() *fakeScoresRepo {
	return &fakeScoresRepo{
		nextID:  1,
		records: make(map[int]*models.GolfParticipantScores),
		holes:   make(map[int]map[int]*models.GolfHoleScore),
	}
}

func (r *fakeScoresRepo) GetOrCreate(_ context.Context, participantID, enteredBy int) (*models.GolfParticipantScores, error) {
	if record, ok := r.records[participantID]; ok {
		cp := *record
		return &cp, nil
	}
	record := &models.GolfParticipantScores{
		ID:            r.nextID,
		ParticipantID: participantID,
		EnteredBy:     enteredBy,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}
	r.nextID++
	r.records[participantID] = record
	r.holes[record.ID] = make(map[int]*models.GolfHoleScore)
	cp := *record
	return &cp, nil
}

func (r *fakeScoresRepo) FindByParticipant(_ context.Context, participantID int) (*models.GolfParticipantScores, error) {
	record, ok := r.records[participantID]
	if !ok {
		return nil, repositories.ErrScoresNotFound
	}
	cp := *record
	return &cp, nil
}

func (r *fakeScoresRepo) ListByPost(ctx context.Context, groupPostID int) ([]*models.GolfParticipantScores, error) {
	// Фейк не знает постов; фильтрация по посту делается в тестах через
	// participantRepo, поэтому возвращаем все записи.
	var out []*models.GolfParticipantScores
	for _, record := range r.records {
		cp := *record
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeScoresRepo) ListHoles(_ context.Context, scoresID int) ([]*models.GolfHoleScore, error) {
	var out []*models.GolfHoleScore
	for _, h := range r.holes[scoresID] {
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HoleNumber < out[j].HoleNumber })
	return out, nil
}

func (r *fakeScoresRepo) UpsertHoles(_ context.Context, scoresID int, holes []*models.GolfHoleScore) error {
	byNumber, ok := r.holes[scoresID]
	if !ok {
		byNumber = make(map[int]*models.GolfHoleScore)
		r.holes[scoresID] = byNumber
	}
	for _, h := range holes {
		cp := *h
		cp.ScoresID = scoresID
		byNumber[h.HoleNumber] = &cp
	}
	for _, record := range r.records {
		if record.ID == scoresID {
			record.HolesCompleted = len(byNumber)
			record.UpdatedAt = time.Now().UTC()
		}
	}
	return nil
}

func (r *fakeScoresRepo) SetTotals(_ context.Context, scoresID, totalScore, toPar, holesCompleted int, confirmed bool) error {
	for _, record := range r.records {
		if record.ID == scoresID {
			record.TotalScore = totalScore
			record.ToPar = toPar
			record.HolesCompleted = holesCompleted
			record.ScoresConfirmed = confirmed
			record.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repositories.ErrScoresNotFound
}

func (r *fakeScoresRepo) SetConfirmed(_ context.Context, scoresID int, confirmed bool) error {
	for _, record := range r.records {
		if record.ID == scoresID {
			record.ScoresConfirmed = confirmed
			record.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return repositories.ErrScoresNotFound
}

func (r *fakeScoresRepo) deleteByParticipant(participantID int) {
	if record, ok := r.records[participantID]; ok {
		delete(r.holes, record.ID)
		delete(r.records, participantID)
	}
}

type capturedEvents struct {
	events []Event
}

func (c *capturedEvents) Publish(event Event) {
	c.events = append(c.events, event)
}
