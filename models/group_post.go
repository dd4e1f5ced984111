package models

import "time"

// GroupPostType представляет тип групповой активности, соответствующий ENUM в БД.
type GroupPostType string

const (
	TypeGolfRound       GroupPostType = "golf_round"
	TypeHockeyGame      GroupPostType = "hockey_game"
	TypeVolleyballMatch GroupPostType = "volleyball_match"
	TypeBasketballGame  GroupPostType = "basketball_game"
	TypeSocialEvent     GroupPostType = "social_event"
	TypePracticeSession GroupPostType = "practice_session"
	TypeTournamentRound GroupPostType = "tournament_round"
	TypeWatchParty      GroupPostType = "watch_party"
)

func (t GroupPostType) Valid() bool {
	switch t {
	case TypeGolfRound, TypeHockeyGame, TypeVolleyballMatch, TypeBasketballGame,
		TypeSocialEvent, TypePracticeSession, TypeTournamentRound, TypeWatchParty:
		return true
	}
	return false
}

type GroupPostVisibility string

const (
	VisibilityPublic           GroupPostVisibility = "public"
	VisibilityPrivate          GroupPostVisibility = "private"
	VisibilityParticipantsOnly GroupPostVisibility = "participants_only"
)

func (v GroupPostVisibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityParticipantsOnly:
		return true
	}
	return false
}

type GroupPostStatus string

const (
	StatusPending   GroupPostStatus = "pending"
	StatusActive    GroupPostStatus = "active"
	StatusCompleted GroupPostStatus = "completed"
	StatusCancelled GroupPostStatus = "cancelled"
)

func (s GroupPostStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// GroupPost представляет групповую активность (раунд гольфа, матч и т.д.).
// CreatorID и Type неизменяемы после создания.
type GroupPost struct {
	ID           int                 `json:"id" db:"id"`
	CreatorID    int                 `json:"creator_id" db:"creator_id"`
	Type         GroupPostType       `json:"type" db:"type"`
	Title        string              `json:"title" db:"title"`
	Description  *string             `json:"description,omitempty" db:"description"`
	Date         time.Time           `json:"date" db:"date"`
	Location     *string             `json:"location,omitempty" db:"location"`
	Visibility   GroupPostVisibility `json:"visibility" db:"visibility"`
	Status       GroupPostStatus     `json:"status" db:"status"`
	SocialPostID *int                `json:"social_post_id,omitempty" db:"social_post_id"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Participants []*Participant `json:"participants,omitempty" db:"-"`
	GolfData     *GolfScorecard `json:"golf_data,omitempty" db:"-"`
}
