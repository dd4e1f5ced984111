package models

import "time"

// GolfRoundType представляет формат гольф-раунда.
type GolfRoundType string

const (
	RoundOutdoor GolfRoundType = "outdoor"
	RoundIndoor  GolfRoundType = "indoor"
)

func (t GolfRoundType) Valid() bool {
	return t == RoundOutdoor || t == RoundIndoor
}

// GolfScorecard — данные расширения для поста типа golf_round.
// На один пост может существовать не более одного скоркарда.
type GolfScorecard struct {
	ID                int           `json:"id" db:"id"`
	GroupPostID       int           `json:"group_post_id" db:"group_post_id"`
	CourseName        string        `json:"course_name" db:"course_name"`
	CourseID          *string       `json:"course_id,omitempty" db:"course_id"`
	RoundType         GolfRoundType `json:"round_type" db:"round_type"`
	HolesPlayed       int           `json:"holes_played" db:"holes_played"`
	TeeColor          *string       `json:"tee_color,omitempty" db:"tee_color"`
	SlopeRating       *int          `json:"slope_rating,omitempty" db:"slope_rating"`
	CourseRating      *float64      `json:"course_rating,omitempty" db:"course_rating"`
	WeatherConditions *string       `json:"weather_conditions,omitempty" db:"weather_conditions"`
	Temperature       *int          `json:"temperature,omitempty" db:"temperature"`
	WindSpeed         *int          `json:"wind_speed,omitempty" db:"wind_speed"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" db:"updated_at"`
}

// GolfParticipantScores — агрегат результатов одного участника, один-к-одному
// с Participant. После подтверждения (ScoresConfirmed) лунки заморожены.
type GolfParticipantScores struct {
	ID              int       `json:"id" db:"id"`
	ParticipantID   int       `json:"participant_id" db:"participant_id"`
	EnteredBy       int       `json:"entered_by" db:"entered_by"`
	ScoresConfirmed bool      `json:"scores_confirmed" db:"scores_confirmed"`
	TotalScore      int       `json:"total_score" db:"total_score"`
	ToPar           int       `json:"to_par" db:"to_par"`
	HolesCompleted  int       `json:"holes_completed" db:"holes_completed"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	Holes []*GolfHoleScore `json:"holes,omitempty" db:"-"`
}

// GolfHoleScore — результат на одной лунке. Номер лунки уникален в пределах
// родительского агрегата.
type GolfHoleScore struct {
	ID                int   `json:"id" db:"id"`
	ScoresID          int   `json:"-" db:"scores_id"`
	HoleNumber        int   `json:"hole_number" db:"hole_number"`
	Strokes           int   `json:"strokes" db:"strokes"`
	Putts             *int  `json:"putts,omitempty" db:"putts"`
	Par               *int  `json:"par,omitempty" db:"par"`
	FairwayHit        *bool `json:"fairway_hit,omitempty" db:"fairway_hit"`
	GreenInRegulation *bool `json:"green_in_regulation,omitempty" db:"green_in_regulation"`
}
