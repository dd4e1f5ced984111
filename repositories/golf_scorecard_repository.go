package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldmates/fieldmates/models"
	"github.com/lib/pq"
)

var (
	ErrScorecardNotFound    = errors.New("golf scorecard not found")
	ErrScorecardConflict    = errors.New("golf scorecard already exists for this group post")
	ErrScorecardPostInvalid = errors.New("golf scorecard group post conflict or invalid")
)

type GolfScorecardRepository interface {
	Create(ctx context.Context, card *models.GolfScorecard) error
	FindByPost(ctx context.Context, groupPostID int) (*models.GolfScorecard, error)
	Update(ctx context.Context, card *models.GolfScorecard) error
}

type postgresGolfScorecardRepository struct {
	db *sql.DB
}

func NewPostgresGolfScorecardRepository(db *sql.DB) GolfScorecardRepository {
	return &postgresGolfScorecardRepository{db: db}
}

const scorecardColumns = `id, group_post_id, course_name, course_id, round_type, holes_played, tee_color, slope_rating, course_rating, weather_conditions, temperature, wind_speed, created_at, updated_at`

func (r *postgresGolfScorecardRepository) Create(ctx context.Context, card *models.GolfScorecard) error {
	query := `
		INSERT INTO golf_scorecards (group_post_id, course_name, course_id, round_type, holes_played,
		                             tee_color, slope_rating, course_rating, weather_conditions, temperature, wind_speed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		card.GroupPostID,
		card.CourseName,
		card.CourseID,
		card.RoundType,
		card.HolesPlayed,
		card.TeeColor,
		card.SlopeRating,
		card.CourseRating,
		card.WeatherConditions,
		card.Temperature,
		card.WindSpeed,
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "golf_scorecards_group_post_id_key" {
					return ErrScorecardConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "golf_scorecards_group_post_id_fkey" {
					return ErrScorecardPostInvalid
				}
			}
		}
		return fmt.Errorf("failed to create golf scorecard: %w", err)
	}
	return nil
}

func (r *postgresGolfScorecardRepository) FindByPost(ctx context.Context, groupPostID int) (*models.GolfScorecard, error) {
	query := fmt.Sprintf(`SELECT %s FROM golf_scorecards WHERE group_post_id = $1`, scorecardColumns)

	card := &models.GolfScorecard{}
	row := r.db.QueryRowContext(ctx, query, groupPostID)
	err := row.Scan(
		&card.ID,
		&card.GroupPostID,
		&card.CourseName,
		&card.CourseID,
		&card.RoundType,
		&card.HolesPlayed,
		&card.TeeColor,
		&card.SlopeRating,
		&card.CourseRating,
		&card.WeatherConditions,
		&card.Temperature,
		&card.WindSpeed,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScorecardNotFound
		}
		return nil, fmt.Errorf("failed to find golf scorecard: %w", err)
	}
	return card, nil
}

func (r *postgresGolfScorecardRepository) Update(ctx context.Context, card *models.GolfScorecard) error {
	query := `
		UPDATE golf_scorecards
		SET course_name = $1, course_id = $2, round_type = $3, holes_played = $4,
		    tee_color = $5, slope_rating = $6, course_rating = $7,
		    weather_conditions = $8, temperature = $9, wind_speed = $10, updated_at = now()
		WHERE id = $11
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		card.CourseName,
		card.CourseID,
		card.RoundType,
		card.HolesPlayed,
		card.TeeColor,
		card.SlopeRating,
		card.CourseRating,
		card.WeatherConditions,
		card.Temperature,
		card.WindSpeed,
		card.ID,
	).Scan(&card.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrScorecardNotFound
		}
		return fmt.Errorf("failed to update golf scorecard: %w", err)
	}
	return nil
}
