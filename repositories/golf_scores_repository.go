package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fieldmates/fieldmates/models"
)

var ErrScoresNotFound = errors.New("participant scores not found")

type GolfScoresRepository interface {
	// GetOrCreate возвращает агрегат результатов участника, создавая пустой
	// при первом обращении. Конкурентное создание разрешается уникальным
	// ограничением на participant_id.
	GetOrCreate(ctx context.Context, participantID, enteredBy int) (*models.GolfParticipantScores, error)
	FindByParticipant(ctx context.Context, participantID int) (*models.GolfParticipantScores, error)
	ListByPost(ctx context.Context, groupPostID int) ([]*models.GolfParticipantScores, error)
	ListHoles(ctx context.Context, scoresID int) ([]*models.GolfHoleScore, error)
	UpsertHoles(ctx context.Context, scoresID int, holes []*models.GolfHoleScore) error
	SetTotals(ctx context.Context, scoresID, totalScore, toPar, holesCompleted int, confirmed bool) error
	SetConfirmed(ctx context.Context, scoresID int, confirmed bool) error
}

type postgresGolfScoresRepository struct {
	db *sql.DB
}

func NewPostgresGolfScoresRepository(db *sql.DB) GolfScoresRepository {
	return &postgresGolfScoresRepository{db: db}
}

const scoresColumns = `id, participant_id, entered_by, scores_confirmed, total_score, to_par, holes_completed, created_at, updated_at`

func (r *postgresGolfScoresRepository) scanScores(rowScanner interface {
	Scan(dest ...interface{}) error
}, s *models.GolfParticipantScores) error {
	return rowScanner.Scan(
		&s.ID,
		&s.ParticipantID,
		&s.EnteredBy,
		&s.ScoresConfirmed,
		&s.TotalScore,
		&s.ToPar,
		&s.HolesCompleted,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

func (r *postgresGolfScoresRepository) GetOrCreate(ctx context.Context, participantID, enteredBy int) (*models.GolfParticipantScores, error) {
	query := `
		INSERT INTO golf_participant_scores (participant_id, entered_by)
		VALUES ($1, $2)
		ON CONFLICT (participant_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, participantID, enteredBy); err != nil {
		return nil, fmt.Errorf("failed to ensure participant scores row: %w", err)
	}
	return r.FindByParticipant(ctx, participantID)
}

func (r *postgresGolfScoresRepository) FindByParticipant(ctx context.Context, participantID int) (*models.GolfParticipantScores, error) {
	query := fmt.Sprintf(`SELECT %s FROM golf_participant_scores WHERE participant_id = $1`, scoresColumns)

	s := &models.GolfParticipantScores{}
	row := r.db.QueryRowContext(ctx, query, participantID)
	if err := r.scanScores(row, s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScoresNotFound
		}
		return nil, fmt.Errorf("failed to find participant scores: %w", err)
	}
	return s, nil
}

func (r *postgresGolfScoresRepository) ListByPost(ctx context.Context, groupPostID int) ([]*models.GolfParticipantScores, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM golf_participant_scores s
		JOIN group_participants p ON s.participant_id = p.id
		WHERE p.group_post_id = $1
		ORDER BY s.participant_id ASC`, qualifyColumns("s", scoresColumns))

	rows, err := r.db.QueryContext(ctx, query, groupPostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores by post: %w", err)
	}
	defer rows.Close()

	scores := make([]*models.GolfParticipantScores, 0)
	for rows.Next() {
		var s models.GolfParticipantScores
		if err := r.scanScores(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan participant scores row: %w", err)
		}
		scores = append(scores, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant scores rows: %w", err)
	}
	return scores, nil
}

func (r *postgresGolfScoresRepository) ListHoles(ctx context.Context, scoresID int) ([]*models.GolfHoleScore, error) {
	query := `
		SELECT id, scores_id, hole_number, strokes, putts, par, fairway_hit, green_in_regulation
		FROM golf_hole_scores
		WHERE scores_id = $1
		ORDER BY hole_number ASC`

	rows, err := r.db.QueryContext(ctx, query, scoresID)
	if err != nil {
		return nil, fmt.Errorf("failed to list hole scores: %w", err)
	}
	defer rows.Close()

	holes := make([]*models.GolfHoleScore, 0)
	for rows.Next() {
		var h models.GolfHoleScore
		err := rows.Scan(&h.ID, &h.ScoresID, &h.HoleNumber, &h.Strokes, &h.Putts, &h.Par, &h.FairwayHit, &h.GreenInRegulation)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hole score row: %w", err)
		}
		holes = append(holes, &h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hole score rows: %w", err)
	}
	return holes, nil
}

// UpsertHoles пишет лунки как insert-or-replace по натуральному ключу
// (scores_id, hole_number): повторная отправка лунки перезаписывает её,
// а не дублирует. Вся пачка идёт в одной транзакции.
func (r *postgresGolfScoresRepository) UpsertHoles(ctx context.Context, scoresID int, holes []*models.GolfHoleScore) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin hole scores transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO golf_hole_scores (scores_id, hole_number, strokes, putts, par, fairway_hit, green_in_regulation)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (scores_id, hole_number) DO UPDATE
		SET strokes = EXCLUDED.strokes, putts = EXCLUDED.putts, par = EXCLUDED.par,
		    fairway_hit = EXCLUDED.fairway_hit, green_in_regulation = EXCLUDED.green_in_regulation
		RETURNING id`

	for _, h := range holes {
		err := tx.QueryRowContext(ctx, query,
			scoresID,
			h.HoleNumber,
			h.Strokes,
			h.Putts,
			h.Par,
			h.FairwayHit,
			h.GreenInRegulation,
		).Scan(&h.ID)
		if err != nil {
			return fmt.Errorf("failed to upsert hole score %d: %w", h.HoleNumber, err)
		}
		h.ScoresID = scoresID
	}

	updateParent := `
		UPDATE golf_participant_scores
		SET holes_completed = (SELECT COUNT(*) FROM golf_hole_scores WHERE scores_id = $1),
		    updated_at = now()
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateParent, scoresID); err != nil {
		return fmt.Errorf("failed to refresh holes_completed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hole scores: %w", err)
	}
	return nil
}

func (r *postgresGolfScoresRepository) SetTotals(ctx context.Context, scoresID, totalScore, toPar, holesCompleted int, confirmed bool) error {
	query := `
		UPDATE golf_participant_scores
		SET total_score = $1, to_par = $2, holes_completed = $3, scores_confirmed = $4, updated_at = now()
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, totalScore, toPar, holesCompleted, confirmed, scoresID)
	if err != nil {
		return fmt.Errorf("failed to set score totals: %w", err)
	}
	return checkAffectedRows(result, ErrScoresNotFound)
}

func (r *postgresGolfScoresRepository) SetConfirmed(ctx context.Context, scoresID int, confirmed bool) error {
	query := `UPDATE golf_participant_scores SET scores_confirmed = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, confirmed, scoresID)
	if err != nil {
		return fmt.Errorf("failed to set scores confirmation: %w", err)
	}
	return checkAffectedRows(result, ErrScoresNotFound)
}
