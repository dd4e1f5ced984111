package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fieldmates/fieldmates/models"
	"github.com/lib/pq"
)

var (
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrParticipantConflict    = errors.New("participant conflict: profile already on this group post")
	ErrParticipantPostInvalid = errors.New("participant group post conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	CreateBatch(ctx context.Context, participants []*models.Participant) error
	FindByID(ctx context.Context, id int) (*models.Participant, error)
	FindByPostAndProfile(ctx context.Context, groupPostID, profileID int) (*models.Participant, error)
	ListByPost(ctx context.Context, groupPostID int) ([]*models.Participant, error)
	UpdateAttestation(ctx context.Context, id int, status models.ParticipantStatus, attestedAt *time.Time) error
	UpdateRole(ctx context.Context, id int, role models.ParticipantRole) error
	MarkContribution(ctx context.Context, id int, at time.Time) error
	Delete(ctx context.Context, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `id, group_post_id, profile_id, role, status, attested_at, data_contributed, last_contribution, created_at`

func translateParticipantError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "group_participants_group_post_id_profile_id_key" {
				return ErrParticipantConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "group_participants_group_post_id_fkey" {
				return ErrParticipantPostInvalid
			}
		}
	}
	return nil
}

func (r *postgresParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO group_participants (group_post_id, profile_id, role, status, attested_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, data_contributed, created_at`

	err := r.db.QueryRowContext(ctx, query,
		p.GroupPostID,
		p.ProfileID,
		p.Role,
		p.Status,
		p.AttestedAt,
	).Scan(&p.ID, &p.DataContributed, &p.CreatedAt)

	if err != nil {
		if translated := translateParticipantError(err); translated != nil {
			return translated
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// CreateBatch вставляет всю пачку в одной транзакции: дубликат любого профиля
// откатывает вставку целиком, частичных вставок не бывает.
func (r *postgresParticipantRepository) CreateBatch(ctx context.Context, participants []*models.Participant) error {
	if len(participants) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin participant batch transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO group_participants (group_post_id, profile_id, role, status, attested_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, data_contributed, created_at`

	for _, p := range participants {
		err := tx.QueryRowContext(ctx, query,
			p.GroupPostID,
			p.ProfileID,
			p.Role,
			p.Status,
			p.AttestedAt,
		).Scan(&p.ID, &p.DataContributed, &p.CreatedAt)
		if err != nil {
			if translated := translateParticipantError(err); translated != nil {
				return translated
			}
			return fmt.Errorf("failed to insert participant batch row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit participant batch: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participant) error {
	return rowScanner.Scan(
		&p.ID,
		&p.GroupPostID,
		&p.ProfileID,
		&p.Role,
		&p.Status,
		&p.AttestedAt,
		&p.DataContributed,
		&p.LastContribution,
		&p.CreatedAt,
	)
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	row := r.db.QueryRowContext(ctx, query, args...)
	if err := r.scanParticipant(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM group_participants WHERE id = $1`, participantColumns)
	return r.findOne(ctx, query, id)
}

func (r *postgresParticipantRepository) FindByPostAndProfile(ctx context.Context, groupPostID, profileID int) (*models.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM group_participants WHERE group_post_id = $1 AND profile_id = $2`, participantColumns)
	return r.findOne(ctx, query, groupPostID, profileID)
}

func (r *postgresParticipantRepository) ListByPost(ctx context.Context, groupPostID int) ([]*models.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM group_participants WHERE group_post_id = $1 ORDER BY created_at ASC`, participantColumns)

	rows, err := r.db.QueryContext(ctx, query, groupPostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by post: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := r.scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) UpdateAttestation(ctx context.Context, id int, status models.ParticipantStatus, attestedAt *time.Time) error {
	query := `UPDATE group_participants SET status = $1, attested_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, attestedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update participant attestation: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateRole(ctx context.Context, id int, role models.ParticipantRole) error {
	query := `UPDATE group_participants SET role = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, role, id)
	if err != nil {
		return fmt.Errorf("failed to update participant role: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) MarkContribution(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE group_participants SET data_contributed = TRUE, last_contribution = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark participant contribution: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

// Delete удаляет участника; его результаты каскадируются внешними ключами.
func (r *postgresParticipantRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
