package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldmates/fieldmates/models"
)

var ErrGroupPostNotFound = errors.New("group post not found")

// ListGroupPostsFilter описывает фильтры и keyset-пагинацию для списка постов.
// ViewerID используется для фильтрации по видимости: приватные посты видят
// только создатель и участники.
type ListGroupPostsFilter struct {
	ViewerID int
	Type     *models.GroupPostType
	Status   *models.GroupPostStatus
	Limit    int
	Cursor   *int // id последнего поста предыдущей страницы
}

type GroupPostRepository interface {
	Create(ctx context.Context, post *models.GroupPost) error
	FindByID(ctx context.Context, id int) (*models.GroupPost, error)
	List(ctx context.Context, filter ListGroupPostsFilter) ([]*models.GroupPost, error)
	Update(ctx context.Context, post *models.GroupPost) error
	Delete(ctx context.Context, id int) error
}

type postgresGroupPostRepository struct {
	db *sql.DB
}

func NewPostgresGroupPostRepository(db *sql.DB) GroupPostRepository {
	return &postgresGroupPostRepository{db: db}
}

const groupPostColumns = `id, creator_id, type, title, description, date, location, visibility, status, social_post_id, created_at, updated_at`

func (r *postgresGroupPostRepository) Create(ctx context.Context, post *models.GroupPost) error {
	query := `
		INSERT INTO group_posts (creator_id, type, title, description, date, location, visibility, status, social_post_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		post.CreatorID,
		post.Type,
		post.Title,
		post.Description,
		post.Date,
		post.Location,
		post.Visibility,
		post.Status,
		post.SocialPostID,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create group post: %w", err)
	}
	return nil
}

func (r *postgresGroupPostRepository) scanGroupPost(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.GroupPost) error {
	return rowScanner.Scan(
		&p.ID,
		&p.CreatorID,
		&p.Type,
		&p.Title,
		&p.Description,
		&p.Date,
		&p.Location,
		&p.Visibility,
		&p.Status,
		&p.SocialPostID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *postgresGroupPostRepository) FindByID(ctx context.Context, id int) (*models.GroupPost, error) {
	query := fmt.Sprintf(`SELECT %s FROM group_posts WHERE id = $1`, groupPostColumns)

	p := &models.GroupPost{}
	row := r.db.QueryRowContext(ctx, query, id)
	if err := r.scanGroupPost(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupPostNotFound
		}
		return nil, fmt.Errorf("failed to find group post: %w", err)
	}
	return p, nil
}

func (r *postgresGroupPostRepository) List(ctx context.Context, filter ListGroupPostsFilter) ([]*models.GroupPost, error) {
	var queryBuilder strings.Builder
	args := []interface{}{filter.ViewerID}
	argCounter := 2

	queryBuilder.WriteString(fmt.Sprintf(`
		SELECT %s FROM group_posts gp
		WHERE (
			gp.visibility = 'public'
			OR gp.creator_id = $1
			OR EXISTS (
				SELECT 1 FROM group_participants p
				WHERE p.group_post_id = gp.id AND p.profile_id = $1
			)
		)`, qualifyColumns("gp", groupPostColumns)))

	if filter.Type != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND gp.type = $%d", argCounter))
		args = append(args, *filter.Type)
		argCounter++
	}
	if filter.Status != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND gp.status = $%d", argCounter))
		args = append(args, *filter.Status)
		argCounter++
	}
	if filter.Cursor != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND gp.id < $%d", argCounter))
		args = append(args, *filter.Cursor)
		argCounter++
	}

	queryBuilder.WriteString(" ORDER BY gp.id DESC")
	if filter.Limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list group posts: %w", err)
	}
	defer rows.Close()

	posts := make([]*models.GroupPost, 0)
	for rows.Next() {
		var p models.GroupPost
		if err := r.scanGroupPost(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan group post row: %w", err)
		}
		posts = append(posts, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group post rows: %w", err)
	}
	return posts, nil
}

// Update пишет только изменяемые поля; creator_id и type никогда не трогаются.
func (r *postgresGroupPostRepository) Update(ctx context.Context, post *models.GroupPost) error {
	query := `
		UPDATE group_posts
		SET title = $1, description = $2, date = $3, location = $4,
		    visibility = $5, status = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		post.Title,
		post.Description,
		post.Date,
		post.Location,
		post.Visibility,
		post.Status,
		post.ID,
	).Scan(&post.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGroupPostNotFound
		}
		return fmt.Errorf("failed to update group post: %w", err)
	}
	return nil
}

// Delete удаляет пост; участники, скоркард и все результаты каскадируются
// внешними ключами (см. db/schema.sql).
func (r *postgresGroupPostRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM group_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group post: %w", err)
	}
	return checkAffectedRows(result, ErrGroupPostNotFound)
}

func qualifyColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, c := range parts {
		parts[i] = alias + "." + c
	}
	return strings.Join(parts, ", ")
}
