package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/huddle/internal/models"
)

const communityColumns = `id, name, category, is_private, creator_id,
	allow_member_posts, require_approval, allow_events, allow_discussions, created_at`

type CommunityStore struct {
	pool *pgxpool.Pool
}

func NewCommunityStore(pool *pgxpool.Pool) *CommunityStore {
	return &CommunityStore{pool: pool}
}

func scanCommunity(row pgx.Row) (*models.Community, error) {
	var c models.Community
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Category,
		&c.IsPrivate,
		&c.CreatorID,
		&c.Settings.AllowMemberPosts,
		&c.Settings.RequireApproval,
		&c.Settings.AllowEvents,
		&c.Settings.AllowDiscussions,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommunityStore) Create(ctx context.Context, c *models.Community) (*models.Community, error) {
	query := `
		INSERT INTO communities (id, name, category, is_private, creator_id,
			allow_member_posts, require_approval, allow_events, allow_discussions, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING ` + communityColumns

	created, err := scanCommunity(s.pool.QueryRow(ctx, query,
		c.Name, c.Category, c.IsPrivate, c.CreatorID,
		c.Settings.AllowMemberPosts, c.Settings.RequireApproval,
		c.Settings.AllowEvents, c.Settings.AllowDiscussions,
	))
	if err != nil {
		return nil, fmt.Errorf("insert community: %w", err)
	}
	return created, nil
}

func (s *CommunityStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	query := `SELECT ` + communityColumns + ` FROM communities WHERE id = $1`

	c, err := scanCommunity(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get community: %w", err)
	}
	return c, nil
}

func (s *CommunityStore) List(ctx context.Context, limit, offset int) ([]models.Community, error) {
	query := `
		SELECT ` + communityColumns + `
		FROM communities
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}
	defer rows.Close()

	communities := make([]models.Community, 0)
	for rows.Next() {
		c, err := scanCommunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan community: %w", err)
		}
		communities = append(communities, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate communities: %w", err)
	}

	return communities, nil
}

func (s *CommunityStore) UpdateSettings(ctx context.Context, id uuid.UUID, settings models.CommunitySettings) (bool, error) {
	query := `
		UPDATE communities
		SET allow_member_posts = $2, require_approval = $3,
			allow_events = $4, allow_discussions = $5
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id,
		settings.AllowMemberPosts, settings.RequireApproval,
		settings.AllowEvents, settings.AllowDiscussions,
	)
	if err != nil {
		return false, fmt.Errorf("update settings: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *CommunityStore) Update(ctx context.Context, c *models.Community) (bool, error) {
	// creator_id is deliberately absent: ownership never changes.
	query := `
		UPDATE communities
		SET name = $2, category = $3, is_private = $4
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, c.ID, c.Name, c.Category, c.IsPrivate)
	if err != nil {
		return false, fmt.Errorf("update community: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *CommunityStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	// Members, join requests, posts, likes and comments all reference the
	// community with ON DELETE CASCADE, so one statement tears down the
	// whole subtree.
	query := `DELETE FROM communities WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete community: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
