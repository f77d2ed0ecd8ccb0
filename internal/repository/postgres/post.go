package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/huddle/internal/models"
)

type PostStore struct {
	pool *pgxpool.Pool
}

func NewPostStore(pool *pgxpool.Pool) *PostStore {
	return &PostStore{pool: pool}
}

const postColumns = `id, community_id, author_id, content, images, like_count, created_at`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID,
		&p.CommunityID,
		&p.AuthorID,
		&p.Content,
		&p.Images,
		&p.LikeCount,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO posts (id, community_id, author_id, content, images, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, now())
		RETURNING ` + postColumns

	created, err := scanPost(s.pool.QueryRow(ctx, query, p.CommunityID, p.AuthorID, p.Content, p.Images))
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return created, nil
}

func (s *PostStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	p, err := scanPost(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (s *PostStore) ListByCommunity(ctx context.Context, communityID uuid.UUID, before time.Time, limit int) ([]models.Post, error) {
	var query string
	var args []any

	if !before.IsZero() {
		query = `
			SELECT ` + postColumns + `
			FROM posts
			WHERE community_id = $1 AND created_at < $2
			ORDER BY created_at DESC
			LIMIT $3`
		args = []any{communityID, before, limit}
	} else {
		query = `
			SELECT ` + postColumns + `
			FROM posts
			WHERE community_id = $1
			ORDER BY created_at DESC
			LIMIT $2`
		args = []any{communityID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM posts WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostStore) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int64, error) {
	// Toggle = try to insert; if the row already existed, delete it
	// instead. Both branches adjust the denormalized counter in the same
	// transaction so count and set never drift.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("begin toggle like: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING`

	tag, err := tx.Exec(ctx, insert, postID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("insert like: %w", err)
	}

	liked := tag.RowsAffected() > 0
	delta := int64(1)
	if !liked {
		if _, err := tx.Exec(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`,
			postID, userID,
		); err != nil {
			return false, 0, fmt.Errorf("delete like: %w", err)
		}
		delta = -1
	}

	var count int64
	err = tx.QueryRow(ctx, `
		UPDATE posts
		SET like_count = GREATEST(0, like_count + $2)
		WHERE id = $1
		RETURNING like_count`,
		postID, delta,
	).Scan(&count)
	if err != nil {
		return false, 0, fmt.Errorf("update like count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit toggle like: %w", err)
	}
	return liked, count, nil
}

func (s *PostStore) AddComment(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	// Comments use bigserial; the database generates the id.
	query := `
		INSERT INTO comments (post_id, author_id, content, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, post_id, author_id, content, created_at`

	var created models.Comment
	err := s.pool.QueryRow(ctx, query, c.PostID, c.AuthorID, c.Content).Scan(
		&created.ID,
		&created.PostID,
		&created.AuthorID,
		&created.Content,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return &created, nil
}

func (s *PostStore) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	query := `
		SELECT id, post_id, author_id, content, created_at
		FROM comments
		WHERE id = $1`

	var c models.Comment
	err := s.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (s *PostStore) ListComments(ctx context.Context, postID uuid.UUID, after int64, limit int) ([]models.Comment, error) {
	var query string
	var args []any

	if after > 0 {
		query = `
			SELECT id, post_id, author_id, content, created_at
			FROM comments
			WHERE post_id = $1 AND id > $2
			ORDER BY id ASC
			LIMIT $3`
		args = []any{postID, after, limit}
	} else {
		query = `
			SELECT id, post_id, author_id, content, created_at
			FROM comments
			WHERE post_id = $1
			ORDER BY id ASC
			LIMIT $2`
		args = []any{postID, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

func (s *PostStore) DeleteComment(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM comments WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
