package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/huddle/internal/models"
	"github.com/lalith-99/huddle/internal/repository"
)

type JoinRequestStore struct {
	pool *pgxpool.Pool
}

func NewJoinRequestStore(pool *pgxpool.Pool) *JoinRequestStore {
	return &JoinRequestStore{pool: pool}
}

const joinRequestColumns = `id, community_id, user_id, message, status,
	requested_at, resolved_at, resolved_by`

func scanJoinRequest(row pgx.Row) (*models.JoinRequest, error) {
	var r models.JoinRequest
	err := row.Scan(
		&r.ID,
		&r.CommunityID,
		&r.UserID,
		&r.Message,
		&r.Status,
		&r.RequestedAt,
		&r.ResolvedAt,
		&r.ResolvedBy,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *JoinRequestStore) Create(ctx context.Context, r *models.JoinRequest) (*models.JoinRequest, error) {
	// A partial unique index on (community_id, user_id) WHERE status =
	// 'pending' enforces the one-pending-request invariant in the database
	// itself; a racing second submit loses with a 23505 regardless of what
	// the application read beforehand.
	query := `
		INSERT INTO join_requests (id, community_id, user_id, message, status, requested_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, 'pending', now())
		RETURNING ` + joinRequestColumns

	created, err := scanJoinRequest(s.pool.QueryRow(ctx, query, r.CommunityID, r.UserID, r.Message))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert join request: %w", err)
	}
	return created, nil
}

func (s *JoinRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests WHERE id = $1`

	r, err := scanJoinRequest(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get join request: %w", err)
	}
	return r, nil
}

func (s *JoinRequestStore) ListPending(ctx context.Context, communityID uuid.UUID) ([]models.JoinRequest, error) {
	// FIFO review order: oldest request first.
	query := `
		SELECT ` + joinRequestColumns + `
		FROM join_requests
		WHERE community_id = $1 AND status = 'pending'
		ORDER BY requested_at ASC`

	rows, err := s.pool.Query(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("list join requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.JoinRequest, 0)
	for rows.Next() {
		r, err := scanJoinRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan join request: %w", err)
		}
		requests = append(requests, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate join requests: %w", err)
	}

	return requests, nil
}

func (s *JoinRequestStore) Approve(ctx context.Context, requestID, resolverID uuid.UUID, now time.Time) (*models.Member, error) {
	// One transaction flips the status and creates the member. The status
	// predicate is the race guard: of two concurrent approvals only one
	// update matches a pending row, the other sees zero rows and reports
	// ErrNotPending.
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin approve: %w", err)
	}
	defer tx.Rollback(ctx)

	resolve := `
		UPDATE join_requests
		SET status = 'approved', resolved_at = $2, resolved_by = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING community_id, user_id`

	var communityID, userID uuid.UUID
	err = tx.QueryRow(ctx, resolve, requestID, now, resolverID).Scan(&communityID, &userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotPending
		}
		return nil, fmt.Errorf("resolve join request: %w", err)
	}

	insert := `
		INSERT INTO members (community_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (community_id, user_id) DO NOTHING`

	if _, err := tx.Exec(ctx, insert, communityID, userID, models.RoleMember, now); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit approve: %w", err)
	}

	return &models.Member{
		CommunityID: communityID,
		UserID:      userID,
		Role:        models.RoleMember,
		JoinedAt:    now,
	}, nil
}

func (s *JoinRequestStore) Reject(ctx context.Context, requestID, resolverID uuid.UUID, now time.Time) error {
	query := `
		UPDATE join_requests
		SET status = 'rejected', resolved_at = $2, resolved_by = $3
		WHERE id = $1 AND status = 'pending'`

	tag, err := s.pool.Exec(ctx, query, requestID, now, resolverID)
	if err != nil {
		return fmt.Errorf("reject join request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotPending
	}
	return nil
}
