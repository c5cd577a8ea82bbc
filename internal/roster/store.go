// Package roster loads the active-member roster from the parliamentary data
// store. Reads go through a short-lived Redis cache since the roster only
// changes when mandates change.
package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "riigikogu-radar/internal/common/errors"
	"riigikogu-radar/internal/common/logger"
	"riigikogu-radar/internal/models"
)

const cacheKey = "roster:active"

// Store reads members from PostgreSQL with a Redis cache in front.
type Store struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewStore(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "roster"}),
	}
}

// ListActiveMembers returns every MP holding a current mandate, ordered by
// slug. Failures are wrapped as ROSTER_FETCH_FAILED since a missing roster
// fails the whole simulation.
func (s *Store) ListActiveMembers(ctx context.Context) ([]models.Member, error) {
	if members, ok := s.fromCache(ctx); ok {
		return members, nil
	}

	query := `SELECT member_uuid, slug, full_name, party_code, COALESCE(faction, '')
		FROM mps WHERE is_current_member = true ORDER BY slug`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewRosterFetchError(fmt.Errorf("query mps: %w", err))
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.MemberUUID, &m.Slug, &m.Name, &m.PartyCode, &m.Faction); err != nil {
			return nil, apperrors.NewRosterFetchError(fmt.Errorf("scan mp row: %w", err))
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewRosterFetchError(fmt.Errorf("iterate mp rows: %w", err))
	}

	if len(members) == 0 {
		return nil, apperrors.NewRosterFetchError(fmt.Errorf("no active members in data store"))
	}

	s.toCache(ctx, members)
	return members, nil
}

func (s *Store) fromCache(ctx context.Context) ([]models.Member, bool) {
	if s.redis == nil {
		return nil, false
	}

	val, err := s.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		return nil, false
	}

	var members []models.Member
	if err := json.Unmarshal([]byte(val), &members); err != nil {
		s.logger.Warn("dropping undecodable roster cache entry", map[string]interface{}{
			"error": err.Error(),
		})
		s.redis.Del(ctx, cacheKey)
		return nil, false
	}
	return members, true
}

func (s *Store) toCache(ctx context.Context, members []models.Member) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(members)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey, data, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("roster cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
