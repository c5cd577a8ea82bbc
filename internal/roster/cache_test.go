// internal/roster/cache_test.go
package roster

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riigikogu-radar/internal/common/logger"
)

// Exercises the cache-aside path against a real Redis protocol server.
func TestStore_CacheRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Exactly one database round-trip serves both calls.
	dbMock.ExpectQuery(selectActiveMembers).WillReturnRows(memberRows(sampleMembers...))

	store := NewStore(db, rdb, 5*time.Minute, logger.NewTestLogger(t))

	first, err := store.ListActiveMembers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleMembers, first)

	second, err := store.ListActiveMembers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, dbMock.ExpectationsWereMet())
	assert.True(t, mr.Exists(cacheKey))
}

func TestStore_CacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectQuery(selectActiveMembers).WillReturnRows(memberRows(sampleMembers...))
	dbMock.ExpectQuery(selectActiveMembers).WillReturnRows(memberRows(sampleMembers...))

	store := NewStore(db, rdb, time.Minute, logger.NewTestLogger(t))

	_, err = store.ListActiveMembers(context.Background())
	require.NoError(t, err)

	// Push miniredis past the TTL; the next read must hit the database again.
	mr.FastForward(2 * time.Minute)

	_, err = store.ListActiveMembers(context.Background())
	require.NoError(t, err)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
