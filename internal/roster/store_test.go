// internal/roster/store_test.go
package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "riigikogu-radar/internal/common/errors"
	"riigikogu-radar/internal/common/logger"
	"riigikogu-radar/internal/models"
)

const selectActiveMembers = `SELECT member_uuid, slug, full_name, party_code, COALESCE\(faction, ''\)
		FROM mps WHERE is_current_member = true ORDER BY slug`

func memberRows(members ...models.Member) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"member_uuid", "slug", "full_name", "party_code", "faction"})
	for _, m := range members {
		rows.AddRow(m.MemberUUID, m.Slug, m.Name, m.PartyCode, m.Faction)
	}
	return rows
}

var sampleMembers = []models.Member{
	{MemberUUID: "u-1", Slug: "jaak-tamm", Name: "Jaak Tamm", PartyCode: "RE", Faction: "Reformierakond"},
	{MemberUUID: "u-2", Slug: "mari-kask", Name: "Mari Kask", PartyCode: "KE", Faction: "Keskerakond"},
}

func TestStore_ListActiveMembers_FromDatabase(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet(cacheKey).RedisNil()
	dbMock.ExpectQuery(selectActiveMembers).WillReturnRows(memberRows(sampleMembers...))

	data, _ := json.Marshal(sampleMembers)
	redisMock.ExpectSet(cacheKey, data, 5*time.Minute).SetVal("OK")

	store := NewStore(db, rdb, 5*time.Minute, logger.NewTestLogger(t))
	members, err := store.ListActiveMembers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sampleMembers, members)
	assert.NoError(t, dbMock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestStore_ListActiveMembers_CacheHitSkipsDatabase(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rdb, redisMock := redismock.NewClientMock()

	data, _ := json.Marshal(sampleMembers)
	redisMock.ExpectGet(cacheKey).SetVal(string(data))

	store := NewStore(db, rdb, 5*time.Minute, logger.NewTestLogger(t))
	members, err := store.ListActiveMembers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, sampleMembers, members)
	assert.NoError(t, dbMock.ExpectationsWereMet(), "database must not be queried on a cache hit")
}

func TestStore_ListActiveMembers_QueryFailure(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectQuery(selectActiveMembers).WillReturnError(fmt.Errorf("connection reset"))

	store := NewStore(db, nil, 5*time.Minute, logger.NewTestLogger(t))
	_, err = store.ListActiveMembers(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRosterFetchFailed))
}

func TestStore_ListActiveMembers_EmptyRosterIsAnError(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectQuery(selectActiveMembers).WillReturnRows(memberRows())

	store := NewStore(db, nil, 5*time.Minute, logger.NewTestLogger(t))
	_, err = store.ListActiveMembers(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeRosterFetchFailed))
}

func TestStore_ListActiveMembers_CorruptCacheFallsThrough(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet(cacheKey).SetVal("{corrupt")
	redisMock.ExpectDel(cacheKey).SetVal(1)
	dbMock.ExpectQuery(selectActiveMembers).WillReturnRows(memberRows(sampleMembers...))

	data, _ := json.Marshal(sampleMembers)
	redisMock.ExpectSet(cacheKey, data, 5*time.Minute).SetVal("OK")

	store := NewStore(db, rdb, 5*time.Minute, logger.NewTestLogger(t))
	members, err := store.ListActiveMembers(context.Background())
	require.NoError(t, err)
	assert.Len(t, members, 2)
}
