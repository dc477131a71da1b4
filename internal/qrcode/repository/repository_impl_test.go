package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/breakeven/internal/qrcode/domain"
	"github.com/smallbiznis/breakeven/pkg/oid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:qrrepo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Binding{}))
	return db
}

func TestRecordScanAssignsDailyCounterBeforeDate(t *testing.T) {
	counter := strings.Index(recordScanQuery, "scans_today =")
	date := strings.Index(recordScanQuery, "last_scan_date = ?,")
	require.NotEqual(t, -1, counter)
	require.NotEqual(t, -1, date)
	assert.Less(t, counter, date)
}

func TestRecordScanRollsOverOnNewDay(t *testing.T) {
	db := setupTestDB(t)
	r := Provide()
	ctx := context.Background()
	ownerID := oid.New()
	day := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	require.NoError(t, r.Ensure(ctx, db, ownerID, day))

	for i := 0; i < 2; i++ {
		affected, err := r.RecordScan(ctx, db, ownerID, day)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
	}

	binding, err := r.Find(ctx, db, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), binding.ScansToday)
	assert.Equal(t, "2026-03-15", binding.LastScanDate)

	_, err = r.RecordScan(ctx, db, ownerID, day.Add(2*time.Minute))
	require.NoError(t, err)

	binding, err = r.Find(ctx, db, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), binding.ScansToday)
	assert.Equal(t, int64(3), binding.TotalScans)
	assert.Equal(t, "2026-03-16", binding.LastScanDate)
	require.NotNil(t, binding.LastScanAt)
}

func TestRecordScanUnknownOwnerAffectsNothing(t *testing.T) {
	db := setupTestDB(t)

	affected, err := Provide().RecordScan(context.Background(), db, oid.New(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, affected)
}
