package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-social-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestUpsertPresence_CreatesThenUpdates(t *testing.T) {
	db := newRepoDB(t, &domain.UserStatus{})
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := UpsertPresence(ctx, db, "u1", true, now); err != nil {
		t.Fatalf("UpsertPresence create: %v", err)
	}
	row, err := GetStatus(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !row.IsOnline || row.Status != domain.StatusOnline {
		t.Fatalf("created row = %+v, want online", row)
	}

	later := now.Add(time.Hour)
	if err := UpsertPresence(ctx, db, "u1", false, later); err != nil {
		t.Fatalf("UpsertPresence update: %v", err)
	}
	row, err = GetStatus(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if row.IsOnline || row.Status != domain.StatusOffline {
		t.Fatalf("updated row = %+v, want offline", row)
	}
	if row.LastSeen == nil || !row.LastSeen.Equal(later) {
		t.Fatalf("LastSeen = %v, want %v", row.LastSeen, later)
	}
}

func TestUpsertPresence_OfflineClearsTyping(t *testing.T) {
	db := newRepoDB(t, &domain.UserStatus{})
	ctx := context.Background()
	now := time.Now().UTC()

	if err := UpsertPresence(ctx, db, "u1", true, now); err != nil {
		t.Fatalf("UpsertPresence: %v", err)
	}
	to := "u2"
	if err := SetTyping(ctx, db, "u1", &to); err != nil {
		t.Fatalf("SetTyping: %v", err)
	}

	if err := UpsertPresence(ctx, db, "u1", false, now); err != nil {
		t.Fatalf("UpsertPresence offline: %v", err)
	}
	row, err := GetStatus(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if row.TypingTo != nil {
		t.Fatalf("TypingTo = %q, want cleared", *row.TypingTo)
	}
}

func TestSetStatus_CreatesDefaultedOnlineWhenAbsent(t *testing.T) {
	db := newRepoDB(t, &domain.UserStatus{})
	ctx := context.Background()
	now := time.Now().UTC()

	row, err := SetStatus(ctx, db, "u1", domain.StatusBusy, now)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if !row.IsOnline || row.Status != domain.StatusBusy {
		t.Fatalf("row = %+v, want online busy", row)
	}
}

func TestSetStatus_EmptyKeepsStoredValue(t *testing.T) {
	db := newRepoDB(t, &domain.UserStatus{})
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := SetStatus(ctx, db, "u1", domain.StatusAway, now); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	row, err := SetStatus(ctx, db, "u1", "", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("SetStatus empty: %v", err)
	}
	if row.Status != domain.StatusAway {
		t.Fatalf("Status = %q, want %q kept", row.Status, domain.StatusAway)
	}
}

func TestSetOffline_NoRow_ReportsNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.UserStatus{})
	ctx := context.Background()

	found, err := SetOffline(ctx, db, "ghost", time.Now().UTC())
	if err != nil {
		t.Fatalf("SetOffline: %v", err)
	}
	if found {
		t.Fatalf("SetOffline reported found for a missing row")
	}
}

func TestSetOffline_ExistingRow(t *testing.T) {
	db := newRepoDB(t, &domain.UserStatus{})
	ctx := context.Background()
	now := time.Now().UTC()

	if err := UpsertPresence(ctx, db, "u1", true, now); err != nil {
		t.Fatalf("UpsertPresence: %v", err)
	}
	to := "u2"
	if err := SetTyping(ctx, db, "u1", &to); err != nil {
		t.Fatalf("SetTyping: %v", err)
	}

	found, err := SetOffline(ctx, db, "u1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("SetOffline: %v", err)
	}
	if !found {
		t.Fatalf("SetOffline did not find the existing row")
	}
	row, err := GetStatus(ctx, db, "u1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if row.IsOnline || row.Status != domain.StatusOffline || row.TypingTo != nil {
		t.Fatalf("row after SetOffline = %+v", row)
	}
}

func TestSetTyping_MissingRow_NoOp(t *testing.T) {
	db := newRepoDB(t, &domain.UserStatus{})
	ctx := context.Background()

	to := "u2"
	if err := SetTyping(ctx, db, "ghost", &to); err != nil {
		t.Fatalf("SetTyping on missing row: %v", err)
	}
	if _, err := GetStatus(ctx, db, "ghost"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("SetTyping created a status row")
	}
}

func TestListOnline_FiltersAndExcludesCaller(t *testing.T) {
	db := newRepoDB(t, &domain.UserStatus{})
	ctx := context.Background()
	now := time.Now().UTC()

	if err := UpsertPresence(ctx, db, "me", true, now); err != nil {
		t.Fatalf("UpsertPresence: %v", err)
	}
	if err := UpsertPresence(ctx, db, "other", true, now); err != nil {
		t.Fatalf("UpsertPresence: %v", err)
	}
	if err := UpsertPresence(ctx, db, "sleeper", false, now); err != nil {
		t.Fatalf("UpsertPresence: %v", err)
	}

	rows, err := ListOnline(ctx, db, "me")
	if err != nil {
		t.Fatalf("ListOnline: %v", err)
	}
	if len(rows) != 1 || rows[0].UserID != "other" {
		t.Fatalf("ListOnline = %+v, want just `other`", rows)
	}
}
