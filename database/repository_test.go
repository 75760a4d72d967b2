package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/query"
)

type widget struct {
	ID        uint           `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	Name      string
	Status    string
}

func newRepoFixture(t *testing.T) *Repository[widget] {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository[widget](db)
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := newRepoFixture(t)
	ctx := context.Background()

	w := widget{Name: "alpha", Status: "active"}
	if err := repo.Create(ctx, &w); err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.ID == 0 {
		t.Fatal("create should assign an id")
	}

	got, err := repo.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "alpha" {
		t.Errorf("Name = %q, want alpha", got.Name)
	}

	if _, err := repo.Get(ctx, 9999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("missing row should be ErrRecordNotFound, got %v", err)
	}
}

func TestRepositorySoftDeleteLifecycle(t *testing.T) {
	repo := newRepoFixture(t)
	ctx := context.Background()

	w := widget{Name: "beta"}
	if err := repo.Create(ctx, &w); err != nil {
		t.Fatalf("create: %v", err)
	}

	deletedAt, err := repo.SoftDelete(ctx, w.ID)
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if deletedAt.IsZero() {
		t.Error("soft delete should report the deletion time")
	}

	// Get still sees the deleted row; GetLive does not.
	got, err := repo.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if !got.DeletedAt.Valid {
		t.Error("deleted row should carry its deletion stamp")
	}
	if !got.DeletedAt.Time.Equal(deletedAt) {
		t.Errorf("reported deletion time %v should match the stored stamp %v",
			deletedAt, got.DeletedAt.Time)
	}
	if _, err := repo.GetLive(ctx, w.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("GetLive on deleted row should be not found, got %v", err)
	}

	// Double delete and delete-of-missing are distinct outcomes.
	if _, err := repo.SoftDelete(ctx, w.ID); !errors.Is(err, ErrAlreadyDeleted) {
		t.Errorf("double delete should be ErrAlreadyDeleted, got %v", err)
	}
	if _, err := repo.SoftDelete(ctx, 9999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("deleting a missing row should be not found, got %v", err)
	}

	restored, err := repo.Restore(ctx, w.ID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.DeletedAt.Valid {
		t.Error("restored row should be live")
	}

	if _, err := repo.Restore(ctx, w.ID); !errors.Is(err, ErrNotDeleted) {
		t.Errorf("restoring a live row should be ErrNotDeleted, got %v", err)
	}
	if _, err := repo.Restore(ctx, 9999); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("restoring a missing row should be not found, got %v", err)
	}
}

func TestRepositoryUpdate(t *testing.T) {
	repo := newRepoFixture(t)
	ctx := context.Background()

	w := widget{Name: "gamma", Status: "active"}
	if err := repo.Create(ctx, &w); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := repo.Update(ctx, w.ID, map[string]interface{}{"status": "inactive"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != "inactive" {
		t.Errorf("Status = %q, want inactive", updated.Status)
	}

	if _, err := repo.Update(ctx, 9999, map[string]interface{}{"status": "x"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("updating a missing row should be not found, got %v", err)
	}

	// Updates go through the live scope only.
	if _, err := repo.SoftDelete(ctx, w.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := repo.Update(ctx, w.ID, map[string]interface{}{"status": "active"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("updating a deleted row should be not found, got %v", err)
	}
}

func TestRepositoryListPagination(t *testing.T) {
	repo := newRepoFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		status := "active"
		if i%5 == 0 {
			status = "inactive"
		}
		w := widget{Name: fmt.Sprintf("widget-%02d", i), Status: status}
		if err := repo.Create(ctx, &w); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	cfg := query.Config{
		SearchFields: []string{"name"},
		FilterFields: map[string]string{"status": "status"},
		OrderFields:  map[string]string{"name": "name"},
		DefaultOrder: "id ASC",
	}

	results, total, err := repo.List(ctx, query.Params{Page: 2, PageSize: 10}, cfg)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(results) != 10 {
		t.Errorf("page 2 should hold 10 rows, got %d", len(results))
	}
	if results[0].Name != "widget-10" {
		t.Errorf("page 2 should start at widget-10, got %q", results[0].Name)
	}

	results, total, err = repo.List(ctx, query.Params{
		Filters: map[string]string{"status": "inactive"},
	}, cfg)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if total != 5 || len(results) != 5 {
		t.Errorf("filter should match 5 rows, got %d (total %d)", len(results), total)
	}

	// Descending order by whitelisted key.
	results, _, err = repo.List(ctx, query.Params{Ordering: "-name", PageSize: 1}, cfg)
	if err != nil {
		t.Fatalf("list ordered: %v", err)
	}
	if results[0].Name != "widget-24" {
		t.Errorf("descending order should start at widget-24, got %q", results[0].Name)
	}

	// include_deleted widens the listing.
	first, err := repo.GetLive(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := repo.SoftDelete(ctx, first.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	_, total, err = repo.List(ctx, query.Params{PageSize: 100}, cfg)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 24 {
		t.Errorf("live total = %d, want 24", total)
	}
	_, total, err = repo.List(ctx, query.Params{PageSize: 100, IncludeDeleted: true}, cfg)
	if err != nil {
		t.Fatalf("list unscoped: %v", err)
	}
	if total != 25 {
		t.Errorf("unscoped total = %d, want 25", total)
	}
}
