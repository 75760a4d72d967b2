package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
)

// newTestDB opens an isolated in-memory database migrated with the full
// schema. Each test gets its own named database so parallel tests never
// share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	// sqlite cannot take concurrent writers; a single connection keeps the
	// bulk provisioning tests deterministic.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{},
		&model.Student{},
		&model.Staff{},
		&model.PhysicalLocation{},
		&model.AccessGate{},
		&model.Card{},
		&model.ProvisionJob{},
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}

func seedStudent(t *testing.T, db *gorm.DB, regNumber string) *model.Student {
	t.Helper()

	student := model.Student{
		RegNumber:  regNumber,
		FirstName:  "Asha",
		LastName:   "Mwangi",
		Department: "Computer Science",
		Programme:  "BSc Software Engineering",
	}
	if err := db.Create(&student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return &student
}

func seedStaff(t *testing.T, db *gorm.DB, staffNumber string) *model.Staff {
	t.Helper()

	staff := model.Staff{
		StaffNumber: staffNumber,
		FirstName:   "Neema",
		LastName:    "Kimaro",
		Department:  "Registry",
		Position:    "Records Officer",
	}
	if err := db.Create(&staff).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	return &staff
}

func testCtx() context.Context {
	return context.Background()
}

// SubjectRefFor builds a student subject ref, the common case in tests
func SubjectRefFor(studentID uint) model.SubjectRef {
	return model.SubjectRef{Type: model.SubjectTypeStudent, ID: studentID}
}

// newCardFixture wires a card service against a fresh database and index
func newCardFixture(t *testing.T) (*gorm.DB, *UniquenessIndex, *CardService) {
	t.Helper()

	db := newTestDB(t)
	index := NewUniquenessIndex()
	return db, index, NewCardService(db, index)
}
