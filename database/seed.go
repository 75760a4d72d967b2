package database

import (
	"fmt"
	"log"
	"os"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/model"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedLocations(); err != nil {
		return fmt.Errorf("failed to seed locations: %w", err)
	}

	if err := s.SeedSubjects(); err != nil {
		return fmt.Errorf("failed to seed subjects: %w", err)
	}

	log.Println("🌱 Database seeding completed")
	return nil
}

// SeedAdminUser creates the initial admin operator when none exists
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin user already present, skipping")
		return nil
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "admin@localhost"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "changeme-now"
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded admin user %s", email)
	return nil
}

// SeedLocations creates a minimal campus hierarchy for development setups
func (s *Seeder) SeedLocations() error {
	var count int64
	if err := s.db.Model(&model.PhysicalLocation{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Locations already present, skipping")
		return nil
	}

	locations := []model.PhysicalLocation{
		{Name: "Main Campus", LocationType: model.LocationTypeCampus},
		{Name: "Administration Block", LocationType: model.LocationTypeBuilding},
		{Name: "Library", LocationType: model.LocationTypeBuilding, IsRestricted: false},
		{Name: "Server Room", LocationType: model.LocationTypeRoom, IsRestricted: true},
		{Name: "Main Gate", LocationType: model.LocationTypeGate},
	}
	if err := s.db.Create(&locations).Error; err != nil {
		return err
	}

	log.Printf("Seeded %d locations", len(locations))
	return nil
}

// SeedSubjects creates a few students and staff for development setups
func (s *Seeder) SeedSubjects() error {
	var count int64
	if err := s.db.Model(&model.Student{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Subjects already present, skipping")
		return nil
	}

	students := []model.Student{
		{RegNumber: "T/UDOM/2023/00101", FirstName: "Amina", LastName: "Mushi", Department: "Computer Science", Programme: "BSc CS", YearOfStudy: 2},
		{RegNumber: "T/UDOM/2023/00102", FirstName: "Joseph", LastName: "Kimaro", Department: "Electronics", Programme: "BEng ETE", YearOfStudy: 3},
	}
	if err := s.db.Create(&students).Error; err != nil {
		return err
	}

	staff := []model.Staff{
		{StaffNumber: "STF-0001", FirstName: "Grace", LastName: "Ndosi", Department: "Registrar", Position: "Records Officer"},
		{StaffNumber: "STF-0002", FirstName: "Daniel", LastName: "Mwakyusa", Department: "ICT", Position: "Network Engineer"},
	}
	if err := s.db.Create(&staff).Error; err != nil {
		return err
	}

	log.Printf("Seeded %d students and %d staff", len(students), len(staff))
	return nil
}
