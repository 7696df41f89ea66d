package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/sahilchouksey/coursehive/model"
	"github.com/sahilchouksey/coursehive/utils/auth"
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

	// Run seeds in order (respecting foreign key constraints)
	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedDemoEducator(); err != nil {
		return fmt.Errorf("failed to seed demo educator: %w", err)
	}

	if err := s.SeedDemoCourses(); err != nil {
		return fmt.Errorf("failed to seed demo courses: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         model.RoleAdmin,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedDemoEducator creates a sample educator account for local development
func (s *Seeder) SeedDemoEducator() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleEducator).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Educator already exists, skipping...")
		return nil
	}

	passwordHash, err := auth.HashPassword("educator123")
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	educator := &model.User{
		Email:        "educator@coursehive.app",
		PasswordHash: passwordHash,
		Name:         "Demo Educator",
		Role:         model.RoleEducator,
	}

	if err := s.db.Create(educator).Error; err != nil {
		return err
	}

	log.Printf("✅ Created demo educator: %s\n", educator.Email)
	return nil
}

// SeedDemoCourses creates sample published courses with chapters and lectures
func (s *Seeder) SeedDemoCourses() error {
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	var educator model.User
	if err := s.db.Where("role = ?", model.RoleEducator).First(&educator).Error; err != nil {
		log.Println("⏭️  No educator found, skipping course seeding...")
		return nil
	}

	courses := []model.Course{
		{
			EducatorID:      educator.ID,
			Title:           "Go for Backend Developers",
			Description:     "Build production HTTP services in Go from scratch",
			PriceCents:      4999,
			DiscountPercent: 10,
			Published:       true,
			Chapters: []model.Chapter{
				{
					Order: 1,
					Title: "Getting Started",
					Lectures: []model.Lecture{
						{Order: 1, Title: "Course Introduction", DurationMin: 8, IsPreview: true},
						{Order: 2, Title: "Setting Up Your Workspace", DurationMin: 12},
					},
				},
				{
					Order: 2,
					Title: "HTTP Servers",
					Lectures: []model.Lecture{
						{Order: 1, Title: "Routing and Handlers", DurationMin: 21},
						{Order: 2, Title: "Middleware Patterns", DurationMin: 18},
					},
				},
			},
		},
		{
			EducatorID:      educator.ID,
			Title:           "PostgreSQL Fundamentals",
			Description:     "Schema design, indexing, and transactions for application developers",
			PriceCents:      10000,
			DiscountPercent: 20,
			Published:       true,
			Chapters: []model.Chapter{
				{
					Order: 1,
					Title: "Relational Basics",
					Lectures: []model.Lecture{
						{Order: 1, Title: "Tables and Types", DurationMin: 15, IsPreview: true},
						{Order: 2, Title: "Joins in Practice", DurationMin: 22},
					},
				},
			},
		},
	}

	if err := s.db.Create(&courses).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d courses\n", len(courses))
	return nil
}

// RunSeeds is a convenience function to run all seeds
func RunSeeds(db *gorm.DB) error {
	seeder := NewSeeder(db)
	return seeder.SeedAll()
}
