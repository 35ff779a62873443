package infrastructure

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"skillgate/domain"
)

func NewMySQLConnection() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set in environment")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Seed a demo tenant for local development
	seedDemoCompany(db)

	fmt.Println("✅ Connected to MySQL and migrated schema")
	return db
}

// Migrate applies the schema. Shared with the sqlite-backed tests.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Company{},
		&domain.ApiKey{},
		&domain.Invitation{},
		&domain.Assessment{},
	)
}

func seedDemoCompany(db *gorm.DB) {
	var count int64
	if err := db.Model(&domain.Company{}).Count(&count).Error; err != nil {
		log.Fatalf("failed to count companies: %v", err)
	}

	if count > 0 {
		return // already seeded
	}

	company := domain.Company{
		Name:                  "Demo Company",
		DefaultAssessmentType: "general",
	}
	if err := db.Create(&company).Error; err != nil {
		log.Fatalf("failed to seed demo company: %v", err)
	}

	plaintext, hash, prefix, err := domain.NewAPIKey()
	if err != nil {
		log.Fatalf("failed to generate demo api key: %v", err)
	}
	key := domain.ApiKey{
		CompanyID: company.ID,
		Name:      "demo",
		KeyHash:   hash,
		KeyPrefix: prefix,
	}
	if err := db.Create(&key).Error; err != nil {
		log.Fatalf("failed to seed demo api key: %v", err)
	}

	fmt.Printf("✅ Seeded demo company (id=%d), api key: %s\n", company.ID, plaintext)
}
