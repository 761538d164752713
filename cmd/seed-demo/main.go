// seed-demo creates the initial back-office users and, with SEED_SAMPLE_DATA=true,
// a small set of members, invoices and accrual schedules for local development.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-demo
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/membership_backend/config"
	"github.com/mmdatafocus/membership_backend/models"
	"github.com/mmdatafocus/membership_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	seedUser(ctx, db, "Admin User", "admin@example.com", models.UserRoleAdmin)
	seedUser(ctx, db, "Finance User", "finance@example.com", models.UserRoleFinance)

	if strings.EqualFold(os.Getenv("SEED_SAMPLE_DATA"), "true") {
		seedSampleData(ctx, db)
	}

	fmt.Println("Database seeded successfully")
}

func seedUser(ctx context.Context, db *gorm.DB, name string, email string, role models.UserRole) {
	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		fmt.Println("user already exists:", email)
		return
	}
	if err != gorm.ErrRecordNotFound {
		fmt.Fprintf(os.Stderr, "failed to lookup user %s: %v\n", email, err)
		os.Exit(1)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Role:     role,
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to create user %s: %v\n", email, err)
		os.Exit(1)
	}
	fmt.Println("created user:", email)
}

func seedSampleData(ctx context.Context, db *gorm.DB) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	twelve := 12

	samples := []struct {
		globalId string
		name     string
		state    string
		product  string
		total    decimal.Decimal
		tax      decimal.Decimal
	}{
		{"GID-1001", "Asha Traders", "Maharashtra", "Gold", decimal.NewFromInt(120000), decimal.NewFromInt(18000)},
		{"GID-1002", "Nirav Exports", "Gujarat", "Silver", decimal.NewFromInt(60000), decimal.NewFromInt(9000)},
	}

	for i, s := range samples {
		state := s.state
		product := s.product
		member := models.Member{
			GlobalId:            s.globalId,
			Name:                s.name,
			State:               &state,
			Product:             &product,
			MembershipStartDate: &start,
			MembershipEndDate:   &end,
			Status:              models.MemberStatusActive,
		}
		if err := db.WithContext(ctx).Where("global_id = ?", s.globalId).FirstOrCreate(&member).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed member %s: %v\n", s.globalId, err)
			os.Exit(1)
		}

		cycle := models.BillingCycleAnnual
		invoice := models.Invoice{
			InvoiceNo:           fmt.Sprintf("DEMO-%d-%04d", now.Year(), i+1),
			InvoiceDate:         start,
			MemberId:            member.ID,
			Name:                s.name,
			State:               &state,
			Product:             &product,
			MembershipTotal:     s.total,
			TotalAmount:         s.total,
			TotalTax:            s.tax,
			MembershipStartDate: &start,
			MembershipEndDate:   &end,
			CalculationMonth:    &twelve,
			MonthsTenure:        &twelve,
			BillingCycle:        &cycle,
			UploadMonth:         start.Format("2006-01"),
		}
		err := db.WithContext(ctx).Where("invoice_no = ?", invoice.InvoiceNo).FirstOrCreate(&invoice).Error
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed invoice %s: %v\n", invoice.InvoiceNo, err)
			os.Exit(1)
		}

		var accrualCount int64
		db.WithContext(ctx).Model(&models.Accrual{}).Where("invoice_id = ?", invoice.ID).Count(&accrualCount)
		if accrualCount == 0 {
			accruals := models.BuildAccrualSchedule(&invoice)
			if err := db.WithContext(ctx).Create(&accruals).Error; err != nil {
				fmt.Fprintf(os.Stderr, "failed to seed accruals for %s: %v\n", invoice.InvoiceNo, err)
				os.Exit(1)
			}
		}
		fmt.Println("seeded member and invoice:", s.globalId)
	}
}
