package cmd

import (
	"fmt"
	"log"

	"github.com/frahmantamala/claim-management/internal/auth"
	userDatamodel "github.com/frahmantamala/claim-management/internal/core/datamodel/user"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with lookup tables and a sample employee and admin for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initORM(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			if err := db.Exec("TRUNCATE attachments, expenses, claims, user_permissions, permissions, users, expense_types, currencies, event_types, employees RESTART IDENTITY CASCADE").Error; err != nil {
				log.Fatalf("failed to clear data: %v", err)
			}
			fmt.Println("Cleared existing data")
		}

		if err := db.Transaction(seed); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		fmt.Println("Seeding completed")
	},
}

type seedLookup struct {
	Name string
	Desc string
}

func seed(db *gorm.DB) error {
	employees := []struct {
		No, Name, Department string
	}{
		{"EMP-001", "Fadhil Rahman", "Engineering"},
		{"EMP-002", "Padil Admin", "Finance"},
	}
	for _, e := range employees {
		if err := db.Exec("INSERT INTO employees (employee_no, full_name, department) VALUES (?, ?, ?) ON CONFLICT (employee_no) DO NOTHING", e.No, e.Name, e.Department).Error; err != nil {
			return fmt.Errorf("insert employee %s: %w", e.No, err)
		}
	}

	eventTypes := []seedLookup{
		{"Travel", "Business trips and transport"},
		{"Training", "Courses and certifications"},
		{"Conference", "External events and seminars"},
		{"Client Meeting", "Meetings with clients and partners"},
	}
	for _, t := range eventTypes {
		if err := db.Exec("INSERT INTO event_types (name, description) VALUES (?, ?) ON CONFLICT (name) DO NOTHING", t.Name, t.Desc).Error; err != nil {
			return fmt.Errorf("insert event type %s: %w", t.Name, err)
		}
	}

	currencies := []struct {
		Code, Name, Symbol string
	}{
		{"IDR", "Indonesian Rupiah", "Rp"},
		{"USD", "US Dollar", "$"},
		{"SGD", "Singapore Dollar", "S$"},
	}
	for _, c := range currencies {
		if err := db.Exec("INSERT INTO currencies (code, name, symbol) VALUES (?, ?, ?) ON CONFLICT (code) DO NOTHING", c.Code, c.Name, c.Symbol).Error; err != nil {
			return fmt.Errorf("insert currency %s: %w", c.Code, err)
		}
	}

	expenseTypes := []seedLookup{
		{"Transport", "Flights, trains and taxis"},
		{"Accommodation", "Hotels and lodging"},
		{"Meals", "Meals and entertainment"},
		{"Registration", "Event and course fees"},
		{"Other", "Anything else"},
	}
	for _, t := range expenseTypes {
		if err := db.Exec("INSERT INTO expense_types (name, description) VALUES (?, ?) ON CONFLICT (name) DO NOTHING", t.Name, t.Desc).Error; err != nil {
			return fmt.Errorf("insert expense type %s: %w", t.Name, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	users := []struct {
		Email, Name, Role, EmployeeNo string
	}{
		{"fadhil@mail.com", "Fadhil", "employee", "EMP-001"},
		{"padil@mail.com", "Padil Admin", "admin", "EMP-002"},
	}
	for _, u := range users {
		var employeeID int64
		if err := db.Raw("SELECT id FROM employees WHERE employee_no = ?", u.EmployeeNo).Row().Scan(&employeeID); err != nil {
			return fmt.Errorf("lookup employee %s: %w", u.EmployeeNo, err)
		}

		record := userDatamodel.User{
			Email:        u.Email,
			Name:         u.Name,
			PasswordHash: string(hash),
			Role:         u.Role,
			EmployeeID:   &employeeID,
			IsActive:     true,
		}
		if err := db.Where("email = ?", u.Email).FirstOrCreate(&record).Error; err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
		fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
	}

	permissions := []seedLookup{
		{auth.PermissionViewClaims, "Can view claims"},
		{auth.PermissionCreateClaims, "Can create and edit claims"},
		{auth.PermissionApproveClaims, "Can approve submitted claims"},
		{auth.PermissionRejectClaims, "Can reject submitted claims"},
	}
	for _, p := range permissions {
		record := userDatamodel.Permission{Name: p.Name, Description: p.Desc}
		if err := db.Where("name = ?", p.Name).FirstOrCreate(&record).Error; err != nil {
			return fmt.Errorf("insert permission %s: %w", p.Name, err)
		}
	}

	grants := map[string][]string{
		"fadhil@mail.com": {auth.PermissionViewClaims, auth.PermissionCreateClaims},
		"padil@mail.com":  {auth.PermissionViewClaims, auth.PermissionCreateClaims, auth.PermissionApproveClaims, auth.PermissionRejectClaims},
	}
	for email, names := range grants {
		var u userDatamodel.User
		if err := db.Where("email = ?", email).First(&u).Error; err != nil {
			return fmt.Errorf("lookup user %s: %w", email, err)
		}
		for _, name := range names {
			var p userDatamodel.Permission
			if err := db.Where("name = ?", name).First(&p).Error; err != nil {
				return fmt.Errorf("lookup permission %s: %w", name, err)
			}
			grant := userDatamodel.UserPermission{UserID: u.ID, PermissionID: p.ID}
			if err := db.Where("user_id = ? AND permission_id = ?", u.ID, p.ID).FirstOrCreate(&grant).Error; err != nil {
				return fmt.Errorf("grant %s to %s: %w", name, email, err)
			}
		}
	}

	return nil
}
