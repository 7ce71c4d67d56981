package main

import (
	"fmt"
	"log"
	"time"

	"skytrip/internal/flights"
	"skytrip/internal/refunds"
	"skytrip/internal/shared/config"
	"skytrip/internal/shared/database"
	"skytrip/internal/users"

	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting SkyTrip Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"refund_requests",
		"refund_policies",
		"bookings",
		"flights",
		"users",
	}

	for _, table := range tables {
		if err := s.db.PostgreSQL.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return fmt.Errorf("failed to clean table %s: %w", table, err)
		}
		fmt.Printf("   Cleaned table: %s\n", table)
	}

	return nil
}

// SeedAll seeds accounts, the flight catalog and the active refund policy
func (s *Seeder) SeedAll() error {
	if err := s.SeedUsers(); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedFlights(); err != nil {
		return fmt.Errorf("failed to seed flights: %w", err)
	}

	if err := s.SeedRefundPolicy(); err != nil {
		return fmt.Errorf("failed to seed refund policy: %w", err)
	}

	return nil
}

// SeedUsers creates an admin account and a handful of traveller accounts
func (s *Seeder) SeedUsers() error {
	fmt.Println("   Seeding users...")

	type account struct {
		FirstName string
		LastName  string
		Email     string
		Password  string
		Role      users.Role
	}

	accounts := []account{
		{"Admin", "User", "admin@skytrip.com", "admin123", users.RoleAdmin},
		{"Alice", "Johnson", "alice@example.com", "password123", users.RoleUser},
		{"Bob", "Smith", "bob@example.com", "password123", users.RoleUser},
		{"Carol", "Williams", "carol@example.com", "password123", users.RoleUser},
	}

	for _, acc := range accounts {
		hashed, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", acc.Email, err)
		}

		user := users.User{
			FirstName: acc.FirstName,
			LastName:  acc.LastName,
			Email:     acc.Email,
			Password:  string(hashed),
			Role:      acc.Role,
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", acc.Email, err)
		}

		fmt.Printf("   Created %s account: %s\n", acc.Role, acc.Email)
	}

	return nil
}

// SeedFlights creates a small catalog covering a few routes over the next two weeks
func (s *Seeder) SeedFlights() error {
	fmt.Println("   Seeding flight catalog...")

	economySeats := flights.SeatList{
		"1A", "1B", "1C", "1D",
		"2A", "2B", "2C", "2D",
		"3A", "3B", "3C", "3D",
		"4A", "4B", "4C", "4D",
		"5A", "5B", "5C", "5D",
	}

	type route struct {
		From          string
		To            string
		Price         float64
		Airline       string
		FlightNumber  string
		DepartureTime string
		ArrivalTime   string
		Duration      string
	}

	routes := []route{
		{"Amsterdam", "Barcelona", 120.00, "KLM", "KL1671", "08:15", "10:30", "2h 15m"},
		{"Barcelona", "Amsterdam", 115.00, "KLM", "KL1672", "11:45", "14:05", "2h 20m"},
		{"Amsterdam", "Lisbon", 150.00, "TAP Air Portugal", "TP661", "09:30", "11:35", "3h 5m"},
		{"Lisbon", "Amsterdam", 145.00, "TAP Air Portugal", "TP662", "13:10", "17:10", "3h 0m"},
		{"Berlin", "Rome", 95.00, "Lufthansa", "LH1832", "07:00", "09:00", "2h 0m"},
		{"Rome", "Berlin", 99.00, "Lufthansa", "LH1833", "10:20", "12:25", "2h 5m"},
	}

	created := 0
	for day := 1; day <= 14; day++ {
		date := time.Now().AddDate(0, 0, day).Format("2006-01-02")
		for _, rt := range routes {
			flight := flights.Flight{
				From:          rt.From,
				To:            rt.To,
				Date:          date,
				Price:         rt.Price,
				Airline:       rt.Airline,
				FlightNumber:  rt.FlightNumber,
				DepartureTime: rt.DepartureTime,
				ArrivalTime:   rt.ArrivalTime,
				Duration:      rt.Duration,
				Class:         "Economy",
				Seats:         economySeats,
			}

			if err := s.db.PostgreSQL.Create(&flight).Error; err != nil {
				return fmt.Errorf("failed to create flight %s on %s: %w", rt.FlightNumber, date, err)
			}
			created++
		}
	}

	fmt.Printf("   Created %d flights across %d routes\n", created, len(routes))
	return nil
}

// SeedRefundPolicy installs the standard time-tiered refund policy
func (s *Seeder) SeedRefundPolicy() error {
	fmt.Println("   Seeding refund policy...")

	policy := refunds.DefaultPolicy()
	if err := s.db.PostgreSQL.Create(policy).Error; err != nil {
		return fmt.Errorf("failed to create refund policy: %w", err)
	}

	fmt.Printf("   Installed refund policy %q v%d (%d rules)\n", policy.Name, policy.Version, len(policy.Rules))
	return nil
}
