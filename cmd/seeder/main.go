package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/linemk/order-shop/internal/config"
)

type seedProduct struct {
	name        string
	description string
	price       string
	stock       int
}

// демо-каталог для локальной разработки
var seedProducts = []seedProduct{
	{"Laptop Pro X1", "High-end developer laptop", "10.53", 50},
	{"Wireless Mouse", "2.4GHz wireless mouse", "20.00", 100},
	{"4K Monitor", "27-inch 4K IPS display", "30.00", 30},
	{"Mechanical Keyboard", "Hot-swappable mechanical keyboard", "5.00", 75},
	{"Gaming Headset", "Surround sound headset", "1.50", 60},
}

const (
	demoUserName     = "Demo User"
	demoUserEmail    = "demo@example.com"
	demoUserPassword = "password123"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		log.Fatal("DB_PASSWORD environment variable is required")
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User, dbPassword, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := seedCatalog(ctx, db); err != nil {
		log.Fatalf("failed to seed catalog: %v", err)
	}
	if err := seedDemoUser(ctx, db); err != nil {
		log.Fatalf("failed to seed demo user: %v", err)
	}

	log.Println("Seed data applied")
}

// seedCatalog наполняет каталог, если он пуст. Повторный запуск ничего не меняет.
func seedCatalog(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		log.Println("Products already present, skipping catalog seed")
		return nil
	}

	for _, p := range seedProducts {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return fmt.Errorf("bad seed price %q: %w", p.price, err)
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO products (name, description, price, stock) VALUES ($1, $2, $3, $4)",
			p.name, p.description, price, p.stock,
		); err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.name, err)
		}
	}
	log.Printf("Inserted %d products", len(seedProducts))
	return nil
}

func seedDemoUser(ctx context.Context, db *sql.DB) error {
	var exists bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)", demoUserEmail,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check demo user: %w", err)
	}
	if exists {
		log.Println("Demo user already present, skipping")
		return nil
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(demoUserPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	balance := decimal.New(10000, -2) // 100.00
	if _, err := db.ExecContext(ctx,
		"INSERT INTO users (name, email, pass_hash, balance) VALUES ($1, $2, $3, $4)",
		demoUserName, demoUserEmail, passHash, balance,
	); err != nil {
		return fmt.Errorf("failed to insert demo user: %w", err)
	}
	log.Printf("Inserted demo user %s", demoUserEmail)
	return nil
}
