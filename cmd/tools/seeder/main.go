package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/paypal-orders/internal/common"
	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
	"github.com/noah-isme/paypal-orders/internal/events"
	"github.com/noah-isme/paypal-orders/internal/order"
)

func main() {
	count := flag.Int("orders", 25, "number of fake orders to insert")
	seed := flag.Uint64("seed", 0, "faker seed, 0 for random")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("tool", "seeder").Logger()
	bus := &events.Bus{Store: dbgen.New(pool)}
	repo, err := order.NewPGRepository(pool, bus)
	if err != nil {
		log.Fatalf("Failed to build repository: %v", err)
	}
	svc := order.NewService(repo, bus, common.NewValidator(), logger)

	faker := gofakeit.New(*seed)
	created, skipped := 0, 0
	for i := 0; i < *count; i++ {
		_, err := svc.Create(ctx, fakeOrder(faker))
		switch {
		case errors.Is(err, order.ErrDuplicateExternalID):
			skipped++
		case err != nil:
			log.Fatalf("Failed to seed order: %v", err)
		default:
			created++
		}
	}
	fmt.Printf("Seeding completed: %d orders created, %d skipped\n", created, skipped)
}

var statuses = []string{"CREATED", "APPROVED", "COMPLETED"}

func fakeOrder(f *gofakeit.Faker) order.CreateInput {
	var in order.CreateInput
	in.ProductName = f.ProductName()
	in.PayPalOrder.ID = strings.ToUpper(f.LetterN(4) + f.DigitN(13))
	in.PayPalOrder.Status = statuses[f.IntN(len(statuses))]
	in.PayPalOrder.Payer.Name.GivenName = f.FirstName()
	in.PayPalOrder.Payer.Name.Surname = f.LastName()
	in.PayPalOrder.Payer.EmailAddress = f.Email()

	var unit order.PurchaseUnit
	unit.Amount.Value = fmt.Sprintf("%.2f", f.Price(5, 500))
	unit.Amount.CurrencyCode = "USD"
	addr := f.Address()
	unit.Shipping.Address = order.Address{
		AddressLine1: addr.Street,
		AdminArea2:   addr.City,
		AdminArea1:   f.StateAbr(),
		PostalCode:   addr.Zip,
		CountryCode:  "US",
	}
	in.PayPalOrder.PurchaseUnits = []order.PurchaseUnit{unit}
	return in
}
