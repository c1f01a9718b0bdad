// Command useradm registers a user directly against the credential store,
// for seeding a fresh deployment with its first accounts. The password is
// read from the terminal without echo.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/cristobal22/comanda/internal/server/config"
	"github.com/cristobal22/comanda/internal/server/repositories/repomanager"
	"github.com/cristobal22/comanda/internal/server/services"
	"github.com/cristobal22/comanda/internal/server/shared/db"
	"github.com/cristobal22/comanda/internal/shared"
)

func main() {

	_ = godotenv.Load()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}

	var email, role string
	flag.StringVar(&email, "email", "", "email of the user to create")
	flag.StringVar(&role, "role", config.DefaultRole, "role label for the user")
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	flag.Parse()

	if email == "" {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Print("Contraseña: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		log.Fatalf("reading password: %v", err)
	}
	defer shared.WipeByteArray(password)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer conn.Close()

	if err := db.WaitReady(ctx, conn, 3); err != nil {
		log.Fatalf("database not reachable: %v", err)
	}

	svc := services.NewUserService(conn, repomanager.NewPostgresRepositoryManager(), cfg)

	// string(password) makes an immutable copy the wipe above cannot reach;
	// the wipe only clears the terminal read buffer.
	user, err := svc.Register(ctx, email, string(password), role)
	if err != nil {
		log.Fatalf("registration failed: %v", err)
	}

	fmt.Printf("created user id=%s email=%s role=%s\n", user.ID, user.Email, user.Role)
}
