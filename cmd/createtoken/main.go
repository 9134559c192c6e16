package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/env"
	"github.com/Vortex-Hub-Tech/agendamento/internal/pkg/security"
)

// createtoken mints an admin token for the moderation endpoints.
func main() {
	env.SetupEnvFile()

	subject := flag.String("subject", "", "moderator identity recorded as moderated_by (required)")
	name := flag.String("name", "", "display name")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := env.GetEnv("ADMIN_JWT_SECRET", "")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is not set")
		os.Exit(1)
	}

	token, err := security.GenerateAdminToken(*subject, *name, *ttl, secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create token: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	fmt.Println(token)
}
