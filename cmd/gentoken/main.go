// cmd/gentoken: mints an API token signed with JWT_SECRET for ops scripts
// and local testing. Tokens are normally issued by the login service.
// Usage: go run ./cmd/gentoken -role partner -name ops -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/config"
	"github.com/bildin8/postergram-juice-sub001/internal/middleware"
)

func main() {
	role := flag.String("role", middleware.RolePartner, "store | shop | partner")
	name := flag.String("name", "ops", "display name recorded as the actor")
	subject := flag.String("sub", "ops", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	switch *role {
	case middleware.RoleStore, middleware.RoleShop, middleware.RolePartner:
	default:
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if *ttl <= 0 {
		fmt.Fprintln(os.Stderr, "ttl must be positive")
		os.Exit(2)
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, *subject, *name, *role, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
