// Command devtoken mints an operator access token for local development.
// Production tokens come from the identity service.
//
//	devtoken -sub op-1 -role ADMIN
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/venue-reservation/internal/utils"
)

func main() {
	_ = godotenv.Load()
	sub := flag.String("sub", "dev-operator", "operator id (sub claim)")
	role := flag.String("role", "ADMIN", "role claim: OPERATOR, APPROVER, FINANCE or ADMIN")
	ttl := flag.Duration("ttl", defaultTTL(), "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	tok, err := utils.NewAccessToken(secret, *sub, *role, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
	fmt.Println(tok.Token)
}

// defaultTTL honours ACCESS_TOKEN_TTL_MIN like the server configuration.
func defaultTTL() time.Duration {
	if n, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_TTL_MIN")); err == nil && n > 0 {
		return time.Duration(n) * time.Minute
	}
	return time.Hour
}
