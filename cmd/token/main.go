// Command token mints a signed access token for local use and operators.
//
//	JWT_SECRET=... go run ./cmd/token -user alice -role MANAGER
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/warp/inventory-engine/auth"
	"github.com/warp/inventory-engine/config"
)

func main() {
	user := flag.String("user", "", "username (token subject)")
	role := flag.String("role", string(auth.RoleStaff), "ADMIN, MANAGER or STAFF")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	r, err := auth.ParseRole(*role)
	if err != nil {
		log.Fatal(err)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	token, err := tokens.Issue(auth.Principal{Username: *user, Role: r})
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
