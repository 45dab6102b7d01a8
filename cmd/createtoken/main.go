package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gzizouseif24/xero-automation/security"
)

func main() {
	secret := os.Getenv("PAYROLL_SIGNING_SECRET")
	if secret == "" {
		log.Fatal("PAYROLL_SIGNING_SECRET is required")
	}

	token, err := security.CreateIdentityToken(security.Identity{
		UniqueName: "operator",
		Role:       "admin",
	}, secret, 24*time.Hour)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(token)
}
