package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/evolution-ecosystem/bridge/pkg/token"
)

func main() {
	// Flags for customization
	privateKeyPath := flag.String("key", "./keys/private.pem", "Path to signing private key")
	publicKeyPath := flag.String("pub", "./keys/identity.pem", "Path to public key (used with -generate); the server reads this via AUTH_PUBLIC_KEY_PATH")
	generate := flag.Bool("generate", false, "Generate a new key pair and exit")
	subject := flag.String("user", "user:dev", "Subject (user ID) for the token")
	email := flag.String("email", "dev@evolution-ecosystem.web.app", "Email claim")
	role := flag.String("role", token.RoleUser, "Role claim (user or admin)")
	issuer := flag.String("issuer", "auth.evolution-ecosystem.web.app", "Token issuer")
	lifetimeMins := flag.Int("exp", 60*24, "Token lifetime in minutes (default: 24 hours)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *generate {
		if err := token.GenerateKeyPair(*privateKeyPath, *publicKeyPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating key pair: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s and %s\n", *privateKeyPath, *publicKeyPath)
		return
	}

	svc, err := token.NewService(token.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		LifetimeMins:   *lifetimeMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating token service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nGenerate a key pair first: dev-token -generate\n")
		os.Exit(1)
	}

	signed, err := svc.Sign(token.Claims{
		Subject: *subject,
		Email:   *email,
		Role:    *role,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": signed,
			"token_type":   "Bearer",
			"expires_in":   *lifetimeMins * 60,
			"sub":          *subject,
			"email":        *email,
			"role":         *role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
	} else {
		expTime := time.Now().Add(time.Duration(*lifetimeMins) * time.Minute)
		fmt.Println("Development Token Generated")
		fmt.Println("===========================")
		fmt.Printf("Subject:  %s\n", *subject)
		fmt.Printf("Email:    %s\n", *email)
		fmt.Printf("Role:     %s\n", *role)
		fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
		fmt.Println()
		fmt.Println("Token:")
		fmt.Println(signed)
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/api/v1/experiments\n", signed[:40]+"...")
	}
}
