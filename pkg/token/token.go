package token

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUnknownIssuer    = errors.New("unknown issuer")
	ErrNoKey            = errors.New("no signing key configured")
)

// Roles recognized in identity token claims.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims carries the identity assertions the bridge cares about. The
// identity provider may include more; unknown claims are ignored.
type Claims struct {
	Issuer    string `json:"iss,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Audience  string `json:"aud,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`

	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// IsAdmin reports whether the token asserts the admin role.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Valid checks the time-based claims against the current clock.
func (c *Claims) Valid() error {
	now := time.Now().Unix()
	if c.ExpiresAt != 0 && now > c.ExpiresAt {
		return ErrTokenExpired
	}
	if c.NotBefore != 0 && now < c.NotBefore {
		return ErrTokenNotYetValid
	}
	return nil
}

// Service verifies RS256 identity tokens. In production only the identity
// provider's public key is loaded; signing is available for the dev-token
// tool and for tests.
type Service struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	lifetime   time.Duration
}

// Config holds token service settings.
type Config struct {
	// PublicKeyPath is the PEM file holding the identity provider's
	// verification key.
	PublicKeyPath string
	// PrivateKeyPath, when set, enables local token issuance.
	PrivateKeyPath string
	Issuer         string
	LifetimeMins   int
}

// NewService builds a token service from PEM key files. At least one key
// path must be supplied.
func NewService(cfg Config) (*Service, error) {
	s := &Service{
		issuer:   cfg.Issuer,
		lifetime: time.Duration(cfg.LifetimeMins) * time.Minute,
	}

	if cfg.PrivateKeyPath != "" {
		key, err := loadPrivateKey(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load private key: %w", err)
		}
		s.privateKey = key
		s.publicKey = &key.PublicKey
	}

	if cfg.PublicKeyPath != "" && s.publicKey == nil {
		key, err := loadPublicKey(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load public key: %w", err)
		}
		s.publicKey = key
	}

	if s.publicKey == nil {
		return nil, ErrNoKey
	}

	return s, nil
}

// NewServiceFromKey builds a token service around an in-memory key pair.
// Intended for tests and debug-mode runs without a provider key.
func NewServiceFromKey(key *rsa.PrivateKey, issuer string, lifetime time.Duration) *Service {
	return &Service{
		privateKey: key,
		publicKey:  &key.PublicKey,
		issuer:     issuer,
		lifetime:   lifetime,
	}
}

// Lifetime returns the configured token lifetime.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}

// Sign issues a signed identity token for the given claims. Standard
// time claims and the issuer are filled in here.
func (s *Service) Sign(claims Claims) (string, error) {
	if s.privateKey == nil {
		return "", ErrNoKey
	}

	now := time.Now()
	claims.Issuer = s.issuer
	claims.IssuedAt = now.Unix()
	claims.NotBefore = now.Unix()
	if claims.ExpiresAt == 0 {
		claims.ExpiresAt = now.Add(s.lifetime).Unix()
	}
	if claims.Role == "" {
		claims.Role = RoleUser
	}

	header := map[string]string{"alg": "RS256", "typ": "JWT"}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}

	message := b64encode(headerJSON) + "." + b64encode(claimsJSON)
	digest := sha256.Sum256([]byte(message))

	sig, err := rsa.SignPKCS1v15(rand.Reader, s.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	return message + "." + b64encode(sig), nil
}

// Verify checks signature, time claims, and issuer, returning the parsed
// claims on success.
func (s *Service) Verify(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	message := parts[0] + "." + parts[1]
	digest := sha256.Sum256([]byte(message))

	sig, err := b64decode(parts[2])
	if err != nil {
		return nil, ErrMalformedToken
	}
	if err := rsa.VerifyPKCS1v15(s.publicKey, crypto.SHA256, digest[:], sig); err != nil {
		return nil, ErrInvalidSignature
	}

	claimsJSON, err := b64decode(parts[1])
	if err != nil {
		return nil, ErrMalformedToken
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, ErrMalformedToken
	}

	if err := claims.Valid(); err != nil {
		return nil, err
	}
	if claims.Issuer != s.issuer {
		return nil, ErrUnknownIssuer
	}

	return &claims, nil
}

// GenerateKeyPair writes a fresh RSA key pair to the given paths. Used by
// the dev-token tool to bootstrap a local environment.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(privateKeyPath, privPEM, 0600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	if err := os.WriteFile(publicKeyPath, pubPEM, 0644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	return nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	return x509.ParsePKCS1PrivateKey(block.Bytes)
}

func loadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return rsaPub, nil
}

func b64encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func b64decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
