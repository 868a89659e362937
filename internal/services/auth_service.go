package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/satonic/artexchange/internal/config"
	"github.com/satonic/artexchange/internal/models"
)

const (
	challengeHeader = "Sign in to ArtExchange"
	issuer          = "artexchange"
)

// Claims represents the JWT claims
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// AuthService handles authentication operations. A caller is identified by
// the address recovered from a signed login challenge.
type AuthService struct {
	walletService *WalletService
	cfg           config.AuthConfig
	now           func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(walletService *WalletService, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		walletService: walletService,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Challenge returns the message an address has to sign to log in
func (s *AuthService) Challenge(req models.ChallengeRequest) (*models.ChallengeResponse, error) {
	address := strings.ToLower(req.Address)
	if !s.walletService.IsAddressValid(address) {
		return nil, ErrInvalidAddress
	}

	expiresAt := s.now().Add(time.Duration(s.cfg.ChallengeExpiration) * time.Minute).UTC().Truncate(time.Second)
	message := fmt.Sprintf("%s\naddress: %s\nnonce: %s\nexpires: %s",
		challengeHeader, address, uuid.New().String(), expiresAt.Format(time.RFC3339))

	return &models.ChallengeResponse{
		Message:   message,
		ExpiresAt: expiresAt,
	}, nil
}

// AuthenticateWithWallet authenticates a caller with a signed challenge
func (s *AuthService) AuthenticateWithWallet(req models.WalletAuthRequest) (*models.AuthToken, error) {
	address, expiresAt, err := parseChallenge(req.Message)
	if err != nil {
		return nil, err
	}

	if s.now().After(expiresAt) {
		return nil, fmt.Errorf("challenge expired")
	}

	// Verify the signature
	valid, err := s.walletService.VerifySignature(address, req.Message, req.Signature)
	if err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}

	if !valid {
		return nil, ErrInvalidSignature
	}

	// Generate a JWT token
	token, tokenExpiresAt, err := s.generateToken(address)
	if err != nil {
		return nil, err
	}

	return &models.AuthToken{
		Token:     token,
		ExpiresAt: tokenExpiresAt,
		Address:   address,
	}, nil
}

// ValidateToken validates a JWT token and returns the caller address
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Check the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	return claims.Address, nil
}

// generateToken generates a JWT token for an address
func (s *AuthService) generateToken(address string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(s.cfg.JWTExpiration) * time.Hour)

	claims := &Claims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   address,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func parseChallenge(message string) (string, time.Time, error) {
	lines := strings.Split(message, "\n")
	if len(lines) != 4 || lines[0] != challengeHeader {
		return "", time.Time{}, fmt.Errorf("malformed challenge")
	}

	address := strings.TrimPrefix(lines[1], "address: ")
	expires := strings.TrimPrefix(lines[3], "expires: ")
	if address == lines[1] || expires == lines[3] {
		return "", time.Time{}, fmt.Errorf("malformed challenge")
	}

	expiresAt, err := time.Parse(time.RFC3339, expires)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed challenge: %w", err)
	}
	return address, expiresAt, nil
}
