package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/veridian-id/veridian/internal/shared/clock"
	"github.com/veridian-id/veridian/internal/shared/config"
)

const (
	recoveryTokenType  = "recovery"
	recoveryTokenScope = "account:recover"
)

// RecoveryClaims is the payload of a recovery token. The token is scoped so
// it cannot pass as a session credential anywhere else.
type RecoveryClaims struct {
	RequestSID string `json:"request_sid"`
	Scope      string `json:"scope"`
	TokenType  string `json:"token_type"`
	jwt.RegisteredClaims
}

// RecoveryTokenService signs and verifies the short-lived tokens handed out
// when a recovery request completes.
type RecoveryTokenService struct {
	secret        []byte
	issuer        string
	expiryMinutes int
	clock         clock.Clock
}

func NewRecoveryTokenService(jwtCfg config.JWTConfig, recoveryCfg config.RecoveryConfig, clk clock.Clock) *RecoveryTokenService {
	expiry := recoveryCfg.TokenExpiryMinutes
	if expiry <= 0 {
		expiry = 15
	}

	return &RecoveryTokenService{
		secret:        []byte(jwtCfg.Secret),
		issuer:        jwtCfg.Issuer,
		expiryMinutes: expiry,
		clock:         clk,
	}
}

func (s *RecoveryTokenService) Issue(userID uint, requestSID string) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(time.Duration(s.expiryMinutes) * time.Minute)

	claims := &RecoveryClaims{
		RequestSID: requestSID,
		Scope:      recoveryTokenScope,
		TokenType:  recoveryTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign recovery token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses a recovery token and rejects anything that is not a
// recovery-scoped credential.
func (s *RecoveryTokenService) Verify(tokenString string) (*RecoveryClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RecoveryClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*RecoveryClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.TokenType != recoveryTokenType || claims.Scope != recoveryTokenScope {
		return nil, fmt.Errorf("token is not a recovery token")
	}

	return claims, nil
}
