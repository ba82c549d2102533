package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mpiyush15/pixels-official-sub001/internal/models"
)

// Claims identifies the signed-in actor. Sessions are issued by the portal login.
type Claims struct {
	ActorID   string           `json:"actor_id"`
	ActorKind models.ActorKind `json:"actor_kind"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a session token for an actor.
func GenerateJWT(actorID string, kind models.ActorKind, secretKey string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ActorID:   actorID,
		ActorKind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   actorID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT verifies a token and returns its claims.
func ValidateJWT(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid JWT")
	}
	if claims.ActorID == "" {
		return nil, errors.New("JWT has no actor")
	}
	switch claims.ActorKind {
	case models.ActorAdmin, models.ActorClient, models.ActorStaff:
	default:
		return nil, fmt.Errorf("JWT has unknown actor kind %q", claims.ActorKind)
	}
	return claims, nil
}
