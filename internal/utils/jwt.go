package utils

import (
	"errors"
	"strconv"
	"time"

	"vipwallet/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "vipwallet"

var ErrInvalidToken = errors.New("invalid token claims")

// GenerateToken signs an access token for the given user claims. Tokens are
// normally issued by the authentication service; this is used by the seed
// tool and tests.
func GenerateToken(secret string, claims *models.UserClaims, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	accessClaims := models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatUint(uint64(claims.UserID), 10),
		},
		UserID:      claims.UserID,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}
	if len(accessClaims.Permissions) == 0 {
		accessClaims.Permissions = models.GetDefaultPermissions(claims.Role)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(secret))
}

// ParseToken parses and validates a JWT token string.
func ParseToken(secret, tokenStr string) (*models.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
