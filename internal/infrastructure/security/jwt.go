// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateAdminToken creates a signed JWT granting dashboard access for a project.
func GenerateAdminToken(projectID, role, jwtSecret string, lifetime time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"projectId": projectID,
		"role":      role,
		"iat":       time.Now().UTC().Unix(),
		"exp":       time.Now().UTC().Add(lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ProjectFromClaims extracts the project id and role from validated claims.
func ProjectFromClaims(claims jwt.MapClaims) (projectID, role string, ok bool) {
	projectID, pOK := claims["projectId"].(string)
	role, rOK := claims["role"].(string)
	if !pOK || !rOK || projectID == "" {
		return "", "", false
	}
	return projectID, role, true
}
