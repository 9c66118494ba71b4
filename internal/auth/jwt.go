// Package auth issues and validates the HS256 tokens tenants use to
// call the message API. The tenant id claim is the isolation boundary:
// every store query downstream is scoped by it.
package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	claimSubject  = "sub"
	claimTenantID = "tenant_id"
)

// JWTMiddleware returns a JWT auth middleware configured for HS256 tokens.
func JWTMiddleware(secret string, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		TokenLookup:   "header:Authorization:Bearer ,query:token",
		Skipper:       skipper,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return jwt.MapClaims{}
		},
	})
}

// TenantIDFromContext extracts the authenticated tenant id from JWT
// claims. Handlers must never accept a tenant id from the request body.
func TenantIDFromContext(c echo.Context) (int64, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || token == nil || !token.Valid {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	tenantID := claimInt64(claims, claimTenantID)
	if tenantID <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "tenant id missing")
	}
	return tenantID, nil
}

// GenerateToken creates a signed JWT for the tenant.
func GenerateToken(tenantID int64, secret string, expiresIn time.Duration) (string, time.Time, error) {
	if tenantID <= 0 {
		return "", time.Time{}, fmt.Errorf("tenant id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, fmt.Errorf("jwt secret is required")
	}
	if expiresIn <= 0 {
		return "", time.Time{}, fmt.Errorf("jwt expires in must be positive")
	}

	now := time.Now().UTC()
	expiresAt := now.Add(expiresIn)
	claims := jwt.MapClaims{
		claimSubject:  strconv.FormatInt(tenantID, 10),
		claimTenantID: tenantID,
		"iat":         now.Unix(),
		"exp":         expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// claimInt64 reads a numeric claim, tolerating the float64 that JSON
// decoding produces and the string form older tokens carried.
func claimInt64(claims jwt.MapClaims, key string) int64 {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
