package middleware // middleware holds the Echo middleware shared by the showtime routes

import (
    "net/http" // HTTP status codes for responses
    "strings"  // prefix checking for the Authorization header

    "github.com/golang-jwt/jwt/v5" // JWT parsing and validation
    "github.com/labstack/echo/v4"  // Echo middleware types
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// signed with HS256 and the given secret, then stores the token's subject
// and role claims in the context under "user_id" and "role".  Expired
// tokens are rejected by the parser.
func JWTAuth(secret string) echo.MiddlewareFunc {
    keyFunc := func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }
    parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := parser.Parse(raw, keyFunc)
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid token"})
            }
            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "invalid claims"})
            }

            // Type assertions are left to downstream consumers.
            c.Set(ctxUserID, claims["sub"])
            c.Set(ctxRole, claims["role"])
            return next(c)
        }
    }
}
