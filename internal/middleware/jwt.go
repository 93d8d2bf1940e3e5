package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/vibecheck-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalOperatorID   = "operator_id"
	LocalOperatorRole = "operator_role"
)

// JWTProtected validates HMAC-signed bearer tokens issued to dashboard operators. Websocket
// upgrades may pass the token as the access_token query parameter instead.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" && websocket.IsWebSocketUpgrade(c) {
			if token := strings.TrimSpace(c.Query("access_token")); token != "" {
				authorization = "Bearer " + token
			}
		}
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		}, jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		operator := operatorFromClaims(claims)
		if operator == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token subject missing")
		}
		c.Locals(LocalOperatorID, operator)
		if role := roleFromClaims(claims); role != "" {
			c.Locals(LocalOperatorRole, role)
		}

		return c.Next()
	}
}

// OperatorID returns the authenticated operator, if any.
func OperatorID(c *fiber.Ctx) string {
	if value, ok := c.Locals(LocalOperatorID).(string); ok {
		return value
	}
	return ""
}

func operatorFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "operator_id", "user_id"} {
		switch v := claims[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			if v >= 0 {
				return strconv.FormatUint(uint64(v), 10)
			}
		}
	}
	return ""
}

func roleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		if role := normalizeClaimRole(claims[key]); role != "" {
			return role
		}
	}
	return ""
}

func normalizeClaimRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
					return role
				}
			}
		}
	}
	return ""
}
