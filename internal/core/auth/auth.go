package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

// ContextKey is where the verified token is stored in fiber locals.
const ContextKey = "user"

// RoleAdmin is the role claim value that unlocks admin routes.
const RoleAdmin = "admin"

// signingMethod is the only algorithm accepted on bearer tokens.
const signingMethod = "HS256"

// ErrNoIdentity is returned when the request carries no usable subject claim.
var ErrNoIdentity = errors.New("no authenticated user")

// ErrorResponse mirrors the handler error body so auth failures look like every other error.
type ErrorResponse struct {
	Message string `json:"message"`
	RayID   string `json:"ray_id,omitempty"`
}

func rayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// Required rejects requests without a valid bearer token.
func Required(secret []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    secret,
		SigningMethod: signingMethod,
		ContextKey:    ContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Message: "Invalid or missing access token",
				RayID:   rayID(c),
			})
		},
	})
}

// Optional verifies a bearer token when one is sent and lets anonymous requests through.
// A token that is sent but invalid is still rejected.
func Optional(secret []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    secret,
		SigningMethod: signingMethod,
		ContextKey:    ContextKey,
		Filter: func(c *fiber.Ctx) bool {
			return strings.TrimSpace(c.Get(fiber.HeaderAuthorization)) == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Message: "Invalid access token",
				RayID:   rayID(c),
			})
		},
	})
}

// RequireAdmin must run after Required. It answers 403 unless the role claim is admin.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Message: "Invalid or missing access token",
				RayID:   rayID(c),
			})
		}
		if role, _ := claims["role"].(string); role != RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
				Message: "Admin access required",
				RayID:   rayID(c),
			})
		}
		return c.Next()
	}
}

// Claims returns the verified claims, if any.
func Claims(c *fiber.Ctx) (jwt.MapClaims, bool) {
	tok, ok := c.Locals(ContextKey).(*jwt.Token)
	if !ok || tok == nil {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}

// UserID extracts the numeric subject claim.
func UserID(c *fiber.Ctx) (int64, error) {
	claims, ok := Claims(c)
	if !ok {
		return 0, ErrNoIdentity
	}
	switch v := claims["sub"].(type) {
	case float64:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, ErrNoIdentity
		}
		return id, nil
	default:
		return 0, ErrNoIdentity
	}
}

// IssueToken signs an HS256 token. Used by tooling and tests; production tokens come from the identity service.
func IssueToken(secret []byte, userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
