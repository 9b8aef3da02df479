// middleware/jwt_middleware.go
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/HSouheill/homeservices_backend/models"
	"github.com/HSouheill/homeservices_backend/repositories"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const callerKey = "caller"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownUser  = errors.New("user not found")
)

// JwtCustomClaims are the claims issued by the credential service. Only the
// user id is trusted; the role is always re-read from the user record.
type JwtCustomClaims struct {
	UserID string `json:"id"`
	Role   string `json:"role,omitempty"`
	jwt.StandardClaims
}

// Auth validates bearer tokens and resolves them to callers.
type Auth struct {
	secret []byte
	users  repositories.UserDirectory
}

func NewAuth(secret string, users repositories.UserDirectory) *Auth {
	if secret == "" {
		log.Printf("Warning: JWT_SECRET environment variable is not set")
	}
	return &Auth{secret: []byte(secret), users: users}
}

// JWTMiddleware verifies the Authorization header and leaves the parsed
// token in the context under "user".
func (a *Auth) JWTMiddleware() echo.MiddlewareFunc {
	if len(a.secret) == 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return unauthorized(c, "JWT configuration error")
			}
		}
	}
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    a.secret,
		SigningMethod: middleware.AlgorithmHS256,
		Claims:        &JwtCustomClaims{},
		ErrorHandlerWithContext: func(err error, c echo.Context) error {
			c.Logger().Debugf("JWT middleware error: %v", err)
			return unauthorized(c, "Invalid token")
		},
	})
}

// ResolveUser loads the user named by the token and stores the caller in the
// context. It must run after JWTMiddleware.
func (a *Auth) ResolveUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return unauthorized(c, "Missing authorization token")
			}
			claims, ok := token.Claims.(*JwtCustomClaims)
			if !ok {
				return unauthorized(c, "Invalid token")
			}
			caller, err := a.callerFor(c.Request().Context(), claims)
			switch {
			case errors.Is(err, ErrUnknownUser):
				return unauthorized(c, "User not found")
			case errors.Is(err, ErrInvalidToken):
				return unauthorized(c, "Invalid token")
			case err != nil:
				c.Logger().Errorf("resolve user %s: %v", claims.UserID, err)
				return c.JSON(http.StatusInternalServerError, models.Response{
					Status:  http.StatusInternalServerError,
					Message: "Server error",
				})
			}
			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// Authenticate resolves a raw token, as sent on the socket handshake.
func (a *Auth) Authenticate(ctx context.Context, raw string) (models.Caller, error) {
	claims, err := a.ParseToken(raw)
	if err != nil {
		return models.Caller{}, err
	}
	return a.callerFor(ctx, claims)
}

func (a *Auth) ParseToken(raw string) (*JwtCustomClaims, error) {
	if len(a.secret) == 0 {
		return nil, ErrInvalidToken
	}
	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *Auth) callerFor(ctx context.Context, claims *JwtCustomClaims) (models.Caller, error) {
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Caller{}, ErrInvalidToken
	}
	user, err := a.users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Caller{}, ErrUnknownUser
	}
	if err != nil {
		return models.Caller{}, err
	}
	role, ok := models.ParseRole(string(user.Role))
	if !ok {
		return models.Caller{}, ErrUnknownUser
	}
	return models.Caller{UserID: user.ID, Role: role}, nil
}

// GetCaller returns the caller stored by ResolveUser.
func GetCaller(c echo.Context) (models.Caller, bool) {
	caller, ok := c.Get(callerKey).(models.Caller)
	return caller, ok
}

// GenerateJWT signs a token in the credential service's format.
func GenerateJWT(secret, userID string, role models.Role, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT_SECRET environment variable is required")
	}
	now := time.Now()
	claims := &JwtCustomClaims{
		UserID: userID,
		Role:   string(role),
		StandardClaims: jwt.StandardClaims{
			IssuedAt: now.Unix(),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, models.Response{
		Status:  http.StatusUnauthorized,
		Message: message,
	})
}
