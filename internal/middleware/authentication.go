package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/tally-app/tally/internal/errdef"
	"github.com/tally-app/tally/pkg/model"
	"github.com/tally-app/tally/pkg/token/helper"

	"github.com/gin-gonic/gin"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewAuthentication(logger *slog.Logger, secretKey string, userService userService) AuthenticationMiddleware {
	return AuthenticationMiddleware{
		logger:      logger,
		secretKey:   secretKey,
		userService: userService,
	}
}

type userService interface {
	FindById(ctx context.Context, id uint) (*model.User, error)
}

type AuthenticationMiddleware struct {
	logger      *slog.Logger
	secretKey   string
	userService userService
}

// TokenAuthentication authenticates the request using the bearer token in the Authorization header
// or the accessToken cookie. Browsers can't set headers on an EventSource so the cookie is needed for
// the SSE route.
func (m AuthenticationMiddleware) TokenAuthentication(c *gin.Context) {
	ctx := c.Request.Context()

	token, err := extractToken(c)
	if err != nil {
		_ = c.Error(errdef.NewUnauthorized("token not valid: %v", err))
		c.Abort()
		return
	}

	claims, err := helper.ValidateAccessToken(token, m.secretKey)
	if err != nil {
		m.logger.InfoContext(ctx, "Token not valid", "error", err)
		_ = c.Error(errdef.NewUnauthorized("token not valid"))
		c.Abort()
		return
	}

	user, err := m.userService.FindById(ctx, claims.UserId)
	if err != nil {
		if errdef.IsNotFound(err) {
			_ = c.Error(errdef.NewUnauthorized("token not valid"))
		} else {
			_ = c.Error(err)
		}
		c.Abort()
		return
	}

	c.Set("user", user)
	c.Request = c.Request.WithContext(model.NewContextWithUser(ctx, user))
	c.Next()
}

func extractToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return "", errors.New("invalid Authorization header format")
		}
		return token, nil
	}

	cookie, err := c.Cookie("accessToken")
	if err != nil || cookie == "" {
		return "", errors.New("token not found in Authorization header or accessToken cookie")
	}
	return cookie, nil
}
