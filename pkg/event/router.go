package event

import (
	"github.com/gin-gonic/gin"
)

type AuthenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

func Routes(r gin.IRouter, authenticationMiddleware AuthenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)

	tokenAuthenticationRouter.POST("/events", handler.Create)
	tokenAuthenticationRouter.POST("/events/:eventId/vote", handler.Vote)
	tokenAuthenticationRouter.GET("/groups/:groupId/events", handler.FindByGroup)
}
