package group

import (
	"github.com/gin-gonic/gin"
)

type AuthenticationMiddleware interface {
	TokenAuthentication(c *gin.Context)
}

func Routes(r gin.IRouter, authenticationMiddleware AuthenticationMiddleware, handler Handler) {
	tokenAuthenticationRouter := r.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)

	tokenAuthenticationRouter.POST("/groups", handler.Create)
	tokenAuthenticationRouter.POST("/groups/join", handler.Join)
	tokenAuthenticationRouter.GET("/groups", handler.FindAll)
	tokenAuthenticationRouter.GET("/groups/:groupId", handler.Find)
}
