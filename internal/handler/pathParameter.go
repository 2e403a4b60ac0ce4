package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetPathParameter returns the id in the path parameter of the given name. Ids start at 1, anything
// else aborts the request with a bad request and false is returned.
func GetPathParameter(c *gin.Context, parameter string) (uint, bool) {
	value := c.Param(parameter)
	id, err := strconv.ParseUint(value, 10, 32)
	if err == nil && id == 0 {
		err = fmt.Errorf("ids start at 1")
	}
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, fmt.Errorf("invalid %s %q: %v", parameter, value, err))
		return 0, false
	}
	return uint(id), true
}
