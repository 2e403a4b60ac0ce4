package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tally-app/tally/internal/errdef"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindRequest struct {
	Name string `json:"name" binding:"required"`
}

func TestDataBinder(t *testing.T) {
	newContext := func(contentType, body string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		request, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		require.NoError(t, err)
		request.Header.Set("Content-Type", contentType)
		c.Request = request
		return c
	}

	t.Run("Bind", func(t *testing.T) {
		var req bindRequest

		err := DataBinder(newContext("application/json", `{"name":"bob"}`), &req)

		require.NoError(t, err)
		assert.Equal(t, "bob", req.Name)
	})

	t.Run("MissingField", func(t *testing.T) {
		var req bindRequest

		err := DataBinder(newContext("application/json", `{}`), &req)

		assert.True(t, errdef.IsBadRequest(err))
	})

	t.Run("WrongContentType", func(t *testing.T) {
		var req bindRequest

		err := DataBinder(newContext("text/plain", `name=bob`), &req)

		assert.True(t, errdef.IsUnsupportedMediaType(err))
	})
}
