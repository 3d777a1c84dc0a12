package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notesBody struct {
	Notes string `json:"notes"`
}

func testContext(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c
}

func TestBindOptionalJSON(t *testing.T) {
	t.Run("missing body binds the zero value", func(t *testing.T) {
		var obj notesBody
		require.NoError(t, BindOptionalJSON(testContext(""), &obj))
		assert.Empty(t, obj.Notes)
	})

	t.Run("present body is bound", func(t *testing.T) {
		var obj notesBody
		require.NoError(t, BindOptionalJSON(testContext(`{"notes":"bring questions"}`), &obj))
		assert.Equal(t, "bring questions", obj.Notes)
	})

	t.Run("malformed body still errors", func(t *testing.T) {
		var obj notesBody
		require.Error(t, BindOptionalJSON(testContext(`{"notes":`), &obj))
	})
}
