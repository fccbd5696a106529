package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/charlesng35/lootguard/pkg/errors"
)

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func TestSuccessEnvelope(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, http.StatusOK, gin.H{"allowed": true})
	})

	require.Equal(t, http.StatusOK, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Nil(t, body.Error)
}

func TestErrorEnvelope(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, appErrors.ErrForbidden)
	})

	require.Equal(t, http.StatusForbidden, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.NotNil(t, body.Error)
	require.Equal(t, appErrors.ErrForbidden.Code, body.Error.Code)
}

func TestErrorDefaultsToInternal(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, nil)
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
}
