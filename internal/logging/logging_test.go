package logging

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestFromCtx(t *testing.T) {
	assert.Same(t, Base(), FromCtx(context.Background()))

	l := New("orders")
	ctx := WithCtx(context.Background(), l)
	assert.Same(t, l, FromCtx(ctx))
}

func TestWith_PropagatesToRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/v1/orders", nil)

	l := New("http")
	With(c, l)
	assert.Same(t, l, From(c))
	assert.Same(t, l, FromCtx(c.Request.Context()))
}
