package testutil

import (
	"net/http"
	"testing"
	"time"

	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	assert.NotNil(t, mockDB.SqlDB)

	// No expectations set, should pass
	mockDB.ExpectationsWereMet(t)
}

func TestNewMemoryDatabase(t *testing.T) {
	db := NewMemoryDatabase(t)

	f := SeedFund(t, db.DB, "Alpha", 7, 2015)
	assert.Positive(t, f.ID)
	SeedAlias(t, db.DB, f.ID, "Alpha Growth")

	var count int64
	require.NoError(t, db.DB.Model(&fund.Alias{}).Where("fund_id = ?", f.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t)

	assert.NotNil(t, tc.Context)
	assert.NotNil(t, tc.Recorder)
	assert.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)
}

func TestTestContext_Setters(t *testing.T) {
	tc := NewTestContext(t)

	tc.SetRequestID("req-123")
	tc.SetHeader("Accept", "application/json")
	tc.SetParam("id", "42")

	assert.Equal(t, "req-123", tc.Context.GetString(logger.GinRequestIDKey))
	assert.Equal(t, "application/json", tc.Context.Request.Header.Get("Accept"))
	assert.Equal(t, "42", tc.Context.Param("id"))
}

func TestTestContext_Response(t *testing.T) {
	tc := NewTestContext(t)
	tc.Context.String(http.StatusCreated, "created")

	assert.Equal(t, http.StatusCreated, tc.ResponseCode())
	assert.Equal(t, []byte("created"), tc.ResponseBody())
}

func TestDoJSONAndDecode(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		_ = c.ShouldBindJSON(&body)
		c.JSON(http.StatusOK, body)
	})
	engine.GET("/fail", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   gin.H{"code": "ERR_NOT_FOUND", "message": "missing"},
		})
	})

	w := DoJSON(t, engine, http.MethodPost, "/echo", map[string]any{"name": "Alpha"})
	assert.Equal(t, "Alpha", DecodeJSON[map[string]any](t, w)["name"])

	AssertErrorResponse(t, DoJSON(t, engine, http.MethodGet, "/fail", nil), http.StatusNotFound, "ERR_NOT_FOUND")
}

func TestRequireEventually(t *testing.T) {
	start := time.Now()
	RequireEventually(t, func() bool {
		return time.Since(start) > 20*time.Millisecond
	}, time.Second, 5*time.Millisecond)
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool { return false }, 30*time.Millisecond, 5*time.Millisecond)
}

func TestContextWithTimeout(t *testing.T) {
	ctx := ContextWithTimeout(t, time.Minute)

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, time.Second)
}
