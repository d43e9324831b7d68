package httptransport

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"todoapi/backend/internal/clock"
	"todoapi/backend/internal/middleware"
	"todoapi/backend/internal/storage"
)

// UsageHandler 用量查询处理器
type UsageHandler struct {
	store storage.UsageRepository
	clock clock.Clock
}

// NewUsageHandler 创建用量查询处理器
func NewUsageHandler(store storage.UsageRepository, clk clock.Clock) *UsageHandler {
	return &UsageHandler{
		store: store,
		clock: clk,
	}
}

// Get 查询当前用户最近的用量记录
//
// GET /usage?days=7
//
// 用量异步批量落库，这里读到的数据最多滞后一个刷盘间隔
func (h *UsageHandler) Get(c *gin.Context) {
	identity := middleware.IdentityFrom(c)

	days := 7
	if v := c.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 90 {
			days = parsed
		}
	}
	since := h.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)

	events, err := h.store.ListUsageByUser(c.Request.Context(), identity.SubjectID, since)
	if err != nil {
		InternalError(c)
		return
	}

	Success(c, gin.H{
		"since":  since,
		"count":  len(events),
		"events": events,
	})
}
