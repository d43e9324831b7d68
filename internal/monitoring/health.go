package monitoring

import (
	"context"
	"time"

	"github.com/heptiolabs/healthcheck"

	"todoapi/backend/internal/storage"
)

// Pinger 可被健康检查探测的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler 创建存活/就绪探针处理器
//
// 存活探针只看协程数是否失控；就绪探针逐个探测存储依赖，
// 任一不可达时返回 503，让负载均衡摘除实例
func NewHealthHandler(store storage.Store, extra map[string]Pinger) healthcheck.Handler {
	health := healthcheck.NewHandler()

	health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(2000))

	health.AddReadinessCheck("store", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return store.Ping(ctx)
	})

	for name, pinger := range extra {
		p := pinger
		health.AddReadinessCheck(name, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return p.Ping(ctx)
		})
	}

	return health
}
