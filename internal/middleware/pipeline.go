package middleware

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todoapi/backend/internal/auth"
	"todoapi/backend/internal/domain"
	"todoapi/backend/internal/monitoring"
	"todoapi/backend/internal/ratelimit"
	"todoapi/backend/internal/usage"
)

// identityContextKey 身份在 gin 上下文中的键
const identityContextKey = "identity"

// Pipeline 请求准入管道
//
// 每个受保护路由上的中间件按固定顺序执行五个阶段：
// 提取 → 认证 → 限流 → 授权 → 处理器，处理器成功返回后
// 异步记录用量。阶段之间不会重排，限流器和用量缓冲是
// 仅有的跨请求共享状态，二者都只通过原子操作更新。
type Pipeline struct {
	extractor  *auth.Extractor
	authn      *auth.Authenticator
	limiter    *ratelimit.Limiter
	accountant *usage.Accountant
	metrics    *monitoring.Metrics
	log        *zap.Logger
}

// NewPipeline 创建请求准入管道
func NewPipeline(
	extractor *auth.Extractor,
	authn *auth.Authenticator,
	limiter *ratelimit.Limiter,
	accountant *usage.Accountant,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		authn:      authn,
		limiter:    limiter,
		accountant: accountant,
		metrics:    metrics,
		log:        log,
	}
}

// Protect 返回保护路由的中间件
//
// allowedRoles 是该路由允许的角色级别集合。集合中包含
// 匿名级别（0）时路由不要求认证，无凭证请求以匿名身份继续。
// 对外的失败响应只携带笼统信息：401/403/429 的正文不解释
// 具体原因，避免给凭证猜测提供反馈。
func (p *Pipeline) Protect(allowedRoles ...int) gin.HandlerFunc {
	requireAuth := true
	for _, role := range allowedRoles {
		if role == domain.RoleLevelAnonymous {
			requireAuth = false
			break
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		// 阶段一：提取凭证
		cred := p.extractor.Extract(c.Request)

		// 阶段二：认证
		identity, err := p.authn.Authenticate(ctx, cred, requireAuth)
		if err != nil {
			if errors.Is(err, auth.ErrStoreUnavailable) {
				p.metrics.RecordAuthOutcome("upstream_error")
				p.log.Error("credential store unavailable", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
				c.Abort()
				return
			}
			p.metrics.RecordAuthOutcome("unauthenticated")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		// 阶段三：限流，键为主体 ID，匿名请求退化为客户端地址
		identityKey := identity.SubjectID
		if identity.IsAnonymous() {
			identityKey = "ip:" + c.ClientIP()
		}

		decision, err := p.limiter.Admit(ctx, identityKey)
		if err != nil {
			p.metrics.RecordAuthOutcome("upstream_error")
			p.log.Error("counter store unavailable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
			c.Abort()
			return
		}
		if !decision.Allowed {
			p.metrics.RecordAuthOutcome("rate_limited")
			p.metrics.RateLimitBlocks.Inc()
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Limit", strconv.FormatInt(p.limiter.Limit(), 10))
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}

		// 阶段四：授权（集合成员判断）
		if err := auth.Authorize(identity, allowedRoles); err != nil {
			p.metrics.RecordAuthOutcome("forbidden")
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			c.Abort()
			return
		}

		p.metrics.RecordAuthOutcome("ok")
		p.metrics.AuthMethods.WithLabelValues(string(identity.Method)).Inc()
		c.Set(identityContextKey, identity)

		// 阶段五：业务处理器
		c.Next()

		// 用量只在处理器成功完成后记录，被取消或失败的请求不产生事件
		if !c.IsAborted() && c.Writer.Status() < http.StatusBadRequest && !identity.IsAnonymous() {
			p.accountant.Record(c.FullPath(), identity.SubjectID)
			p.metrics.UsageEventsRecorded.Inc()
		}
	}
}

// IdentityFrom 从 gin 上下文取出认证身份
//
// 只在 Protect 之后的处理器中有值
func IdentityFrom(c *gin.Context) *domain.Identity {
	if v, exists := c.Get(identityContextKey); exists {
		if identity, ok := v.(*domain.Identity); ok {
			return identity
		}
	}
	return nil
}
