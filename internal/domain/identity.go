package domain

// CredentialKind 凭证类型
type CredentialKind int

const (
	// CredentialNone 请求中没有携带任何凭证
	CredentialNone CredentialKind = iota
	// CredentialBearer Authorization 头中的 Bearer 令牌
	CredentialBearer
	// CredentialCookie Cookie 中携带的令牌
	CredentialCookie
	// CredentialAPIKey 专用请求头中的 API Key
	CredentialAPIKey
)

// Credential 从请求中提取的归一化凭证
//
// 每个请求最多产生一个凭证候选，由提取器按优先级规则选定
type Credential struct {
	Kind  CredentialKind
	Value string
}

// AuthMethod 认证方式
type AuthMethod string

const (
	AuthMethodToken     AuthMethod = "token"
	AuthMethodAPIKey    AuthMethod = "apikey"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Identity 认证成功后附加到请求上的主体身份
//
// 每个请求只创建一次，创建后不可变，请求结束即丢弃，不做持久化。
// 通过授权门之后的代码不应再关心认证方式。
type Identity struct {
	SubjectID string     `json:"subjectId"`
	RoleLevel int        `json:"roleLevel"`
	Method    AuthMethod `json:"method"`
}

// IsAnonymous 判断是否为匿名身份
func (i *Identity) IsAnonymous() bool {
	return i.Method == AuthMethodAnonymous
}
