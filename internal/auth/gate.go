package auth

import "todoapi/backend/internal/domain"

// Authorize 检查身份的角色级别是否在路由允许的集合内
//
// 纯函数，按集合成员判断而非阈值比较：级别高不代表自动拥有
// 低级别路由的访问权。允许集合为空时默认拒绝（fail-closed）。
func Authorize(identity *domain.Identity, allowedRoles []int) error {
	if identity == nil {
		return ErrForbidden
	}
	for _, role := range allowedRoles {
		if identity.RoleLevel == role {
			return nil
		}
	}
	return ErrForbidden
}
