package lifecycle

const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// ValidRole 校验角色取值
func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Actor 当前请求的操作者，由 handler 从登录态中取出后显式传入
type Actor struct {
	ID   uint64
	Role string
}

func (a Actor) Authenticated() bool { return a.ID != 0 }

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}

// Policy 某类实体的删除/恢复权限
type Policy struct {
	DeleteRoles []string
	// AuthorMayDelete 作者本人可删除自己的内容
	AuthorMayDelete bool
	RestoreRoles    []string
}

// restore 的不对称：工作组/帖子主题只允许 super_admin 恢复，回复允许 admin
var policies = map[Kind]Policy{
	KindWorkingGroup: {
		DeleteRoles:  []string{RoleAdmin, RoleSuperAdmin},
		RestoreRoles: []string{RoleSuperAdmin},
	},
	KindThread: {
		DeleteRoles:  []string{RoleAdmin, RoleSuperAdmin},
		RestoreRoles: []string{RoleSuperAdmin},
	},
	KindPost: {
		DeleteRoles:     []string{RoleAdmin, RoleSuperAdmin},
		AuthorMayDelete: true,
		RestoreRoles:    []string{RoleAdmin, RoleSuperAdmin},
	},
}

// ListDeletedRoles 可查看回收站的角色
var ListDeletedRoles = []string{RoleAdmin, RoleSuperAdmin}

func PolicyFor(k Kind) (Policy, bool) {
	p, ok := policies[k]
	return p, ok
}

// MayAttemptDelete 角色层面是否有机会删除（作者身份需要查库后再判断）
func (p Policy) MayAttemptDelete(a Actor) bool {
	return p.AuthorMayDelete || HasRole(a, p.DeleteRoles)
}

// CanDelete ownerID 为实体作者，工作组没有作者时传 0
func (p Policy) CanDelete(a Actor, ownerID uint64) bool {
	if HasRole(a, p.DeleteRoles) {
		return true
	}
	return p.AuthorMayDelete && ownerID != 0 && ownerID == a.ID
}

func (p Policy) CanRestore(a Actor) bool {
	return HasRole(a, p.RestoreRoles)
}

func HasRole(a Actor, roles []string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
