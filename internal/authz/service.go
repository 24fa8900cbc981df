package authz

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	adminSubjectFmt = "admin:%d"
	rolePrefix      = "role:"

	// RoleSuperAdmin holds every permission; RoleOperator is read-only over
	// billing data plus the payment review surfaces.
	RoleSuperAdmin = "role:superadmin"
	RoleOperator   = "role:operator"
)

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Service wraps the casbin enforcer for back-office route authorization.
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService creates the authorization service backed by the application
// database.
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}

	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}

	m, err := model.NewModelFromString(defaultRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	return &Service{enforcer: enforcer}, nil
}

// Enforce runs one authorization check.
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if s == nil || s.enforcer == nil {
		return false, fmt.Errorf("authz service unavailable")
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), NormalizeObject(obj), NormalizeAction(act))
}

// EnforceAdmin checks authorization for an admin id.
func (s *Service) EnforceAdmin(adminID uint, obj, act string) (bool, error) {
	return s.Enforce(SubjectForAdmin(adminID), obj, act)
}

// AssignRole links an admin to a role.
func (s *Service) AssignRole(adminID uint, role string) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	if adminID == 0 {
		return fmt.Errorf("admin id is required")
	}
	if !strings.HasPrefix(role, rolePrefix) {
		role = rolePrefix + strings.TrimSpace(role)
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", SubjectForAdmin(adminID), role); err != nil {
		return fmt.Errorf("assign admin role failed: %w", err)
	}
	return nil
}

// BootstrapBuiltinRoles seeds the built-in role policies and grants the
// initial admin full access. Idempotent.
func (s *Service) BootstrapBuiltinRoles(initialAdminID uint) error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	policies := [][]string{
		{RoleSuperAdmin, "*", "*"},
		{RoleOperator, apiV1Prefix + "/admin/invoices", "GET"},
		{RoleOperator, apiV1Prefix + "/admin/invoices/:id", "GET"},
		{RoleOperator, apiV1Prefix + "/admin/quotes", "GET"},
		{RoleOperator, apiV1Prefix + "/admin/quotes/:id", "GET"},
		{RoleOperator, apiV1Prefix + "/admin/payments/audit", "GET"},
		{RoleOperator, apiV1Prefix + "/admin/payments/events", "GET"},
		{RoleOperator, apiV1Prefix + "/admin/payments/check/:transId", "GET"},
	}
	for _, p := range policies {
		if _, err := s.enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("seed policy failed: %w", err)
		}
	}
	if initialAdminID != 0 {
		if err := s.AssignRole(initialAdminID, RoleSuperAdmin); err != nil {
			return err
		}
	}
	return s.enforcer.LoadPolicy()
}

// SubjectForAdmin builds the casbin subject for an admin id.
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(adminSubjectFmt, adminID)
}

// NormalizeObject strips query strings and trailing slashes from a request
// path.
func NormalizeObject(obj string) string {
	obj = strings.TrimSpace(obj)
	if idx := strings.IndexByte(obj, '?'); idx >= 0 {
		obj = obj[:idx]
	}
	if len(obj) > 1 {
		obj = strings.TrimRight(obj, "/")
	}
	if obj == "" {
		obj = "/"
	}
	return obj
}

// NormalizeAction upper-cases an HTTP method.
func NormalizeAction(act string) string {
	return strings.ToUpper(strings.TrimSpace(act))
}
