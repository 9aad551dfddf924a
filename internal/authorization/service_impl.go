package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/cloudstage/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

const (
	ObjectEvent          = "event"
	ObjectReconciliation = "reconciliation"
	ObjectAuditLog       = "audit_log"
)

const (
	ActionEventApprove = "event.approve"
	ActionEventReject  = "event.reject"
	ActionEventNotify  = "event.notify"

	ActionReconciliationView   = "reconciliation.view"
	ActionReconciliationReplay = "reconciliation.replay"

	ActionAuditLogView = "audit_log.view"
)

type Params struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	hashes   []roleHash
}

type roleHash struct {
	role string
	hash []byte
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	var hashes []roleHash
	if h := strings.TrimSpace(p.Cfg.Admin.TokenHash); h != "" {
		hashes = append(hashes, roleHash{role: RoleAdmin, hash: []byte(h)})
	}
	if h := strings.TrimSpace(p.Cfg.Admin.ModeratorTokenHash); h != "" {
		hashes = append(hashes, roleHash{role: RoleModerator, hash: []byte(h)})
	}
	log := p.Log.Named("authorization.service")
	if len(hashes) == 0 {
		log.Warn("no admin token hashes configured; admin endpoints reject every request")
	}
	return &ServiceImpl{
		log:      log,
		enforcer: p.Enforcer,
		hashes:   hashes,
	}
}

func (s *ServiceImpl) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}
	for _, candidate := range s.hashes {
		if bcrypt.CompareHashAndPassword(candidate.hash, []byte(token)) == nil {
			return candidate.role, nil
		}
	}
	return "", ErrUnauthenticated
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce("role:"+role, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:moderator", ObjectEvent, ActionEventApprove},
		{"role:moderator", ObjectEvent, ActionEventReject},

		{"role:admin", ObjectEvent, ActionEventNotify},
		{"role:admin", ObjectReconciliation, ActionReconciliationView},
		{"role:admin", ObjectReconciliation, ActionReconciliationReplay},
		{"role:admin", ObjectAuditLog, ActionAuditLogView},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	// Admins hold every moderator permission.
	if _, err := enforcer.AddGroupingPolicy("role:admin", "role:moderator"); err != nil {
		return err
	}
	return nil
}
