package authorization

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/cloudstage/internal/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestAuthorizeModeratorCanModerate(t *testing.T) {
	svc := newTestService(t, config.AdminConfig{})

	for _, action := range []string{ActionEventApprove, ActionEventReject} {
		if err := svc.Authorize(context.Background(), RoleModerator, ObjectEvent, action); err != nil {
			t.Fatalf("expected moderator allowed to %s, got %v", action, err)
		}
	}
}

func TestAuthorizeModeratorCannotReplay(t *testing.T) {
	svc := newTestService(t, config.AdminConfig{})

	err := svc.Authorize(context.Background(), RoleModerator, ObjectReconciliation, ActionReconciliationReplay)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	err = svc.Authorize(context.Background(), RoleModerator, ObjectEvent, ActionEventNotify)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAuthorizeAdminInheritsModerator(t *testing.T) {
	svc := newTestService(t, config.AdminConfig{})

	cases := [][2]string{
		{ObjectEvent, ActionEventApprove},
		{ObjectEvent, ActionEventNotify},
		{ObjectReconciliation, ActionReconciliationView},
		{ObjectReconciliation, ActionReconciliationReplay},
		{ObjectAuditLog, ActionAuditLogView},
	}
	for _, c := range cases {
		if err := svc.Authorize(context.Background(), "ADMIN", c[0], c[1]); err != nil {
			t.Fatalf("expected admin allowed %s/%s, got %v", c[0], c[1], err)
		}
	}
}

func TestAuthorizeValidatesArguments(t *testing.T) {
	svc := newTestService(t, config.AdminConfig{})

	if err := svc.Authorize(context.Background(), "", ObjectEvent, ActionEventApprove); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := svc.Authorize(context.Background(), RoleAdmin, "", ActionEventApprove); !errors.Is(err, ErrInvalidObject) {
		t.Fatalf("expected ErrInvalidObject, got %v", err)
	}
	if err := svc.Authorize(context.Background(), RoleAdmin, ObjectEvent, ""); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if err := svc.Authorize(context.Background(), "viewer", ObjectEvent, ActionEventApprove); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected unknown role forbidden, got %v", err)
	}
}

func TestAuthenticateMatchesTokenHashes(t *testing.T) {
	svc := newTestService(t, config.AdminConfig{
		TokenHash:          hash(t, "admin-secret"),
		ModeratorTokenHash: hash(t, "mod-secret"),
	})

	role, err := svc.Authenticate(context.Background(), "admin-secret")
	if err != nil || role != RoleAdmin {
		t.Fatalf("expected admin, got %q %v", role, err)
	}
	role, err = svc.Authenticate(context.Background(), "mod-secret")
	if err != nil || role != RoleModerator {
		t.Fatalf("expected moderator, got %q %v", role, err)
	}
	if _, err := svc.Authenticate(context.Background(), "guess"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for empty token, got %v", err)
	}
}

func TestEnforcerSeedIsIdempotent(t *testing.T) {
	db := setupAuthzTestDB(t)
	if _, err := NewEnforcer(db); err != nil {
		t.Fatalf("first enforcer: %v", err)
	}
	if _, err := NewEnforcer(db); err != nil {
		t.Fatalf("second enforcer: %v", err)
	}

	var rules int64
	if err := db.Raw(`SELECT COUNT(*) FROM casbin_rule`).Scan(&rules).Error; err != nil {
		t.Fatalf("count rules: %v", err)
	}
	if rules != 7 {
		t.Fatalf("expected 7 rules after reseeding, got %d", rules)
	}
}

func newTestService(t *testing.T, admin config.AdminConfig) Service {
	t.Helper()
	enforcer, err := NewEnforcer(setupAuthzTestDB(t))
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	return NewService(Params{Cfg: config.Config{Admin: admin}, Log: zap.NewNop(), Enforcer: enforcer})
}

func hash(t *testing.T, token string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

func setupAuthzTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:authz_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}
