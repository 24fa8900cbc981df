package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/facturio/internal/config"
	"github.com/facturio/internal/constants"
	"github.com/facturio/internal/models"
	"github.com/facturio/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "auth-service-test-secret-key-0123456789"
	cfg.JWT.ExpireHours = 24

	return NewAuthService(cfg, repository.NewAdminRepository(db)), db
}

func TestAuthServiceLogin(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	hash, err := svc.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	admin := models.Admin{
		Username:     "ops",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	loggedIn, token, expiresAt, err := svc.Login("ops", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != admin.ID {
		t.Fatalf("admin id want %d, got %d", admin.ID, loggedIn.ID)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("expected future-dated token")
	}
	if loggedIn.LastLoginAt == nil {
		t.Fatalf("last login not stamped")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "ops" || claims.Role != constants.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	hash, err := svc.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	if err := db.Create(&models.Admin{
		Username:     "ops",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	if _, _, _, err := svc.Login("ops", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login("nobody", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user want ErrInvalidCredentials, got %v", err)
	}
}

func TestParseJWTRejectsForeignToken(t *testing.T) {
	svc, _ := setupAuthServiceTest(t)

	otherCfg := &config.Config{}
	otherCfg.JWT.SecretKey = "a-different-secret-key-9876543210-abcdef"
	otherCfg.JWT.ExpireHours = 24
	other := NewAuthService(otherCfg, nil)

	token, _, err := other.GenerateJWT(&models.Admin{ID: 1, Username: "ops"})
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	if _, err := svc.ParseJWT(token); err == nil {
		t.Fatalf("expected foreign token to be rejected")
	}
}

func TestRoleDestination(t *testing.T) {
	if got := RoleDestination(constants.RoleAdmin); got != "/admin/dashboard" {
		t.Fatalf("admin destination want /admin/dashboard, got %q", got)
	}
	if got := RoleDestination(constants.RoleClient); got != "/client/dashboard" {
		t.Fatalf("client destination want /client/dashboard, got %q", got)
	}
}
