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
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupUserAuthServiceTest(t *testing.T, captchaEnabled bool) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "user-auth-test-secret-key-0123456789abc"
	cfg.UserJWT.ExpireHours = 24
	cfg.Captcha.Enabled = captchaEnabled

	captchaSvc := NewCaptchaService(cfg.Captcha)
	return NewUserAuthService(cfg, repository.NewUserRepository(db), captchaSvc), db
}

func createAuthTestUser(t *testing.T, db *gorm.DB, email, password, status string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestUserLogin(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t, false)
	user := createAuthTestUser(t, db, "client@example.com", "pass-123", constants.UserStatusActive)

	loggedIn, token, expiresAt, err := svc.Login(UserLoginInput{
		Email:    "client@example.com",
		Password: "pass-123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Fatalf("user id want %d, got %d", user.ID, loggedIn.ID)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("expected future-dated token")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != constants.RoleClient {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestUserLoginRejectsBadCredentials(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t, false)
	createAuthTestUser(t, db, "client@example.com", "pass-123", constants.UserStatusActive)

	if _, _, _, err := svc.Login(UserLoginInput{Email: "client@example.com", Password: "nope"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := svc.Login(UserLoginInput{Email: "ghost@example.com", Password: "pass-123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email want ErrInvalidCredentials, got %v", err)
	}
}

func TestUserLoginRejectsDisabledAccount(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t, false)
	createAuthTestUser(t, db, "blocked@example.com", "pass-123", constants.UserStatusDisabled)

	if _, _, _, err := svc.Login(UserLoginInput{Email: "blocked@example.com", Password: "pass-123"}); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("disabled account want ErrAccountDisabled, got %v", err)
	}
}

func TestUserLoginRequiresCaptchaWhenEnabled(t *testing.T) {
	svc, db := setupUserAuthServiceTest(t, true)
	createAuthTestUser(t, db, "client@example.com", "pass-123", constants.UserStatusActive)

	if _, _, _, err := svc.Login(UserLoginInput{Email: "client@example.com", Password: "pass-123"}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("missing captcha want ErrCaptchaRequired, got %v", err)
	}
	if _, _, _, err := svc.Login(UserLoginInput{
		Email:       "client@example.com",
		Password:    "pass-123",
		CaptchaID:   "bogus",
		CaptchaCode: "00000",
	}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("bad captcha want ErrCaptchaInvalid, got %v", err)
	}
}

func TestCaptchaChallengeRoundTrip(t *testing.T) {
	cfg := config.CaptchaConfig{Enabled: true}
	svc := NewCaptchaService(cfg)

	challenge, err := svc.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate challenge failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" {
		t.Fatalf("challenge incomplete: %+v", challenge)
	}
	if err := svc.Verify(challenge.CaptchaID, "wrong"); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("wrong answer want ErrCaptchaInvalid, got %v", err)
	}

	disabled := NewCaptchaService(config.CaptchaConfig{})
	if err := disabled.Verify("", ""); err != nil {
		t.Fatalf("disabled captcha must verify as no-op, got %v", err)
	}
}
