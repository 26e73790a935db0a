package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"member-admin-api/internal/config"
	"member-admin-api/internal/database"
	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"
	"member-admin-api/internal/utils"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	users     repositories.UserRepository
	roles     repositories.RoleRepository
	members   repositories.MemberRepository
	activity  repositories.ActivityRepository
	tokens    *utils.TokenManager
	auth      AuthService
	memberSvc MemberService
	roleSvc   RoleService
	logSvc    ActivityService
	analytics AnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		DBDriver:         "sqlite",
		DatabaseDSN:      filepath.Join(t.TempDir(), "members.db"),
		DBSlowQueryLimit: time.Second,
	}
	db, err := database.OpenStore(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseStore(db) })

	tokens, err := utils.NewTokenManager("test-secret", time.Hour, "member-admin-api")
	require.NoError(t, err)

	f := &fixture{
		db:       db,
		users:    repositories.NewUserRepository(db, logger),
		roles:    repositories.NewRoleRepository(db, logger),
		members:  repositories.NewMemberRepository(db, logger),
		activity: repositories.NewActivityRepository(db, logger),
		tokens:   tokens,
	}
	f.auth = NewAuthService(f.users, f.roles, tokens, bcrypt.MinCost, logger)
	f.memberSvc = NewMemberService(f.members, f.roles, f.users, f.activity, nil, logger)
	f.roleSvc = NewRoleService(f.roles, f.users, f.activity, nil, logger)
	f.logSvc = NewActivityService(f.activity)
	f.analytics = NewAnalyticsService(repositories.NewAnalyticsRepository(db, logger), f.activity, logger)
	return f
}

func (f *fixture) role(t *testing.T, name string) *models.Role {
	t.Helper()
	role, err := f.roleSvc.Create(context.Background(), RoleInput{Name: name}, 0)
	require.NoError(t, err)
	return role
}

func (f *fixture) user(t *testing.T, username string, roleID *uint) *models.User {
	t.Helper()
	user, _, err := f.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		RoleID:   roleID,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) member(t *testing.T, n int, roleID, actor uint) *models.Member {
	t.Helper()
	m, err := f.memberSvc.Create(context.Background(), MemberInput{
		Name:        fmt.Sprintf("Member %d", n),
		Email:       fmt.Sprintf("member%d@example.com", n),
		DateOfBirth: "1990-01-02",
		RoleID:      roleID,
	}, actor)
	require.NoError(t, err)
	return m
}

// failingActivityRepo rejects every append.
type failingActivityRepo struct {
	repositories.ActivityRepository
}

func (failingActivityRepo) Append(context.Context, *models.ActivityLog) error {
	return errors.New("audit store unavailable")
}

func zapNop() *zap.Logger { return zap.NewNop() }

func itoa(n int) string { return fmt.Sprintf("%d", n) }
