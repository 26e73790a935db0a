package repositories

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"member-admin-api/internal/config"
	"member-admin-api/internal/database"
	"member-admin-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver:         "sqlite",
		DatabaseDSN:      filepath.Join(t.TempDir(), "repo.db"),
		DBSlowQueryLimit: time.Second,
	}
	db, err := database.OpenStore(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseStore(db) })
	return db
}

type seed struct {
	db       *gorm.DB
	users    UserRepository
	roles    RoleRepository
	members  MemberRepository
	activity ActivityRepository
	user     *models.User
	role     *models.Role
}

func newSeed(t *testing.T) *seed {
	t.Helper()
	db := openTestStore(t)
	log := zap.NewNop()
	s := &seed{
		db:       db,
		users:    NewUserRepository(db, log),
		roles:    NewRoleRepository(db, log),
		members:  NewMemberRepository(db, log),
		activity: NewActivityRepository(db, log),
	}
	ctx := context.Background()
	s.user = &models.User{Username: "owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, s.users.CreateUser(ctx, s.user))
	s.role = &models.Role{Name: "Regular"}
	require.NoError(t, s.roles.Create(ctx, s.role))
	return s
}

func (s *seed) member(t *testing.T, email string) *models.Member {
	t.Helper()
	m := &models.Member{Name: "M", Email: email, DateOfBirth: "2000-01-01", RoleID: s.role.ID, CreatedBy: s.user.ID}
	require.NoError(t, s.members.Create(context.Background(), m))
	return m
}

func TestUserRepository_NotFoundAndUnique(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()

	u, err := s.users.FindByEmail(ctx, "missing@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = s.users.FindByUsername(ctx, "owner")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, s.user.ID, u.ID)

	err = s.users.CreateUser(ctx, &models.User{Username: "other", Email: "owner@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestMemberRepository_SoftDeleteScope(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()
	live := s.member(t, "live@example.com")
	gone := s.member(t, "gone@example.com")

	require.NoError(t, s.members.SoftDelete(ctx, gone.ID, time.Now().UTC()))
	assert.ErrorIs(t, s.members.SoftDelete(ctx, gone.ID, time.Now().UTC()), ErrNotFound)
	assert.ErrorIs(t, s.members.SoftDelete(ctx, 999, time.Now().UTC()), ErrNotFound)

	got, err := s.members.FindByID(ctx, gone.ID, false)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.members.FindByID(ctx, gone.ID, true)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.DeletedAt)

	got, err = s.members.FindByID(ctx, live.ID, false)
	require.NoError(t, err)
	require.NotNil(t, got.Role)
	assert.Equal(t, "Regular", got.Role.Name)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "owner", got.Creator.Username)
	assert.Empty(t, got.Creator.PasswordHash)

	rows, total, err := s.members.List(ctx, 0, 10, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, rows, 1)

	_, total, err = s.members.List(ctx, 0, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	err = s.members.Create(ctx, &models.Member{Name: "Dup", Email: "gone@example.com", DateOfBirth: "2000-01-01", RoleID: s.role.ID, CreatedBy: s.user.ID})
	assert.ErrorIs(t, err, ErrUniqueViolation, "deleted rows keep their email")
}

func TestMemberRepository_ListPaging(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		s.member(t, fmt.Sprintf("p%d@example.com", i))
	}

	rows, total, err := s.members.List(ctx, 5, 5, false)
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "p5@example.com", rows[0].Email)
}

func TestRoleRepository_SoftDelete(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()

	require.NoError(t, s.roles.SoftDelete(ctx, s.role.ID, time.Now().UTC()))
	got, err := s.roles.FindByID(ctx, s.role.ID, false)
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, total, err := s.roles.List(ctx, 0, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.ErrorIs(t, s.roles.SoftDelete(ctx, s.role.ID, time.Now().UTC()), ErrNotFound)
}

func TestActivityRepository_FilterAndOrder(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entries := []models.ActivityLog{
		{UserID: s.user.ID, SubjectType: models.SubjectRole, SubjectID: s.role.ID, Action: models.ActionRoleCreated, Timestamp: base},
		{UserID: s.user.ID, SubjectType: models.SubjectMember, SubjectID: 1, Action: models.ActionMemberCreated, Timestamp: base.Add(time.Minute)},
		{UserID: s.user.ID, SubjectType: models.SubjectMember, SubjectID: 1, Action: models.ActionMemberUpdated, Timestamp: base.Add(2 * time.Minute)},
		{UserID: s.user.ID, SubjectType: models.SubjectMember, SubjectID: 2, Action: models.ActionMemberCreated, Timestamp: base.Add(3 * time.Minute)},
	}
	for i := range entries {
		require.NoError(t, s.activity.Append(ctx, &entries[i]))
	}

	rows, total, err := s.activity.List(ctx, ActivityFilter{SubjectType: models.SubjectMember, SubjectID: 1}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ActionMemberUpdated, rows[0].Action)
	assert.Equal(t, "owner", rows[0].PerformedBy)

	recent, err := s.activity.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, uint(2), recent[0].SubjectID)
	assert.Equal(t, "owner", recent[0].PerformedBy)

	_, total, err = s.activity.List(ctx, ActivityFilter{UserID: s.user.ID}, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestAnalyticsRepository_Windows(t *testing.T) {
	s := newSeed(t)
	ctx := context.Background()
	a := s.member(t, "a@example.com")
	s.member(t, "b@example.com")
	c := s.member(t, "c@example.com")
	require.NoError(t, s.members.SoftDelete(ctx, c.ID, time.Now().UTC()))

	// Push a outside the window.
	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, s.db.Model(a).UpdateColumns(map[string]interface{}{"created_at": old, "updated_at": old}).Error)

	analytics := NewAnalyticsRepository(s.db, zap.NewNop())
	from, to := time.Now().UTC().Add(-24*time.Hour), time.Now().UTC().Add(time.Second)

	n, err := analytics.CountMembers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = analytics.CountMembersCreatedBetween(ctx, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "only b is live and inside the window")

	n, err = analytics.CountMembersDeletedBetween(ctx, from, to)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	dist, err := analytics.RoleDistribution(ctx)
	require.NoError(t, err)
	require.Len(t, dist, 1)
	assert.Equal(t, "Regular", dist[0].Role)
	assert.EqualValues(t, 2, dist[0].Count)
}
