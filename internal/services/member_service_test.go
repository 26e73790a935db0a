package services

import (
	"context"
	"sync"
	"testing"

	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemberCreate_EmbedsRoleAndCreator(t *testing.T) {
	f := newFixture(t)
	role := f.role(t, "admin")
	alice := f.user(t, "alice", &role.ID)

	m, err := f.memberSvc.Create(context.Background(), MemberInput{
		Name: "Bob", Email: "bob@x.com", DateOfBirth: "1985-06-15", RoleID: role.ID,
	}, alice.ID)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
	assert.Equal(t, alice.ID, m.CreatedBy)
	require.NotNil(t, m.Role)
	assert.Equal(t, "admin", m.Role.Name)
	require.NotNil(t, m.Creator)
	assert.Equal(t, "alice", m.Creator.Username)
	assert.Empty(t, m.Creator.PasswordHash)
}

func TestMemberCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.role(t, "staff")
	alice := f.user(t, "alice", nil)

	_, err := f.memberSvc.Create(ctx, MemberInput{Name: "X", Email: "x@x.com", RoleID: role.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.memberSvc.Create(ctx, MemberInput{Name: "X", Email: "x@x.com", DateOfBirth: "15/06/1985", RoleID: role.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.memberSvc.Create(ctx, MemberInput{Name: "X", Email: "x@x.com", DateOfBirth: "1985-06-15", RoleID: role.ID + 99}, alice.ID)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	_, err = f.memberSvc.Create(ctx, MemberInput{Name: "X", Email: "x@x.com", DateOfBirth: "1985-06-15", RoleID: role.ID}, alice.ID+99)
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, f.roleSvc.Delete(ctx, role.ID, alice.ID))
	_, err = f.memberSvc.Create(ctx, MemberInput{Name: "X", Email: "x@x.com", DateOfBirth: "1985-06-15", RoleID: role.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrRoleNotFound, "soft-deleted roles cannot be assigned")
}

func TestMemberList_Pagination(t *testing.T) {
	f := newFixture(t)
	role := f.role(t, "staff")
	alice := f.user(t, "alice", nil)
	for i := 1; i <= 25; i++ {
		f.member(t, i, role.ID, alice.ID)
	}

	page, err := f.memberSvc.List(context.Background(), 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalRecords)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	require.Len(t, page.Items, 10)
	for i, m := range page.Items {
		assert.Equal(t, "Member "+itoa(i+1), m.Name)
	}

	last, err := f.memberSvc.List(context.Background(), 3, 10, false)
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
}

func TestMemberUpdate_EmptyFieldsKeepValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.role(t, "staff")
	other := f.role(t, "guest")
	alice := f.user(t, "alice", nil)
	m := f.member(t, 1, role.ID, alice.ID)

	updated, err := f.memberSvc.Update(ctx, m.ID, MemberInput{Name: ""}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Member 1", updated.Name)
	assert.Equal(t, m.Email, updated.Email)

	updated, err = f.memberSvc.Update(ctx, m.ID, MemberInput{Name: "Renamed", RoleID: other.ID}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, other.ID, updated.RoleID)
	require.NotNil(t, updated.Role)
	assert.Equal(t, "guest", updated.Role.Name)

	_, err = f.memberSvc.Update(ctx, m.ID, MemberInput{RoleID: other.ID + 99}, alice.ID)
	assert.ErrorIs(t, err, ErrRoleNotFound)

	_, err = f.memberSvc.Update(ctx, m.ID+99, MemberInput{Name: "Ghost"}, alice.ID)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMemberUpdate_EmailCollision(t *testing.T) {
	f := newFixture(t)
	role := f.role(t, "staff")
	alice := f.user(t, "alice", nil)
	first := f.member(t, 1, role.ID, alice.ID)
	second := f.member(t, 2, role.ID, alice.ID)

	_, err := f.memberSvc.Update(context.Background(), second.ID, MemberInput{Email: first.Email}, alice.ID)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestMemberDelete_HistoryRemains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.role(t, "staff")
	alice := f.user(t, "alice", nil)
	m := f.member(t, 1, role.ID, alice.ID)

	require.NoError(t, f.memberSvc.Delete(ctx, m.ID, alice.ID))

	_, err := f.memberSvc.Get(ctx, m.ID, false)
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.ErrorIs(t, f.memberSvc.Delete(ctx, m.ID, alice.ID), ErrMemberNotFound)

	hidden, err := f.memberSvc.Get(ctx, m.ID, true)
	require.NoError(t, err)
	assert.NotNil(t, hidden.DeletedAt)

	page, err := f.memberSvc.List(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	history, err := f.logSvc.List(ctx, repositories.ActivityFilter{SubjectType: models.SubjectMember, SubjectID: m.ID}, 1, 10)
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	assert.Equal(t, models.ActionMemberDeleted, history.Items[0].Action)
	assert.Equal(t, models.ActionMemberCreated, history.Items[1].Action)
	assert.Equal(t, "alice", history.Items[0].PerformedBy)
}

func TestMemberCreate_ConcurrentDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	role := f.role(t, "staff")
	alice := f.user(t, "alice", nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		errs    []error
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.memberSvc.Create(context.Background(), MemberInput{
				Name: "Twin", Email: "twin@example.com", DateOfBirth: "2000-01-01", RoleID: role.ID,
			}, alice.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else {
				errs = append(errs, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrDuplicateEmail)
}

func TestMemberCreate_AuditFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	role := f.role(t, "staff")
	alice := f.user(t, "alice", nil)
	svc := NewMemberService(f.members, f.roles, f.users, failingActivityRepo{}, nil, zap.NewNop())

	m, err := svc.Create(context.Background(), MemberInput{
		Name: "Eve", Email: "eve@example.com", DateOfBirth: "1999-09-09", RoleID: role.ID,
	}, alice.ID)
	require.NoError(t, err)
	assert.NotZero(t, m.ID)
}
