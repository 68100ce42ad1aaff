package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ums/core"
	"github.com/trezcool/ums/core/user"
	emailsvc "github.com/trezcool/ums/services/email"
	inmemdb "github.com/trezcool/ums/storage/database/inmem"
	testutil "github.com/trezcool/ums/tests"
)

func newService(t *testing.T) (user.Service, user.Repository, *core.Config) {
	t.Helper()
	conf := core.NewTestConfig()
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	return user.NewService(repo, emailsvc.NewConsoleServiceMock(conf, testutil.NewLogger(conf)), conf), repo, conf
}

func Test_service_Authenticate(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	const pwd = "LolC@t123"
	active := testutil.CreateUser(t, repo, "Active", "active@test.cd", pwd, user.RoleStudent, true)
	testutil.CreateUser(t, repo, "Inactive", "inactive@test.cd", pwd, user.RoleStudent, false)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "lol@test.cd", pwd: pwd, wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", email: active.Email, pwd: "lol", wantErr: user.ErrInvalidCredentials},
		{name: "inactive user", email: "inactive@test.cd", pwd: pwd, wantErr: user.ErrAccountDeactivated},
		{name: "email is case insensitive", email: " ACTIVE@test.cd ", pwd: pwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, active.ID, usr.ID)
			assert.False(t, usr.LastLogin.IsZero(), "last login not set")
		})
	}
}

func Test_service_Update(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	student := testutil.CreateUser(t, repo, "Student", "student@test.cd", "", user.RoleStudent, true)
	level, grade := 3, 88.5

	usr, err := svc.Update(ctx, student.ID, user.UpdateUser{
		Name: "Student", Email: student.Email, Role: user.RoleStudent, Department: user.DeptAI,
		Level: &level, Grade: &grade, Major: "AI",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, usr.Level)
	assert.Equal(t, 88.5, usr.Grade)
	assert.Equal(t, user.DeptAI, usr.Department)

	// student fields are cleared on promotion
	usr, err = svc.Update(ctx, student.ID, user.UpdateUser{
		Name: "Teacher", Email: student.Email, Role: user.RoleInstructor, Department: user.DeptAI, Major: "AI",
	})
	require.NoError(t, err)
	assert.Equal(t, user.RoleInstructor, usr.Role)
	assert.Zero(t, usr.Level)
	assert.Zero(t, usr.Grade)
	assert.Empty(t, usr.Major)

	_, err = svc.Update(ctx, "lol", user.UpdateUser{})
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_service_UpdateStudentLevel(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	student := testutil.CreateUser(t, repo, "Student", "student@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, repo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	_, err := svc.UpdateStudentLevel(ctx, admin.ID, 2)
	assert.True(t, isValidationError(err), "got %v", err)
	_, err = svc.UpdateStudentLevel(ctx, student.ID, 0)
	assert.True(t, isValidationError(err), "got %v", err)
	_, err = svc.UpdateStudentLevel(ctx, student.ID, -1)
	if assert.True(t, isValidationError(err), "got %v", err) {
		assert.Equal(t, "level", err.(*core.ValidationError).Fields[0].Field)
	}
	saved, err := repo.GetUser(ctx, user.GetFilter{ID: student.ID})
	require.NoError(t, err)
	assert.Equal(t, student.Level, saved.Level)

	usr, err := svc.UpdateStudentLevel(ctx, student.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, usr.Level)
}

func isValidationError(err error) bool {
	_, ok := err.(*core.ValidationError)
	return ok
}

func Test_service_ResetPassword(t *testing.T) {
	svc, repo, conf := newService(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "User", "user@test.cd", "OldP@ss123", user.RoleStudent, true)
	token, err := user.MakeToken(usr, conf)
	require.NoError(t, err)
	uid := user.EncodeUID(usr)

	const newPwd = "NewP@ss123"
	tests := []struct {
		name     string
		data     user.ResetUserPassword
		wantErrs bool
	}{
		{name: "invalid uid", data: user.ResetUserPassword{UID: "lol", Token: token, Password: newPwd}, wantErrs: true},
		{name: "invalid token", data: user.ResetUserPassword{UID: uid, Token: "lol", Password: newPwd}, wantErrs: true},
		{name: "password reset", data: user.ResetUserPassword{UID: uid, Token: token, Password: newPwd}},
		{name: "token used", data: user.ResetUserPassword{UID: uid, Token: token, Password: "Other@P4ss"}, wantErrs: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ResetPassword(ctx, tt.data)
			if tt.wantErrs {
				assert.True(t, isValidationError(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			refreshed, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(newPwd))
		})
	}
}
