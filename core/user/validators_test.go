package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ums/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	LoadCommonPasswords(nopLogger{})
	return validate
}

// failedTags returns {json field: tag} of the validation errors of err.
func failedTags(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "unexpected error: %v", err)
	tags := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		tags[vErr.Field()] = vErr.Tag()
	}
	return tags
}

func Test_validatePassword(t *testing.T) {
	validate := newValidator(t)

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "L@l1", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Lol C@t123", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special char", pwd: "LolCat123", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "lolc@t123", wantTag: pwdComplexityTag},
		{name: "common", pwd: "P@ssw0rd", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "LolC@t123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := ResetUserPassword{Token: "t", UID: "u", Password: tt.pwd, PasswordConfirm: tt.pwd}
			tags := failedTags(t, validate.Struct(data))
			if tt.wantTag == "" {
				assert.Empty(t, tags)
				return
			}
			assert.Equal(t, map[string]string{"password": tt.wantTag}, tags)
		})
	}
}

func Test_userStructValidation(t *testing.T) {
	validate := newValidator(t)

	level, grade := 0, 101.0
	tests := []struct {
		name     string
		data     interface{}
		wantTags map[string]string
	}{
		{
			name: "password similar to email",
			data: NewUser{
				Name: "Lol", Email: "lolcat@test.cd", Role: RoleAdmin,
				Password: "LolC@t.test1", PasswordConfirm: "LolC@t.test1",
			},
			wantTags: map[string]string{"password": pwdAttrSimTag},
		},
		{
			name: "instructor without department",
			data: NewUser{
				Name: "Lol", Email: "lol@test.cd", Role: RoleInstructor,
				Password: "Myst3ry!Box", PasswordConfirm: "Myst3ry!Box",
			},
			wantTags: map[string]string{"department": requiredTag},
		},
		{
			name: "invalid role & department",
			data: NewUser{
				Name: "Lol", Email: "lol@test.cd", Role: "dean", Department: "ART",
				Password: "Myst3ry!Box", PasswordConfirm: "Myst3ry!Box",
			},
			wantTags: map[string]string{"role": roleTag, "department": departmentTag},
		},
		{
			name: "student out of range",
			data: NewUser{
				Name: "Lol", Email: "lol@test.cd", Role: RoleStudent, Department: DeptCS, Level: -1, Grade: 120,
				Password: "Myst3ry!Box", PasswordConfirm: "Myst3ry!Box",
			},
			wantTags: map[string]string{"level": levelTag, "grade": gradeTag},
		},
		{
			name: "valid student",
			data: NewUser{
				Name: "Lol", Email: "lol@test.cd", Role: RoleStudent, Department: DeptCS, Level: 2, Grade: 80,
				Password: "Myst3ry!Box", PasswordConfirm: "Myst3ry!Box",
			},
		},
		{
			name:     "update out of range",
			data:     UpdateUser{Level: &level, Grade: &grade},
			wantTags: map[string]string{"level": levelTag, "grade": gradeTag},
		},
		{
			name:     "update password mismatch",
			data:     UpdateUser{Password: "Myst3ry!Box", PasswordConfirm: "Myst3ry!Bo"},
			wantTags: map[string]string{"password_confirm": "eqfield"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := failedTags(t, validate.Struct(tt.data))
			if tt.wantTags == nil {
				assert.Empty(t, tags)
				return
			}
			assert.Equal(t, tt.wantTags, tags)
		})
	}
}
