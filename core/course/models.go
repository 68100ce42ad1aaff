package course

import (
	"context"
	"regexp"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ums/core"
)

// defaults of the admin course form
const (
	DefaultMajor       = "Computer Science"
	DefaultLectureTime = "TBD"
)

var (
	courseCodeTag   = "coursecode"
	courseCodeText  = "course code must only contain uppercase letters and digits"
	courseCodeRegex = regexp.MustCompile(`^[A-Z0-9]+$`)
)

type Course struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Level        string    `json:"level"`
	Major        string    `json:"major"`
	LectureTime  string    `json:"lecture_time"`
	InstructorID *string   `json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// HasInstructor reports whether the course is taught by the instructor with this id.
func (c *Course) HasInstructor(id string) bool {
	return c.InstructorID != nil && *c.InstructorID == id
}

// NewCourse contains information needed to add a new Course.
type NewCourse struct {
	Code         string  `json:"code" validate:"required,max=20,coursecode"`
	Name         string  `json:"name" validate:"required,notblank,max=255"`
	Level        string  `json:"level" validate:"required,max=20"`
	Major        string  `json:"major" validate:"max=255"`
	LectureTime  string  `json:"lecture_time" validate:"max=100"`
	InstructorID *string `json:"instructor_id" validate:"omitempty,uuid"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nc.Code = strings.ToUpper(core.CleanString(nc.Code))
	nc.Name = core.CleanString(nc.Name)
	nc.Level = core.CleanString(nc.Level)
	nc.Major = core.StringOr(nc.Major, DefaultMajor)
	nc.LectureTime = core.StringOr(nc.LectureTime, DefaultLectureTime)
	if nc.InstructorID != nil && core.CleanString(*nc.InstructorID) == "" {
		nc.InstructorID = nil
	}

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Blank fields keep their current values.
type UpdateCourse struct {
	Name        string `json:"name" validate:"max=255"`
	Level       string `json:"level" validate:"max=20"`
	Major       string `json:"major" validate:"max=255"`
	LectureTime string `json:"lecture_time" validate:"max=100"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	uc.Name = core.StringOr(uc.Name, orig.Name)
	uc.Level = core.StringOr(uc.Level, orig.Level)
	uc.Major = core.StringOr(uc.Major, orig.Major)
	uc.LectureTime = core.StringOr(uc.LectureTime, orig.LectureTime)
	return validate.Struct(uc)
}

// AssignInstructor sets (or clears, when InstructorID is nil) the instructor of a Course.
type AssignInstructor struct {
	InstructorID *string `json:"instructor_id" validate:"omitempty,uuid"`
}

type QueryFilter struct {
	Search       string `query:"search"`
	Level        string `query:"level"`
	Major        string `query:"major"`
	InstructorID string `query:"instructor_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Level = core.CleanString(qf.Level)
	qf.Major = core.CleanString(qf.Major)
	qf.InstructorID = core.CleanString(qf.InstructorID)
}

// InitValidators registers the course validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(courseCodeTag, func(fl validator.FieldLevel) bool {
		return courseCodeRegex.MatchString(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, courseCodeTag, courseCodeText)
}
