package quiz

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ums/core"
)

// ChoicesCount is the number of choices of every Question.
const ChoicesCount = 4

type Question struct {
	ID           string   `json:"id"`
	QuizID       string   `json:"quiz_id"`
	Text         string   `json:"text"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correct_index"`
	Position     int      `json:"position"`
}

type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	CourseCode   string     `json:"course_code"`
	InstructorID *string    `json:"instructor_id"`
	Questions    []Question `json:"questions,omitempty"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

// StudentQuestion is a Question without its answer.
type StudentQuestion struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Choices  []string `json:"choices"`
	Position int      `json:"position"`
}

// StudentQuiz is what students see of a Quiz.
type StudentQuiz struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	CourseCode string            `json:"course_code"`
	Questions  []StudentQuestion `json:"questions"`
}

func (qz Quiz) ForStudent() StudentQuiz {
	sq := StudentQuiz{
		ID:         qz.ID,
		Title:      qz.Title,
		CourseCode: qz.CourseCode,
		Questions:  make([]StudentQuestion, 0, len(qz.Questions)),
	}
	for _, q := range qz.Questions {
		sq.Questions = append(sq.Questions, StudentQuestion{ID: q.ID, Text: q.Text, Choices: q.Choices, Position: q.Position})
	}
	return sq
}

// Result is the outcome of a student taking a Quiz.
// Total is the number of questions of the quiz at submission time.
type Result struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	QuizID      string    `json:"quiz_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
}

// Percentage is the score over the total, in percent. 0 when the quiz had no questions.
func (r Result) Percentage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Score) / float64(r.Total) * 100
}

func (r Result) MarshalJSON() ([]byte, error) {
	type result Result
	return json.Marshal(struct {
		result
		Percentage float64 `json:"percentage"`
	}{result(r), r.Percentage()})
}

// NewQuestion contains information needed to add a Question to a Quiz.
type NewQuestion struct {
	Text         string   `json:"text" validate:"required,notblank"`
	Choices      []string `json:"choices" validate:"len=4,dive,required,notblank"`
	CorrectIndex *int     `json:"correct_index" validate:"required,min=0,max=3"`
}

func (nq *NewQuestion) clean() {
	nq.Text = core.CleanString(nq.Text)
	for i, c := range nq.Choices {
		nq.Choices[i] = core.CleanString(c)
	}
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.clean()
	return validate.Struct(nq)
}

func (nq NewQuestion) toQuestion(quizID string, position int) Question {
	q := Question{
		QuizID:   quizID,
		Text:     nq.Text,
		Choices:  append([]string(nil), nq.Choices...),
		Position: position,
	}
	if nq.CorrectIndex != nil {
		q.CorrectIndex = *nq.CorrectIndex
	}
	return q
}

// NewQuiz contains information needed to create a Quiz along with its questions.
type NewQuiz struct {
	Title      string        `json:"title" validate:"required,notblank,max=255"`
	CourseCode string        `json:"course_code" validate:"required"`
	Questions  []NewQuestion `json:"questions" validate:"dive"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	nq.CourseCode = strings.ToUpper(core.CleanString(nq.CourseCode))
	for i := range nq.Questions {
		nq.Questions[i].clean()
	}
	return validate.Struct(nq)
}

// UpdateQuiz defines what information may be provided to modify an existing Quiz.
// Blank fields keep their current values; non-nil Questions replace all the questions of the quiz.
type UpdateQuiz struct {
	Title      string        `json:"title" validate:"max=255"`
	CourseCode string        `json:"course_code" validate:"max=20"`
	Questions  []NewQuestion `json:"questions" validate:"omitempty,dive"`
}

func (uq *UpdateQuiz) Validate(orig Quiz, validate *validator.Validate) error {
	uq.Title = core.StringOr(uq.Title, orig.Title)
	uq.CourseCode = strings.ToUpper(core.StringOr(uq.CourseCode, orig.CourseCode))
	for i := range uq.Questions {
		uq.Questions[i].clean()
	}
	return validate.Struct(uq)
}

// Submission holds the index of the choice picked for each question, in question order.
type Submission struct {
	Answers []int `json:"answers" validate:"required"`
}

type QueryFilter struct {
	CourseCode   string `query:"course_code"`
	InstructorID string `query:"instructor_id"`
}

func (qf *QueryFilter) Clean() {
	qf.CourseCode = strings.ToUpper(core.CleanString(qf.CourseCode))
	qf.InstructorID = core.CleanString(qf.InstructorID)
}

type ResultFilter struct {
	StudentID string
	QuizID    string
}
