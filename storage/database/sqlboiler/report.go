package boiledrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/ums/core/report"
)

const quizLinesQuery = `
SELECT r.quiz_id, q.title, q.course_code, r.score, r.total, r.submitted_at
FROM quiz_result r
JOIN quiz q ON q.id = r.quiz_id
WHERE r.student_id = $1
ORDER BY r.submitted_at, q.title`

type quizLine struct {
	QuizID      string    `boil:"quiz_id"`
	Title       string    `boil:"title"`
	CourseCode  string    `boil:"course_code"`
	Score       int       `boil:"score"`
	Total       int       `boil:"total"`
	SubmittedAt time.Time `boil:"submitted_at"`
}

type reportRepository struct {
	exec boil.ContextExecutor
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

// NewReportRepository returns the read model of student reports; exec is usually the app *sqlx.DB.
func NewReportRepository(exec boil.ContextExecutor) report.Repository {
	return &reportRepository{exec: exec}
}

func (repo reportRepository) QuizLinesByStudent(ctx context.Context, studentID string) ([]report.QuizLine, error) {
	if _, err := uuid.Parse(studentID); err != nil {
		return []report.QuizLine{}, nil
	}

	var rows []quizLine
	if err := queries.Raw(quizLinesQuery, studentID).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying student quiz lines")
	}

	lines := make([]report.QuizLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, report.QuizLine{
			QuizID:      r.QuizID,
			Title:       r.Title,
			CourseCode:  r.CourseCode,
			Score:       r.Score,
			Total:       r.Total,
			SubmittedAt: r.SubmittedAt.UTC(),
		})
	}
	return lines, nil
}
