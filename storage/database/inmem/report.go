package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/ums/core/quiz"
	"github.com/trezcool/ums/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db}
}

func (db *DB) queryResults(filter quiz.ResultFilter) []quiz.Result {
	results := make([]quiz.Result, 0)
	for _, r := range db.results {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.QuizID != "" && r.QuizID != filter.QuizID {
			continue
		}
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].SubmittedAt.Equal(results[j].SubmittedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].SubmittedAt.Before(results[j].SubmittedAt)
	})
	return results
}

func (repo *reportRepository) QuizLinesByStudent(_ context.Context, studentID string) ([]report.QuizLine, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	results := repo.db.queryResults(quiz.ResultFilter{StudentID: studentID})
	lines := make([]report.QuizLine, 0, len(results))
	for _, r := range results {
		qz, ok := repo.db.quizzes[r.QuizID]
		if !ok {
			continue
		}
		lines = append(lines, report.QuizLine{
			QuizID:      qz.ID,
			Title:       qz.Title,
			CourseCode:  qz.CourseCode,
			Score:       r.Score,
			Total:       r.Total,
			SubmittedAt: r.SubmittedAt,
		})
	}
	return lines, nil
}
