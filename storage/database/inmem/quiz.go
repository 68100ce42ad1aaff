package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/ums/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) quiz.Repository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) saveQuestions(quizID string, questions []quiz.Question) {
	for _, q := range questions {
		q.ID = uuid.New().String()
		q.QuizID = quizID
		q.Choices = append([]string(nil), q.Choices...)
		repo.db.questions[q.ID] = q
	}
}

func (repo *quizRepository) CreateQuiz(_ context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	qz.ID = uuid.New().String()
	repo.saveQuestions(qz.ID, qz.Questions)
	qz.Questions = nil
	repo.db.quizzes[qz.ID] = qz

	qz.Questions = repo.db.quizQuestions(qz.ID)
	return qz, nil
}

func (repo *quizRepository) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	qz, ok := repo.db.quizzes[id]
	if !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	qz.Questions = repo.db.quizQuestions(id)
	return qz, nil
}

func (repo *quizRepository) QueryQuizzes(_ context.Context, filter *quiz.QueryFilter) ([]quiz.Quiz, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	quizzes := make([]quiz.Quiz, 0, len(repo.db.quizzes))
	for _, qz := range repo.db.quizzes {
		if filter != nil {
			if filter.CourseCode != "" && qz.CourseCode != filter.CourseCode {
				continue
			}
			if filter.InstructorID != "" && (qz.InstructorID == nil || *qz.InstructorID != filter.InstructorID) {
				continue
			}
		}
		quizzes = append(quizzes, qz)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].Title < quizzes[j].Title
		}
		return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
	})
	return quizzes, nil
}

func (repo *quizRepository) UpdateQuiz(_ context.Context, qz quiz.Quiz, replaceQuestions bool) (quiz.Quiz, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.quizzes[qz.ID]; !ok {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	if replaceQuestions {
		for id, q := range repo.db.questions {
			if q.QuizID == qz.ID {
				delete(repo.db.questions, id)
			}
		}
		repo.saveQuestions(qz.ID, qz.Questions)
	}
	qz.Questions = nil
	repo.db.quizzes[qz.ID] = qz

	qz.Questions = repo.db.quizQuestions(qz.ID)
	return qz, nil
}

func (repo *quizRepository) DeleteQuiz(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.deleteQuiz(id) {
		return quiz.ErrNotFound
	}
	return nil
}

func (repo *quizRepository) CreateQuestion(_ context.Context, q quiz.Question) (quiz.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.quizzes[q.QuizID]; !ok {
		return quiz.Question{}, quiz.ErrNotFound
	}
	q.ID = uuid.New().String()
	q.Choices = append([]string(nil), q.Choices...)
	repo.db.questions[q.ID] = q
	return q, nil
}

func (repo *quizRepository) GetQuestion(_ context.Context, id string) (quiz.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if q, ok := repo.db.questions[id]; ok {
		return q, nil
	}
	return quiz.Question{}, quiz.ErrQuestionNotFound
}

func (repo *quizRepository) UpdateQuestion(_ context.Context, q quiz.Question) (quiz.Question, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.questions[q.ID]; !ok {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	q.Choices = append([]string(nil), q.Choices...)
	repo.db.questions[q.ID] = q
	return q, nil
}

func (repo *quizRepository) DeleteQuestion(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.questions[id]; !ok {
		return quiz.ErrQuestionNotFound
	}
	delete(repo.db.questions, id)
	return nil
}

func (repo *quizRepository) QuestionsByQuiz(_ context.Context, quizID string) ([]quiz.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.quizQuestions(quizID), nil
}

func (repo *quizRepository) CreateResult(_ context.Context, r quiz.Result) (quiz.Result, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.quizzes[r.QuizID]; !ok {
		return quiz.Result{}, quiz.ErrNotFound
	}
	for _, res := range repo.db.results {
		if res.StudentID == r.StudentID && res.QuizID == r.QuizID {
			return quiz.Result{}, quiz.ErrAlreadySubmitted
		}
	}
	r.ID = uuid.New().String()
	repo.db.results[r.ID] = r
	return r, nil
}

func (repo *quizRepository) QueryResults(_ context.Context, filter quiz.ResultFilter) ([]quiz.Result, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.queryResults(filter), nil
}
