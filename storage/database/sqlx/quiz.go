package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ums/core/quiz"
)

const (
	quizColumns     = `id, title, course_code, instructor_id, created_at, updated_at`
	questionColumns = `id, quiz_id, text, choices, correct_index, position`
	resultColumns   = `id, student_id, quiz_id, score, total, submitted_at`
)

type quizRow struct {
	ID           string      `db:"id"`
	Title        string      `db:"title"`
	CourseCode   string      `db:"course_code"`
	InstructorID null.String `db:"instructor_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func toQuizRow(qz quiz.Quiz) quizRow {
	return quizRow{
		ID:           qz.ID,
		Title:        qz.Title,
		CourseCode:   qz.CourseCode,
		InstructorID: null.StringFromPtr(qz.InstructorID),
		CreatedAt:    qz.CreatedAt.UTC(),
		UpdatedAt:    qz.UpdatedAt.UTC(),
	}
}

func (r quizRow) toQuiz() quiz.Quiz {
	return quiz.Quiz{
		ID:           r.ID,
		Title:        r.Title,
		CourseCode:   r.CourseCode,
		InstructorID: r.InstructorID.Ptr(),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type questionRow struct {
	ID           string         `db:"id"`
	QuizID       string         `db:"quiz_id"`
	Text         string         `db:"text"`
	Choices      pq.StringArray `db:"choices"`
	CorrectIndex int            `db:"correct_index"`
	Position     int            `db:"position"`
}

func toQuestionRow(q quiz.Question) questionRow {
	return questionRow{
		ID:           q.ID,
		QuizID:       q.QuizID,
		Text:         q.Text,
		Choices:      pq.StringArray(q.Choices),
		CorrectIndex: q.CorrectIndex,
		Position:     q.Position,
	}
}

func (r questionRow) toQuestion() quiz.Question {
	return quiz.Question{
		ID:           r.ID,
		QuizID:       r.QuizID,
		Text:         r.Text,
		Choices:      []string(r.Choices),
		CorrectIndex: r.CorrectIndex,
		Position:     r.Position,
	}
}

type resultRow struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	QuizID      string    `db:"quiz_id"`
	Score       int       `db:"score"`
	Total       int       `db:"total"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func (r resultRow) toResult() quiz.Result {
	return quiz.Result{
		ID:          r.ID,
		StudentID:   r.StudentID,
		QuizID:      r.QuizID,
		Score:       r.Score,
		Total:       r.Total,
		SubmittedAt: r.SubmittedAt.UTC(),
	}
}

// queryer is satisfied by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) quiz.Repository {
	return &quizRepository{db: db}
}

func insertQuestions(ctx context.Context, exec queryer, quizID string, questions []quiz.Question) ([]quiz.Question, error) {
	saved := make([]quiz.Question, 0, len(questions))
	for _, q := range questions {
		q.ID = uuid.New().String()
		q.QuizID = quizID
		row := toQuestionRow(q)
		_, err := sqlx.NamedExecContext(ctx, exec,
			`INSERT INTO question (`+questionColumns+`) VALUES (:id, :quiz_id, :text, :choices, :correct_index, :position)`, row)
		if err != nil {
			return nil, errors.Wrap(err, "inserting question")
		}
		saved = append(saved, row.toQuestion())
	}
	return saved, nil
}

func questionsByQuiz(ctx context.Context, exec queryer, quizID string) ([]quiz.Question, error) {
	var rows []questionRow
	err := exec.SelectContext(ctx, &rows,
		`SELECT `+questionColumns+` FROM question WHERE quiz_id = $1 ORDER BY position, id`, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]quiz.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.toQuestion())
	}
	return questions, nil
}

func (repo *quizRepository) CreateQuiz(ctx context.Context, qz quiz.Quiz) (quiz.Quiz, error) {
	qz.ID = uuid.New().String()
	row := toQuizRow(qz)

	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO quiz (`+quizColumns+`) VALUES (:id, :title, :course_code, :instructor_id, :created_at, :updated_at)`, row)
		if err != nil {
			return errors.Wrap(err, "inserting quiz")
		}
		qz.Questions, err = insertQuestions(ctx, tx, qz.ID, qz.Questions)
		return err
	})
	if err != nil {
		return quiz.Quiz{}, err
	}
	created := row.toQuiz()
	created.Questions = qz.Questions
	return created, nil
}

func (repo *quizRepository) GetQuiz(ctx context.Context, id string) (quiz.Quiz, error) {
	if !validID(id) {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	var row quizRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+quizColumns+` FROM quiz WHERE id = $1`, id); err != nil {
		return quiz.Quiz{}, trapNoRows(err, quiz.ErrNotFound, "finding quiz")
	}
	qz := row.toQuiz()
	questions, err := questionsByQuiz(ctx, repo.db, qz.ID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	qz.Questions = questions
	return qz, nil
}

func (repo *quizRepository) QueryQuizzes(ctx context.Context, filter *quiz.QueryFilter) ([]quiz.Quiz, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.CourseCode != "" {
			conds = append(conds, "course_code = ?")
			args = append(args, filter.CourseCode)
		}
		if filter.InstructorID != "" {
			if !validID(filter.InstructorID) {
				return []quiz.Quiz{}, nil
			}
			conds = append(conds, "instructor_id = ?")
			args = append(args, filter.InstructorID)
		}
	}

	var rows []quizRow
	q := `SELECT ` + quizColumns + ` FROM quiz` + where(conds) + ` ORDER BY created_at DESC, title`
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	quizzes := make([]quiz.Quiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, r.toQuiz())
	}
	return quizzes, nil
}

func (repo *quizRepository) UpdateQuiz(ctx context.Context, qz quiz.Quiz, replaceQuestions bool) (quiz.Quiz, error) {
	if !validID(qz.ID) {
		return quiz.Quiz{}, quiz.ErrNotFound
	}
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx,
			`UPDATE quiz SET title = :title, course_code = :course_code, instructor_id = :instructor_id,
				updated_at = :updated_at WHERE id = :id`, toQuizRow(qz))
		if err != nil {
			return errors.Wrap(err, "updating quiz")
		}
		if err = checkAffected(res, quiz.ErrNotFound); err != nil {
			return err
		}
		if !replaceQuestions {
			return nil
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM question WHERE quiz_id = $1`, qz.ID); err != nil {
			return errors.Wrap(err, "deleting questions")
		}
		_, err = insertQuestions(ctx, tx, qz.ID, qz.Questions)
		return err
	})
	if err != nil {
		return quiz.Quiz{}, err
	}
	return repo.GetQuiz(ctx, qz.ID)
}

func (repo *quizRepository) DeleteQuiz(ctx context.Context, id string) error {
	if !validID(id) {
		return quiz.ErrNotFound
	}
	// questions & results cascade
	res, err := repo.db.ExecContext(ctx, `DELETE FROM quiz WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return checkAffected(res, quiz.ErrNotFound)
}

func (repo *quizRepository) CreateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	saved, err := insertQuestions(ctx, repo.db, q.QuizID, []quiz.Question{q})
	if err != nil {
		if isForeignKeyViolation(err) {
			return quiz.Question{}, quiz.ErrNotFound
		}
		return quiz.Question{}, err
	}
	return saved[0], nil
}

func (repo *quizRepository) GetQuestion(ctx context.Context, id string) (quiz.Question, error) {
	if !validID(id) {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	var row questionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+questionColumns+` FROM question WHERE id = $1`, id); err != nil {
		return quiz.Question{}, trapNoRows(err, quiz.ErrQuestionNotFound, "finding question")
	}
	return row.toQuestion(), nil
}

func (repo *quizRepository) UpdateQuestion(ctx context.Context, q quiz.Question) (quiz.Question, error) {
	if !validID(q.ID) {
		return quiz.Question{}, quiz.ErrQuestionNotFound
	}
	row := toQuestionRow(q)
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE question SET text = :text, choices = :choices, correct_index = :correct_index, position = :position
			WHERE id = :id`, row)
	if err != nil {
		return quiz.Question{}, errors.Wrap(err, "updating question")
	}
	if err = checkAffected(res, quiz.ErrQuestionNotFound); err != nil {
		return quiz.Question{}, err
	}
	return row.toQuestion(), nil
}

func (repo *quizRepository) DeleteQuestion(ctx context.Context, id string) error {
	if !validID(id) {
		return quiz.ErrQuestionNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM question WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return checkAffected(res, quiz.ErrQuestionNotFound)
}

func (repo *quizRepository) QuestionsByQuiz(ctx context.Context, quizID string) ([]quiz.Question, error) {
	if !validID(quizID) {
		return []quiz.Question{}, nil
	}
	return questionsByQuiz(ctx, repo.db, quizID)
}

func (repo *quizRepository) CreateResult(ctx context.Context, r quiz.Result) (quiz.Result, error) {
	row := resultRow{
		ID:          uuid.New().String(),
		StudentID:   r.StudentID,
		QuizID:      r.QuizID,
		Score:       r.Score,
		Total:       r.Total,
		SubmittedAt: r.SubmittedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO quiz_result (`+resultColumns+`) VALUES (:id, :student_id, :quiz_id, :score, :total, :submitted_at)`, row)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return quiz.Result{}, quiz.ErrAlreadySubmitted
		case isForeignKeyViolation(err):
			return quiz.Result{}, quiz.ErrNotFound
		}
		return quiz.Result{}, errors.Wrap(err, "inserting quiz result")
	}
	return row.toResult(), nil
}

func (repo *quizRepository) QueryResults(ctx context.Context, filter quiz.ResultFilter) ([]quiz.Result, error) {
	var (
		conds []string
		args  []interface{}
	)
	for col, val := range map[string]string{"student_id": filter.StudentID, "quiz_id": filter.QuizID} {
		if val == "" {
			continue
		}
		if !validID(val) {
			return []quiz.Result{}, nil
		}
		conds = append(conds, col+" = ?")
		args = append(args, val)
	}

	var rows []resultRow
	q := `SELECT ` + resultColumns + ` FROM quiz_result` + where(conds) + ` ORDER BY submitted_at`
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying quiz results")
	}
	results := make([]quiz.Result, 0, len(rows))
	for _, r := range rows {
		results = append(results, r.toResult())
	}
	return results, nil
}
