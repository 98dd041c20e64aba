package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core/assessment"
)

type assessmentRepository struct {
	db *sqlx.DB
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(db *sqlx.DB) *assessmentRepository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) GetQuestions(ctx context.Context, assessmentID string) ([]assessment.Question, error) {
	var questions []assessment.Question
	rows, err := repo.db.QueryContext(ctx,
		`SELECT assessment_id, ordinal_index, correct_answer FROM questions
		 WHERE assessment_id = $1 ORDER BY ordinal_index`, assessmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var q assessment.Question
		if err = rows.Scan(&q.AssessmentID, &q.OrdinalIndex, &q.CorrectAnswer); err != nil {
			return nil, errors.Wrap(err, "scanning question")
		}
		questions = append(questions, q)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	return questions, nil
}

func (repo *assessmentRepository) GetSubmission(ctx context.Context, assessmentID, subjectID string) (assessment.Submission, error) {
	var sub assessment.Submission
	var answers pq.StringArray
	err := repo.db.QueryRowContext(ctx,
		`SELECT id, assessment_id, subject_id, answers, score_percent, grade_band, submitted_at
		 FROM submissions WHERE assessment_id = $1 AND subject_id = $2`,
		assessmentID, subjectID,
	).Scan(&sub.ID, &sub.AssessmentID, &sub.SubjectID, &answers, &sub.ScorePercent, &sub.GradeBand, &sub.SubmittedAt)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assessment.Submission{}, assessment.ErrSubmissionNotFound
		}
		return assessment.Submission{}, errors.Wrap(err, "querying submission")
	}
	sub.Answers = answers
	return sub, nil
}

// textArray prepares an answers slice for a TEXT[] NOT NULL column; a nil
// slice must encode as '{}', not NULL.
func textArray(a []string) pq.StringArray {
	if a == nil {
		a = []string{}
	}
	return pq.StringArray(a)
}

func (repo *assessmentRepository) CreateSubmission(ctx context.Context, sub assessment.Submission) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO submissions (id, assessment_id, subject_id, answers, score_percent, grade_band, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.AssessmentID, sub.SubjectID, textArray(sub.Answers), sub.ScorePercent, string(sub.GradeBand), sub.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return assessment.ErrSubmissionExists
		}
		return errors.Wrap(err, "inserting submission")
	}
	return nil
}

func (repo *assessmentRepository) GetResult(ctx context.Context, assessmentID, subjectID string) (assessment.Result, error) {
	var res assessment.Result
	err := repo.db.QueryRowContext(ctx,
		`SELECT id, assessment_id, subject_id, ca_score, exam_score, total_percent, grade_band, recorded_at
		 FROM results WHERE assessment_id = $1 AND subject_id = $2`,
		assessmentID, subjectID,
	).Scan(&res.ID, &res.AssessmentID, &res.SubjectID, &res.CAScore, &res.ExamScore, &res.TotalPercent, &res.GradeBand, &res.RecordedAt)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return assessment.Result{}, assessment.ErrResultNotFound
		}
		return assessment.Result{}, errors.Wrap(err, "querying result")
	}
	return res, nil
}

func (repo *assessmentRepository) CreateResult(ctx context.Context, res assessment.Result) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO results (id, assessment_id, subject_id, ca_score, exam_score, total_percent, grade_band, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.ID, res.AssessmentID, res.SubjectID, res.CAScore, res.ExamScore, res.TotalPercent, string(res.GradeBand), res.RecordedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return assessment.ErrResultExists
		}
		return errors.Wrap(err, "inserting result")
	}
	return nil
}
