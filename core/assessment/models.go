package assessment

import (
	"context"
	"errors"
	"time"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

var (
	// errors
	ErrSubmissionExists   = errors.New("a submission already exists for this assessment and student")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrResultExists       = errors.New("a result already exists for this assessment and student")
	ErrResultNotFound     = errors.New("result not found")
)

type (
	// Question is one assessment item. Immutable once the assessment is open
	// for submission; authoring happens elsewhere.
	Question struct {
		AssessmentID  string `json:"assessment_id"`
		OrdinalIndex  int    `json:"ordinal_index"` // 0-based, aligns with submitted answers
		CorrectAnswer string `json:"-"`
	}

	// Submission is one grading event. Created once, never mutated.
	Submission struct {
		ID           string    `json:"id"`
		AssessmentID string    `json:"assessment_id"`
		SubjectID    string    `json:"subject_id"` // the student's identifier
		Answers      []string  `json:"answers"`
		ScorePercent int       `json:"score_percent"`
		GradeBand    GradeBand `json:"grade_band"`
		SubmittedAt  time.Time `json:"submitted_at"` // UTC
	}

	// Result is a manually entered score: continuous assessment plus exam,
	// banded through the same table as auto-graded submissions.
	Result struct {
		ID           string    `json:"id"`
		AssessmentID string    `json:"assessment_id"`
		SubjectID    string    `json:"subject_id"`
		CAScore      int       `json:"ca_score"`
		ExamScore    int       `json:"exam_score"`
		TotalPercent int       `json:"total_percent"`
		GradeBand    GradeBand `json:"grade_band"`
		RecordedAt   time.Time `json:"recorded_at"` // UTC
	}

	// Repository persists questions, submissions and results. Submissions and
	// results are uniquely keyed on (assessmentID, subjectID); Create calls
	// report a second insert as ErrSubmissionExists / ErrResultExists.
	Repository interface {
		// GetQuestions returns the assessment's questions ordered by
		// OrdinalIndex. An unknown assessment yields an empty slice.
		GetQuestions(ctx context.Context, assessmentID string) ([]Question, error)

		GetSubmission(ctx context.Context, assessmentID, subjectID string) (Submission, error)
		CreateSubmission(ctx context.Context, sub Submission) error

		GetResult(ctx context.Context, assessmentID, subjectID string) (Result, error)
		CreateResult(ctx context.Context, res Result) error
	}
)

// NewSubmission contains a student's submitted answer sheet.
type NewSubmission struct {
	SubjectID string   `json:"subject_id" validate:"required"`
	Answers   []string `json:"answers"`
}

func (ns *NewSubmission) Validate() error {
	ns.SubjectID = core.CleanString(ns.SubjectID, true /* lower */)
	return core.Validate.Struct(ns)
}

// NewResult contains a manually entered continuous-assessment + exam score.
type NewResult struct {
	SubjectID string `json:"subject_id" validate:"required"`
	CAScore   int    `json:"ca_score" validate:"min=0,max=40"`
	ExamScore int    `json:"exam_score" validate:"min=0,max=60"`
}

func (nr *NewResult) Validate() error {
	nr.SubjectID = core.CleanString(nr.SubjectID, true /* lower */)
	return core.Validate.Struct(nr)
}
