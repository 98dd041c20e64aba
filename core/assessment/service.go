package assessment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core"
)

// Service grades submitted answer sheets and records manually entered
// results. Grading is deterministic: a pure function of the stored question
// set and the submitted answers.
type Service struct {
	repo   Repository
	logger core.Logger
}

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Grade scores a student's answers against the assessment's answer key and
// records the submission. At most one submission may exist per
// (assessmentID, subjectID); a repeat attempt fails with already_submitted
// and leaves the stored submission untouched.
func (svc *Service) Grade(ctx context.Context, assessmentID, subjectID string, answers []string) (Submission, error) {
	assessmentID = core.CleanString(assessmentID)
	subjectID = core.CleanString(subjectID, true /* lower */)
	if assessmentID == "" || subjectID == "" {
		return Submission{}, core.NewValidationError(errors.New("assessment and subject are required"))
	}

	// idempotency guard; the unique constraint below catches concurrent racers
	if _, err := svc.repo.GetSubmission(ctx, assessmentID, subjectID); err == nil {
		return Submission{}, core.NewAppError(core.KindAlreadySubmitted,
			"this assessment has already been submitted", ErrSubmissionExists)
	} else if errors.Cause(err) != ErrSubmissionNotFound {
		return Submission{}, core.NewAppError(core.KindCollaboratorUnavailable, "checking for existing submission", err)
	}

	questions, err := svc.repo.GetQuestions(ctx, assessmentID)
	if err != nil {
		return Submission{}, core.NewAppError(core.KindCollaboratorUnavailable, "loading questions", err)
	}

	score := Score(questions, answers)
	sub := Submission{
		ID:           uuid.New().String(),
		AssessmentID: assessmentID,
		SubjectID:    subjectID,
		Answers:      answers,
		ScorePercent: score,
		GradeBand:    BandFor(score),
		SubmittedAt:  time.Now().UTC(),
	}

	if err := svc.repo.CreateSubmission(ctx, sub); err != nil {
		if errors.Cause(err) == ErrSubmissionExists {
			// lost the race against a concurrent submit; the winner's grade stands
			return Submission{}, core.NewAppError(core.KindAlreadySubmitted,
				"this assessment has already been submitted", err)
		}
		return Submission{}, core.NewAppError(core.KindCollaboratorUnavailable, "recording submission", err)
	}
	return sub, nil
}

// EnterResult records a manually scored continuous-assessment + exam total,
// banded through the same table as auto-graded submissions.
func (svc *Service) EnterResult(ctx context.Context, assessmentID string, nr NewResult) (Result, error) {
	assessmentID = core.CleanString(assessmentID)
	if assessmentID == "" {
		return Result{}, core.NewValidationError(errors.New("assessment is required"))
	}
	if err := nr.Validate(); err != nil {
		return Result{}, err
	}

	if _, err := svc.repo.GetResult(ctx, assessmentID, nr.SubjectID); err == nil {
		return Result{}, core.NewAppError(core.KindAlreadySubmitted,
			"a result has already been recorded for this student", ErrResultExists)
	} else if errors.Cause(err) != ErrResultNotFound {
		return Result{}, core.NewAppError(core.KindCollaboratorUnavailable, "checking for existing result", err)
	}

	total := nr.CAScore + nr.ExamScore
	res := Result{
		ID:           uuid.New().String(),
		AssessmentID: assessmentID,
		SubjectID:    nr.SubjectID,
		CAScore:      nr.CAScore,
		ExamScore:    nr.ExamScore,
		TotalPercent: total,
		GradeBand:    BandFor(total),
		RecordedAt:   time.Now().UTC(),
	}

	if err := svc.repo.CreateResult(ctx, res); err != nil {
		if errors.Cause(err) == ErrResultExists {
			return Result{}, core.NewAppError(core.KindAlreadySubmitted,
				"a result has already been recorded for this student", err)
		}
		return Result{}, core.NewAppError(core.KindCollaboratorUnavailable, "recording result", err)
	}
	return res, nil
}

// Score computes the 0-100 percentage of correct answers, rounded half up.
// An empty question set scores 0. Answers align with questions by
// OrdinalIndex; a missing or out-of-range answer counts as incorrect.
func Score(questions []Question, answers []string) int {
	total := len(questions)
	if total == 0 {
		return 0
	}
	var correct int
	for _, q := range questions {
		if q.OrdinalIndex < 0 || q.OrdinalIndex >= len(answers) {
			continue
		}
		if answersMatch(answers[q.OrdinalIndex], q.CorrectAnswer) {
			correct++
		}
	}
	return (200*correct + total) / (2 * total)
}

// answersMatch compares answer tokens case-insensitively, ignoring
// surrounding whitespace.
func answersMatch(got, want string) bool {
	return strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want))
}
