package assessment_test

import (
	"context"
	"io/ioutil"
	"log"
	"testing"

	"github.com/ebusmomentum88/school-portal-backend/core"
	"github.com/ebusmomentum88/school-portal-backend/core/assessment"
	logsvc "github.com/ebusmomentum88/school-portal-backend/services/logger"
	"github.com/ebusmomentum88/school-portal-backend/storage/database/inmem"
)

type seeder interface {
	assessment.Repository
	SeedQuestions(assessmentID string, correctAnswers ...string)
}

func newTestService() (*assessment.Service, seeder) {
	repo := inmem.NewAssessmentRepository(inmem.Open())
	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	return assessment.NewService(repo, logger), repo
}

func TestService_Grade(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	repo.SeedQuestions("math-101", "b", "2", "true", "x")

	sub, err := svc.Grade(ctx, "math-101", "0001", []string{" B", "2 ", "TRUE", "y"})
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if sub.ScorePercent != 75 {
		t.Errorf("score = %d; want 75", sub.ScorePercent)
	}
	if sub.GradeBand != assessment.BandA1 {
		t.Errorf("band = %s; want %s", sub.GradeBand, assessment.BandA1)
	}
	if sub.ID == "" {
		t.Error("submission ID is empty")
	}

	// the graded submission is persisted
	stored, err := repo.GetSubmission(ctx, "math-101", "0001")
	if err != nil {
		t.Fatalf("GetSubmission() failed: %v", err)
	}
	if stored.ID != sub.ID {
		t.Errorf("stored ID = %q; want %q", stored.ID, sub.ID)
	}
}

func TestService_Grade_emptyAssessment(t *testing.T) {
	svc, _ := newTestService()

	sub, err := svc.Grade(context.Background(), "ghost-101", "0001", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if sub.ScorePercent != 0 {
		t.Errorf("score = %d; want 0", sub.ScorePercent)
	}
	if sub.GradeBand != assessment.BandF9 {
		t.Errorf("band = %s; want %s", sub.GradeBand, assessment.BandF9)
	}
}

func TestService_Grade_alreadySubmitted(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	repo.SeedQuestions("math-101", "b", "2")

	first, err := svc.Grade(ctx, "math-101", "0001", []string{"b", "2"})
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}

	_, err = svc.Grade(ctx, "math-101", "0001", []string{"x", "y"})
	if err == nil {
		t.Fatal("second Grade() succeeded; want already_submitted")
	}
	if kind, ok := core.ErrKind(err); !ok || kind != core.KindAlreadySubmitted {
		t.Errorf("kind = %v; want %v", kind, core.KindAlreadySubmitted)
	}

	// the first grade stands
	stored, err := repo.GetSubmission(ctx, "math-101", "0001")
	if err != nil {
		t.Fatalf("GetSubmission() failed: %v", err)
	}
	if stored.ID != first.ID || stored.ScorePercent != 100 {
		t.Errorf("stored = %+v; want the first submission untouched", stored)
	}

	// the same student may still submit other assessments
	if _, err := svc.Grade(ctx, "bio-101", "0001", nil); err != nil {
		t.Errorf("Grade(other assessment) failed: %v", err)
	}
}

func TestService_Grade_nilAnswers(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	repo.SeedQuestions("math-101", "b", "2")

	sub, err := svc.Grade(ctx, "math-101", "0001", nil)
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if sub.ScorePercent != 0 {
		t.Errorf("score = %d; want 0", sub.ScorePercent)
	}
	if sub.GradeBand != assessment.BandF9 {
		t.Errorf("band = %s; want %s", sub.GradeBand, assessment.BandF9)
	}
	if _, err := repo.GetSubmission(ctx, "math-101", "0001"); err != nil {
		t.Fatalf("GetSubmission() failed: %v", err)
	}
}

// racingRepo reports no prior submission yet rejects the insert, the shape a
// concurrent duplicate takes on the unique constraint.
type racingRepo struct {
	assessment.Repository
}

func (racingRepo) CreateSubmission(context.Context, assessment.Submission) error {
	return assessment.ErrSubmissionExists
}

func TestService_Grade_concurrentLoser(t *testing.T) {
	_, repo := newTestService()
	repo.SeedQuestions("math-101", "b", "2")
	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	svc := assessment.NewService(racingRepo{repo}, logger)

	_, err := svc.Grade(context.Background(), "math-101", "0001", []string{"b", "2"})
	if err == nil {
		t.Fatal("Grade() succeeded; want already_submitted")
	}
	if kind, ok := core.ErrKind(err); !ok || kind != core.KindAlreadySubmitted {
		t.Errorf("kind = %v; want %v", kind, core.KindAlreadySubmitted)
	}
}

func TestService_Grade_validation(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Grade(context.Background(), "math-101", "  ", []string{"a"}); err == nil {
		t.Error("Grade() = nil; want a validation error")
	}
	if _, err := svc.Grade(context.Background(), "", "0001", []string{"a"}); err == nil {
		t.Error("Grade() = nil; want a validation error")
	}
}

func TestService_EnterResult(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	res, err := svc.EnterResult(ctx, "term-1", assessment.NewResult{SubjectID: "0001", CAScore: 35, ExamScore: 40})
	if err != nil {
		t.Fatalf("EnterResult() failed: %v", err)
	}
	if res.TotalPercent != 75 {
		t.Errorf("total = %d; want 75", res.TotalPercent)
	}
	if res.GradeBand != assessment.BandA1 {
		t.Errorf("band = %s; want %s", res.GradeBand, assessment.BandA1)
	}
	if _, err := repo.GetResult(ctx, "term-1", "0001"); err != nil {
		t.Fatalf("GetResult() failed: %v", err)
	}

	// one result per (assessment, student)
	_, err = svc.EnterResult(ctx, "term-1", assessment.NewResult{SubjectID: "0001", CAScore: 10, ExamScore: 10})
	if err == nil {
		t.Fatal("second EnterResult() succeeded; want already_submitted")
	}
	if kind, ok := core.ErrKind(err); !ok || kind != core.KindAlreadySubmitted {
		t.Errorf("kind = %v; want %v", kind, core.KindAlreadySubmitted)
	}

	// scores outside the CA/exam split are rejected
	if _, err := svc.EnterResult(ctx, "term-1", assessment.NewResult{SubjectID: "0002", CAScore: 41, ExamScore: 10}); err == nil {
		t.Error("EnterResult() = nil; want a validation error")
	}
	if _, err := svc.EnterResult(ctx, "term-1", assessment.NewResult{SubjectID: "0002", CAScore: 10, ExamScore: -1}); err == nil {
		t.Error("EnterResult() = nil; want a validation error")
	}
}
