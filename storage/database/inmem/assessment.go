package inmem

import (
	"context"
	"sort"

	"github.com/ebusmomentum88/school-portal-backend/core/assessment"
)

type assessmentRepository struct {
	db *assessmentTables
}

var _ assessment.Repository = (*assessmentRepository)(nil)

func NewAssessmentRepository(db *DB) *assessmentRepository {
	return &assessmentRepository{db: db.assessments}
}

// SeedQuestions loads an assessment's answer key; authoring is out of scope
// so tests and local dev seed directly.
func (r *assessmentRepository) SeedQuestions(assessmentID string, correctAnswers ...string) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	questions := make([]assessment.Question, 0, len(correctAnswers))
	for i, ans := range correctAnswers {
		questions = append(questions, assessment.Question{
			AssessmentID:  assessmentID,
			OrdinalIndex:  i,
			CorrectAnswer: ans,
		})
	}
	r.db.questions[assessmentID] = questions
}

func (r *assessmentRepository) GetQuestions(_ context.Context, assessmentID string) ([]assessment.Question, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	questions := append([]assessment.Question(nil), r.db.questions[assessmentID]...)
	sort.Slice(questions, func(i, j int) bool { return questions[i].OrdinalIndex < questions[j].OrdinalIndex })
	return questions, nil
}

func (r *assessmentRepository) GetSubmission(_ context.Context, assessmentID, subjectID string) (assessment.Submission, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if sub, ok := r.db.submissions[pairKey(assessmentID, subjectID)]; ok {
		return sub, nil
	}
	return assessment.Submission{}, assessment.ErrSubmissionNotFound
}

func (r *assessmentRepository) CreateSubmission(_ context.Context, sub assessment.Submission) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	key := pairKey(sub.AssessmentID, sub.SubjectID)
	if _, ok := r.db.submissions[key]; ok {
		return assessment.ErrSubmissionExists
	}
	r.db.submissions[key] = sub
	return nil
}

func (r *assessmentRepository) GetResult(_ context.Context, assessmentID, subjectID string) (assessment.Result, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if res, ok := r.db.results[pairKey(assessmentID, subjectID)]; ok {
		return res, nil
	}
	return assessment.Result{}, assessment.ErrResultNotFound
}

func (r *assessmentRepository) CreateResult(_ context.Context, res assessment.Result) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	key := pairKey(res.AssessmentID, res.SubjectID)
	if _, ok := r.db.results[key]; ok {
		return assessment.ErrResultExists
	}
	r.db.results[key] = res
	return nil
}
