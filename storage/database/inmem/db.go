package inmem

import (
	"sync"

	"github.com/ebusmomentum88/school-portal-backend/core/account"
	"github.com/ebusmomentum88/school-portal-backend/core/assessment"
)

type (
	// DB is an in-memory stand-in for the relational store, used in tests and
	// local development.
	DB struct {
		accounts    *accountTables
		assessments *assessmentTables
	}

	accountTables struct {
		mutex    sync.RWMutex
		teachers map[string]teacherRow // profileRef -> row
		students map[string]studentRow
		links    map[string]account.RoleLink // credentialRef -> link
		subjects map[string][]string         // profileRef -> subjects
		counters map[string]uint             // space -> lastIssued
	}

	assessmentTables struct {
		mutex       sync.RWMutex
		questions   map[string][]assessment.Question // assessmentID -> questions
		submissions map[string]assessment.Submission // assessmentID/subjectID -> submission
		results     map[string]assessment.Result
	}
)

func Open() *DB {
	return &DB{
		accounts: &accountTables{
			teachers: make(map[string]teacherRow),
			students: make(map[string]studentRow),
			links:    make(map[string]account.RoleLink),
			subjects: make(map[string][]string),
			counters: make(map[string]uint),
		},
		assessments: &assessmentTables{
			questions:   make(map[string][]assessment.Question),
			submissions: make(map[string]assessment.Submission),
			results:     make(map[string]assessment.Result),
		},
	}
}

func pairKey(assessmentID, subjectID string) string {
	return assessmentID + "/" + subjectID
}
