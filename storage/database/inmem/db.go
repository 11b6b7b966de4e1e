package inmemdb

import (
	"sync"

	"github.com/darasahq/darasa/core/mirror"
	"github.com/darasahq/darasa/core/token"
)

type (
	DB struct {
		mutex sync.RWMutex

		tokens map[string]*token.Token // by user id

		// mirror tables, keyed by surrogate id
		courses     map[string]*mirror.Course
		coursework  map[string]*mirror.Coursework
		submissions map[string]*mirror.Submission
		topics      map[string]*mirror.Topic
		enrollments map[string]*mirror.Enrollment
	}
)

func Open() *DB {
	return &DB{
		tokens:      make(map[string]*token.Token),
		courses:     make(map[string]*mirror.Course),
		coursework:  make(map[string]*mirror.Coursework),
		submissions: make(map[string]*mirror.Submission),
		topics:      make(map[string]*mirror.Topic),
		enrollments: make(map[string]*mirror.Enrollment),
	}
}

// Counts returns rows per table; handy for idempotence assertions.
func (db *DB) Counts() map[string]int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return map[string]int{
		"course":     len(db.courses),
		"coursework": len(db.coursework),
		"submission": len(db.submissions),
		"topic":      len(db.topics),
		"enrollment": len(db.enrollments),
	}
}
