package inmemdb

import (
	"sync"

	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
)

type (
	// DB is a process-local store, used in tests and with `store=memory`.
	DB struct {
		user       *userTable
		student    *studentTable
		record     *recordTable
		aggregates *aggregateTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	studentTable struct {
		table map[string]*attendance.Student
		mutex sync.RWMutex
	}

	recordKey struct {
		studentID string
		date      string
	}

	recordTable struct {
		table map[recordKey]*attendance.Record
		mutex sync.RWMutex
	}

	aggregateTable struct {
		rows  []*attendance.DailyAggregate // insertion order
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		student:    &studentTable{table: make(map[string]*attendance.Student)},
		record:     &recordTable{table: make(map[recordKey]*attendance.Record)},
		aggregates: &aggregateTable{},
	}
}
