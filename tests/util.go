// Package testutil holds the fixtures shared by the package tests.
package testutil

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
)

// NewConfig returns a TEST config that does not depend on the environment.
func NewConfig() *core.Config {
	conf := new(core.Config)
	conf.Env = "TEST"
	conf.TestMode = true
	conf.AppName = "Rollcall"
	conf.SecretKey = "test-secret-key"
	conf.DefaultFromEmail = mail.Address{Name: "Rollcall", Address: "noreply@test.cd"}
	conf.Store = core.StoreMemory
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = 24 * time.Hour
	conf.Attendance.NotifyOnSubmit = true
	return conf
}

// Logger records what it is asked to log.
type Logger struct {
	mu      sync.Mutex
	Entries []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, level+": "+msg)
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

func (l *Logger) Has(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Entries {
		if len(e) > len(level) && e[:len(level)] == level {
			return true
		}
	}
	return false
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role, classLabel string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:       name,
		Email:      email,
		Role:       role,
		ClassLabel: classLabel,
		IsActive:   isActive,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(
	t *testing.T,
	repo attendance.Repository,
	name, classLabel string,
	rollNo int,
	parentEmail, pushToken string,
) attendance.Student {
	s, err := repo.CreateStudent(context.Background(), attendance.Student{
		Name:       name,
		ClassLabel: classLabel,
		RollNo:     rollNo,
		Parent:     attendance.Parent{Email: parentEmail, PushToken: pushToken},
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// CreateClass enrolls n students in classLabel, with roll numbers 1..n, parents `parent<roll>.<class>@test.cd`
// and push tokens `token-<class>-<roll>`.
func CreateClass(t *testing.T, repo attendance.Repository, classLabel string, n int) []attendance.Student {
	students := make([]attendance.Student, 0, n)
	for roll := 1; roll <= n; roll++ {
		students = append(students, CreateStudent(
			t, repo,
			fmt.Sprintf("Student %s-%d", classLabel, roll),
			classLabel,
			roll,
			fmt.Sprintf("parent%d.%s@test.cd", roll, classLabel),
			fmt.Sprintf("token-%s-%d", classLabel, roll),
		))
	}
	return students
}

func Mark(t *testing.T, repo attendance.Repository, studentID, date, status string) attendance.Record {
	rec, err := repo.UpsertRecord(context.Background(), attendance.Record{StudentID: studentID, Date: date, Status: status})
	if err != nil {
		t.Fatalf("Mark() failed: %v", err)
	}
	return rec
}
