package database_test

import (
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/academia/lms/storage/database"
	"github.com/academia/lms/tests"
)

func TestIsUniqueViolation(t *testing.T) {
	db := testutil.PrepareDB(t)

	insert := "INSERT INTO users (id, name, email, role, password_hash, created_at, updated_at) " +
		"VALUES (?, 'Hero', 'hero@test.cd', 'student', '', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)"
	if _, err := db.Exec(insert, "u1"); err != nil {
		t.Fatalf("Exec() failed: %v", err)
	}
	_, dupErr := db.Exec(insert, "u2")
	_, checkErr := db.Exec("UPDATE users SET role = 'janitor'")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "other error", err: errors.New("boom"), want: false},
		{name: "sqlite unique", err: dupErr, want: true},
		{name: "sqlite wrapped unique", err: errors.Wrap(dupErr, "inserting user"), want: true},
		{name: "sqlite check", err: checkErr, want: false},
		{name: "postgres unique", err: &pq.Error{Code: "23505"}, want: true},
		{name: "postgres foreign key", err: &pq.Error{Code: "23503"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := database.IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
