package nntpuser

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := Open(db)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestCreateAndAuthenticate(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateUser("alice", "hunter2", 2, true); err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := s.Authenticate("alice", "hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.Username != "alice" || u.MaxConns != 2 || !u.Posting {
		t.Fatalf("unexpected user: %+v", u)
	}

	if _, err := s.Authenticate("alice", "wrong-password"); err == nil {
		t.Fatalf("expected authentication failure for wrong password")
	}
}

func TestDeactivatedUserCannotAuthenticate(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateUser("bob", "pw", 1, false); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.Deactivate("bob"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := s.Authenticate("bob", "pw"); err == nil {
		t.Fatalf("expected authentication failure for deactivated user")
	}
	if err := s.Activate("bob"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := s.Authenticate("bob", "pw"); err != nil {
		t.Fatalf("expected authentication success after reactivation: %v", err)
	}
}

func TestSetPasswordAndPermissions(t *testing.T) {
	s := openTestStore(t)
	if err := s.CreateUser("carol", "old-pw", 1, false); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.SetPassword("carol", "new-pw"); err != nil {
		t.Fatalf("set password: %v", err)
	}
	if _, err := s.Authenticate("carol", "old-pw"); err == nil {
		t.Fatalf("expected old password to be rejected")
	}
	if _, err := s.Authenticate("carol", "new-pw"); err != nil {
		t.Fatalf("expected new password to authenticate: %v", err)
	}

	if err := s.SetPermissions("carol", 5, true); err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	u, err := s.Get("carol")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.MaxConns != 5 || !u.Posting {
		t.Fatalf("permissions not updated: %+v", u)
	}
}
