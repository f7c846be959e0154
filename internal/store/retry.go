package store

import (
	"database/sql"
	"log"
	"math/rand"
	"strings"
	"time"
)

const (
	maxRetries = 1000
	baseDelay  = 10 * time.Millisecond
	maxDelay   = 25 * time.Millisecond
)

// isRetryableError reports whether err is a transient SQLite busy/lock
// condition worth retrying, rather than a real query failure.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database table is locked") ||
		strings.Contains(errStr, "busy") ||
		strings.Contains(errStr, "locked")
}

// retryableExec retries db.Exec across SQLite busy/lock errors with
// jittered linear backoff (attempt * baseDelay, capped at maxDelay).
func retryableExec(db *sql.DB, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		result, err = db.Exec(query, args...)
		if !isRetryableError(err) {
			return result, err
		}
		if attempt < maxRetries-1 {
			delay := time.Duration(attempt+1) * baseDelay
			if delay > maxDelay {
				delay = maxDelay
			}
			jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
			time.Sleep(delay + jitter)
			log.Printf("[STORE] retrying after busy/lock error (attempt %d/%d): %v", attempt+1, maxRetries, err)
		}
	}
	return result, err
}

// retryableQuery retries db.Query across SQLite busy/lock errors.
func retryableQuery(db *sql.DB, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		rows, err = db.Query(query, args...)
		if !isRetryableError(err) {
			return rows, err
		}
		if attempt < maxRetries-1 {
			delay := time.Duration(attempt+1) * baseDelay
			if delay > maxDelay {
				delay = maxDelay
			}
			time.Sleep(delay)
		}
	}
	return rows, err
}
