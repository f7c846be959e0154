// Package store is the concrete sqlite-backed ArticleStore the rest of
// the engine otherwise treats as an external collaborator, provided
// here end-to-end so internal/headerfilter and internal/articletree
// have something real to run against.
//
// An open-connection/pragma/retry shape with a busy-retry wrapper
// (retry.go) and hand-built parameterized SQL, rather than a query
// builder or ORM.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/anthropic-test/panengine/internal/headerfilter"
)

// Article is one row of the article table, implementing
// internal/filter.ArticleView so HeaderFilter-compiled queries and the
// in-memory filter.Eval interpreter can be checked against each other.
type Article struct {
	ID             int64
	MessageID      string
	Subject        string
	From           string
	References     string
	Newsgroups     []string
	Lines          int64
	Bytes          int64
	PostedAt       time.Time
	Read           bool
	ScoreValue     int64
	CachedBody     bool
	PostedByMeFlag bool
	extraHeaders   map[string]string
}

func (a *Article) ByteCount() int64      { return a.Bytes }
func (a *Article) LineCount() int64      { return a.Lines }
func (a *Article) CrosspostCount() int64 { return int64(len(a.Newsgroups)) }
func (a *Article) DaysOld() int64        { return int64(time.Since(a.PostedAt).Hours() / 24) }
func (a *Article) Score() int64          { return a.ScoreValue }
func (a *Article) IsBinary() bool        { return a.CachedBody } // conservative: treat any cached body as binary
func (a *Article) IsCached() bool        { return a.CachedBody }
func (a *Article) IsPostedByMe() bool    { return a.PostedByMeFlag }
func (a *Article) IsRead() bool          { return a.Read }
func (a *Article) Header(name string) (string, bool) {
	switch name {
	case "Subject":
		return a.Subject, true
	case "From":
		return a.From, true
	case "Message-ID":
		return a.MessageID, true
	case "References":
		return a.References, true
	case "Newsgroups":
		return strings.Join(a.Newsgroups, ","), true
	}
	v, ok := a.extraHeaders[name]
	return v, ok
}

// Store is a sqlite-backed article table.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS article (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT NOT NULL UNIQUE,
	subject TEXT NOT NULL DEFAULT '',
	from_header TEXT NOT NULL DEFAULT '',
	"references" TEXT NOT NULL DEFAULT '',
	lines INTEGER NOT NULL DEFAULT 0,
	is_read INTEGER NOT NULL DEFAULT 0,
	score INTEGER NOT NULL DEFAULT 0,
	cached INTEGER NOT NULL DEFAULT 0,
	posted_by_me INTEGER NOT NULL DEFAULT 0,
	posted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS "group" (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS article_group (
	article_id INTEGER NOT NULL REFERENCES article(id) ON DELETE CASCADE,
	group_id INTEGER NOT NULL REFERENCES "group"(id) ON DELETE CASCADE,
	article_num INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (article_id, group_id)
);
CREATE TABLE IF NOT EXISTS article_part (
	article_id INTEGER NOT NULL REFERENCES article(id) ON DELETE CASCADE,
	part_number INTEGER NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (article_id, part_number)
);
`

// Open creates or opens the sqlite database at path, applying a WAL /
// foreign-keys / generous-busy-timeout pragma set so the retry wrapper
// rarely needs to engage.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema init: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// InsertArticle inserts a and its newsgroup memberships, returning the
// assigned row id.
func (s *Store) InsertArticle(a *Article) (int64, error) {
	res, err := retryableExec(s.db,
		`INSERT INTO article (message_id, subject, from_header, "references", lines, is_read, score, cached, posted_by_me, posted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.MessageID, a.Subject, a.From, a.References, a.Lines, a.Read, a.ScoreValue, a.CachedBody, a.PostedByMeFlag, a.PostedAt)
	if err != nil {
		return 0, fmt.Errorf("store: insert article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: last insert id: %w", err)
	}
	for _, g := range a.Newsgroups {
		if err := s.ensureGroupMembership(id, g); err != nil {
			return id, err
		}
	}
	return id, nil
}

func (s *Store) ensureGroupMembership(articleID int64, group string) error {
	if _, err := retryableExec(s.db, `INSERT OR IGNORE INTO "group" (name) VALUES (?)`, group); err != nil {
		return fmt.Errorf("store: ensure group %q: %w", group, err)
	}
	if _, err := retryableExec(s.db,
		`INSERT OR IGNORE INTO article_group (article_id, group_id, article_num)
		 SELECT ?, id, 0 FROM "group" WHERE name = ?`, articleID, group); err != nil {
		return fmt.Errorf("store: link article %d to group %q: %w", articleID, group, err)
	}
	return nil
}

// GetArticle fetches one article row by id, including its newsgroup
// memberships.
func (s *Store) GetArticle(id int64) (*Article, error) {
	a := &Article{}
	row := s.db.QueryRow(
		`SELECT id, message_id, subject, from_header, "references", lines, is_read, score, cached, posted_by_me, posted_at
		 FROM article WHERE id = ?`, id)
	if err := row.Scan(&a.ID, &a.MessageID, &a.Subject, &a.From, &a.References, &a.Lines, &a.Read, &a.ScoreValue, &a.CachedBody, &a.PostedByMeFlag, &a.PostedAt); err != nil {
		return nil, fmt.Errorf("store: get article %d: %w", id, err)
	}
	groups, err := s.groupsFor(id)
	if err != nil {
		return nil, err
	}
	a.Newsgroups = groups
	return a, nil
}

func (s *Store) groupsFor(articleID int64) ([]string, error) {
	rows, err := retryableQuery(s.db,
		`SELECT grp.name FROM article_group ag JOIN "group" grp ON grp.id = ag.group_id WHERE ag.article_id = ? ORDER BY grp.name`, articleID)
	if err != nil {
		return nil, fmt.Errorf("store: groups for article %d: %w", articleID, err)
	}
	defer rows.Close()
	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Query executes a HeaderFilter-compiled expression (built by
// internal/headerfilter.Compile) against the article table, applying
// every SqlCond's JOIN (duplicates tolerated) and binding args in
// emission order.
func (s *Store) Query(expr string, conds []headerfilter.SqlCond, limit int) ([]*Article, error) {
	var joins []string
	var args []any
	for _, c := range conds {
		if c.Join != "" {
			joins = append(joins, c.Join)
		}
		args = append(args, c.Args...)
	}

	query := `SELECT DISTINCT article.id, article.message_id, article.subject, article.from_header,
		article."references", article.lines, article.is_read, article.score, article.cached,
		article.posted_by_me, article.posted_at FROM article`
	if len(joins) > 0 {
		query += " " + strings.Join(joins, " ")
	}
	query += " WHERE " + expr
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := retryableQuery(s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	defer rows.Close()

	var out []*Article
	for rows.Next() {
		a := &Article{}
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Subject, &a.From, &a.References, &a.Lines, &a.Read, &a.ScoreValue, &a.CachedBody, &a.PostedByMeFlag, &a.PostedAt); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		groups, err := s.groupsFor(a.ID)
		if err != nil {
			return nil, err
		}
		a.Newsgroups = groups
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) SetRead(id int64, read bool) error {
	_, err := retryableExec(s.db, `UPDATE article SET is_read = ? WHERE id = ?`, read, id)
	return err
}

func (s *Store) SetScore(id int64, score int64) error {
	_, err := retryableExec(s.db, `UPDATE article SET score = ? WHERE id = ?`, score, id)
	return err
}
