// Package memory implements the persistent research memory for Scout.
//
// Research domains and previously researched topics live in SQLite (pure Go
// driver, WAL mode). The Store owns the whole persistence boundary: every
// write runs in its own transaction and every read returns plain value
// copies, so callers never hold a live row or transaction handle.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// TimeFormat is the fixed-width UTC layout used for every stored timestamp.
// Values in this layout sort lexicographically in chronological order.
const TimeFormat = "2006-01-02 15:04:05.000000"

// legacyTimeFormat is accepted on read for rows written with second precision.
const legacyTimeFormat = "2006-01-02 15:04:05"

var (
	// ErrInvalidTopic is returned when a topic is created without a name.
	ErrInvalidTopic = errors.New("memory: topic name is required")
	// ErrInvalidDomain is returned when a domain is created without a name.
	ErrInvalidDomain = errors.New("memory: domain name is required")
	// ErrDuplicateDomain is returned when a domain name is already taken.
	ErrDuplicateDomain = errors.New("memory: domain already exists")
)

// ─── Types ───────────────────────────────────────────────────────────────────

// Domain is a named research subject area that scopes topic visibility.
type Domain struct {
	ID          int64     `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    []string  `json:"keywords" yaml:"keywords"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	LastUsed    time.Time `json:"last_used" yaml:"last_used"`
}

// Topic is one unit of previously performed research.
type Topic struct {
	ID              int64     `json:"id"`
	Name            string    `json:"topic_name"`
	DomainID        *int64    `json:"research_domain_id,omitempty"`
	FirstResearched time.Time `json:"first_researched"`
	LastMentioned   time.Time `json:"last_mentioned"`
	Summary         string    `json:"summary,omitempty"`
	Sources         []string  `json:"sources"`
	Tags            []string  `json:"tags"`
}

// CreateDomainParams holds the input for creating a domain.
type CreateDomainParams struct {
	Name        string
	Description string
	Keywords    []string
	At          time.Time
}

// CreateTopicParams holds the input for creating a topic. At stamps both
// first_researched and last_mentioned.
type CreateTopicParams struct {
	Name     string
	DomainID *int64
	Summary  string
	Sources  []string
	Tags     []string
	At       time.Time
}

// UpdateTopicParams holds partial update fields for a topic.
// A nil pointer or nil slice leaves the column unchanged; an empty
// non-nil slice clears it.
type UpdateTopicParams struct {
	Summary       *string
	Sources       []string
	Tags          []string
	LastMentioned *time.Time
}

// SearchParams holds filters for topic search.
type SearchParams struct {
	Query    string
	DomainID *int64
	Tags     []string
	Limit    int
	Offset   int
}

// TopicFilter narrows topic counts.
type TopicFilter struct {
	DomainID       *int64
	MentionedSince *time.Time
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration.
type Config struct {
	// Path is the SQLite database file.
	Path string
}

// DefaultConfig returns the default configuration for the memory store.
func DefaultConfig() Config {
	return Config{Path: "research_assistant.db"}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent research memory backed by SQLite.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type storeHooks struct {
	exec    func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error)
	query   func(ctx context.Context, db queryer, query string, args ...any) (*sql.Rows, error)
	beginTx func(ctx context.Context, db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func (s *Store) execHook(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(ctx, db, query, args...)
	}
	return db.ExecContext(ctx, query, args...)
}

func (s *Store) queryHook(ctx context.Context, db queryer, query string, args ...any) (*sql.Rows, error) {
	if s.hooks.query != nil {
		return s.hooks.query(ctx, db, query, args...)
	}
	return db.QueryContext(ctx, query, args...)
}

func (s *Store) beginTxHook(ctx context.Context) (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(ctx, s.db)
	}
	return s.db.BeginTx(ctx, nil)
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a new Store with the given configuration.
// It creates the parent directory if needed, opens SQLite with WAL mode
// and per-connection pragmas, and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg = DefaultConfig()
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("memory: create data dir: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them;
	// foreign_keys in particular is per connection in SQLite.
	pragmas := []string{
		"journal_mode(WAL)",
		"busy_timeout(5000)",
		"synchronous(NORMAL)",
		"foreign_keys(1)",
	}
	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		params = append(params, "_pragma="+p)
	}

	db, err := openDB("sqlite", cfg.Path+"?"+strings.Join(params, "&"))
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: ping database: %w", err)
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Location returns the database file the store was opened on.
func (s *Store) Location() string {
	return s.cfg.Path
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS domains (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        TEXT    NOT NULL UNIQUE,
			description TEXT,
			keywords    TEXT    NOT NULL DEFAULT '[]',
			created_at  TEXT    NOT NULL,
			last_used   TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS topics (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_name       TEXT    NOT NULL,
			domain_id        INTEGER,
			first_researched TEXT    NOT NULL,
			last_mentioned   TEXT    NOT NULL,
			summary          TEXT,
			sources          TEXT    NOT NULL DEFAULT '[]',
			tags             TEXT    NOT NULL DEFAULT '[]',
			FOREIGN KEY (domain_id) REFERENCES domains(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_topics_name      ON topics(topic_name);
		CREATE INDEX IF NOT EXISTS idx_topics_domain    ON topics(domain_id);
		CREATE INDEX IF NOT EXISTS idx_topics_mentioned ON topics(last_mentioned DESC);
		CREATE INDEX IF NOT EXISTS idx_domains_used     ON domains(last_used DESC);
	`
	if _, err := s.execHook(ctx, s.db, schema); err != nil {
		return err
	}

	// Normalize existing data
	_, _ = s.execHook(ctx, s.db, `UPDATE topics SET sources = '[]' WHERE sources IS NULL OR sources = ''`)   // best-effort migration cleanup
	_, _ = s.execHook(ctx, s.db, `UPDATE topics SET tags = '[]' WHERE tags IS NULL OR tags = ''`)            // best-effort migration cleanup
	_, _ = s.execHook(ctx, s.db, `UPDATE domains SET keywords = '[]' WHERE keywords IS NULL OR keywords = ''`) // best-effort migration cleanup

	return nil
}

// ─── Domains ─────────────────────────────────────────────────────────────────

const domainColumns = `id, name, ifnull(description, ''), keywords, created_at, last_used`

// CreateDomain inserts a new domain and returns the stored row.
func (s *Store) CreateDomain(ctx context.Context, p CreateDomainParams) (*Domain, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, ErrInvalidDomain
	}
	keywords, err := encodeList(p.Keywords)
	if err != nil {
		return nil, err
	}
	at := formatTime(p.At)

	var d Domain
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.execHook(ctx, tx,
			`INSERT INTO domains (name, description, keywords, created_at, last_used)
			 VALUES (?, ?, ?, ?, ?)`,
			p.Name, nullableString(p.Description), keywords, at, at,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %q", ErrDuplicateDomain, p.Name)
			}
			return fmt.Errorf("creating domain: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		got, err := getDomain(ctx, tx, id)
		if err != nil {
			return err
		}
		d = *got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDomain retrieves a domain by ID. It returns nil, nil when absent.
func (s *Store) GetDomain(ctx context.Context, id int64) (*Domain, error) {
	d, err := getDomain(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// FindDomainByName looks a domain up by exact, case-sensitive name.
// It returns nil, nil when absent.
func (s *Store) FindDomainByName(ctx context.Context, name string) (*Domain, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE name = ?`, name)
	d, err := scanDomain(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDomains returns every domain, most recently used first.
func (s *Store) ListDomains(ctx context.Context) ([]Domain, error) {
	rows, err := s.queryHook(ctx, s.db,
		`SELECT `+domainColumns+` FROM domains ORDER BY last_used DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TouchDomain sets a domain's last_used to at. The stored value always
// strictly increases: if at is not after the current value it is moved one
// microsecond past it. It returns nil, nil when the domain does not exist.
func (s *Store) TouchDomain(ctx context.Context, id int64, at time.Time) (*Domain, error) {
	var d *Domain
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getDomain(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		at = at.UTC().Truncate(time.Microsecond)
		if !at.After(cur.LastUsed) {
			at = cur.LastUsed.Add(time.Microsecond)
		}
		if _, err := s.execHook(ctx, tx,
			`UPDATE domains SET last_used = ? WHERE id = ?`, formatTime(at), id,
		); err != nil {
			return fmt.Errorf("touching domain: %w", err)
		}
		d, err = getDomain(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDomain removes a domain and every topic it owns in one transaction.
// It reports whether a domain was deleted.
func (s *Store) DeleteDomain(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.execHook(ctx, tx, `DELETE FROM topics WHERE domain_id = ?`, id); err != nil {
			return fmt.Errorf("deleting domain topics: %w", err)
		}
		res, err := s.execHook(ctx, tx, `DELETE FROM domains WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting domain: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ─── Topics ──────────────────────────────────────────────────────────────────

const topicColumns = `id, topic_name, domain_id, first_researched, last_mentioned, ifnull(summary, ''), sources, tags`

// CreateTopic inserts a new topic and returns the stored row.
func (s *Store) CreateTopic(ctx context.Context, p CreateTopicParams) (*Topic, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, ErrInvalidTopic
	}
	sources, err := encodeList(p.Sources)
	if err != nil {
		return nil, err
	}
	tags, err := encodeList(p.Tags)
	if err != nil {
		return nil, err
	}
	at := formatTime(p.At)

	var t Topic
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.execHook(ctx, tx,
			`INSERT INTO topics (topic_name, domain_id, first_researched, last_mentioned, summary, sources, tags)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.Name, nullableInt(p.DomainID), at, at, nullableString(p.Summary), sources, tags,
		)
		if err != nil {
			return fmt.Errorf("creating topic: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		got, err := getTopic(ctx, tx, id)
		if err != nil {
			return err
		}
		t = *got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTopic retrieves a topic by ID. It returns nil, nil when absent.
func (s *Store) GetTopic(ctx context.Context, id int64) (*Topic, error) {
	t, err := getTopic(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// FindTopicByName looks a topic up by name. Exact matching is
// case-sensitive equality; otherwise it is a case-insensitive substring
// match. Either way the first match by insertion order wins. A non-nil
// domainID restricts the lookup to that domain. It returns nil, nil when
// nothing matches.
func (s *Store) FindTopicByName(ctx context.Context, name string, exact bool, domainID *int64) (*Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE `
	if exact {
		query += `topic_name = ?`
	} else {
		query += `instr(lower(topic_name), lower(?)) > 0`
	}
	args := []any{name}
	if domainID != nil {
		query += ` AND domain_id = ?`
		args = append(args, *domainID)
	}
	query += ` ORDER BY id ASC LIMIT 1`

	t, err := scanTopic(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SearchTopics matches the query against topic name or summary
// (case-insensitive substring; an empty query matches everything) and
// returns results most recently mentioned first, ties by insertion order.
//
// The tag filter keeps topics carrying at least one of the given tags and is
// part of the SQL query, so Limit and Offset apply to the filtered set.
// A non-positive Limit means no limit.
func (s *Store) SearchTopics(ctx context.Context, p SearchParams) ([]Topic, error) {
	query := `SELECT ` + topicColumns + ` FROM topics WHERE 1 = 1`
	var args []any

	if p.DomainID != nil {
		query += ` AND domain_id = ?`
		args = append(args, *p.DomainID)
	}
	if p.Query != "" {
		query += ` AND (instr(lower(topic_name), lower(?)) > 0 OR instr(lower(ifnull(summary, '')), lower(?)) > 0)`
		args = append(args, p.Query, p.Query)
	}
	if tags := compactList(p.Tags); len(tags) > 0 {
		query += ` AND EXISTS (SELECT 1 FROM json_each(topics.tags) WHERE json_each.value IN (` + placeholders(len(tags)) + `))`
		for _, tag := range tags {
			args = append(args, tag)
		}
	}

	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	query += ` ORDER BY last_mentioned DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return s.queryTopics(ctx, query, args...)
}

// RecentTopicNames returns up to n topic names of a domain, most recently
// mentioned first.
func (s *Store) RecentTopicNames(ctx context.Context, domainID int64, n int) ([]string, error) {
	topics, err := s.SearchTopics(ctx, SearchParams{DomainID: &domainID, Limit: n})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Name)
	}
	return names, nil
}

// CountTopics counts topics matching the filter.
func (s *Store) CountTopics(ctx context.Context, f TopicFilter) (int, error) {
	query := `SELECT COUNT(*) FROM topics WHERE 1 = 1`
	var args []any
	if f.DomainID != nil {
		query += ` AND domain_id = ?`
		args = append(args, *f.DomainID)
	}
	if f.MentionedSince != nil {
		query += ` AND last_mentioned >= ?`
		args = append(args, formatTime(*f.MentionedSince))
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting topics: %w", err)
	}
	return n, nil
}

// UpdateTopic partially updates a topic by ID. last_mentioned is never moved
// before first_researched. It returns nil, nil when the topic does not exist.
func (s *Store) UpdateTopic(ctx context.Context, id int64, p UpdateTopicParams) (*Topic, error) {
	var t *Topic
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getTopic(ctx, tx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		summary := cur.Summary
		sources := cur.Sources
		tags := cur.Tags
		lastMentioned := cur.LastMentioned

		if p.Summary != nil {
			summary = *p.Summary
		}
		if p.Sources != nil {
			sources = p.Sources
		}
		if p.Tags != nil {
			tags = p.Tags
		}
		if p.LastMentioned != nil {
			lastMentioned = p.LastMentioned.UTC()
			if lastMentioned.Before(cur.FirstResearched) {
				lastMentioned = cur.FirstResearched
			}
		}

		encSources, err := encodeList(sources)
		if err != nil {
			return err
		}
		encTags, err := encodeList(tags)
		if err != nil {
			return err
		}

		if _, err := s.execHook(ctx, tx,
			`UPDATE topics
			 SET summary = ?,
			     sources = ?,
			     tags = ?,
			     last_mentioned = ?
			 WHERE id = ?`,
			nullableString(summary), encSources, encTags, formatTime(lastMentioned), id,
		); err != nil {
			return fmt.Errorf("updating topic: %w", err)
		}

		t, err = getTopic(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTopic hard-deletes a topic and reports whether a row was removed.
func (s *Store) DeleteTopic(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.execHook(ctx, tx, `DELETE FROM topics WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting topic: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.beginTxHook(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) queryTopics(ctx context.Context, query string, args ...any) ([]Topic, error) {
	rows, err := s.queryHook(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func getDomain(ctx context.Context, db queryer, id int64) (*Domain, error) {
	d, err := scanDomain(db.QueryRowContext(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func getTopic(ctx context.Context, db queryer, id int64) (*Topic, error) {
	t, err := scanTopic(db.QueryRowContext(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanDomain(row scanner) (Domain, error) {
	var (
		d                       Domain
		keywords, created, used string
	)
	if err := row.Scan(&d.ID, &d.Name, &d.Description, &keywords, &created, &used); err != nil {
		return Domain{}, err
	}

	var err error
	if d.Keywords, err = decodeList(keywords); err != nil {
		return Domain{}, fmt.Errorf("domain %d keywords: %w", d.ID, err)
	}
	if d.CreatedAt, err = parseTime(created); err != nil {
		return Domain{}, fmt.Errorf("domain %d created_at: %w", d.ID, err)
	}
	if d.LastUsed, err = parseTime(used); err != nil {
		return Domain{}, fmt.Errorf("domain %d last_used: %w", d.ID, err)
	}
	return d, nil
}

func scanTopic(row scanner) (Topic, error) {
	var (
		t             Topic
		domainID      sql.NullInt64
		first, last   string
		sources, tags string
	)
	if err := row.Scan(&t.ID, &t.Name, &domainID, &first, &last, &t.Summary, &sources, &tags); err != nil {
		return Topic{}, err
	}
	if domainID.Valid {
		id := domainID.Int64
		t.DomainID = &id
	}

	var err error
	if t.FirstResearched, err = parseTime(first); err != nil {
		return Topic{}, fmt.Errorf("topic %d first_researched: %w", t.ID, err)
	}
	if t.LastMentioned, err = parseTime(last); err != nil {
		return Topic{}, fmt.Errorf("topic %d last_mentioned: %w", t.ID, err)
	}
	if t.Sources, err = decodeList(sources); err != nil {
		return Topic{}, fmt.Errorf("topic %d sources: %w", t.ID, err)
	}
	if t.Tags, err = decodeList(tags); err != nil {
		return Topic{}, fmt.Errorf("topic %d tags: %w", t.ID, err)
	}
	return t, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding list: %w", err)
	}
	return string(b), nil
}

// decodeList always returns a non-nil slice.
func decodeList(raw string) ([]string, error) {
	out := []string{}
	if raw == "" || raw == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// compactList trims entries and drops empty ones.
func compactList(items []string) []string {
	var out []string
	for _, it := range items {
		if v := strings.TrimSpace(it); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(TimeFormat)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(TimeFormat, s, time.UTC); err == nil {
		return t, nil
	}
	return time.ParseInLocation(legacyTimeFormat, s, time.UTC)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
