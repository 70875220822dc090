package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

type Store struct {
	DB *sql.DB
}

// Newsletter statuses.
const (
	NewsletterStatusDraft     = "draft"
	NewsletterStatusRunning   = "running"
	NewsletterStatusCompleted = "completed"
	NewsletterStatusFailed    = "failed"
)

// Agent run statuses.
const (
	AgentRunStatusPending   = "pending"
	AgentRunStatusRunning   = "running"
	AgentRunStatusCompleted = "completed"
	AgentRunStatusFailed    = "failed"
)

// DefaultMonitoredTools seeds the settings row on first read.
const DefaultMonitoredTools = "Bitscale,Clay,Apollo,Amplemarket,UnifyGTM,HubSpot,SyftData,N8n,Relevance AI,Dust.tt,Crew.ai"

// ErrNotFound indicates a referenced newsletter or agent run is missing.
var ErrNotFound = errors.New("not found")

// Newsletter is the durable record of one newsletter issue, including every
// agent's latest output.
type Newsletter struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	DateRange string    `json:"date_range"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ToolSearchOutput      *string `json:"tool_search_output,omitempty"`
	ReleaseSearchOutput   *string `json:"release_search_output,omitempty"`
	TrendAnalysisOutput   *string `json:"trend_analysis_output,omitempty"`
	AssembledNewsletter   *string `json:"assembled_newsletter,omitempty"`
	LanguageRefinedOutput *string `json:"language_refined_output,omitempty"`
	HTMLOutput            *string `json:"html_output,omitempty"`

	ToolsFound    *int `json:"tools_found,omitempty"`
	ReleasesFound *int `json:"releases_found,omitempty"`
	PatternsFound *int `json:"patterns_found,omitempty"`

	ReferenceNewsletterID *string `json:"reference_newsletter_id,omitempty"`
	CustomInstructions    *string `json:"custom_instructions,omitempty"`
}

// NewsletterCreate carries the caller-supplied fields for a new newsletter.
type NewsletterCreate struct {
	Title                 string  `json:"title"`
	DateRange             string  `json:"date_range"`
	ReferenceNewsletterID *string `json:"reference_newsletter_id"`
	CustomInstructions    *string `json:"custom_instructions"`
}

// NewsletterUpdate carries the caller-editable fields; nil leaves a field
// untouched. Agent output columns are owned by the pipeline and cannot be
// updated here.
type NewsletterUpdate struct {
	Title                 *string `json:"title"`
	DateRange             *string `json:"date_range"`
	ReferenceNewsletterID *string `json:"reference_newsletter_id"`
	CustomInstructions    *string `json:"custom_instructions"`
}

// AgentRun records the latest execution attempt of one agent for one
// newsletter. At most one row exists per (newsletter_id, agent_name).
type AgentRun struct {
	ID              string     `json:"id"`
	NewsletterID    string     `json:"newsletter_id"`
	AgentName       string     `json:"agent_name"`
	Status          string     `json:"status"`
	InputData       *string    `json:"input_data,omitempty"`
	Output          *string    `json:"output,omitempty"`
	Error           *string    `json:"error,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	TokensUsed      *int       `json:"tokens_used,omitempty"`
	Model           *string    `json:"model,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
}

// Settings is the singleton operator configuration row.
type Settings struct {
	ID             string `json:"id"`
	MonitoredTools string `json:"monitored_tools"`
}

// Stats aggregates dashboard counters across all newsletters.
type Stats struct {
	TotalNewsletters  int        `json:"total_newsletters"`
	Completed         int        `json:"completed"`
	Running           int        `json:"running"`
	Failed            int        `json:"failed"`
	LastRun           *time.Time `json:"last_run"`
	TotalToolsTracked int        `json:"total_tools_tracked"`
}

// outputColumns maps an agent name to the newsletter column holding its
// output, and counterColumns to the derived-counter column where one exists.
var outputColumns = map[string]string{
	"scout":    "tool_search_output",
	"tracker":  "release_search_output",
	"sage":     "trend_analysis_output",
	"nexus":    "assembled_newsletter",
	"language": "language_refined_output",
	"html":     "html_output",
}

var counterColumns = map[string]string{
	"scout":   "tools_found",
	"tracker": "releases_found",
	"sage":    "patterns_found",
}

func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

const newsletterColumns = `id, title, date_range, status, created_at, updated_at,
tool_search_output, release_search_output, trend_analysis_output,
assembled_newsletter, language_refined_output, html_output,
tools_found, releases_found, patterns_found,
reference_newsletter_id, custom_instructions`

func scanNewsletter(row interface{ Scan(...interface{}) error }) (Newsletter, error) {
	var n Newsletter
	err := row.Scan(&n.ID, &n.Title, &n.DateRange, &n.Status, &n.CreatedAt, &n.UpdatedAt,
		&n.ToolSearchOutput, &n.ReleaseSearchOutput, &n.TrendAnalysisOutput,
		&n.AssembledNewsletter, &n.LanguageRefinedOutput, &n.HTMLOutput,
		&n.ToolsFound, &n.ReleasesFound, &n.PatternsFound,
		&n.ReferenceNewsletterID, &n.CustomInstructions)
	return n, err
}

// Newsletter operations

func (s *Store) CreateNewsletter(ctx context.Context, in NewsletterCreate) (Newsletter, error) {
	id := uuid.NewString()
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO newsletters (id, title, date_range, status, reference_newsletter_id, custom_instructions, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
RETURNING `+newsletterColumns,
		id, in.Title, in.DateRange, NewsletterStatusDraft, in.ReferenceNewsletterID, in.CustomInstructions)
	return scanNewsletter(row)
}

func (s *Store) ListNewsletters(ctx context.Context) ([]Newsletter, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+newsletterColumns+` FROM newsletters ORDER BY created_at DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetNewsletter fetches one newsletter. Bool indicates whether it exists.
func (s *Store) GetNewsletter(ctx context.Context, id string) (Newsletter, bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+newsletterColumns+` FROM newsletters WHERE id=$1`, id)
	n, err := scanNewsletter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Newsletter{}, false, nil
	}
	if err != nil {
		return Newsletter{}, false, err
	}
	return n, true, nil
}

func (s *Store) UpdateNewsletter(ctx context.Context, id string, upd NewsletterUpdate) (Newsletter, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
UPDATE newsletters SET
  title                   = COALESCE($2, title),
  date_range              = COALESCE($3, date_range),
  reference_newsletter_id = COALESCE($4, reference_newsletter_id),
  custom_instructions     = COALESCE($5, custom_instructions),
  updated_at              = NOW()
WHERE id=$1
RETURNING `+newsletterColumns,
		id, upd.Title, upd.DateRange, upd.ReferenceNewsletterID, upd.CustomInstructions)
	n, err := scanNewsletter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Newsletter{}, false, nil
	}
	if err != nil {
		return Newsletter{}, false, err
	}
	return n, true, nil
}

// DeleteNewsletter removes a newsletter and its agent runs.
func (s *Store) DeleteNewsletter(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM newsletters WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	} else if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `DELETE FROM agent_runs WHERE newsletter_id=$1`, id)
	return err
}

func (s *Store) SetNewsletterStatus(ctx context.Context, id string, status string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE newsletters SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	return err
}

// ClaimNewsletterRun transitions a newsletter to running unless a pipeline is
// already active. Returns false when the status was already running. Rows
// stuck in running longer than 30 minutes are treated as abandoned and can
// be reclaimed.
func (s *Store) ClaimNewsletterRun(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
UPDATE newsletters SET status=$2, updated_at=NOW()
WHERE id=$1 AND (status <> $2 OR updated_at < NOW() - INTERVAL '30 minutes')`, id, NewsletterStatusRunning)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// SaveAgentOutput writes one agent's output into its newsletter column and,
// for scout/tracker/sage, the derived counter alongside it.
func (s *Store) SaveAgentOutput(ctx context.Context, id string, agent string, output string, counter *int) error {
	col, ok := outputColumns[agent]
	if !ok {
		return fmt.Errorf("unknown agent %q", agent)
	}
	if cc, ok := counterColumns[agent]; ok && counter != nil {
		_, err := s.DB.ExecContext(ctx,
			`UPDATE newsletters SET `+col+`=$2, `+cc+`=$3, updated_at=NOW() WHERE id=$1`,
			id, output, *counter)
		return err
	}
	_, err := s.DB.ExecContext(ctx,
		`UPDATE newsletters SET `+col+`=$2, updated_at=NOW() WHERE id=$1`,
		id, output)
	return err
}

// Agent run operations

// ReplaceAgentRun evicts any previous run for (newsletterID, agentName) and
// inserts a fresh one in running state. History keeps only the latest attempt
// per agent per newsletter.
func (s *Store) ReplaceAgentRun(ctx context.Context, newsletterID, agentName string) (AgentRun, error) {
	if _, err := s.DB.ExecContext(ctx,
		`DELETE FROM agent_runs WHERE newsletter_id=$1 AND agent_name=$2`, newsletterID, agentName); err != nil {
		return AgentRun{}, err
	}
	id := uuid.NewString()
	var run AgentRun
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO agent_runs (id, newsletter_id, agent_name, status, started_at)
VALUES ($1,$2,$3,$4,NOW())
RETURNING id, newsletter_id, agent_name, status, started_at`,
		id, newsletterID, agentName, AgentRunStatusRunning).
		Scan(&run.ID, &run.NewsletterID, &run.AgentName, &run.Status, &run.StartedAt)
	return run, err
}

func (s *Store) CompleteAgentRun(ctx context.Context, runID string, output string, model string, durationSeconds int) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE agent_runs SET status=$2, output=$3, model=$4, duration_seconds=$5, completed_at=NOW() WHERE id=$1`,
		runID, AgentRunStatusCompleted, output, model, durationSeconds)
	return err
}

func (s *Store) FailAgentRun(ctx context.Context, runID string, errMsg string) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE agent_runs SET status=$2, error=$3, completed_at=NOW() WHERE id=$1`,
		runID, AgentRunStatusFailed, errMsg)
	return err
}

const agentRunColumns = `id, newsletter_id, agent_name, status, input_data, output, error,
started_at, completed_at, tokens_used, model, duration_seconds`

func scanAgentRun(row interface{ Scan(...interface{}) error }) (AgentRun, error) {
	var r AgentRun
	err := row.Scan(&r.ID, &r.NewsletterID, &r.AgentName, &r.Status, &r.InputData, &r.Output, &r.Error,
		&r.StartedAt, &r.CompletedAt, &r.TokensUsed, &r.Model, &r.DurationSeconds)
	return r, err
}

func (s *Store) ListAgentRuns(ctx context.Context, newsletterID string) ([]AgentRun, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+agentRunColumns+` FROM agent_runs WHERE newsletter_id=$1 ORDER BY started_at`, newsletterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AgentRun
	for rows.Next() {
		r, err := scanAgentRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetAgentRun fetches the latest run for one agent. Bool indicates existence.
func (s *Store) GetAgentRun(ctx context.Context, newsletterID, agentName string) (AgentRun, bool, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+agentRunColumns+` FROM agent_runs WHERE newsletter_id=$1 AND agent_name=$2`, newsletterID, agentName)
	r, err := scanAgentRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return AgentRun{}, false, nil
	}
	if err != nil {
		return AgentRun{}, false, err
	}
	return r, true, nil
}

// Settings operations

// GetSettings returns the singleton settings row, creating it with defaults
// on first read.
func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var st Settings
	err := s.DB.QueryRowContext(ctx, `SELECT id, monitored_tools FROM settings WHERE id='default'`).
		Scan(&st.ID, &st.MonitoredTools)
	if errors.Is(err, sql.ErrNoRows) {
		st = Settings{ID: "default", MonitoredTools: DefaultMonitoredTools}
		_, err = s.DB.ExecContext(ctx,
			`INSERT INTO settings (id, monitored_tools) VALUES ($1,$2) ON CONFLICT (id) DO NOTHING`,
			st.ID, st.MonitoredTools)
		return st, err
	}
	return st, err
}

func (s *Store) UpdateSettings(ctx context.Context, monitoredTools string) (Settings, error) {
	var st Settings
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO settings (id, monitored_tools) VALUES ('default',$1)
ON CONFLICT (id) DO UPDATE SET monitored_tools = EXCLUDED.monitored_tools
RETURNING id, monitored_tools`, monitoredTools).Scan(&st.ID, &st.MonitoredTools)
	return st, err
}

// Stats aggregation

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.DB.QueryRowContext(ctx, `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status='completed'),
       COUNT(*) FILTER (WHERE status='running'),
       COUNT(*) FILTER (WHERE status='failed'),
       MAX(updated_at) FILTER (WHERE status='completed'),
       COALESCE(SUM(tools_found) FILTER (WHERE tools_found > 0), 0)
FROM newsletters`).
		Scan(&st.TotalNewsletters, &st.Completed, &st.Running, &st.Failed, &st.LastRun, &st.TotalToolsTracked)
	return st, err
}
