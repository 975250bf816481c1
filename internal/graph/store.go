// Package graph implements durable, idempotent persistence for grant records
// on Postgres with the Apache AGE extension. Scalar fields live in a
// relational table carrying the full-text index; entities and relationships
// live in an AGE graph addressed with Cypher, so ingestion keeps the
// merge-by-key semantics of a native graph store.
package graph

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ageSetup runs per-connection AGE initialization.
const ageSetup = `LOAD 'age'; SET search_path TO ag_catalog, "$user", public`

// Node labels and edge types of the grant graph.
const (
	LabelGrant      = "Grant"
	LabelVertical   = "Vertical"
	LabelTechnology = "Technology"
	LabelSize       = "Size"
	LabelRegion     = "Region"
	LabelCountry    = "Country"
	LabelCriterion  = "Criterion"

	EdgeTargetsVertical   = "TARGETS_VERTICAL"
	EdgeUsesTech          = "USES_TECH"
	EdgeEligibleForSize   = "ELIGIBLE_FOR_SIZE"
	EdgeRequiresCriterion = "REQUIRES_CRITERION"
	EdgeGeographicFilter  = "HAS_GEOGRAPHIC_FILTER"
	EdgeApplicableIn      = "APPLICABLE_IN"
)

// Config holds connection settings for the store
type Config struct {
	DSN       string
	GraphName string
	MaxConns  int32
}

// Store holds the pgx connection pool for grant storage.
// Safe for concurrent use; conflicting writes are serialized by the
// database's per-statement atomicity, not application locking.
type Store struct {
	pool   *pgxpool.Pool
	graph  string
	logger *slog.Logger
}

// Connect creates a pgx pool, verifies connectivity and ensures the schema.
// A store that cannot be reached at startup is a fatal error for the caller;
// there is no degraded mode.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	if cfg.GraphName == "" {
		cfg.GraphName = "grant_graph"
	}
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = 1

	// Keep plain SQL resolving against public; Cypher statements set their
	// own search_path via ageSetup.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET search_path TO public")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool, graph: cfg.GraphName, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// ensureSchema applies embedded migrations and creates the AGE graph if
// missing. Every step is idempotent, so it runs on each startup.
func (s *Store) ensureSchema(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read embedded schema: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := schemaFS.ReadFile("schema/" + name)
		if err != nil {
			return fmt.Errorf("read schema %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply schema %s: %w", name, err)
		}
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ag_catalog.ag_graph WHERE name = $1)`, s.graph,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check graph existence: %w", err)
	}
	if !exists {
		if _, err := s.pool.Exec(ctx, `SELECT ag_catalog.create_graph($1)`, s.graph); err != nil {
			return fmt.Errorf("create graph %s: %w", s.graph, err)
		}
		s.logger.Info("created graph", "name", s.graph)
	}

	return nil
}

// execCypher runs a Cypher statement that returns no rows.
func (s *Store) execCypher(ctx context.Context, stmt string) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, ageSetup); err != nil {
		return fmt.Errorf("age setup: %w", err)
	}

	sql := fmt.Sprintf(
		"SELECT * FROM ag_catalog.cypher('%s', $$ %s $$) AS (result ag_catalog.agtype)",
		s.graph, stmt,
	)
	if _, err := conn.Exec(ctx, sql); err != nil {
		return fmt.Errorf("cypher exec: %w", err)
	}
	return nil
}

// queryCypherStrings runs a Cypher statement returning a single agtype column
// and scans the values as strings.
func (s *Store) queryCypherStrings(ctx context.Context, stmt string) ([]string, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, ageSetup); err != nil {
		return nil, fmt.Errorf("age setup: %w", err)
	}

	sql := fmt.Sprintf(
		"SELECT * FROM ag_catalog.cypher('%s', $$ %s $$) AS (value ag_catalog.agtype)",
		s.graph, stmt,
	)
	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			continue
		}
		out = append(out, unquoteAgtype(raw))
	}
	return out, rows.Err()
}

// unquoteAgtype converts an agtype scalar to its plain string value.
func unquoteAgtype(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
		return strings.Trim(raw, `"`)
	}
	return raw
}

// escapeCypher escapes a string for safe use in a single-quoted Cypher literal.
func escapeCypher(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "`", "\\`")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}
