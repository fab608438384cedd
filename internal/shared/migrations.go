package shared

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is one numbered schema change with its up and down scripts.
type Migration struct {
	Version int
	Up      string
	Down    string
}

// MigrationStatus reports which migrations have been applied.
type MigrationStatus struct {
	Applied []int
	Pending []int
}

// Migrator applies numbered migrations from a filesystem of {version}_{name}_{up|down}.sql files
// and records them in schema_migrations.
type Migrator struct {
	db     *sql.DB
	source fs.FS
}

// NewMigrator creates a [Migrator] over the embedded sql/ directory.
func NewMigrator(db *sql.DB) *Migrator {
	source, err := fs.Sub(migrationFiles, "sql")
	if err != nil {
		panic(fmt.Sprintf("embedded migrations missing: %v", err))
	}
	return &Migrator{db: db, source: source}
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(db *sql.DB) error {
	_, err := NewMigrator(db).Up(context.Background())
	return err
}

// Load reads and pairs the migration scripts, ordered by version.
func (m *Migrator) Load() ([]Migration, error) {
	entries, err := fs.ReadDir(m.source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			continue
		}

		content, err := fs.ReadFile(m.source, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version}
			byVersion[version] = mig
		}
		switch {
		case strings.HasSuffix(name, "_up.sql"):
			mig.Up = string(content)
		case strings.HasSuffix(name, "_down.sql"):
			mig.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.Up == "" || mig.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", mig.Version)
		}
		migrations = append(migrations, *mig)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })

	return migrations, nil
}

// Up applies pending migrations in version order and returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	migrations, applied, err := m.state(ctx)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig.Up, "INSERT INTO schema_migrations (version) VALUES ($1)", mig.Version); err != nil {
			return ran, fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
		ran++
	}
	return ran, nil
}

// Status lists applied and pending migration versions.
func (m *Migrator) Status(ctx context.Context) (*MigrationStatus, error) {
	migrations, applied, err := m.state(ctx)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{}
	for _, mig := range migrations {
		if applied[mig.Version] {
			status.Applied = append(status.Applied, mig.Version)
		} else {
			status.Pending = append(status.Pending, mig.Version)
		}
	}
	return status, nil
}

// Down rolls back the most recently applied migration and returns its version.
//
// Fails with [ErrNotFound] when nothing has been applied.
func (m *Migrator) Down(ctx context.Context) (int, error) {
	migrations, applied, err := m.state(ctx)
	if err != nil {
		return 0, err
	}

	for i := len(migrations) - 1; i >= 0; i-- {
		mig := migrations[i]
		if !applied[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig.Down, "DELETE FROM schema_migrations WHERE version = $1", mig.Version); err != nil {
			return 0, fmt.Errorf("failed to roll back migration %d: %w", mig.Version, err)
		}
		return mig.Version, nil
	}
	return 0, fmt.Errorf("%w: no migrations to roll back", ErrNotFound)
}

// state loads the scripts and the set of applied versions.
func (m *Migrator) state(ctx context.Context) ([]Migration, map[int]bool, error) {
	migrations, err := m.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return nil, nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	return migrations, applied, nil
}

// apply runs script and the bookkeeping statement in one transaction.
func (m *Migrator) apply(ctx context.Context, script, record string, version int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	if _, err := tx.ExecContext(ctx, record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements strips -- comments and splits script on semicolons, dropping empty statements.
func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	var stmts []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
