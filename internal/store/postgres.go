package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eastglh/panelsync/pkg/errors"
)

// pgUniqueViolation is the SQLSTATE for a unique constraint violation.
const pgUniqueViolation = "23505"

// panelColumns is the attribute update allow-list, keyed by the differ's
// field names. Only these columns are ever written by UpdatePanel.
var panelColumns = map[string]string{
	"name":    `"panel-name"`,
	"version": `"panel-version"`,
}

// Querier is the subset of pgx satisfied by both a pool and a transaction.
// Sync passes hand the store their ambient transaction; the export commands
// hand it a pool directly.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres persists the test-directory schema in PostgreSQL.
// The store is pure I/O—convergence decisions belong to the reconciler.
type Postgres struct {
	q Querier
}

// NewPostgres constructs a PostgreSQL-backed store over the given querier.
func NewPostgres(q Querier) *Postgres {
	return &Postgres{q: q}
}

// ListPanels returns the panels matching the filter, ordered by local id.
func (s *Postgres) ListPanels(ctx context.Context, filter Filter) ([]Panel, error) {
	query := `
		SELECT "id", "panel-id", "panel-name", "panel-version"
		FROM testdirectory."east-panels"
		WHERE "panel-type-id" = $1
		ORDER BY "id"
	`
	rows, err := s.q.Query(ctx, query, filter.PanelType)
	if err != nil {
		return nil, fmt.Errorf("list panels: %w", err)
	}
	defer rows.Close()

	var panels []Panel
	for rows.Next() {
		var p Panel
		if err := rows.Scan(&p.ID, &p.RemoteID, &p.Name, &p.Version); err != nil {
			return nil, fmt.Errorf("scan panel: %w", err)
		}
		panels = append(panels, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list panels: %w", err)
	}
	return panels, nil
}

// PanelGenes returns the set of member gene ids for one panel.
func (s *Postgres) PanelGenes(ctx context.Context, panelID int64) (map[string]struct{}, error) {
	query := `
		SELECT "hgnc-id"
		FROM testdirectory."east-genes"
		WHERE "east-panel-id" = $1
	`
	rows, err := s.q.Query(ctx, query, panelID)
	if err != nil {
		return nil, fmt.Errorf("panel genes: %w", err)
	}
	defer rows.Close()

	genes := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan gene: %w", err)
		}
		genes[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("panel genes: %w", err)
	}
	return genes, nil
}

// AddPanelGene inserts one membership row. A unique violation is mapped to
// errors.ErrDuplicate so the reconciler can treat it as prior convergence.
func (s *Postgres) AddPanelGene(ctx context.Context, panelID int64, hgncID string) error {
	query := `
		INSERT INTO testdirectory."east-genes" ("east-panel-id", "hgnc-id")
		VALUES ($1, $2)
	`
	if _, err := s.q.Exec(ctx, query, panelID, hgncID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("add gene %s to panel %d: %w", hgncID, panelID, errors.ErrDuplicate)
		}
		return fmt.Errorf("add gene %s to panel %d: %w", hgncID, panelID, err)
	}
	return nil
}

// RemovePanelGene deletes one membership row and reports rows affected.
func (s *Postgres) RemovePanelGene(ctx context.Context, panelID int64, hgncID string) (int64, error) {
	query := `
		DELETE FROM testdirectory."east-genes"
		WHERE "east-panel-id" = $1 AND "hgnc-id" = $2
	`
	tag, err := s.q.Exec(ctx, query, panelID, hgncID)
	if err != nil {
		return 0, fmt.Errorf("remove gene %s from panel %d: %w", hgncID, panelID, err)
	}
	return tag.RowsAffected(), nil
}

// UpdatePanel applies the changed fields as one combined update statement.
// Columns come from the fixed allow-list; values are always parameterized.
func (s *Postgres) UpdatePanel(ctx context.Context, panelID int64, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := panelColumns[k]; !ok {
			return fmt.Errorf("update panel %d: field %q: %w", panelID, k, errors.ErrInvalidInput)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assignments := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for i, k := range keys {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", panelColumns[k], i+1))
		args = append(args, fields[k])
	}
	args = append(args, panelID)

	query := fmt.Sprintf(`
		UPDATE testdirectory."east-panels"
		SET %s
		WHERE "id" = $%d
	`, strings.Join(assignments, ", "), len(args))

	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update panel %d: %w", panelID, err)
	}
	return nil
}

// Savepoint establishes a named checkpoint within the ambient transaction.
// Names are generated from panel ids by the reconciler and are never
// user-supplied.
func (s *Postgres) Savepoint(ctx context.Context, name string) error {
	if _, err := s.q.Exec(ctx, fmt.Sprintf("SAVEPOINT %s", name)); err != nil {
		return fmt.Errorf("savepoint %s: %w", name, err)
	}
	return nil
}

// RollbackTo rolls back to a named checkpoint.
func (s *Postgres) RollbackTo(ctx context.Context, name string) error {
	if _, err := s.q.Exec(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", name)); err != nil {
		return fmt.Errorf("rollback to savepoint %s: %w", name, err)
	}
	return nil
}

// Release discards a named checkpoint.
func (s *Postgres) Release(ctx context.Context, name string) error {
	if _, err := s.q.Exec(ctx, fmt.Sprintf("RELEASE SAVEPOINT %s", name)); err != nil {
		return fmt.Errorf("release savepoint %s: %w", name, err)
	}
	return nil
}

// TestDirectory returns the joined test-directory report rows.
func (s *Postgres) TestDirectory(ctx context.Context) ([]TestDirectoryRow, error) {
	query := `
		SELECT "clinical-indication-id", "test-id", "clinical-indication",
			"panel-name", "panel-version", "panel-id", "panel-type"
		FROM testdirectory."east-tests"
		INNER JOIN testdirectory."east-panels" ON "east-tests"."id" = "east-panels"."east-tests-id"
		INNER JOIN testdirectory."panel-type" ON "east-panels"."panel-type-id" = "panel-type"."id"
		ORDER BY "test-id"
	`
	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("test directory: %w", err)
	}
	defer rows.Close()

	var result []TestDirectoryRow
	for rows.Next() {
		var r TestDirectoryRow
		if err := rows.Scan(&r.ClinicalIndicationID, &r.TestID, &r.ClinicalIndication,
			&r.PanelName, &r.PanelVersion, &r.PanelID, &r.PanelType); err != nil {
			return nil, fmt.Errorf("scan test directory row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("test directory: %w", err)
	}
	return result, nil
}

// GenePanels returns the genepanels release rows ordered by test id.
func (s *Postgres) GenePanels(ctx context.Context) ([]GenePanelRow, error) {
	query := `
		SELECT
			CONCAT(t."test-id", '_', t."clinical-indication", '_P') AS test_info,
			CONCAT(p."panel-name", '_', p."panel-version") AS panel_info,
			g."hgnc-id",
			p."panel-id"
		FROM testdirectory."east-genes" g
		JOIN testdirectory."east-panels" p ON g."east-panel-id" = p."id"
		JOIN testdirectory."east-tests" t ON p."east-tests-id" = t."id"
		ORDER BY t."test-id"
	`
	rows, err := s.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("genepanels: %w", err)
	}
	defer rows.Close()

	var result []GenePanelRow
	for rows.Next() {
		var r GenePanelRow
		if err := rows.Scan(&r.TestInfo, &r.PanelInfo, &r.HGNCID, &r.PanelID); err != nil {
			return nil, fmt.Errorf("scan genepanels row: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("genepanels: %w", err)
	}
	return result, nil
}
