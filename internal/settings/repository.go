// Package settings provides the structured configuration store for the
// notification flow: column mappings, the per-service email rule grid, and
// the registered webhook id. It replaces stringly-keyed option storage with
// tables keyed by (service, kind).
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"evalnotify_backend/internal/notify"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const webhookIDKey = "smartsheet_webhook_id"

// ErrUnknownField is returned when a column mapping uses an unknown field name.
var ErrUnknownField = errors.New("unknown column mapping field")

var knownFields = map[string]bool{
	notify.FieldEmail:       true,
	notify.FieldFirstName:   true,
	notify.FieldClientName:  true,
	notify.FieldEvalTime:    true,
	notify.FieldEvalDate:    true,
	notify.FieldPearsonLink: true,
	notify.FieldZoomLink:    true,
	notify.FieldTalogyLink:  true,
	notify.FieldServiceType: true,
	notify.FieldTrigger:     true,
}

// RuleRow is one email rule with its grid coordinates, for listing.
type RuleRow struct {
	Service notify.Service
	Kind    notify.EmailKind
	Rule    notify.EmailRule
}

// Repository provides data access for notification settings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Columns returns the configured column mappings. Unconfigured fields are zero.
func (r *Repository) Columns(ctx context.Context) (notify.ColumnMap, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT field, column_id
		FROM notify_columns
	`)
	if err != nil {
		return notify.ColumnMap{}, err
	}
	defer rows.Close()

	var columns notify.ColumnMap
	for rows.Next() {
		var field string
		var columnID int64
		if err := rows.Scan(&field, &columnID); err != nil {
			return notify.ColumnMap{}, err
		}
		setColumn(&columns, field, columnID)
	}
	return columns, rows.Err()
}

// SetColumn upserts one field's column id. A zero id clears the mapping.
func (r *Repository) SetColumn(ctx context.Context, field string, columnID int64) error {
	if !knownFields[field] {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	if columnID == 0 {
		_, err := r.pool.Exec(ctx, `DELETE FROM notify_columns WHERE field = $1`, field)
		return err
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO notify_columns (field, column_id)
		VALUES ($1, $2)
		ON CONFLICT (field) DO UPDATE SET column_id = EXCLUDED.column_id
	`, field, columnID)
	return err
}

// Rule returns the email rule for a (service, kind) slot. A slot that was
// never configured reads as a disabled rule with empty templates.
func (r *Repository) Rule(ctx context.Context, service notify.Service, kind notify.EmailKind) (notify.EmailRule, error) {
	var rule notify.EmailRule
	err := r.pool.QueryRow(ctx, `
		SELECT enabled, subject, body
		FROM notify_email_rules
		WHERE service = $1 AND kind = $2
	`, string(service), string(kind)).Scan(&rule.Enabled, &rule.Subject, &rule.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return notify.EmailRule{}, nil
	}
	return rule, err
}

// UpsertRule writes one slot of the rule grid.
func (r *Repository) UpsertRule(ctx context.Context, service notify.Service, kind notify.EmailKind, rule notify.EmailRule) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notify_email_rules (service, kind, enabled, subject, body)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (service, kind) DO UPDATE
		SET enabled = EXCLUDED.enabled, subject = EXCLUDED.subject, body = EXCLUDED.body, updated_at = now()
	`, string(service), string(kind), rule.Enabled, rule.Subject, rule.Body)
	return err
}

// ListRules returns every configured slot of the grid.
func (r *Repository) ListRules(ctx context.Context) ([]RuleRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT service, kind, enabled, subject, body
		FROM notify_email_rules
		ORDER BY service, kind
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RuleRow
	for rows.Next() {
		var row RuleRow
		var service, kind string
		if err := rows.Scan(&service, &kind, &row.Rule.Enabled, &row.Rule.Subject, &row.Rule.Body); err != nil {
			return nil, err
		}
		row.Service = notify.Service(service)
		row.Kind = notify.EmailKind(kind)
		result = append(result, row)
	}
	return result, rows.Err()
}

// WebhookID returns the stored webhook id, zero when none is registered.
func (r *Repository) WebhookID(ctx context.Context) (int64, error) {
	var value string
	err := r.pool.QueryRow(ctx, `
		SELECT value FROM notify_settings WHERE key = $1
	`, webhookIDKey).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(value, 10, 64)
}

// SetWebhookID stores the registered webhook id.
func (r *Repository) SetWebhookID(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notify_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, webhookIDKey, strconv.FormatInt(id, 10))
	return err
}

// ClearWebhookID removes the stored webhook id.
func (r *Repository) ClearWebhookID(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM notify_settings WHERE key = $1`, webhookIDKey)
	return err
}

func setColumn(columns *notify.ColumnMap, field string, columnID int64) {
	switch field {
	case notify.FieldEmail:
		columns.Email = columnID
	case notify.FieldFirstName:
		columns.FirstName = columnID
	case notify.FieldClientName:
		columns.ClientName = columnID
	case notify.FieldEvalTime:
		columns.EvalTime = columnID
	case notify.FieldEvalDate:
		columns.EvalDate = columnID
	case notify.FieldPearsonLink:
		columns.PearsonLink = columnID
	case notify.FieldZoomLink:
		columns.ZoomLink = columnID
	case notify.FieldTalogyLink:
		columns.TalogyLink = columnID
	case notify.FieldServiceType:
		columns.ServiceType = columnID
	case notify.FieldTrigger:
		columns.TriggerCheckbox = columnID
	}
}

// Compile-time checks for the capabilities the flow consumes.
var (
	_ notify.SettingsProvider = (*Repository)(nil)
	_ notify.WebhookIDStore   = (*Repository)(nil)
)
