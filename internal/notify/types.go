// Package notify implements the evaluation notification flow: webhook event
// triage, per-row orchestration, templated email dispatch, and reminder
// scheduling against an evaluation date.
package notify

import (
	"context"
	"time"
)

// Service is one of the closed set of evaluation service categories.
type Service string

const (
	ServicePsychoeducational  Service = "psychoeducational"
	ServiceNeuropsychological Service = "neuropsychological"
	ServiceADHD               Service = "adhd"
)

// Services lists all recognized service identifiers.
var Services = []Service{ServicePsychoeducational, ServiceNeuropsychological, ServiceADHD}

// EmailKind identifies one of the three email slots per service.
type EmailKind string

const (
	KindImmediate   EmailKind = "immediate"
	KindReminder48h EmailKind = "reminder_48h"
	KindReminder24h EmailKind = "reminder_24h"
)

// EmailKinds lists all email kinds.
var EmailKinds = []EmailKind{KindImmediate, KindReminder48h, KindReminder24h}

// ReminderKinds are the deferred kinds, in scheduling order.
var ReminderKinds = []EmailKind{KindReminder48h, KindReminder24h}

// Offset is the duration subtracted from the evaluation instant to compute a
// reminder's fire time. Zero for the immediate kind.
func (k EmailKind) Offset() time.Duration {
	switch k {
	case KindReminder48h:
		return 48 * time.Hour
	case KindReminder24h:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Valid reports whether k is one of the known kinds.
func (k EmailKind) Valid() bool {
	switch k {
	case KindImmediate, KindReminder48h, KindReminder24h:
		return true
	}
	return false
}

// RowSnapshot holds the cell values for one evaluation row. It is fetched
// fresh per operation and never cached; an empty string means the cell was
// absent or blank.
type RowSnapshot struct {
	Email       string
	FirstName   string
	ClientName  string
	EvalTime    string
	EvalDate    string
	PearsonLink string
	ZoomLink    string
	TalogyLink  string
	ServiceType string
}

// EmailRule is one configuration slot of the 3 services x 3 kinds grid.
type EmailRule struct {
	Enabled bool
	Subject string
	Body    string
}

// ColumnMap holds the configured column id per semantic field. Zero means
// unconfigured. TriggerCheckbox is the column whose transition to true starts
// the flow; it is never part of a row read.
type ColumnMap struct {
	Email           int64
	FirstName       int64
	ClientName      int64
	EvalTime        int64
	EvalDate        int64
	PearsonLink     int64
	ZoomLink        int64
	TalogyLink      int64
	ServiceType     int64
	TriggerCheckbox int64
}

// FieldColumn pairs a snapshot field name with its configured column id.
type FieldColumn struct {
	Field    string
	ColumnID int64
}

// Snapshot field names, also used as settings keys and template tokens.
const (
	FieldEmail       = "email"
	FieldFirstName   = "first_name"
	FieldClientName  = "client_name"
	FieldEvalTime    = "eval_time"
	FieldEvalDate    = "eval_date"
	FieldPearsonLink = "pearson_link"
	FieldZoomLink    = "zoom_link"
	FieldTalogyLink  = "talogy_link"
	FieldServiceType = "service_type"
	FieldTrigger     = "trigger_checkbox"
)

// FieldColumns returns the configured (non-zero) snapshot field mappings in a
// fixed order, excluding the trigger checkbox.
func (m ColumnMap) FieldColumns() []FieldColumn {
	all := []FieldColumn{
		{FieldEmail, m.Email},
		{FieldFirstName, m.FirstName},
		{FieldClientName, m.ClientName},
		{FieldEvalTime, m.EvalTime},
		{FieldEvalDate, m.EvalDate},
		{FieldPearsonLink, m.PearsonLink},
		{FieldZoomLink, m.ZoomLink},
		{FieldTalogyLink, m.TalogyLink},
		{FieldServiceType, m.ServiceType},
	}

	configured := make([]FieldColumn, 0, len(all))
	for _, fc := range all {
		if fc.ColumnID != 0 {
			configured = append(configured, fc)
		}
	}
	return configured
}

// SettingsProvider is the injected configuration capability. All flow state
// lives behind it; the core holds nothing mutable of its own.
type SettingsProvider interface {
	Columns(ctx context.Context) (ColumnMap, error)
	Rule(ctx context.Context, service Service, kind EmailKind) (EmailRule, error)
}

// RowFetcher retrieves a fresh snapshot for a row.
type RowFetcher interface {
	Fetch(ctx context.Context, rowID int64) (RowSnapshot, error)
}

// ReminderScheduler defers a single-shot reminder dispatch to a wall-clock
// time. Fire-and-forget: only the scheduling request itself can fail; there is
// no cancellation and no handle.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, rowID int64, service Service, kind EmailKind, runAt time.Time) error
}
