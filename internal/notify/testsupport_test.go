package notify

import (
	"context"
	"errors"
	"time"

	"evalnotify_backend/platform/logger"
)

// fakeSettings is an in-memory SettingsProvider for tests.
type fakeSettings struct {
	columns    ColumnMap
	rules      map[string]EmailRule
	columnsErr error
	ruleErr    error
}

func newFakeSettings() *fakeSettings {
	return &fakeSettings{rules: map[string]EmailRule{}}
}

func (f *fakeSettings) Columns(_ context.Context) (ColumnMap, error) {
	if f.columnsErr != nil {
		return ColumnMap{}, f.columnsErr
	}
	return f.columns, nil
}

func (f *fakeSettings) Rule(_ context.Context, service Service, kind EmailKind) (EmailRule, error) {
	if f.ruleErr != nil {
		return EmailRule{}, f.ruleErr
	}
	return f.rules[string(service)+"/"+string(kind)], nil
}

func (f *fakeSettings) setRule(service Service, kind EmailKind, rule EmailRule) {
	f.rules[string(service)+"/"+string(kind)] = rule
}

// fakeSender records sends and can be told to fail.
type fakeSender struct {
	sent []sentMail
	err  error
}

type sentMail struct {
	To      string
	From    string
	Subject string
	Body    string
}

func (f *fakeSender) Send(_ context.Context, toEmail, fromName, fromEmail, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{To: toEmail, From: fromName + " <" + fromEmail + ">", Subject: subject, Body: htmlBody})
	return nil
}

// fakeFetcher returns a canned snapshot.
type fakeFetcher struct {
	snap RowSnapshot
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ int64) (RowSnapshot, error) {
	if f.err != nil {
		return RowSnapshot{}, f.err
	}
	return f.snap, nil
}

// fakeScheduler records scheduled reminders.
type fakeScheduler struct {
	scheduled []scheduledReminder
	err       error
}

type scheduledReminder struct {
	RowID   int64
	Service Service
	Kind    EmailKind
	RunAt   time.Time
}

func (f *fakeScheduler) ScheduleReminder(_ context.Context, rowID int64, service Service, kind EmailKind, runAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.scheduled = append(f.scheduled, scheduledReminder{RowID: rowID, Service: service, Kind: kind, RunAt: runAt})
	return nil
}

func completeSnapshot() RowSnapshot {
	return RowSnapshot{
		Email:       "parent@example.com",
		FirstName:   "Dana",
		ClientName:  "Alex",
		EvalTime:    "14:00",
		EvalDate:    "2025-03-10",
		PearsonLink: "https://pearson.example/abc",
		ZoomLink:    "https://zoom.example/xyz",
		TalogyLink:  "https://talogy.example/def",
		ServiceType: "psychoeducational",
	}
}

func testLogger() *logger.Logger {
	return logger.New("development")
}

var errBoom = errors.New("boom")
