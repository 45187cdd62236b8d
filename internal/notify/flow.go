package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"evalnotify_backend/platform/apperr"
	"evalnotify_backend/platform/logger"
)

// evalDateTimeLayouts are tried in order when combining eval_date and
// eval_time into an instant.
var evalDateTimeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 3:04 PM",
}

// Flow orchestrates one row's notification run: fetch, classify, immediate
// email, reminder scheduling. Each invocation runs to completion with no
// retained state; concurrent invocations for the same row are not serialized.
type Flow struct {
	fetcher    RowFetcher
	settings   SettingsProvider
	dispatcher *Dispatcher
	scheduler  ReminderScheduler
	loc        *time.Location
	now        func() time.Time
	log        *logger.Logger
}

func NewFlow(fetcher RowFetcher, settings SettingsProvider, dispatcher *Dispatcher, scheduler ReminderScheduler, loc *time.Location, log *logger.Logger) *Flow {
	if loc == nil {
		loc = time.Local
	}
	return &Flow{
		fetcher:    fetcher,
		settings:   settings,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		loc:        loc,
		now:        time.Now,
		log:        log,
	}
}

// SetClock overrides the time source. Test hook.
func (f *Flow) SetClock(now func() time.Time) {
	f.now = now
}

// StartFlow runs the full notification flow for a row. A hard failure at any
// step aborts the rest; in particular an immediate-email failure prevents any
// reminder scheduling. There is no retry at this layer.
func (f *Flow) StartFlow(ctx context.Context, rowID int64) error {
	snap, err := f.fetcher.Fetch(ctx, rowID)
	if err != nil {
		f.log.FlowFailure("fetch", rowID, "", err)
		return err
	}

	service, ok := Classify(snap.ServiceType)
	if !ok {
		err := apperr.Validation(fmt.Sprintf("unrecognized service type %q", strings.TrimSpace(snap.ServiceType)))
		f.log.FlowFailure("classify", rowID, "", err)
		return err
	}

	if err := f.sendImmediate(ctx, rowID, service, snap); err != nil {
		return err
	}

	f.scheduleReminders(ctx, rowID, service, snap)
	return nil
}

// sendImmediate dispatches the immediate email when its rule is enabled. A
// dispatch failure fails the whole flow; the immediate email is privileged
// over reminders.
func (f *Flow) sendImmediate(ctx context.Context, rowID int64, service Service, snap RowSnapshot) error {
	rule, err := f.settings.Rule(ctx, service, KindImmediate)
	if err != nil {
		wrapped := apperr.Wrap(apperr.KindConfig, "immediate email rule unavailable", err)
		f.log.FlowFailure("immediate", rowID, string(service), wrapped)
		return wrapped
	}
	if !rule.Enabled {
		return nil
	}

	if err := f.dispatcher.Send(ctx, service, KindImmediate, snap); err != nil {
		f.log.FlowFailure("immediate", rowID, string(service), err)
		return err
	}
	return nil
}

// scheduleReminders evaluates both reminder kinds independently. Reminders
// whose fire time is not strictly in the future are never scheduled and never
// backfilled. Scheduling problems are logged but do not fail the flow once the
// immediate email has been handled.
func (f *Flow) scheduleReminders(ctx context.Context, rowID int64, service Service, snap RowSnapshot) {
	if snap.EvalDate == "" || snap.EvalTime == "" {
		return
	}

	evalAt, err := f.parseEvalInstant(snap.EvalDate, snap.EvalTime)
	if err != nil {
		f.log.Warn("evaluation datetime not parsable, skipping reminders",
			"row_id", rowID,
			"service", string(service),
			"eval_date", snap.EvalDate,
			"eval_time", snap.EvalTime,
		)
		return
	}

	now := f.now()
	for _, kind := range ReminderKinds {
		rule, err := f.settings.Rule(ctx, service, kind)
		if err != nil {
			f.log.FlowFailure("schedule", rowID, string(service), err)
			continue
		}
		if !rule.Enabled {
			continue
		}

		fireAt := evalAt.Add(-kind.Offset())
		if !fireAt.After(now) {
			continue
		}

		if err := f.scheduler.ScheduleReminder(ctx, rowID, service, kind, fireAt); err != nil {
			f.log.FlowFailure("schedule", rowID, string(service), err)
			continue
		}

		f.log.Info("reminder scheduled",
			"row_id", rowID,
			"service", string(service),
			"kind", string(kind),
			"fire_at", fireAt,
		)
	}
}

// parseEvalInstant concatenates date and time with a single space and parses
// the result in the configured time zone.
func (f *Flow) parseEvalInstant(evalDate, evalTime string) (time.Time, error) {
	combined := strings.TrimSpace(evalDate) + " " + strings.TrimSpace(evalTime)

	var lastErr error
	for _, layout := range evalDateTimeLayouts {
		parsed, err := time.ParseInLocation(layout, combined, f.loc)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
