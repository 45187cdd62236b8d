package scheduler

import (
	"context"
	"fmt"

	"evalnotify_backend/internal/notify"
	"evalnotify_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker executes fired reminder jobs. The reminder re-entry path re-fetches
// the row fresh and dispatches directly; it does not re-run classification or
// re-check reminder eligibility. A row that changed, lost its data, or lost
// its credentials since scheduling simply fails here and is logged.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	fetcher    notify.RowFetcher
	dispatcher *notify.Dispatcher
	log        *logger.Logger
}

func NewWorker(redisURL string, tlsInsecure bool, queue string, concurrency int, fetcher notify.RowFetcher, dispatcher *notify.Dispatcher, log *logger.Logger) (*Worker, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, tlsInsecure)
	if err != nil {
		return nil, err
	}

	if queue == "" {
		queue = "default"
	}
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		log:        log,
	}

	mux.HandleFunc(TaskEvaluationReminder, w.handleEvaluationReminder)

	return w, nil
}

func (w *Worker) handleEvaluationReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseEvaluationReminderPayload(task)
	if err != nil {
		w.log.Error("reminder payload unparsable", "error", err)
		return nil
	}

	service := notify.Service(payload.Service)
	kind := notify.EmailKind(payload.Kind)

	snap, err := w.fetcher.Fetch(ctx, payload.RowID)
	if err != nil {
		w.log.FlowFailure("reminder_fetch", payload.RowID, payload.Service, err)
		return nil
	}

	if err := w.dispatcher.Send(ctx, service, kind, snap); err != nil {
		w.log.FlowFailure("reminder_send", payload.RowID, payload.Service, err)
		return nil
	}

	w.log.Info("reminder dispatched", "row_id", payload.RowID, "service", payload.Service, "kind", payload.Kind)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
