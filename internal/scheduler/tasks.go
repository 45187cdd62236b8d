package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEvaluationReminder = "notifications.evaluation_reminder"

// EvaluationReminderPayload binds the arguments of a deferred reminder at
// schedule time. They are not re-evaluated when the job fires.
type EvaluationReminderPayload struct {
	RowID   int64  `json:"rowId"`
	Service string `json:"service"`
	Kind    string `json:"kind"`
}

func NewEvaluationReminderTask(payload EvaluationReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// Single-shot: a failed reminder is logged and dropped, never retried.
	return asynq.NewTask(TaskEvaluationReminder, data, asynq.MaxRetry(0)), nil
}

func ParseEvaluationReminderPayload(task *asynq.Task) (EvaluationReminderPayload, error) {
	var payload EvaluationReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EvaluationReminderPayload{}, err
	}
	return payload, nil
}
