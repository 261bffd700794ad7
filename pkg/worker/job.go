package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Job is the payload stored on the queue list.
type Job struct {
	ID         string          `json:"id"`
	Function   string          `json:"function"`
	Args       json.RawMessage `json:"args,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Result is what a worker stores after running a job, kept for the
// configured result TTL.
type Result struct {
	JobID      string          `json:"job_id"`
	Ok         bool            `json:"ok"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	FinishedAt time.Time       `json:"finished_at"`
}

func (j *Job) encode() ([]byte, error) {
	return json.Marshal(j)
}

func decodeJob(raw []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}
	if j.Function == "" {
		return nil, errors.New("decode job payload: missing function name")
	}
	return &j, nil
}
