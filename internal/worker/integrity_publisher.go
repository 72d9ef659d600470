package worker

import (
	"context"
	"encoding/json"

	"github.com/srbmarine/exam-portal/internal/model"
)

// IntegrityPublisher queues guard decisions for the IntegrityWorker. It
// implements exam.Recorder.
type IntegrityPublisher struct {
	queue Queue
}

func NewIntegrityPublisher(queue Queue) *IntegrityPublisher {
	return &IntegrityPublisher{queue: queue}
}

func (p *IntegrityPublisher) Record(ctx context.Context, evt model.IntegrityEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.queue.Push(ctx, data)
}
