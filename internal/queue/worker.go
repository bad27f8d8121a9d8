// Package queue drains finalized orders from the durable queue into the
// external ledger under bounded retry.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/Possessed66/BotLMKRD/app"
	"github.com/Possessed66/BotLMKRD/internal/ledger"
	"github.com/Possessed66/BotLMKRD/internal/model"
	"github.com/Possessed66/BotLMKRD/internal/notify"
	"github.com/Possessed66/BotLMKRD/internal/store"

	"github.com/sirupsen/logrus"
)

// Worker is the single background drainer. Entries of one batch are written
// strictly one after another; the ledger is rate limited and must not see
// parallel writes from this process.
type Worker struct {
	store   *store.QueueStore
	ledger  ledger.Ledger
	ops     notify.Escalator
	runtime *app.Runtime

	batchSize  int
	idleDelay  time.Duration
	batchDelay time.Duration
	crashDelay time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewWorker(queueStore *store.QueueStore, led ledger.Ledger, ops notify.Escalator, runtime *app.Runtime, cfg app.QueueConfig) *Worker {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	idle := cfg.IdleDelay
	if idle <= 0 {
		idle = 120 * time.Second
	}
	batch := cfg.BatchDelay
	if batch <= 0 {
		batch = time.Second
	}
	return &Worker{
		store:      queueStore,
		ledger:     led,
		ops:        ops,
		runtime:    runtime,
		batchSize:  batchSize,
		idleDelay:  idle,
		batchDelay: batch,
		crashDelay: 10 * time.Second,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

func (w *Worker) Start() {
	if !w.runtime.MarkWorkerRunning() {
		logrus.Warn("Queue worker is already running")
		return
	}
	logrus.Info("Starting order queue worker...")
	go w.loop()
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *Worker) loop() {
	defer close(w.doneCh)
	defer w.runtime.MarkWorkerStopped()

	for {
		select {
		case <-w.stopCh:
			logrus.Info("Stopping order queue worker...")
			return
		default:
		}

		pause := w.runCycle()

		select {
		case <-w.stopCh:
			logrus.Info("Stopping order queue worker...")
			return
		case <-time.After(pause):
		}
	}
}

// runCycle claims one batch and processes it, reporting how long to pause
// before the next cycle. Panics are contained here: the worker logs them and
// comes back after a short delay, it never dies with the process still up.
func (w *Worker) runCycle() (pause time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Queue worker cycle panicked: %v", r)
			pause = w.crashDelay
		}
	}()

	ctx := context.Background()

	entries, err := w.store.ClaimBatch(ctx, w.batchSize)
	if err != nil {
		logrus.WithError(err).Error("Failed to claim queue batch")
		return w.crashDelay
	}
	if len(entries) == 0 {
		return w.idleDelay
	}

	logrus.WithField("count", len(entries)).Info("Processing order queue batch")
	for _, entry := range entries {
		w.process(ctx, entry)
	}
	return w.batchDelay
}

func (w *Worker) process(ctx context.Context, entry model.QueueEntry) {
	if err := w.store.UpdateStatus(ctx, entry.ID, model.EntryProcessing, ""); err != nil {
		logrus.WithError(err).WithField("entry_id", entry.ID).Error("Failed to mark entry processing")
		return
	}

	logrus.WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"user_id":  entry.UserID,
		"attempt":  entry.AttemptCount + 1,
	}).Info("Writing order to ledger")

	err := w.ledger.Append(ctx, entry.Payload)
	if err == nil {
		if uerr := w.store.UpdateStatus(ctx, entry.ID, model.EntryCompleted, ""); uerr != nil {
			logrus.WithError(uerr).WithField("entry_id", entry.ID).Error("Failed to mark entry completed")
		}
		return
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"entry_id": entry.ID,
		"user_id":  entry.UserID,
	}).Error("Ledger write failed")

	if ledger.IsPermanent(err) {
		if uerr := w.store.FailTerminally(ctx, entry.ID, err.Error()); uerr != nil {
			logrus.WithError(uerr).WithField("entry_id", entry.ID).Error("Failed to mark entry terminally failed")
			return
		}
		w.escalate(ctx, entry, err)
		return
	}

	if uerr := w.store.UpdateStatus(ctx, entry.ID, model.EntryFailed, err.Error()); uerr != nil {
		logrus.WithError(uerr).WithField("entry_id", entry.ID).Error("Failed to mark entry failed")
		return
	}

	// This failure consumed the last attempt: escalate exactly once, on the
	// transition into the terminal state.
	if entry.AttemptCount+1 >= w.store.MaxAttempts() {
		w.escalate(ctx, entry, err)
	}
}

func (w *Worker) escalate(ctx context.Context, entry model.QueueEntry, cause error) {
	summary := payloadSummary(entry.Payload)
	w.ops.Escalate(ctx, fmt.Sprintf(
		"🚨 Order permanently failed to reach the ledger!\n"+
			"• Entry ID: %d\n"+
			"• User: %d\n"+
			"• Item: %s\n"+
			"• Location: %s\n"+
			"• Error: %s",
		entry.ID, entry.UserID, summary.ItemRef, summary.Location, truncate(cause.Error(), 300),
	))
}

func payloadSummary(payload []byte) model.OrderPayload {
	order, err := model.ParseOrderPayload(payload)
	if err != nil {
		return model.OrderPayload{ItemRef: "N/A", Location: "N/A"}
	}
	return order
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
