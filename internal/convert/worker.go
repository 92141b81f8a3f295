package convert

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrWorkerClosed = errors.New("worker closed")

// A conversion request. Token is chosen by the caller and echoed on the
// Outcome so stale responses can be told apart.
type Job struct {
	Token   uint64
	Pixels  []byte
	Width   int
	Height  int
	Options Options

	reply chan Outcome
}

type Outcome struct {
	Token  uint64
	Result *Result
	Err    error
}

// Worker runs conversions one at a time in submission order.
type Worker struct {
	logger  *slog.Logger
	jobs    chan Job
	results chan Outcome
	done    chan struct{}
	once    sync.Once
}

func NewWorker(logger *slog.Logger, queue int) *Worker {
	return &Worker{
		logger:  logger,
		jobs:    make(chan Job, queue),
		results: make(chan Outcome, queue),
		done:    make(chan struct{}),
	}
}

// Outcomes of jobs queued with Submit.
func (w *Worker) Results() <-chan Outcome {
	return w.results
}

func (w *Worker) Close() {
	w.once.Do(func() {
		close(w.done)
	})
}

// Queues a job. Its outcome is delivered on Results.
func (w *Worker) Submit(ctx context.Context, j Job) error {
	j.reply = nil
	return w.enqueue(ctx, j)
}

// Queues a job and waits for its outcome.
func (w *Worker) Do(ctx context.Context, j Job) (Outcome, error) {
	j.reply = make(chan Outcome, 1)
	if err := w.enqueue(ctx, j); err != nil {
		return Outcome{}, err
	}
	select {
	case o := <-j.reply:
		return o, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-w.done:
		return Outcome{}, ErrWorkerClosed
	}
}

func (w *Worker) enqueue(ctx context.Context, j Job) error {
	select {
	case <-w.done:
		return ErrWorkerClosed
	default:
	}
	select {
	case w.jobs <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.done:
		return ErrWorkerClosed
	}
}

// Processes jobs until ctx is cancelled or the worker is closed.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("Worker: waiting for conversions")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker: stopping", "reason", ctx.Err())
			return
		case <-w.done:
			w.logger.Info("Worker: closed")
			return
		case j := <-w.jobs:
			w.logger.Debug("Worker: converting",
				"token", j.Token,
				"width", j.Width,
				"height", j.Height,
				"mode", j.Options.Mode,
			)
			r, err := Run(j.Pixels, j.Width, j.Height, j.Options)
			if err != nil {
				w.logger.Warn("Worker: conversion rejected", "token", j.Token, "err", err)
			}
			w.deliver(ctx, j, Outcome{Token: j.Token, Result: r, Err: err})
		}
	}
}

func (w *Worker) deliver(ctx context.Context, j Job, o Outcome) {
	if j.reply != nil {
		j.reply <- o
		return
	}
	select {
	case w.results <- o:
	case <-ctx.Done():
	case <-w.done:
	}
}
