package sculpt

import (
	"context"
	"errors"
	"fmt"
)

// ErrJobCanceled is reported by a Job whose extraction was canceled before
// it completed.
var ErrJobCanceled = errors.New("sculpt: extraction canceled")

// Status describes the state of an asynchronous extraction.
type Status int

const (
	// StatusPending means the extraction has not completed yet.
	StatusPending Status = iota

	// StatusReady means the mesh is available via Result.
	StatusReady

	// StatusFailed means the extraction ended with an error.
	StatusFailed
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReady:
		return "Ready"
	case StatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Job is a handle to one in-flight extraction. Each job owns its run state
// exclusively: canceling or abandoning a job never touches another job's
// buffers. A Job is created by Extractor.Submit and remains valid after
// completion.
type Job struct {
	cancel context.CancelFunc
	done   chan struct{}

	// Written once before done is closed, read-only afterwards.
	mesh *Mesh
	err  error
}

// Submit starts an asynchronous extraction and returns immediately.
//
// The density field is copied, so the caller may reuse its slice right
// away. Completion is observed through Poll, Wait, or Result.
func (e *Extractor) Submit(field []float32, size GridSize) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	owned := make([]float32, len(field))
	copy(owned, field)

	go func() {
		defer close(j.done)
		defer cancel()
		mesh, err := e.extract(ctx, owned, size)
		if errors.Is(err, context.Canceled) {
			err = ErrJobCanceled
		}
		j.mesh, j.err = mesh, err
	}()
	return j
}

// Poll reports the job's current state without blocking.
func (j *Job) Poll() Status {
	select {
	case <-j.done:
		if j.err != nil {
			return StatusFailed
		}
		return StatusReady
	default:
		return StatusPending
	}
}

// Wait blocks until the extraction completes or ctx is done. On ctx
// expiry the job keeps running; use Cancel to abandon it.
func (j *Job) Wait(ctx context.Context) (*Mesh, error) {
	select {
	case <-j.done:
		return j.mesh, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the finished mesh or error.
// It must only be called once Poll reports Ready or Failed (or after Wait
// returned); calling it on a pending job blocks until completion.
func (j *Job) Result() (*Mesh, error) {
	<-j.done
	return j.mesh, j.err
}

// Cancel abandons the extraction. The pipeline stops at the next stage
// boundary and the job's run state is released; already-completed jobs are
// unaffected. Cancel is safe to call multiple times.
func (j *Job) Cancel() {
	j.cancel()
}
