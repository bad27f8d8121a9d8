package app

import "sync"

// Runtime holds the mutable service flags that used to live as ambient
// globals: the maintenance switch and the queue worker liveness marker.
// All access goes through the accessors below.
type Runtime struct {
	mu            sync.Mutex
	maintenance   bool
	workerRunning bool
}

func NewRuntime() *Runtime {
	return &Runtime{}
}

func (r *Runtime) SetMaintenance(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maintenance = on
}

func (r *Runtime) Maintenance() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maintenance
}

// MarkWorkerRunning flips the worker flag on and reports whether the caller
// won the flag. A second worker must not start while one is alive.
func (r *Runtime) MarkWorkerRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.workerRunning {
		return false
	}
	r.workerRunning = true
	return true
}

func (r *Runtime) MarkWorkerStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workerRunning = false
}

func (r *Runtime) WorkerRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.workerRunning
}
