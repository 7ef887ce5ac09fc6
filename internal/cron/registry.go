package cron

import "context"

// Job is one unit of scheduled work, e.g. the subscription reconcile sweep.
// Run must honor ctx cancellation so worker shutdown is not held up by a
// slow Stripe page.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs the worker ticks through each interval, in
// registration order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry from the given jobs, dropping nil entries so
// conditionally-wired jobs can be passed straight through.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job; nil jobs are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
