package display

import "sync"

// Recorder keeps everything a flow sent to it.
type Recorder struct {
	mu       sync.Mutex
	statuses []string
	frames   []string
	final    string
	plain    string
	failure  string
	done     bool
}

func (r *Recorder) Status(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, msg)
}

func (r *Recorder) Update(html string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, html)
}

func (r *Recorder) Done(html, plain string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.final, r.plain, r.done = html, plain, true
}

func (r *Recorder) Fail(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure = msg
}

// Statuses returns the status messages in order.
func (r *Recorder) Statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statuses...)
}

// Frames returns every HTML update in order.
func (r *Recorder) Frames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

// Final returns the HTML and plain text passed to Done, and whether Done
// was called.
func (r *Recorder) Final() (html, plain string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.final, r.plain, r.done
}

// Failure returns the last message passed to Fail.
func (r *Recorder) Failure() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}
