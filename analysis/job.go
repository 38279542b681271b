package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rustyeddy/forexai/market"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoFile   = errors.New("no chart selected")
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("file is too large")
	ErrBusy     = errors.New("analysis in progress")
	ErrState    = errors.New("analysis cannot start")
)

type State string

const (
	Idle      State = "idle"
	Selected  State = "selected"
	Analyzing State = "analyzing"
	Complete  State = "complete"
	Failed    State = "failed"
)

type Options struct {
	Pair      string           `json:"pair"`
	Timeframe market.Timeframe `json:"timeframe"`
	Depth     Depth            `json:"depth"`
}

func DefaultOptions() Options {
	return Options{Pair: "EUR/USD", Timeframe: market.H1, Depth: Comprehensive}
}

// Validate checks the options against the upload pairs and returns the
// instrument they select.
func (o Options) Validate() (market.Instrument, error) {
	_, in, err := o.Normalize()
	return in, err
}

// Normalize validates o and returns it in canonical form: the catalogue
// symbol, an upper-case timeframe and the default depth when none is set.
func (o Options) Normalize() (Options, market.Instrument, error) {
	in, err := market.Lookup(o.Pair)
	if err != nil {
		return Options{}, market.Instrument{}, err
	}
	if in.IsStock() {
		return Options{}, market.Instrument{}, fmt.Errorf("%s is not a forex pair", in.Symbol)
	}
	tf, err := market.ParseTimeframe(string(o.Timeframe))
	if err != nil {
		return Options{}, market.Instrument{}, err
	}
	d, err := ParseDepth(string(o.Depth))
	if err != nil {
		return Options{}, market.Instrument{}, err
	}
	return Options{Pair: in.Symbol, Timeframe: tf, Depth: d}, in, nil
}

type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

type file struct {
	FileInfo
	data []byte
}

// Snapshot is the view of a job returned to the browser.
type Snapshot struct {
	State   State     `json:"state"`
	File    *FileInfo `json:"file,omitempty"`
	Options Options   `json:"options"`
	Result  *Result   `json:"result,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Job is one session's upload and analysis workflow:
// idle → selected → analyzing → complete.
type Job struct {
	runner *Runner
	uid    string

	mu     sync.Mutex
	src    Source
	state  State
	file   *file
	opts   Options
	result *Result
	err    error
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func NewJob(r *Runner, uid string) *Job {
	return &Job{runner: r, uid: uid, state: Idle, opts: DefaultOptions()}
}

// Select stores a chart image. The content type is sniffed from the data;
// only image types are accepted.
func (j *Job) Select(name string, data []byte) error {
	if len(data) == 0 {
		return ErrNoFile
	}
	if limit := j.runner.cfg.MaxUpload; limit > 0 && int64(len(data)) > limit {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), limit)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: %s", ErrNotImage, ct)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == Analyzing {
		return ErrBusy
	}
	j.file = &file{FileInfo: FileInfo{Name: name, ContentType: ct, Size: int64(len(data))}, data: data}
	j.state = Selected
	j.result, j.err = nil, nil
	return nil
}

// UseSource makes later analyses read from src, typically the session's
// own dashboard board. A nil src restores the runner's default.
func (j *Job) UseSource(src Source) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.src = src
}

// Remove discards the file, any result and any pending analysis.
func (j *Job) Remove() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopLocked()
	j.file, j.result, j.err = nil, nil, nil
	j.state = Idle
}

func (j *Job) SetOptions(o Options) error {
	o, _, err := o.Normalize()
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == Analyzing {
		return ErrBusy
	}
	j.opts = o
	return nil
}

// Start begins analyzing the selected file. The analysis completes after
// the depth's delay unless ctx ends or Cancel is called first, in which
// case the result is dropped and the job returns to selected.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	switch j.state {
	case Selected:
	case Idle:
		return ErrNoFile
	case Analyzing:
		return ErrBusy
	default:
		return fmt.Errorf("%w from %s", ErrState, j.state)
	}
	in, err := j.opts.Validate()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	j.gen++
	j.cancel = cancel
	j.done = make(chan struct{})
	j.state = Analyzing
	go j.run(ctx, j.gen, j.src, in, j.opts, j.file.Name, j.done)
	return nil
}

func (j *Job) run(ctx context.Context, gen uint64, src Source, in market.Instrument, opts Options, image string, done chan struct{}) {
	defer close(done)
	res, err := j.runner.RunFrom(ctx, src, in, opts)

	j.mu.Lock()
	if gen != j.gen {
		j.mu.Unlock()
		return
	}
	cancelled := ctx.Err() != nil
	j.cancel()
	j.cancel = nil
	switch {
	case cancelled:
		j.state = Selected
	case err != nil:
		j.state, j.err = Failed, err
	default:
		j.state, j.result = Complete, &res
	}
	complete := j.state == Complete
	j.mu.Unlock()

	if complete {
		j.runner.log.WithFields(logrus.Fields{
			"pair":           res.Pair,
			"depth":          res.Depth,
			"recommendation": res.Recommendation,
			"confidence":     res.Confidence,
		}).Info("analysis complete")
		j.runner.record(j.uid, image, res)
	} else if err != nil && !cancelled {
		j.runner.log.WithError(err).Warn("analysis failed")
	}
}

// Cancel abandons a pending analysis, as when the upload view goes away.
func (j *Job) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == Analyzing {
		j.stopLocked()
		j.state = Selected
	}
}

func (j *Job) stopLocked() {
	if j.cancel != nil {
		j.cancel()
		j.cancel = nil
	}
	j.gen++
}

// Wait blocks until the current analysis has finished.
func (j *Job) Wait(ctx context.Context) error {
	j.mu.Lock()
	done := j.done
	j.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Image returns the selected chart for preview.
func (j *Job) Image() (contentType string, data []byte, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return "", nil, false
	}
	return j.file.ContentType, j.file.data, true
}

func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := Snapshot{State: j.state, Options: j.opts, Result: j.result}
	if j.file != nil {
		fi := j.file.FileInfo
		s.File = &fi
	}
	if j.err != nil {
		s.Error = j.err.Error()
	}
	return s
}

// Workflows holds one Job per session.
type Workflows struct {
	runner *Runner

	mu   sync.Mutex
	jobs map[string]*Job
}

func NewWorkflows(r *Runner) *Workflows {
	return &Workflows{runner: r, jobs: make(map[string]*Job)}
}

// Get returns the job for a session, creating it on first use.
func (w *Workflows) Get(sessionID, uid string) *Job {
	w.mu.Lock()
	defer w.mu.Unlock()
	j, ok := w.jobs[sessionID]
	if !ok {
		j = NewJob(w.runner, uid)
		w.jobs[sessionID] = j
	}
	return j
}

// Cancel stops a session's pending analysis, if it has one.
func (w *Workflows) Cancel(sessionID string) {
	w.mu.Lock()
	j, ok := w.jobs[sessionID]
	w.mu.Unlock()
	if ok {
		j.Cancel()
	}
}

// Drop discards a session's job and any analysis it has pending.
func (w *Workflows) Drop(sessionID string) {
	w.mu.Lock()
	j, ok := w.jobs[sessionID]
	delete(w.jobs, sessionID)
	w.mu.Unlock()
	if ok {
		j.Remove()
	}
}

func (w *Workflows) Keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.jobs))
	for k := range w.jobs {
		out = append(out, k)
	}
	return out
}

func (w *Workflows) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.jobs)
}
