package tapedeck

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/audiolibrelab/tapedeck/config"
	"github.com/audiolibrelab/tapedeck/tape"
)

// ErrSessionConflict rejects starting a session while another one is active.
// A tape is owned by exactly one session at a time.
var ErrSessionConflict = errors.New("recorder session already active")

// State represents the recorder lifecycle.
type State string

const (
	StateIdle   State = "IDLE"
	StateActive State = "ACTIVE"
)

// session holds everything owned by one Start/Stop span.
type session struct {
	id            string
	tape          *tape.Tape
	prevTransport http.RoundTripper
}

// Recorder manages at most one active tape session: Start loads or creates
// the named tape and installs the interceptor into the bound client's
// transport chain, Stop uninstalls it and persists what was recorded.
type Recorder struct {
	mu      sync.Mutex
	cfg     *config.Settings
	client  *http.Client
	store   tape.Store
	session *session
}

// New creates a recorder bound to a client and a settings object. A nil
// client binds http.DefaultClient, which installs the interceptor for every
// default-client request in the process.
func New(cfg *config.Settings, client *http.Client) *Recorder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Recorder{
		cfg:    cfg,
		client: client,
		store:  tape.NewFileStore(cfg.Library.Root),
	}
}

// NewWithStore is New with a caller-provided tape store.
func NewWithStore(cfg *config.Settings, client *http.Client, store tape.Store) *Recorder {
	r := New(cfg, client)
	r.store = store
	return r
}

// State returns the recorder's lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		return StateActive
	}
	return StateIdle
}

// Start loads the persisted tape named name (or creates an empty one), binds
// mode, and installs the interceptor. An empty mode falls back to the
// settings' default mode. Start fails with ErrSessionConflict while a
// session is active.
func (r *Recorder) Start(name string, mode tape.Mode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		return fmt.Errorf("cannot start session %q: %w", name, ErrSessionConflict)
	}
	if mode == "" {
		mode = r.cfg.Mode()
	}
	if !mode.Valid() {
		return fmt.Errorf("cannot start session %q: unknown tape mode %q", name, mode)
	}

	t, err := r.store.Load(name, mode, r.cfg.MatchRule())
	if err != nil {
		return err
	}

	sess := &session{
		id:            uuid.NewString(),
		tape:          t,
		prevTransport: r.client.Transport,
	}
	r.client.Transport = &Transport{
		Interceptor: NewInterceptor(t),
		Base:        sess.prevTransport,
	}
	r.session = sess

	slog.Info("tape session started",
		"session", sess.id, "tape", name, "mode", string(mode), "interactions", t.Size())
	return nil
}

// Stop uninstalls the interceptor, persists the tape when the mode permits
// writes and something was recorded, and returns the recorder to Idle.
// Stopping an idle recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil {
		return nil
	}
	sess := r.session
	r.client.Transport = sess.prevTransport
	r.session = nil

	if sess.tape.Mode().Policy().Write && sess.tape.Dirty() {
		if err := r.store.Save(sess.tape); err != nil {
			return err
		}
	}

	slog.Info("tape session stopped",
		"session", sess.id, "tape", sess.tape.Name(), "interactions", sess.tape.Size())
	return nil
}

// CurrentTape returns the active session's tape for assertions, or nil when
// the recorder is idle.
func (r *Recorder) CurrentTape() *tape.Tape {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	return r.session.tape
}
