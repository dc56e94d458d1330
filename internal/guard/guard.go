// internal/guard/guard.go
//
// Session guard: the device-local access gate.
//
/*
Context
--------
The guard is a finite-state machine with three states and three external
triggers.  States:

	Checking         – initial: decide whether a stored secret still works.
	Ready            – normal operation; the shared instance record is set
	                   (or deliberately empty after a transport failure).
	Reauthenticating – overlay entered from Ready when the stored secret
	                   has been cleared out from under us.

Triggers: the initial load, a recurring timer tick, and a keystore
removal notification.  All three feed the same transition logic inside a
single event-loop goroutine, so no two validation calls are ever in
flight at once and no locking is needed around the shared record.

Two deliberate asymmetries:

  - A transport failure during the initial check degrades to Ready with
    no instance populated rather than stranding the user on a loading
    screen.  An explicit rejection, by contrast, clears the stored secret
    and ends the session.
  - A rejected secret during reauthentication keeps the prompt open and
    reports nothing.

The guard never prompts before the first successful validation of the
session; without that gate a slow first check plus an empty keystore
would prompt the user before they ever got in.
*/
package guard

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pursuithq/pursuit/internal/client"
	"github.com/pursuithq/pursuit/internal/instance"
)

// State enumerates the guard's phases.
type State int

const (
	StateChecking State = iota
	StateReady
	StateReauthenticating
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateReady:
		return "ready"
	case StateReauthenticating:
		return "reauthenticating"
	default:
		return "unknown"
	}
}

// ErrRegistrationRequired is the terminal outcome: there is no usable
// secret on this device, and the user must go through registration.
var ErrRegistrationRequired = errors.New("no usable secret; registration required")

// Validator is the slice of the API client the guard needs.
type Validator interface {
	Validate(ctx context.Context, secret string) (*instance.Instance, error)
}

// Keystore is the device-local secret storage the guard drives.
type Keystore interface {
	Load() (secret string, ok bool, err error)
	Save(secret string) error
	Clear() error
}

// Prompter collects a secret from the user during reauthentication.
// ok == false means the user cancelled.
type Prompter interface {
	PromptSecret(ctx context.Context) (secret string, ok bool, err error)
}

// Guard holds the machine.  Not safe for concurrent use; Run owns it.
type Guard struct {
	api      Validator
	store    Keystore
	prompt   Prompter
	log      *zap.SugaredLogger
	interval time.Duration

	state         State
	inst          *instance.Instance
	validatedOnce bool
}

// New wires a Guard.  interval is the recheck period; a nil logger falls
// back to the global.
func New(api Validator, store Keystore, prompt Prompter, interval time.Duration, log *zap.SugaredLogger) *Guard {
	if log == nil {
		log = zap.S()
	}
	return &Guard{
		api:      api,
		store:    store,
		prompt:   prompt,
		log:      log,
		interval: interval,
		state:    StateChecking,
	}
}

// State returns the current machine state.
func (g *Guard) State() State { return g.state }

// Instance returns the shared instance record, nil when unpopulated.
func (g *Guard) Instance() *instance.Instance { return g.inst }

// SetInstance lets consumers (the settings flow) refresh the shared
// record after a profile update.
func (g *Guard) SetInstance(inst *instance.Instance) { g.inst = inst }

// Run performs the initial check, then services tick and removal
// triggers until ctx is cancelled or registration becomes required.
// removals is typically keystore.Watch's channel; nil is allowed and
// leaves the timer as the only recheck path.
func (g *Guard) Run(ctx context.Context, removals <-chan struct{}) error {
	if err := g.check(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.recheck(ctx); err != nil {
				return err
			}
		case _, open := <-removals:
			if !open {
				removals = nil // watcher gone; timer still covers us
				continue
			}
			if err := g.recheck(ctx); err != nil {
				return err
			}
		}
	}
}

// check is the initial transition out of Checking.
func (g *Guard) check(ctx context.Context) error {
	sec, ok, err := g.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		return ErrRegistrationRequired
	}

	inst, err := g.api.Validate(ctx, sec)
	switch {
	case err == nil:
		g.inst = inst
		g.validatedOnce = true
		g.state = StateReady
		g.log.Infow("session validated", "name", inst.Name)
		return nil
	case client.IsTransport(err):
		// Degraded but available: a transient network issue must not
		// strand the user on a loading screen forever.
		g.state = StateReady
		g.log.Warnw("validation unreachable, continuing without instance", "err", err)
		return nil
	default:
		// Explicit rejection: the stored secret is dead.
		if cerr := g.store.Clear(); cerr != nil {
			g.log.Warnw("keystore clear failed", "err", cerr)
		}
		return ErrRegistrationRequired
	}
}

// recheck handles both recurring triggers.  It is a no-op unless the
// machine is Ready and at least one validation has succeeded; redundant
// triggers while already prompting fall through here harmlessly.
func (g *Guard) recheck(ctx context.Context) error {
	if g.state != StateReady || !g.validatedOnce {
		return nil
	}

	_, ok, err := g.store.Load()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return g.reauth(ctx)
}

// reauth runs the synchronous re-entry prompt until the user supplies a
// working secret or cancels.  A rejected or unreachable attempt keeps
// the prompt open and reports nothing beyond a debug log line.
func (g *Guard) reauth(ctx context.Context) error {
	g.state = StateReauthenticating
	g.log.Infow("stored secret cleared, prompting for re-entry")

	for {
		sec, ok, err := g.prompt.PromptSecret(ctx)
		if err != nil {
			return err
		}
		if !ok {
			if cerr := g.store.Clear(); cerr != nil {
				g.log.Warnw("keystore clear failed", "err", cerr)
			}
			return ErrRegistrationRequired
		}
		if sec == "" {
			continue
		}

		inst, err := g.api.Validate(ctx, sec)
		if err != nil {
			g.log.Debugw("re-entry attempt failed", "err", err)
			continue
		}

		if err := g.store.Save(sec); err != nil {
			return err
		}
		g.inst = inst
		g.state = StateReady
		g.log.Infow("session re-established", "name", inst.Name)
		return nil
	}
}
