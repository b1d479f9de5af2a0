package journey

import (
	"sync"
)

// consentKey is the persisted consent flag, mirroring the
// `journey-consent=true|false` cookie of the browser SDKs.
const consentKey = "journey-consent"

// ConsentState models the privacy gate's state machine.
type ConsentState int

const (
	// ConsentUninitialized means no consent signal has been recorded yet.
	ConsentUninitialized ConsentState = iota
	// ConsentActive means tracking is permitted.
	ConsentActive
	// ConsentDisabled means tracking is denied (explicit refusal or
	// Do-Not-Track). No events are collected in this state.
	ConsentDisabled
)

func (s ConsentState) String() string {
	switch s {
	case ConsentActive:
		return "active"
	case ConsentDisabled:
		return "disabled"
	default:
		return "uninitialized"
	}
}

// ConsentGate is the privacy-compliance checkpoint in front of the collector.
// It resolves its initial state once at construction from the Do-Not-Track
// signal and the persisted consent flag; afterwards it only changes via
// explicit Grant/Revoke calls. Once disabled, granting consent re-enables
// collection from that point forward only; nothing is captured retroactively.
type ConsentGate struct {
	mu    sync.RWMutex
	state ConsentState
	store Store
}

// NewConsentGate builds a gate over the given store. doNotTrack reflects the
// host environment's DNT signal and wins over any stored grant. When no
// signal exists at all, requireConsent decides whether the gate starts
// uninitialized (opt-in) or active (opt-out).
func NewConsentGate(store Store, doNotTrack, requireConsent bool) *ConsentGate {
	g := &ConsentGate{store: store}

	switch {
	case doNotTrack:
		g.state = ConsentDisabled
	default:
		if stored, ok := store.Get(consentKey); ok {
			if stored == "true" {
				g.state = ConsentActive
			} else {
				g.state = ConsentDisabled
			}
		} else if requireConsent {
			g.state = ConsentUninitialized
		} else {
			g.state = ConsentActive
		}
	}

	return g
}

// State returns the current gate state.
func (g *ConsentGate) State() ConsentState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Allows reports whether event collection may proceed.
func (g *ConsentGate) Allows() bool {
	return g.State() == ConsentActive
}

// Grant records consent and activates collection.
func (g *ConsentGate) Grant() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = ConsentActive
	g.store.Set(consentKey, "true")
}

// Revoke records refusal and disables collection.
func (g *ConsentGate) Revoke() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = ConsentDisabled
	g.store.Set(consentKey, "false")
}
