package fsm

import (
	"fmt"

	"spacesBack/internal/models"
)

// Actor is the party requesting a transition.
type Actor string

const (
	ActorHost   Actor = "host"
	ActorGuest  Actor = "guest"
	ActorSystem Actor = "system"
)

// transitions lists, for each status, the allowed targets and who may apply them.
var transitions = map[models.QuoteStatus]map[models.QuoteStatus]Actor{
	models.QuoteSent: {
		models.QuoteViewed:   ActorGuest,
		models.QuoteModified: ActorHost,
		models.QuoteExpired:  ActorSystem,
	},
	models.QuoteViewed: {
		models.QuoteModified: ActorHost,
		models.QuoteAccepted: ActorGuest,
		models.QuoteRejected: ActorGuest,
	},
	models.QuoteModified: {
		models.QuoteSent: ActorHost,
	},
	models.QuoteAccepted: {},
	models.QuoteRejected: {},
	models.QuoteExpired:  {},
}

// Check validates a transition for actor. It returns models.ErrInvalidTransition
// for edges outside the graph and models.ErrForbidden for the wrong actor.
func Check(from, to models.QuoteStatus, actor Actor) error {
	owner, ok := transitions[from][to]
	if !ok {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}
	if owner != actor {
		return fmt.Errorf("%w: %s may not move a quote %s -> %s", models.ErrForbidden, actor, from, to)
	}
	return nil
}

// Terminal reports whether no transition leaves s.
func Terminal(s models.QuoteStatus) bool {
	return len(transitions[s]) == 0
}
