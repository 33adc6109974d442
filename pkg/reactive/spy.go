package reactive

import "time"

// EventKind identifies the type of a spy event.
type EventKind int

const (
	// EventChange is reported after a committed add, update or remove.
	EventChange EventKind = iota + 1

	// EventVeto is reported when an interceptor cancels a pending change.
	EventVeto

	// EventTransactionStart is reported when Transaction or TxNamed opens.
	EventTransactionStart

	// EventTransactionEnd is reported when Transaction or TxNamed closes.
	// Depth is the nesting depth after closing, so 0 marks the outermost.
	EventTransactionEnd

	// EventReactionStart is reported before a reaction runs.
	EventReactionStart

	// EventReactionEnd is reported after a reaction ran.
	EventReactionEnd
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventChange:
		return "change"
	case EventVeto:
		return "veto"
	case EventTransactionStart:
		return "transaction-start"
	case EventTransactionEnd:
		return "transaction-end"
	case EventReactionStart:
		return "reaction-start"
	case EventReactionEnd:
		return "reaction-end"
	default:
		return "unknown"
	}
}

// Event describes something observable happening inside a Runtime.
type Event struct {
	Kind EventKind

	// Object is the administration name for change and veto events.
	Object string

	// Change is set for change and veto events.
	Change *Change

	// Name is the transaction or reaction name.
	Name string

	// Depth is the batch depth for transaction events.
	Depth int

	// Duration and Err are set for EventReactionEnd.
	Duration time.Duration
	Err      error
}

// Spy receives diagnostic events from a Runtime. Implementations must not
// mutate reactive state from SpyEvent.
type Spy interface {
	SpyEvent(ev Event)
}

// SpyFunc adapts a function to the Spy interface.
type SpyFunc func(ev Event)

// SpyEvent implements Spy.
func (f SpyFunc) SpyEvent(ev Event) { f(ev) }

// MultiSpy fans events out to several spies in order. Nil spies are
// skipped; with none left it returns nil.
func MultiSpy(spies ...Spy) Spy {
	list := make([]Spy, 0, len(spies))
	for _, s := range spies {
		if s != nil {
			list = append(list, s)
		}
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return multiSpy(list)
}

type multiSpy []Spy

func (m multiSpy) SpyEvent(ev Event) {
	for _, s := range m {
		s.SpyEvent(ev)
	}
}
