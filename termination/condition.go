package termination

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/BaSui01/roundtable/types"
)

// Kind tags a termination variant.
type Kind string

const (
	KindTextMention Kind = "text_mention"
	KindExternal    Kind = "external"
	KindMaxTurns    Kind = "max_turns"
	KindSourceMatch Kind = "source_match"
	KindTimeout     Kind = "timeout"
	KindFunc        Kind = "func"
	KindAnd         Kind = "and"
	KindOr          Kind = "or"
)

// Condition decides, after each produced message, whether the run must stop.
//
// Evaluate is called exactly once per produced message, in order. Calling it
// again after it returned true is undefined; the scheduler never does.
type Condition interface {
	Kind() Kind
	Evaluate(msg types.Message) bool
	Fired() bool
	// Reason explains why the condition fired. Empty until then.
	Reason() string
	Reset()

	sealed()
}

// latch holds the fired flag shared by every variant. Fired may be read from
// any goroutine.
type latch struct {
	fired  atomic.Bool
	mu     sync.Mutex
	reason string
}

func (l *latch) fire(reason string) bool {
	l.mu.Lock()
	l.reason = reason
	l.mu.Unlock()
	l.fired.Store(true)
	return true
}

func (l *latch) clear() {
	l.mu.Lock()
	l.reason = ""
	l.mu.Unlock()
	l.fired.Store(false)
}

// Fired reports whether the condition has fired since the last reset.
func (l *latch) Fired() bool {
	return l.fired.Load()
}

// Reason returns the explanation recorded when the condition fired.
func (l *latch) Reason() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason
}

func (*latch) sealed() {}

// Describe renders a condition tree, e.g. `Or(TextMention("APPROVE"), MaxTurns(10))`.
func Describe(c Condition) string {
	switch v := c.(type) {
	case nil:
		return "None"
	case *TextMention:
		if len(v.sources) == 0 {
			return fmt.Sprintf("TextMention(%q)", v.marker)
		}
		return fmt.Sprintf("TextMention(%q, sources=%s)", v.marker, strings.Join(sortedKeys(v.sources), ","))
	case *External:
		return "External"
	case *MaxTurns:
		return fmt.Sprintf("MaxTurns(%d)", v.max)
	case *SourceMatch:
		return fmt.Sprintf("SourceMatch(%s)", strings.Join(sortedKeys(v.sources), ","))
	case *Timeout:
		return fmt.Sprintf("Timeout(%s)", v.limit)
	case *Func:
		return fmt.Sprintf("Func(%s)", v.name)
	case *And:
		return "And(" + describeAll(v.children) + ")"
	case *Or:
		return "Or(" + describeAll(v.children) + ")"
	default:
		return string(c.Kind())
	}
}

func describeAll(children []Condition) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = Describe(c)
	}
	return strings.Join(parts, ", ")
}
