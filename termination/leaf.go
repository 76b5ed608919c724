package termination

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/BaSui01/roundtable/types"
)

// --- TextMention ---

// TextMention fires when a message's content contains marker.
type TextMention struct {
	latch
	marker  string
	sources map[string]struct{}
}

// NewTextMention creates a TextMention condition. When sources are given, only
// messages from those speakers are inspected. An empty marker never fires.
func NewTextMention(marker string, sources ...string) *TextMention {
	return &TextMention{marker: marker, sources: toSet(sources)}
}

func (c *TextMention) Kind() Kind { return KindTextMention }

func (c *TextMention) Evaluate(msg types.Message) bool {
	if c.Fired() {
		return true
	}
	if c.marker == "" || !matchSource(c.sources, msg.Speaker) {
		return false
	}
	if strings.Contains(msg.Content, c.marker) {
		return c.fire(fmt.Sprintf("text %q mentioned by %s", c.marker, msg.Speaker))
	}
	return false
}

func (c *TextMention) Reset() { c.clear() }

// --- External ---

// External fires on the first evaluation after Set was called. Set is safe to
// call from any goroutine, before or during a run.
type External struct {
	latch
	signal atomic.Bool
}

// NewExternal creates an External condition.
func NewExternal() *External {
	return &External{}
}

// Set requests termination. The run stops after the current turn completes.
func (c *External) Set() {
	c.signal.Store(true)
}

// IsSet reports whether termination has been requested.
func (c *External) IsSet() bool {
	return c.signal.Load()
}

func (c *External) Kind() Kind { return KindExternal }

func (c *External) Evaluate(types.Message) bool {
	if c.Fired() {
		return true
	}
	if c.signal.Load() {
		return c.fire("external termination requested")
	}
	return false
}

func (c *External) Reset() {
	c.signal.Store(false)
	c.clear()
}

// --- MaxTurns ---

// MaxTurns fires once the number of evaluated messages exceeds max, i.e. on
// the max+1-th produced message. The seed is never evaluated.
type MaxTurns struct {
	latch
	max   int
	count int
}

// NewMaxTurns creates a MaxTurns condition. Negative n is treated as 0.
func NewMaxTurns(n int) *MaxTurns {
	return &MaxTurns{max: max(n, 0)}
}

func (c *MaxTurns) Kind() Kind { return KindMaxTurns }

// Count returns the number of messages evaluated since the last reset.
func (c *MaxTurns) Count() int {
	return c.count
}

func (c *MaxTurns) Evaluate(types.Message) bool {
	if c.Fired() {
		return true
	}
	c.count++
	if c.count > c.max {
		return c.fire(fmt.Sprintf("maximum of %d turns exceeded (%d produced)", c.max, c.count))
	}
	return false
}

func (c *MaxTurns) Reset() {
	c.count = 0
	c.clear()
}

// --- SourceMatch ---

// SourceMatch fires when one of the named speakers produced the message.
type SourceMatch struct {
	latch
	sources map[string]struct{}
}

// NewSourceMatch creates a SourceMatch condition.
func NewSourceMatch(sources ...string) *SourceMatch {
	return &SourceMatch{sources: toSet(sources)}
}

func (c *SourceMatch) Kind() Kind { return KindSourceMatch }

func (c *SourceMatch) Evaluate(msg types.Message) bool {
	if c.Fired() {
		return true
	}
	if _, ok := c.sources[msg.Speaker]; ok {
		return c.fire(fmt.Sprintf("%s produced a message", msg.Speaker))
	}
	return false
}

func (c *SourceMatch) Reset() { c.clear() }

// --- Timeout ---

// Timeout fires on the first evaluation after limit has elapsed since the
// condition was created or last reset.
type Timeout struct {
	latch
	limit time.Duration
	now   func() time.Time
	start time.Time
}

// NewTimeout creates a Timeout condition. The clock starts now and restarts on
// Reset, which the scheduler calls when a run begins.
func NewTimeout(limit time.Duration) *Timeout {
	c := &Timeout{limit: limit, now: time.Now}
	c.start = c.now()
	return c
}

func (c *Timeout) Kind() Kind { return KindTimeout }

func (c *Timeout) Evaluate(types.Message) bool {
	if c.Fired() {
		return true
	}
	if elapsed := c.now().Sub(c.start); elapsed >= c.limit {
		return c.fire(fmt.Sprintf("timeout of %s reached after %s", c.limit, elapsed.Round(time.Millisecond)))
	}
	return false
}

func (c *Timeout) Reset() {
	c.start = c.now()
	c.clear()
}

// --- Func ---

// Func adapts a predicate. It is the extension point of the closed variant set.
type Func struct {
	latch
	name string
	pred func(types.Message) bool
}

// NewFunc creates a Func condition. name appears in Describe and Reason.
func NewFunc(name string, pred func(types.Message) bool) *Func {
	return &Func{name: name, pred: pred}
}

func (c *Func) Kind() Kind { return KindFunc }

func (c *Func) Evaluate(msg types.Message) bool {
	if c.Fired() {
		return true
	}
	if c.pred != nil && c.pred(msg) {
		return c.fire(fmt.Sprintf("%s matched message %d", c.name, msg.Sequence))
	}
	return false
}

func (c *Func) Reset() { c.clear() }

// --- helpers ---

func toSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func matchSource(sources map[string]struct{}, speaker string) bool {
	if len(sources) == 0 {
		return true
	}
	_, ok := sources[speaker]
	return ok
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
