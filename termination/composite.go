package termination

import (
	"strings"

	"github.com/BaSui01/roundtable/types"
)

// And fires once every child has fired, possibly on different messages.
// A child that has fired is not evaluated again; each unfired child is
// evaluated exactly once per message.
type And struct {
	latch
	children []Condition
}

// NewAnd combines two or more conditions with AND. Nil children are skipped.
func NewAnd(a, b Condition, more ...Condition) *And {
	return &And{children: compact(append([]Condition{a, b}, more...))}
}

func (c *And) Kind() Kind { return KindAnd }

// Children returns the combined conditions.
func (c *And) Children() []Condition {
	return append([]Condition(nil), c.children...)
}

func (c *And) Evaluate(msg types.Message) bool {
	if c.Fired() {
		return true
	}
	all := true
	for _, child := range c.children {
		if child.Fired() {
			continue
		}
		if !child.Evaluate(msg) {
			all = false
		}
	}
	if !all {
		return false
	}
	return c.fire(joinReasons(c.children))
}

func (c *And) Reset() {
	for _, child := range c.children {
		child.Reset()
	}
	c.clear()
}

// Or fires as soon as any child fires. Every child is evaluated exactly once
// per message so stateful children (e.g. MaxTurns) keep counting.
type Or struct {
	latch
	children []Condition
}

// NewOr combines two or more conditions with OR. Nil children are skipped.
func NewOr(a, b Condition, more ...Condition) *Or {
	return &Or{children: compact(append([]Condition{a, b}, more...))}
}

func (c *Or) Kind() Kind { return KindOr }

// Children returns the combined conditions.
func (c *Or) Children() []Condition {
	return append([]Condition(nil), c.children...)
}

func (c *Or) Evaluate(msg types.Message) bool {
	if c.Fired() {
		return true
	}
	hit := false
	for _, child := range c.children {
		if child.Evaluate(msg) {
			hit = true
		}
	}
	if !hit {
		return false
	}
	return c.fire(joinReasons(c.children))
}

func (c *Or) Reset() {
	for _, child := range c.children {
		child.Reset()
	}
	c.clear()
}

func joinReasons(children []Condition) string {
	reasons := make([]string, 0, len(children))
	for _, child := range children {
		if child.Fired() {
			reasons = append(reasons, child.Reason())
		}
	}
	return strings.Join(reasons, "; ")
}

func compact(children []Condition) []Condition {
	out := children[:0]
	for _, child := range children {
		if child != nil {
			out = append(out, child)
		}
	}
	return out
}
