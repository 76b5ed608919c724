package groupchat

import "github.com/BaSui01/roundtable/types"

// Event is one element of a RunStream. Every event but the last carries a
// Message; the last carries the Result (nil on a precondition failure) and
// the run error, if any.
type Event struct {
	Message *types.Message
	Result  *types.RunResult
	Err     error
}

// Final reports whether e is the terminal event of the stream.
func (e Event) Final() bool {
	return e.Message == nil
}
