// ABOUTME: Non-blocking notification sink for catalog outcomes
// ABOUTME: The CLI prints notices; tests collect them

package plans

// NoticeKind classifies a notice
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a message for the operator
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Notifier receives notices. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

// Notify calls f
func (f NotifierFunc) Notify(n Notice) { f(n) }

// ChanNotifier delivers notices to a buffered channel, dropping them when full
type ChanNotifier chan Notice

// Notify sends n if there is room
func (c ChanNotifier) Notify(n Notice) {
	select {
	case c <- n:
	default:
	}
}
