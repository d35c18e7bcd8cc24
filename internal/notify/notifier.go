package notify

// Notifier is the outbound alert channel the engine reports through.
// Delivery is best effort; trading never blocks on it.
type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Nop swallows everything; used in tests and when no channel is configured.
type Nop struct{}

func (Nop) Send(string)          {}
func (Nop) Sendf(string, ...any) {}
