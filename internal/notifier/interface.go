package notifier

// TextNotifier defines a minimal text notification interface.
// It is intentionally small so components can depend on it without importing
// concrete implementations (e.g. Telegram).
type TextNotifier interface {
	SendText(text string) error
}

// Noop 满足接口但不做任何事，用于通知未启用的场景。
type Noop struct{}

func (Noop) SendText(string) error { return nil }
