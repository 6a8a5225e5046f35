package core

// Logger is the application-wide logging contract.
// Implementations may interpret extra args as structured context
// (errors, maps, the acting user) as the Rollbar service does.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
