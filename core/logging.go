package core

// Logger is any leveled logger the platform services can report through.
// Implementations may inspect args for well-known types (eg. an auth.Identity)
// to enrich reports with the acting principal.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
