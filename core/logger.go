package core

// Logger is any service that can log messages.
// args can be errors, map[string]interface{} of extra data or the user performing the operation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
