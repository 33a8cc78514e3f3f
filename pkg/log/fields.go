package log

import "time"

// Field is a single structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// F builds an arbitrary field.
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Str builds a string field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Int64 builds an int64 field.
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Bool builds a bool field.
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Dur builds a duration field rendered as a string ("1.5s").
func Dur(key string, value time.Duration) Field { return Field{Key: key, Value: value.String()} }

// Any is an alias of F kept for call sites that read better with it.
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Err records err under "error". A nil error yields a nil value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component tags the entry with the emitting component.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }
