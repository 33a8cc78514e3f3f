package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TextFormatter renders "<time> <LEVEL> <message> k=v ..." with keys sorted.
type TextFormatter struct {
	// TimeFormat defaults to time.RFC3339Nano.
	TimeFormat string
	// ShowCaller appends the caller file:line.
	ShowCaller bool
}

// Format implements Formatter.
func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	tf := f.TimeFormat
	if tf == "" {
		tf = time.RFC3339Nano
	}
	var buf bytes.Buffer
	buf.WriteString(e.Timestamp.Format(tf))
	buf.WriteByte(' ')
	fmt.Fprintf(&buf, "%-5s", e.Level.String())
	buf.WriteByte(' ')
	buf.WriteString(e.Message)
	for _, k := range sortedKeys(e.Fields) {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteByte('=')
		writeTextValue(&buf, e.Fields[k])
	}
	if f.ShowCaller && e.Caller != "" {
		buf.WriteString(" caller=")
		buf.WriteString(e.Caller)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func writeTextValue(buf *bytes.Buffer, v interface{}) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("<nil>")
	case string:
		if needsQuote(t) {
			fmt.Fprintf(buf, "%q", t)
			return
		}
		buf.WriteString(t)
	case fmt.Stringer:
		buf.WriteString(t.String())
	default:
		if b, err := json.Marshal(t); err == nil {
			buf.Write(b)
			return
		}
		fmt.Fprintf(buf, "%v", t)
	}
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}

// JSONFormatter renders one JSON object per line.
type JSONFormatter struct{}

// Format implements Formatter.
func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	out := make(map[string]interface{}, len(e.Fields)+4)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["time"] = e.Timestamp.Format(time.RFC3339Nano)
	out["level"] = e.Level.String()
	out["msg"] = e.Message
	if e.Caller != "" {
		out["caller"] = e.Caller
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func sortedKeys(m Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
