// Package testlog records log lines for assertions in tests.
package testlog

import (
	"sync"

	"service-parcel-platform/internal/logx"
)

// Entry is a recorded log line.
type Entry struct {
	Level  string
	Msg    string
	Fields []logx.Field
}

// Field returns the value of key, the last occurrence wins.
func (e Entry) Field(key string) (any, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value, true
		}
	}
	return nil, false
}

// Recorder collects entries from every logger it hands out.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty recorder.
func New() *Recorder { return &Recorder{} }

// Logger returns a logger writing into r.
func (r *Recorder) Logger() logx.Logger {
	return bound{r: r}
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByLevel returns entries of the given level.
func (r *Recorder) ByLevel(level string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first entry with msg.
func (r *Recorder) Find(msg string) (Entry, bool) {
	for _, e := range r.Entries() {
		if e.Msg == msg {
			return e, true
		}
	}
	return Entry{}, false
}

// WithEvent returns entries carrying event=name.
func (r *Recorder) WithEvent(name string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if v, ok := e.Field("event"); ok && v == name {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) add(level, msg string, fields []logx.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := append([]logx.Field(nil), fields...)
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: cp})
}

type bound struct {
	r    *Recorder
	base []logx.Field
}

func (b bound) fields(f []logx.Field) []logx.Field {
	out := make([]logx.Field, 0, len(b.base)+len(f))
	return append(append(out, b.base...), f...)
}

func (b bound) Debug(msg string, f ...logx.Field) { b.r.add("debug", msg, b.fields(f)) }
func (b bound) Info(msg string, f ...logx.Field)  { b.r.add("info", msg, b.fields(f)) }
func (b bound) Warn(msg string, f ...logx.Field)  { b.r.add("warn", msg, b.fields(f)) }
func (b bound) Error(msg string, f ...logx.Field) { b.r.add("error", msg, b.fields(f)) }

func (b bound) With(f ...logx.Field) logx.Logger {
	return bound{r: b.r, base: b.fields(f)}
}

func (b bound) Sync() error { return nil }

var _ logx.Logger = bound{}
