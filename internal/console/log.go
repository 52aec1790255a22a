// Package console holds the ordered log of lines shown by the terminal.
package console

import "sync"

// Entry is one rendered block of console output. Text may contain markup
// and line breaks. IsMenu marks the block holding the rendered menu.
type Entry struct {
	Text   string
	IsMenu bool
}

// Observer follows changes to a log. seq numbers entries in append order
// and is never reused, not even after Clear.
type Observer interface {
	EntryAppended(seq int, e Entry)
	EntryUpdated(seq int, e Entry)
}

// Log is an append-mostly list of entries. Only two in-place mutations
// exist: replacing the most recent menu entry, and appending text to the
// last entry.
type Log struct {
	mu        sync.Mutex
	entries   []Entry
	seqs      []int
	next      int
	observers []Observer
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Observe registers o for future changes.
func (l *Log) Observe(o Observer) {
	if o == nil {
		return
	}
	l.mu.Lock()
	l.observers = append(l.observers, o)
	l.mu.Unlock()
}

// Append adds an entry at the end.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	seq := l.next
	l.next++
	l.entries = append(l.entries, e)
	l.seqs = append(l.seqs, seq)
	observers := append([]Observer(nil), l.observers...)
	l.mu.Unlock()
	for _, o := range observers {
		o.EntryAppended(seq, e)
	}
}

// AppendText extends the last entry with text. An empty log gains a new
// entry instead.
func (l *Log) AppendText(text string) {
	l.mu.Lock()
	if len(l.entries) > 0 {
		last := len(l.entries) - 1
		l.entries[last].Text += text
		l.updatedLocked(last)
		return
	}
	l.mu.Unlock()
	l.Append(Entry{Text: text})
}

// ReplaceMenu overwrites the most recent menu entry. It reports false when
// the log holds no menu entry.
func (l *Log) ReplaceMenu(text string) bool {
	l.mu.Lock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].IsMenu {
			l.entries[i].Text = text
			l.updatedLocked(i)
			return true
		}
	}
	l.mu.Unlock()
	return false
}

// updatedLocked releases l.mu and reports entry i to the observers.
func (l *Log) updatedLocked(i int) {
	seq, e := l.seqs[i], l.entries[i]
	observers := append([]Observer(nil), l.observers...)
	l.mu.Unlock()
	for _, o := range observers {
		o.EntryUpdated(seq, e)
	}
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.seqs = nil
	l.mu.Unlock()
}
