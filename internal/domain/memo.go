// Package domain holds the memo client's core types.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Memo is the client-side copy of a memo owned by the server.
type Memo struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Memo      string    `json:"memo"`
	Favourite bool      `json:"favourite"`
	Created   time.Time `json:"created"`
}

// UnmarshalJSON decodes a memo whose id the server sent as a string or as a
// number.
func (m *Memo) UnmarshalJSON(data []byte) error {
	type plain Memo
	aux := struct {
		*plain
		ID MemoID `json:"id"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.ID = string(aux.ID)
	return nil
}

// MemoID is an opaque memo identifier. Servers with integer primary keys send
// it as a JSON number; it is kept in its decimal string form.
type MemoID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *MemoID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = MemoID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("memo id must be a string or a number: %w", err)
	}
	*id = MemoID(n.String())
	return nil
}

// Draft is the editable form model of a memo. ID is empty for a memo that
// does not exist yet.
type Draft struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title" validate:"required,notblank"`
	Memo  string `json:"memo"`
}

// DraftOf returns the form model for an existing memo.
func DraftOf(m Memo) Draft {
	return Draft{ID: m.ID, Title: m.Title, Memo: m.Memo}
}

// Equal reports whether two drafts hold the same values field by field.
func (d Draft) Equal(other Draft) bool {
	return d.ID == other.ID && d.Title == other.Title && d.Memo == other.Memo
}

// Field names a user-editable memo field.
type Field string

const (
	FieldTitle Field = "title"
	FieldMemo  Field = "memo"
)

// With returns a copy of d with field set to value.
func (d Draft) With(field Field, value string) (Draft, error) {
	switch field {
	case FieldTitle:
		d.Title = value
	case FieldMemo:
		d.Memo = value
	default:
		return d, fmt.Errorf("unknown memo field %q", field)
	}
	return d, nil
}

// SortField is a memo attribute the list can be ordered by.
type SortField string

const (
	SortByCreated SortField = "created"
	SortByTitle   SortField = "title"
	SortByMemo    SortField = "memo"
)

// ParseSortField validates a sort field name.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortByCreated, SortByTitle, SortByMemo:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}
