// Package event defines the preference event emitted for every document term.
package event

import (
	"strconv"
	"time"
)

// Default emitted keys for the strength and capture time of an event.
const (
	DefaultValueField     = "value"
	DefaultTimestampField = "@timestamp"
)

// Param keys that rename the emitted value and timestamp keys.
const (
	ParamValueField     = "value_field"
	ParamTimestampField = "timestamp_field"
)

// FieldNames are the emitted keys for the value and timestamp of an event.
type FieldNames struct {
	Value     string
	Timestamp string
}

// DefaultFieldNames returns the default emitted keys.
func DefaultFieldNames() FieldNames {
	return FieldNames{Value: DefaultValueField, Timestamp: DefaultTimestampField}
}

// Record is a single (user, item, strength, timestamp) signal:
//
//	{"user": {"id": ...}, "item": {"id": ...}, <value>: freq, <timestamp>: now}
type Record map[string]any

// New builds a record with the fixed shape.
func New(userID, itemID string, freq int, now time.Time, names FieldNames) Record {
	return Record{
		"user":          map[string]any{"id": userID},
		"item":          map[string]any{"id": itemID},
		names.Value:     freq,
		names.Timestamp: now,
	}
}

// UserID returns user.id or "".
func (r Record) UserID() string { return r.nestedID("user") }

// ItemID returns item.id or "".
func (r Record) ItemID() string { return r.nestedID("item") }

// Value returns the strength stored under names.Value.
func (r Record) Value(names FieldNames) (int, bool) {
	v, ok := r[names.Value].(int)
	return v, ok
}

// Timestamp returns the capture time stored under names.Timestamp.
func (r Record) Timestamp(names FieldNames) (time.Time, bool) {
	ts, ok := r[names.Timestamp].(time.Time)
	return ts, ok
}

func (r Record) nestedID(key string) string {
	m, ok := r[key].(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["id"].(string)
	return id
}

// Params exposes the free-form event settings to chain handlers.
// Params is immutable and safe for concurrent use.
type Params struct {
	settings map[string]string
}

// NewParams copies settings into a Params.
func NewParams(settings map[string]string) Params {
	cp := make(map[string]string, len(settings))
	for k, v := range settings {
		cp[k] = v
	}
	return Params{settings: cp}
}

// Param returns the setting for key, or def when unset.
func (p Params) Param(key, def string) string {
	if v, ok := p.settings[key]; ok {
		return v
	}
	return def
}

// ParamBool parses the setting for key as a bool, or returns def.
func (p Params) ParamBool(key string, def bool) bool {
	v, ok := p.settings[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// FieldNames resolves the emitted value and timestamp keys.
func (p Params) FieldNames() FieldNames {
	return FieldNames{
		Value:     p.Param(ParamValueField, DefaultValueField),
		Timestamp: p.Param(ParamTimestampField, DefaultTimestampField),
	}
}
