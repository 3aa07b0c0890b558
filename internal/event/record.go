package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// ErrEmptyBatch is returned when an ingestion payload contains no events.
var ErrEmptyBatch = errors.New("no events received")

// ErrNotEventArray is returned when the payload is not a JSON array of objects.
var ErrNotEventArray = errors.New("payload must be a JSON array of event objects")

// ServerTimestampField is stamped on every record at ingestion time.
const ServerTimestampField = "server_timestamp"

// Kind tags the type of a field value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNull
	// KindRaw carries nested objects/arrays verbatim as JSON text.
	KindRaw
)

// Value is a tagged union for one client-supplied field value.
// Clients send arbitrary shapes, so a fixed struct cannot represent an event.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	// Raw holds the original JSON literal. For numbers it preserves the
	// client's exact notation so stored payloads round-trip byte-for-byte.
	Raw string
}

// String builds a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number builds a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Bool builds a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Null builds a JSON null value.
func Null() Value { return Value{Kind: KindNull} }

// EpochMillis interprets the value as epoch milliseconds.
// Numbers are used directly; numeric strings are coerced. Anything else
// reports ok=false and the record is excluded from time-based grouping.
func (v Value) EpochMillis() (int64, bool) {
	switch v.Kind {
	case KindNumber:
		return int64(v.Num), true
	case KindString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// Display renders the value for the raw-data table.
func (v Value) Display() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		if v.Raw != "" {
			return v.Raw
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNull:
		return ""
	default:
		return v.Raw
	}
}

// appendJSON writes the value's JSON encoding to buf.
func (v Value) appendJSON(buf *bytes.Buffer) {
	switch v.Kind {
	case KindString:
		b, _ := json.Marshal(v.Str)
		buf.Write(b)
	case KindNumber:
		if v.Raw != "" {
			buf.WriteString(v.Raw)
			return
		}
		buf.WriteString(strconv.FormatFloat(v.Num, 'f', -1, 64))
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case KindNull:
		buf.WriteString("null")
	default:
		buf.WriteString(v.Raw)
	}
}

// Field is one named value of a record.
type Field struct {
	Name  string
	Value Value
}

// Record is one analytics event: an ordered set of client-supplied fields
// plus the server-assigned receipt timestamp. Field order is preserved from
// the submitted JSON so downstream rendering shows columns as clients sent
// them.
type Record struct {
	fields []Field
}

// Len reports the number of fields.
func (r *Record) Len() int { return len(r.fields) }

// Fields returns the fields in submission order.
func (r *Record) Fields() []Field { return r.fields }

// Get looks up a field by name.
func (r *Record) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether the field is present.
func (r *Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set replaces the named field in place, or appends it when absent.
func (r *Record) Set(name string, v Value) {
	for i, f := range r.fields {
		if f.Name == name {
			r.fields[i].Value = v
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

// MarshalJSON encodes the record as a JSON object preserving field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		f.Value.appendJSON(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// valueOf converts a parsed gjson result into a tagged Value.
func valueOf(res gjson.Result) Value {
	switch res.Type {
	case gjson.String:
		return Value{Kind: KindString, Str: res.String()}
	case gjson.Number:
		return Value{Kind: KindNumber, Num: res.Float(), Raw: res.Raw}
	case gjson.True:
		return Value{Kind: KindBool, Bool: true}
	case gjson.False:
		return Value{Kind: KindBool, Bool: false}
	case gjson.Null:
		return Value{Kind: KindNull}
	default:
		return Value{Kind: KindRaw, Raw: res.Raw}
	}
}

// parseObject builds a Record from a parsed JSON object, walking fields in
// document order.
func parseObject(obj gjson.Result) (Record, bool) {
	if !obj.IsObject() {
		return Record{}, false
	}
	var rec Record
	obj.ForEach(func(key, value gjson.Result) bool {
		rec.fields = append(rec.fields, Field{Name: key.String(), Value: valueOf(value)})
		return true
	})
	return rec, true
}

// ParseObject decodes a single stored JSON object into a Record.
func ParseObject(data []byte) (Record, error) {
	if !gjson.ValidBytes(data) {
		return Record{}, errors.New("invalid JSON object")
	}
	rec, ok := parseObject(gjson.ParseBytes(data))
	if !ok {
		return Record{}, errors.New("payload is not a JSON object")
	}
	return rec, nil
}

// ParseBatch decodes an ingestion payload: a non-empty JSON array of event
// objects. Empty, absent, or malformed payloads are rejected before any
// store interaction.
func ParseBatch(body []byte) ([]Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBatch
	}
	if !gjson.ValidBytes(body) {
		return nil, ErrNotEventArray
	}
	parsed := gjson.ParseBytes(body)
	if parsed.Type == gjson.Null {
		// A JSON null body is "no data", same as an absent batch.
		return nil, ErrEmptyBatch
	}
	if !parsed.IsArray() {
		return nil, ErrNotEventArray
	}

	var (
		records []Record
		bad     bool
	)
	parsed.ForEach(func(_, elem gjson.Result) bool {
		rec, ok := parseObject(elem)
		if !ok {
			bad = true
			return false
		}
		records = append(records, rec)
		return true
	})
	if bad {
		return nil, ErrNotEventArray
	}
	if len(records) == 0 {
		return nil, ErrEmptyBatch
	}
	return records, nil
}

// Stamp assigns the shared server receipt timestamp to every record in the
// batch. One timestamp per batch, computed once by the caller.
func Stamp(records []Record, ts time.Time) {
	stamped := String(ts.UTC().Format(time.RFC3339Nano))
	for i := range records {
		records[i].Set(ServerTimestampField, stamped)
	}
}

// ResolveEventField picks the field used as "the event's name" for a record
// set: "event" when any record carries it, otherwise "eventName". Resolution
// is per-set, matching how the data is grouped for reporting.
func ResolveEventField(records []Record) (string, bool) {
	for i := range records {
		if records[i].Has("event") {
			return "event", true
		}
	}
	for i := range records {
		if records[i].Has("eventName") {
			return "eventName", true
		}
	}
	return "", false
}
