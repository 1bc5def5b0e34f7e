package legacy

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrMalformedEnvelope = errors.New("malformed scalar envelope")
	ErrMalformedID       = errors.New("malformed legacy id")
	ErrMissingField      = errors.New("missing required field")
)

const (
	longKey = "$numberLong"
	dateKey = "$date"
	guidKey = "$guid"
)

var longDigits = regexp.MustCompile(`^-?\d+$`)

// dateLayouts are tried in order. time.Parse accepts a fractional second
// after the seconds field even when the layout does not name one.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DecodeLong unwraps a {"$numberLong": "<digits>"} envelope. The digits are
// returned as-is so values wider than float64 precision survive.
func DecodeLong(envelope map[string]any) (string, error) {
	raw, ok := envelope[longKey]
	if !ok {
		return "", fmt.Errorf("%w: %s field absent", ErrMalformedEnvelope, longKey)
	}
	s, ok := raw.(string)
	if !ok || !longDigits.MatchString(s) {
		return "", fmt.Errorf("%w: %s value %v is not a digit string", ErrMalformedEnvelope, longKey, raw)
	}
	return s, nil
}

// DecodeDate unwraps a {"$date": "<ISO-8601>"} envelope into a UTC instant.
func DecodeDate(envelope map[string]any) (time.Time, error) {
	raw, ok := envelope[dateKey]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s field absent", ErrMalformedEnvelope, dateKey)
	}
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s value %v is not a string", ErrMalformedEnvelope, dateKey, raw)
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s value %q is not an ISO-8601 date", ErrMalformedEnvelope, dateKey, s)
}

// Long is a 64-bit integer kept in its decimal string form.
type Long string

func (l *Long) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ""
		return nil
	case len(data) > 0 && data[0] == '{':
		var envelope map[string]any
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}
		s, err := DecodeLong(envelope)
		if err != nil {
			return err
		}
		*l = Long(s)
		return nil
	case longDigits.Match(data):
		// LiteDB writes Int32 values without an envelope.
		*l = Long(data)
		return nil
	default:
		return fmt.Errorf("%w: unexpected long value %s", ErrMalformedEnvelope, data)
	}
}

func (l Long) String() string { return string(l) }

// Date is an instant decoded from a $date envelope.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: unexpected date value %s", ErrMalformedEnvelope, data)
	}
	t, err := DecodeDate(envelope)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ID is a legacy document identifier, either a bare string or a $guid envelope.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var envelope map[string]any
		if err := json.Unmarshal(data, &envelope); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedID, err)
		}
		s, ok := envelope[guidKey].(string)
		if !ok {
			return fmt.Errorf("%w: %s field absent", ErrMalformedID, guidKey)
		}
		*id = ID(s)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: unexpected id value %s", ErrMalformedID, data)
	}
	*id = ID(s)
	return nil
}
