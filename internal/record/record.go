package record

import (
	"encoding/json"
	"errors"
	"time"
)

// Record is a single captured coordinate sample. Records are append-only:
// once written they are never updated or deleted.
type Record struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	CapturedAt int64   `json:"timestamp"`
}

// Payload is the stored/wire form of a record, one child entry under a
// user's partition.
type Payload map[string]any

var (
	ErrLatitudeRange  = errors.New("latitude out of range")
	ErrLongitudeRange = errors.New("longitude out of range")
)

func New(lat, lng float64, capturedAt time.Time) Record {
	return Record{Latitude: lat, Longitude: lng, CapturedAt: capturedAt.UnixMilli()}
}

func (r Record) Validate() error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return ErrLatitudeRange
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return ErrLongitudeRange
	}
	return nil
}

func (r Record) CapturedTime() time.Time {
	return time.UnixMilli(r.CapturedAt)
}

func (r Record) Payload() Payload {
	return Payload{
		"latitude":  r.Latitude,
		"longitude": r.Longitude,
		"timestamp": r.CapturedAt,
	}
}

// FromPayload coerces a child entry into a Record. A child missing any of
// latitude/longitude/timestamp, or carrying a value that is not numeric,
// reports ok=false and is skipped by callers.
func FromPayload(p Payload) (Record, bool) {
	lat, ok := toFloat(p["latitude"])
	if !ok {
		return Record{}, false
	}
	lng, ok := toFloat(p["longitude"])
	if !ok {
		return Record{}, false
	}
	ts, ok := toInt(p["timestamp"])
	if !ok {
		return Record{}, false
	}
	return Record{Latitude: lat, Longitude: lng, CapturedAt: ts}, true
}

// ParseChildren rebuilds the full record list from a snapshot, keeping the
// store's child ordering. Malformed children are dropped without affecting
// their siblings.
func ParseChildren(children []Payload) []Record {
	records := make([]Record, 0, len(children))
	for _, child := range children {
		if rec, ok := FromPayload(child); ok {
			records = append(records, rec)
		}
	}
	return records
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
