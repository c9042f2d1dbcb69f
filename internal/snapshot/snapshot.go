package snapshot

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// legacyLayout matches zone-less timestamps written by older tooling,
// with or without fractional seconds.
const legacyLayout = "2006-01-02T15:04:05.999999999"

// Entity is one tracked video inside a snapshot.
type Entity struct {
	ChannelName string `json:"channel_name"`
	VideoID     string `json:"video_id"`
	Views       int64  `json:"views"`
	Likes       int64  `json:"likes"`
	Comments    int64  `json:"comments"`
	Subscribers int64  `json:"subscribers"`
	Label       string `json:"label"`

	ViewsDelta       Value[int64]   `json:"views_delta,omitzero"`
	LikesDelta       Value[int64]   `json:"likes_delta,omitzero"`
	CommentsDelta    Value[int64]   `json:"comments_delta,omitzero"`
	SubscribersDelta Value[int64]   `json:"subscribers_delta,omitzero"`
	ViewsDeltaPct    Value[float64] `json:"views_delta_pct,omitzero"`
}

// Snapshot is a timestamped mapping of entity keys to entity records.
type Snapshot struct {
	Timestamp string             `json:"timestamp"`
	Entities  map[string]*Entity `json:"entities"`
}

// New returns an empty snapshot stamped with now in RFC 3339.
func New(now time.Time) *Snapshot {
	return &Snapshot{
		Timestamp: FormatTime(now),
		Entities:  make(map[string]*Entity),
	}
}

// FormatTime renders a timestamp the way snapshots and guard files store it.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// ParseTime accepts RFC 3339 and the legacy zone-less layout, which is read
// in local time.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

// Time parses the snapshot timestamp. ok is false when it is missing or malformed.
func (s *Snapshot) Time() (time.Time, bool) {
	if s == nil || s.Timestamp == "" {
		return time.Time{}, false
	}
	t, err := ParseTime(s.Timestamp)
	return t, err == nil
}

// Len returns the number of entities; a nil snapshot has none.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entities)
}

// Keys returns the entity keys in ascending order.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.Entities))
	for key := range s.Entities {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Put stores an entity under key, allocating the map on first use.
func (s *Snapshot) Put(key string, e *Entity) {
	if s.Entities == nil {
		s.Entities = make(map[string]*Entity)
	}
	s.Entities[key] = e
}

// HasPercentDeltas reports whether any entity carries an annotated
// views_delta_pct, available or not.
func (s *Snapshot) HasPercentDeltas() bool {
	if s == nil {
		return false
	}
	for _, e := range s.Entities {
		if e != nil && e.ViewsDeltaPct.Annotated() {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts documents that carry entities under the older
// "videos" key and drops null entries.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp string             `json:"timestamp"`
		Entities  map[string]*Entity `json:"entities"`
		Videos    map[string]*Entity `json:"videos"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entities := raw.Entities
	if entities == nil {
		entities = raw.Videos
	}
	if entities == nil {
		return fmt.Errorf("snapshot document has no entities")
	}
	for key, e := range entities {
		if e == nil {
			delete(entities, key)
		}
	}
	s.Timestamp = raw.Timestamp
	s.Entities = entities
	return nil
}

// RankedRow is one line of a ranking query result. It is never persisted.
type RankedRow struct {
	EntityKey    string  `json:"entity_key"`
	ChannelName  string  `json:"channel_name"`
	VideoID      string  `json:"video_id"`
	Label        string  `json:"label"`
	CurrentValue int64   `json:"current_value"`
	Delta        float64 `json:"delta"`
}
