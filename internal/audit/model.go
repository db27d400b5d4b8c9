// Package audit keeps a hash-chained, append-only activity log fed by
// the coordination event bus.
package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/siren-bd/platform/internal/shared/types"
)

// Entry is an immutable activity log record. Each entry carries the
// hash of its predecessor, so any retroactive edit breaks the chain.
type Entry struct {
	ID          types.ID       `json:"id"`
	Sequence    int64          `json:"sequence"`
	EventType   string         `json:"eventType"`
	ActorID     *types.ID      `json:"actorId,omitempty"`
	SubjectType string         `json:"subjectType"`
	SubjectID   string         `json:"subjectId"`
	Payload     map[string]any `json:"payload,omitempty"`
	PrevHash    string         `json:"prevHash"`
	Hash        string         `json:"hash"`
	RecordedAt  time.Time      `json:"recordedAt"`
}

// NewEntry creates a chained entry. prevHash is the hash of the latest
// stored entry, or "genesis" for the first.
func NewEntry(eventType string, actorID *types.ID, subjectType, subjectID string, payload map[string]any, prevHash string) *Entry {
	e := &Entry{
		ID:          types.NewID(),
		EventType:   eventType,
		ActorID:     actorID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Payload:     payload,
		PrevHash:    prevHash,
		// Microsecond precision survives the PostgreSQL round trip
		RecordedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	e.Hash = e.computeHash()
	return e
}

// computeHash hashes the entry over canonical JSON so map key order
// never affects the result.
func (e *Entry) computeHash() string {
	data := map[string]any{
		"id":          e.ID,
		"eventType":   e.EventType,
		"subjectType": e.SubjectType,
		"subjectId":   e.SubjectID,
		"prevHash":    e.PrevHash,
		"recordedAt":  e.RecordedAt.UTC().Format(time.RFC3339Nano),
	}
	if e.ActorID != nil {
		data["actorId"] = e.ActorID
	}
	if len(e.Payload) > 0 {
		data["payload"] = e.Payload
	}

	jsonData, _ := canonicalJSON(data)
	sum := sha256.Sum256(jsonData)
	return hex.EncodeToString(sum[:])
}

// VerifyHash checks the entry's own hash
func (e *Entry) VerifyHash() bool {
	return e.Hash == e.computeHash()
}

// VerifyChain walks entries in sequence order and reports the first
// break, either a bad entry hash or a mismatched predecessor link.
// Returns -1 when the chain is intact.
func VerifyChain(entries []*Entry) int {
	prev := "genesis"
	for i, e := range entries {
		if !e.VerifyHash() {
			return i
		}
		if e.PrevHash != prev {
			return i
		}
		prev = e.Hash
	}
	return -1
}

// canonicalJSON produces deterministic JSON with sorted map keys. Go
// maps iterate in random order and JSONB may reorder keys, so hashing
// requires a stable encoding.
func canonicalJSON(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	return canonicalMarshal(parsed)
}

func canonicalMarshal(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, _ := json.Marshal(k)
			buf.Write(keyBytes)
			buf.WriteByte(':')
			valBytes, err := canonicalMarshal(val[k])
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil

	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			itemBytes, err := canonicalMarshal(item)
			if err != nil {
				return nil, err
			}
			buf.Write(itemBytes)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil

	default:
		return json.Marshal(val)
	}
}

// ListFilter narrows audit listings
type ListFilter struct {
	EventType   string
	SubjectType string
	SubjectID   string
	ActorID     *types.ID
	Since       *time.Time
	Until       *time.Time
	Limit       int
	Offset      int
}
