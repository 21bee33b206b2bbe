// Package audit appends an immutable trail entry for every device mutation.
// Entries are written inside the mutating transaction so a rolled-back change
// never leaves a trail.
package audit

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one audit trail row. Before and After hold full JSON snapshots of
// the device; ChangedFields lists the top-level keys that differ.
type Entry struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	ActorID       *string        `gorm:"type:uuid;index" json:"actor_id"`
	DeviceKind    string         `gorm:"index:idx_audit_device" json:"device_kind"`
	DeviceID      string         `gorm:"type:uuid;index:idx_audit_device" json:"device_id"`
	Action        Action         `json:"action"`
	Before        rawJSON        `gorm:"type:jsonb" json:"before"`
	After         rawJSON        `gorm:"type:jsonb" json:"after"`
	ChangedFields pq.StringArray `gorm:"type:text[]" json:"changed_fields"`
	RecordedAt    time.Time      `json:"recorded_at"`
}

func (Entry) TableName() string { return "audit_entry" }

// rawJSON stores raw JSON in a jsonb column without re-decoding it.
type rawJSON json.RawMessage

func (j rawJSON) Value() (interface{}, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j *rawJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = rawJSON(v)
	case nil:
		*j = nil
	}
	return nil
}

func (rawJSON) GormDataType() string { return "jsonb" }

func (j rawJSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *rawJSON) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

// Record writes one trail entry in the caller's transaction. Before and after
// may be nil for creates and deletes respectively; both are snapshotted via
// JSON so the trail survives later model changes.
func Record(tx *gorm.DB, actorID *string, deviceKind, deviceID string, action Action, before, after any) error {
	entry := Entry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		DeviceKind: deviceKind,
		DeviceID:   deviceID,
		Action:     action,
		RecordedAt: time.Now().UTC(),
	}

	beforeDoc, err := snapshot(before)
	if err != nil {
		return err
	}
	afterDoc, err := snapshot(after)
	if err != nil {
		return err
	}
	entry.Before = beforeDoc.raw
	entry.After = afterDoc.raw
	entry.ChangedFields = diffKeys(beforeDoc.doc, afterDoc.doc)

	return tx.Create(&entry).Error
}

type snapshotted struct {
	raw rawJSON
	doc map[string]any
}

func snapshot(v any) (snapshotted, error) {
	if v == nil {
		return snapshotted{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return snapshotted{}, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return snapshotted{}, err
	}
	return snapshotted{raw: rawJSON(raw), doc: doc}, nil
}

// diffKeys returns the sorted top-level keys whose values differ between the
// two snapshots. Timestamps churn on every save and are excluded.
func diffKeys(before, after map[string]any) []string {
	ignored := map[string]bool{"created_at": true, "updated_at": true}

	keys := map[string]bool{}
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}

	var changed []string
	for k := range keys {
		if ignored[k] {
			continue
		}
		if !jsonEqual(before[k], after[k]) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func jsonEqual(a, b any) bool {
	ra, err := json.Marshal(a)
	if err != nil {
		return false
	}
	rb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ra) == string(rb)
}

// ListForDevice returns the trail for one device, newest first.
func ListForDevice(d *gorm.DB, kind, deviceID string) ([]Entry, error) {
	var entries []Entry
	err := d.Where("device_kind = ? AND device_id = ?", kind, deviceID).
		Order("recorded_at DESC").
		Find(&entries).Error
	return entries, err
}

func Init(d *gorm.DB) error {
	return d.AutoMigrate(&Entry{})
}
