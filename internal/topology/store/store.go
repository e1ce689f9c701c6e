// Package store persists the topology record: the one durable piece of
// state this service owns. The record maps the canonical category and each
// logical channel key to a live channel id so restarts adopt existing
// channels instead of re-creating them.
package store

import (
	"context"

	"cord/internal/domain"
)

// Record is the persisted category/channel id mapping. Channels is never
// nil on a loaded record.
type Record struct {
	CategoryID domain.ChannelID
	Channels   map[string]domain.ChannelID
}

// NewRecord returns an empty record ready for field updates.
func NewRecord() *Record {
	return &Record{Channels: make(map[string]domain.ChannelID)}
}

// ChannelID returns the persisted id for a logical key, if any.
func (r *Record) ChannelID(key string) (domain.ChannelID, bool) {
	id, ok := r.Channels[key]
	return id, ok && id != ""
}

// RecordStore is the durable backing for the topology record. Absence of a
// record is not an error: Load returns (nil, nil) when nothing has been
// persisted yet. Updates set one field at a time; distinct keys are written
// by non-overlapping reconciler calls, so last-write-wins per field is
// acceptable.
type RecordStore interface {
	Load(ctx context.Context) (*Record, error)
	SetCategoryID(ctx context.Context, id domain.ChannelID) error
	SetChannelID(ctx context.Context, key string, id domain.ChannelID) error
}
