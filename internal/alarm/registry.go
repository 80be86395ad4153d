package alarm

import (
	"context"
	"encoding/json"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry is the live device view for one alarm location.
//
// Devices are created when first seen in a list response or an update
// referencing an unknown identifier, updated in place on later events
// bearing the same identifier, and never removed. Mutation happens
// only on the session's read loop, so the registry is effectively
// single-writer; locking protects concurrent readers.
type Registry struct {
	session *Session

	// group collapses concurrent initial-list fetches.
	group singleflight.Group

	mu      sync.RWMutex
	devices map[string]*Device
	order   []string
	loaded  bool

	// logger for merge diagnostics (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// NewRegistry creates a registry fed by the given session. The
// registry absorbs list responses and data updates as they arrive,
// whether requested by it or not.
func NewRegistry(session *Session) *Registry {
	r := &Registry{
		session: session,
		devices: make(map[string]*Device),
	}
	session.OnMessage(MsgDeviceInfoDocGetList, r.absorbList)
	session.OnDataUpdate(r.absorbUpdate)
	return r
}

// SetLogger sets a logger for merge diagnostics.
// If not set, malformed records are silently skipped.
func (r *Registry) SetLogger(logger Logger) {
	r.loggerMu.Lock()
	r.logger = logger
	r.loggerMu.Unlock()
}

func (r *Registry) getLogger() Logger {
	r.loggerMu.RLock()
	defer r.loggerMu.RUnlock()
	return r.logger
}

// Devices returns the device view in first-seen order, requesting the
// initial list over the hub socket if it has not arrived yet.
// Concurrent first calls share a single fetch.
func (r *Registry) Devices(ctx context.Context) ([]*Device, error) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()

	if !loaded {
		_, err, _ := r.group.Do("list", func() (any, error) {
			r.mu.RLock()
			done := r.loaded
			r.mu.RUnlock()
			if done {
				return nil, nil
			}
			// The reply is absorbed by the OnMessage observer before
			// SendAndAwait returns.
			_, awaitErr := r.session.SendAndAwait(ctx, Message{Msg: MsgDeviceInfoDocGetList}, MsgDeviceInfoDocGetList)
			return nil, awaitErr
		})
		if err != nil {
			return nil, err
		}
	}

	return r.snapshot(), nil
}

// ByZID returns the device with the given identifier, if known.
func (r *Registry) ByZID(zid string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[zid]
	return d, ok
}

// FindKind returns the first known device of the given kind, or nil.
func (r *Registry) FindKind(kind string) *Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, zid := range r.order {
		if d := r.devices[zid]; d.Kind() == kind {
			return d
		}
	}
	return nil
}

// Count returns the number of known devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

func (r *Registry) snapshot() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Device, 0, len(r.order))
	for _, zid := range r.order {
		out = append(out, r.devices[zid])
	}
	return out
}

// absorbList merges a full device list response and marks the registry
// loaded.
func (r *Registry) absorbList(msg Message) {
	r.absorbRecords(msg.Body)

	r.mu.Lock()
	r.loaded = true
	r.mu.Unlock()
}

// absorbUpdate merges a partial device state push.
func (r *Registry) absorbUpdate(msg Message) {
	r.absorbRecords(msg.Body)
}

func (r *Registry) absorbRecords(body json.RawMessage) {
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		if logger := r.getLogger(); logger != nil {
			logger.Warn("discarding unparseable device records", "error", err)
		}
		return
	}

	for _, raw := range records {
		r.upsert(raw)
	}
}

// upsert merges one record into the view: unknown identifiers create a
// device, known identifiers update the existing one in place.
func (r *Registry) upsert(raw json.RawMessage) {
	data, err := flattenDeviceRecord(raw)
	if err != nil {
		if logger := r.getLogger(); logger != nil {
			logger.Warn("discarding malformed device record", "error", err)
		}
		return
	}

	zid, _ := data["zid"].(string)
	if zid == "" {
		return
	}

	r.mu.Lock()
	if d, ok := r.devices[zid]; ok {
		d.merge(data)
	} else {
		r.devices[zid] = newDevice(data, r.session)
		r.order = append(r.order, zid)
	}
	r.mu.Unlock()
}
