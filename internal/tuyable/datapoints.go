package tuyable

import "sync"

// DataPoint is a single value cell on a Tuya BLE device.
//
// The driver treats every integer-like type (bool, value, enum, bitmap) as
// an int64; raw and string payloads are kept as bytes. The cached value
// reflects the last report from the device or the last locally issued write,
// whichever happened most recently.
type DataPoint struct {
	id  uint8
	typ DataPointType

	mu    sync.RWMutex
	value int64
	raw   []byte

	device *Device
}

// ID returns the datapoint id.
func (dp *DataPoint) ID() uint8 {
	return dp.id
}

// Type returns the datapoint type.
func (dp *DataPoint) Type() DataPointType {
	return dp.typ
}

// Value returns the cached integer value.
func (dp *DataPoint) Value() int64 {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	return dp.value
}

// Bool returns the cached value interpreted as a boolean.
func (dp *DataPoint) Bool() bool {
	return dp.Value() != 0
}

// Bytes returns a copy of the cached raw payload (raw and string types).
func (dp *DataPoint) Bytes() []byte {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	return append([]byte(nil), dp.raw...)
}

// SetValue updates the cached value and schedules an asynchronous write to
// the device. The call returns immediately; delivery is best-effort and
// failures surface only in the driver log.
func (dp *DataPoint) SetValue(v int64) {
	dp.mu.Lock()
	dp.value = v
	dp.mu.Unlock()

	dp.device.enqueueWrite(dp)
}

// update applies a device-reported value without triggering a write.
func (dp *DataPoint) update(value int64, raw []byte) {
	dp.mu.Lock()
	dp.value = value
	if raw != nil {
		dp.raw = raw
	}
	dp.mu.Unlock()
}

// DataPoints is the keyed collection of datapoints for one device.
//
// Thread Safety: all methods are safe for concurrent use.
type DataPoints struct {
	mu     sync.RWMutex
	points map[uint8]*DataPoint
	device *Device
}

// newDataPoints creates an empty datapoint store bound to dev.
func newDataPoints(dev *Device) *DataPoints {
	return &DataPoints{
		points: make(map[uint8]*DataPoint),
		device: dev,
	}
}

// Get returns the datapoint with the given id, if the device has reported it.
func (ds *DataPoints) Get(id uint8) (*DataPoint, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	dp, ok := ds.points[id]
	return dp, ok
}

// HasID reports whether a datapoint with the given id exists. If typ is not
// TypeUnset the stored datapoint must also match the type.
func (ds *DataPoints) HasID(id uint8, typ DataPointType) bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	dp, ok := ds.points[id]
	if !ok {
		return false
	}
	return typ == TypeUnset || dp.typ == typ
}

// GetOrCreate returns the datapoint with the given id, creating it with the
// supplied type and default value when absent. An existing datapoint is
// returned as-is; its type and value are not altered.
func (ds *DataPoints) GetOrCreate(id uint8, typ DataPointType, def int64) *DataPoint {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if dp, ok := ds.points[id]; ok {
		return dp
	}
	dp := &DataPoint{
		id:     id,
		typ:    typ,
		value:  def,
		device: ds.device,
	}
	ds.points[id] = dp
	return dp
}

// Len returns the number of known datapoints.
func (ds *DataPoints) Len() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.points)
}

// IDs returns the ids of all known datapoints in unspecified order.
func (ds *DataPoints) IDs() []uint8 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	ids := make([]uint8, 0, len(ds.points))
	for id := range ds.points {
		ids = append(ids, id)
	}
	return ids
}

// apply stores a device-reported record, creating the datapoint if needed,
// and returns the affected datapoint.
func (ds *DataPoints) apply(rec dpRecord) *DataPoint {
	ds.mu.Lock()
	dp, ok := ds.points[rec.id]
	if !ok {
		dp = &DataPoint{
			id:     rec.id,
			typ:    rec.typ,
			device: ds.device,
		}
		ds.points[rec.id] = dp
	}
	ds.mu.Unlock()

	dp.update(rec.value, rec.raw)
	return dp
}
