package observability

import (
	"sync/atomic"
	"time"
)

// Stats aggregates coordinator counters for periodic reporting.
type Stats struct {
	ConnectionsOpened uint64 `json:"connections_opened"`
	ConnectionsClosed uint64 `json:"connections_closed"`
	Admissions        uint64 `json:"admissions"`
	Waitings          uint64 `json:"waitings"`
	Rejections        uint64 `json:"rejections"`
	SignalsRelayed    uint64 `json:"signals_relayed"`
	SignalsDropped    uint64 `json:"signals_dropped"`
	Broadcasts        uint64 `json:"broadcasts"`
	CollectedAt       string `json:"collected_at"`
}

// Monitoring is a lock-free counter set shared by the relay, the admission
// service, and the connection layer. Reads are sampled snapshots; exactness
// under concurrent increments is not required.
type Monitoring struct {
	connectionsOpened atomic.Uint64
	connectionsClosed atomic.Uint64
	admissions        atomic.Uint64
	waitings          atomic.Uint64
	rejections        atomic.Uint64
	signalsRelayed    atomic.Uint64
	signalsDropped    atomic.Uint64
	broadcasts        atomic.Uint64
}

func NewMonitoring() *Monitoring {
	return &Monitoring{}
}

func (m *Monitoring) ConnectionOpened() { m.connectionsOpened.Add(1) }
func (m *Monitoring) ConnectionClosed() { m.connectionsClosed.Add(1) }
func (m *Monitoring) Admission()        { m.admissions.Add(1) }
func (m *Monitoring) Waiting()          { m.waitings.Add(1) }
func (m *Monitoring) Rejection()        { m.rejections.Add(1) }
func (m *Monitoring) SignalRelayed()    { m.signalsRelayed.Add(1) }
func (m *Monitoring) SignalDropped()    { m.signalsDropped.Add(1) }
func (m *Monitoring) Broadcast()        { m.broadcasts.Add(1) }

// GetLatest returns a point-in-time snapshot of all counters.
func (m *Monitoring) GetLatest() Stats {
	return Stats{
		ConnectionsOpened: m.connectionsOpened.Load(),
		ConnectionsClosed: m.connectionsClosed.Load(),
		Admissions:        m.admissions.Load(),
		Waitings:          m.waitings.Load(),
		Rejections:        m.rejections.Load(),
		SignalsRelayed:    m.signalsRelayed.Load(),
		SignalsDropped:    m.signalsDropped.Load(),
		Broadcasts:        m.broadcasts.Load(),
		CollectedAt:       time.Now().UTC().Format(time.RFC3339),
	}
}
