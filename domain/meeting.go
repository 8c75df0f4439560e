package domain

import "time"

type MeetingID string

// Meeting is the durable record of a session and its participant sets.
// The three sets form a partition: an email lives in at most one of
// Expected, Waiting, Admitted. All mutations go through the transition
// methods below so the partition cannot be broken by convention drift.
type Meeting struct {
	ID          MeetingID
	Title       string
	Link        string
	CreatorID   string
	ScheduledAt time.Time
	Expected    []Participant
	Waiting     []Participant
	Admitted    []Participant
}

// Classify resolves an email to its placement, in the fixed priority order
// admitted > waiting > expected. The ordering is load-bearing: an identity
// present in both Waiting and (stale) Expected must be treated as waiting,
// not re-queued.
func (m *Meeting) Classify(email string) Placement {
	if _, ok := findByEmail(m.Admitted, email); ok {
		return PlacementAdmitted
	}
	if _, ok := findByEmail(m.Waiting, email); ok {
		return PlacementWaiting
	}
	if _, ok := findByEmail(m.Expected, email); ok {
		return PlacementExpected
	}
	return PlacementNone
}

// MoveToWaiting moves an expected participant into the waiting room.
// The move is conditional: if an entry with the same email already sits in
// the waiting room the meeting is left untouched and moved is false, which
// callers treat as the already-waiting case rather than an error.
func (m *Meeting) MoveToWaiting(email string) (Participant, bool) {
	if p, ok := findByEmail(m.Waiting, email); ok {
		return p, false
	}
	p, ok := findByEmail(m.Expected, email)
	if !ok {
		return Participant{}, false
	}
	m.Expected = removeByEmail(m.Expected, email)
	m.Waiting = append(m.Waiting, p)
	return p, true
}

// Approve moves a waiting participant into the admitted set. Idempotent
// against re-approval: approving an already admitted email reports moved
// false without duplicating the entry.
func (m *Meeting) Approve(email string) (Participant, bool) {
	if p, ok := findByEmail(m.Admitted, email); ok {
		return p, false
	}
	p, ok := findByEmail(m.Waiting, email)
	if !ok {
		return Participant{}, false
	}
	m.Waiting = removeByEmail(m.Waiting, email)
	m.Admitted = append(m.Admitted, p)
	return p, true
}

// AdmitCreator ensures the creator's descriptor is present in the admitted
// set. Called at creation time so the invariant "Admitted contains the
// creator once connected" holds from the first join.
func (m *Meeting) AdmitCreator(creator Participant) {
	if _, ok := findByEmail(m.Admitted, creator.Email); ok {
		return
	}
	m.Admitted = append(m.Admitted, creator)
}

// CreatorParticipant returns the creator's descriptor when present.
func (m *Meeting) CreatorParticipant() (Participant, bool) {
	for _, p := range m.Admitted {
		if p.InviteID == m.CreatorID {
			return p, true
		}
	}
	return Participant{}, false
}

// IsCreator reports whether the identity holds creator authority, either by
// resolved user id or by matching the creator descriptor's email.
func (m *Meeting) IsCreator(identity Identity) bool {
	if identity.UserID != "" && identity.UserID == m.CreatorID {
		return true
	}
	if creator, ok := m.CreatorParticipant(); ok && identity.Email != "" {
		return creator.Email == identity.Email
	}
	return false
}

func findByEmail(set []Participant, email string) (Participant, bool) {
	for _, p := range set {
		if p.Email == email {
			return p, true
		}
	}
	return Participant{}, false
}

func removeByEmail(set []Participant, email string) []Participant {
	out := set[:0]
	for _, p := range set {
		if p.Email != email {
			out = append(out, p)
		}
	}
	return out
}
