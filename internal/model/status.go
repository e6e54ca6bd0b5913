package model

import "fmt"

// Canonical ticket status names as stored in the ticket_statuses
// table.  RESERVED and PAID are the non-terminal ("active") states;
// CANCELLED and REFUNDED are terminal and allow no further
// transitions.
const (
	StatusReserved  = "RESERVED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusRefunded  = "REFUNDED"
)

// TicketStatus mirrors a row of the ticket_statuses vocabulary
// table.
//
// Fields:
//  ID   – small numeric identifier referenced by tickets.status_id.
//  Name – canonical status name (see constants above).
type TicketStatus struct {
	ID   uint8  // ticket_statuses.id
	Name string // ticket_statuses.name
}

// StatusSet resolves between status names and their numeric
// identifiers.  It is loaded once at startup from the
// ticket_statuses table and treated as static configuration
// afterwards, so no locking is required.
type StatusSet struct {
	byName map[string]uint8
	byID   map[uint8]string
}

// NewStatusSet builds a StatusSet from vocabulary rows.  It returns
// an error when any of the four canonical statuses is missing, so a
// misconfigured database is caught at startup rather than during a
// sale.
func NewStatusSet(rows []TicketStatus) (*StatusSet, error) {
	s := &StatusSet{
		byName: make(map[string]uint8, len(rows)),
		byID:   make(map[uint8]string, len(rows)),
	}
	for _, r := range rows {
		s.byName[r.Name] = r.ID
		s.byID[r.ID] = r.Name
	}
	for _, name := range []string{StatusReserved, StatusPaid, StatusCancelled, StatusRefunded} {
		if _, ok := s.byName[name]; !ok {
			return nil, fmt.Errorf("ticket status vocabulary missing %q", name)
		}
	}
	return s, nil
}

// IDOf returns the numeric identifier for a status name.  The name
// must be one of the canonical constants; unknown names indicate a
// programming error and panic.
func (s *StatusSet) IDOf(name string) uint8 {
	id, ok := s.byName[name]
	if !ok {
		panic(fmt.Sprintf("unknown ticket status %q", name))
	}
	return id
}

// NameOf returns the canonical name for a status identifier, or an
// empty string when the identifier is unknown.
func (s *StatusSet) NameOf(id uint8) string { return s.byID[id] }

// IsTerminal reports whether the given status identifier is one of
// the terminal states (CANCELLED or REFUNDED).
func (s *StatusSet) IsTerminal(id uint8) bool {
	name := s.byID[id]
	return name == StatusCancelled || name == StatusRefunded
}
