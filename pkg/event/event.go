package event

import "time"

// Decision is a participant's RSVP choice. The remove glyph is not a decision;
// it clears the participant row instead.
type Decision string

const (
	Going    Decision = "Going"
	NotGoing Decision = "Not Going"
	Unsure   Decision = "Unsure"
)

// Valid reports whether d is one of the closed decision set.
func (d Decision) Valid() bool {
	return d == Going || d == NotGoing || d == Unsure
}

// Event is a scheduled community event. Date is the stored UTC instant;
// display values are derived from it plus the guild's current offset at
// render time. RoleID is empty while no platform role is attached and is
// cleared exactly once at expiry.
type Event struct {
	ID           int
	GuildID      string
	Name         string
	Description  string
	Date         time.Time
	Expired      bool
	RoleID       string
	CreatedAt    time.Time
	Participants []Participant
}

// Participant is one user's decision for one event. At most one row exists
// per (event, user).
type Participant struct {
	UserID   string
	Decision Decision
}

// ParticipantsByDecision returns the user ids holding the given decision, in
// stored order.
func (e *Event) ParticipantsByDecision(d Decision) []string {
	var ids []string
	for _, p := range e.Participants {
		if p.Decision == d {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

// EventPost links the posted summary message to its event. Written once when
// the summary is first posted, read-only thereafter.
type EventPost struct {
	MessageID string
	ChannelID string
	EventID   int
}
