package models

// MessageEvent is the self-contained object pushed to live connections for
// every created message. Embedded users are public projections.
type MessageEvent struct {
	Message
	Sender    User              `json:"sender"`
	Recipient *User             `json:"recipient,omitempty"`
	Group     *GroupWithMembers `json:"group,omitempty"`
}

// ParticipantIDs returns the users a message concerns: sender and recipient
// for direct messages, the member snapshot for group messages.
func (e MessageEvent) ParticipantIDs() []int {
	ids := []int{e.SenderID}
	if e.Recipient != nil && e.Recipient.ID != e.SenderID {
		ids = append(ids, e.Recipient.ID)
	}
	if e.Group != nil {
		for _, id := range e.Group.MemberIDs() {
			if id != e.SenderID {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
