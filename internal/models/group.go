package models

import "time"

// Group represents a named chat group.
type Group struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatorID int       `db:"creator_id" json:"creatorId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// GroupWithMembers is a group together with a snapshot of its member set.
type GroupWithMembers struct {
	Group
	Members []User `json:"members"`
}

// MemberIDs returns the ids of the snapshot members.
func (g GroupWithMembers) MemberIDs() []int {
	ids := make([]int, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
