package models

// Member represents a person belonging to a family
type Member struct {
	ID       int64  `json:"id,omitempty"`
	FamilyID int64  `json:"family_id"`
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Age      int    `json:"age"`
}

// NewMember is the client-supplied shape for a member to be created;
// the family id is attached by the service at insert time.
type NewMember struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Age      int    `json:"age"`
}
