package models

// Subject identifies the signed-in operator. All customers, deliveries and
// payments are stored under the subject UID.
type Subject struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

// IsZero reports whether no operator is signed in.
func (s Subject) IsZero() bool {
	return s.UID == ""
}
