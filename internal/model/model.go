package model

import "time"

// The groups offered when a contact is entered. Any other value is accepted as well, the list is
// only a suggestion for the user.
const (
	GroupFriends = "Friends"
	GroupWork    = "Work"
	GroupFamily  = "Family"
	GroupOther   = "Other"
)

// DefaultGroup is assigned to contacts whose group is unspecified or blank.
const DefaultGroup = GroupOther

// Groups lists the suggested group values in the order they are shown to the user.
var Groups = []string{GroupFriends, GroupWork, GroupFamily, GroupOther}

// Contact is the data structure for a person that we know.
// The Name is the unique key of the contact. Email and Address are optional; nil means that no
// value was provided.
type Contact struct {
	Name      string    `json:"name"               yaml:"name"`
	Phone     string    `json:"phone"              yaml:"phone"`
	Email     *string   `json:"email,omitempty"    yaml:"email,omitempty"`
	Address   *string   `json:"address,omitempty"  yaml:"address,omitempty"`
	Group     string    `json:"group"              yaml:"group"`
	CreatedAt time.Time `json:"created_at"         yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at"         yaml:"updated_at"`
}

// Update describes a change to an existing contact. All fields are optional, a nil field is left
// unchanged. A pointer to the empty string removes the email or address, and resets the group to
// the default group.
type Update struct {
	Phone   *string
	Email   *string
	Address *string
	Group   *string
}

// StringValue returns the string a pointer refers to, or the empty string for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
