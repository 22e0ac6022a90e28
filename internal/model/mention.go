package model

// MentionKind is the kind of a mention directive.
type MentionKind string

const (
	MentionUser     MentionKind = "user"
	MentionChannel  MentionKind = "channel"
	MentionEveryone MentionKind = "everyone"
	MentionHere     MentionKind = "here"
)

// Valid reports whether k is a known mention kind.
func (k MentionKind) Valid() bool {
	switch k {
	case MentionUser, MentionChannel, MentionEveryone, MentionHere:
		return true
	}
	return false
}

// Group reports whether k addresses current membership rather than one user.
func (k MentionKind) Group() bool {
	return k == MentionChannel || k == MentionEveryone || k == MentionHere
}

// MentionDirective is a mention as submitted with a message. UserID is
// required for user mentions and ignored for group kinds.
type MentionDirective struct {
	UserID *int64      `json:"user_id,omitempty"`
	Kind   MentionKind `json:"kind"`
}

// Mention is a materialized mention row. Group directives materialize one
// row per eligible member at send time. IsRead only transitions false→true.
type Mention struct {
	ID        int64       `json:"id"`
	MessageID int64       `json:"message_id"`
	UserID    *int64      `json:"user_id,omitempty"`
	Kind      MentionKind `json:"kind"`
	IsRead    bool        `json:"is_read"`
}
