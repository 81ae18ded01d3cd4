package domain

// TagKind is the keyword of a bracketed location marker.
type TagKind string

const (
	TagStart    TagKind = "START"
	TagEnd      TagKind = "END"
	TagLocation TagKind = "LOCATION"
)

// LocationTag is a location marker extracted from AI response text, e.g.
// "[START: Hyderabad, India]". Tags exist only for the duration of one
// request and are stripped from the text before it reaches the user.
type LocationTag struct {
	Kind TagKind
	Name string
}
