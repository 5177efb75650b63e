package ast

// RawString holds both the logical value of a quoted string literal and the
// raw source text it was parsed from, so formatters can round-trip the
// original quoting and escaping instead of re-deriving it.
type RawString struct {
	// Raw is the token text as it appeared in the source, quotes included.
	Raw string
	// Value is the unquoted, unescaped logical string.
	Value string
}

// NewRawString builds a RawString with no raw source text attached. Useful
// for synthetically constructed directives that did not come from a parse.
func NewRawString(value string) RawString {
	return RawString{Value: value}
}

// NewRawStringWithRaw builds a RawString carrying both the original quoted
// source text and the unquoted logical value.
func NewRawStringWithRaw(raw string, value string) RawString {
	return RawString{Raw: raw, Value: value}
}

// IsEmpty reports whether the string has no logical value.
func (r RawString) IsEmpty() bool {
	return r.Value == ""
}

// HasRaw reports whether the original source token text was captured.
func (r RawString) HasRaw() bool {
	return r.Raw != ""
}

// String returns the logical value.
func (r RawString) String() string {
	return r.Value
}

// EscapeType classifies how a string literal's escape sequences were
// written in the source, so round-trip formatting can preserve the style.
type EscapeType int

const (
	// EscapeTypeUnknown means no classification was performed.
	EscapeTypeUnknown EscapeType = iota
	// EscapeTypeNone means the literal contained no escape sequences.
	EscapeTypeNone
	// EscapeTypeCStyle means the literal used C-style backslash escapes.
	EscapeTypeCStyle
)

// StringMetadata records the original quoted source text of a string literal
// together with its escape style, so a formatter configured to preserve
// original formatting can emit the exact original bytes.
type StringMetadata struct {
	OriginalValue string
	EscapeType    EscapeType
}

// HasOriginal reports whether the original quoted source text was captured.
func (m *StringMetadata) HasOriginal() bool {
	return m != nil && m.OriginalValue != ""
}

// QuotedContent returns the original quoted source text, including the
// surrounding double quotes.
func (m *StringMetadata) QuotedContent() string {
	if m == nil {
		return ""
	}
	return m.OriginalValue
}
