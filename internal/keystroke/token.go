package keystroke

// Kind discriminates the Token variants.
type Kind uint8

const (
	KindNone      Kind = iota // key has no transcript effect
	KindPrintable             // key produces a character
	KindNamed                 // key is rendered as a label such as "[Enter]"
)

func (k Kind) String() string {
	switch k {
	case KindPrintable:
		return "printable"
	case KindNamed:
		return "named"
	default:
		return "none"
	}
}

// Edit is the effect a named key has on reconstructed visible text.
type Edit uint8

const (
	EditNone Edit = iota
	EditSpace
	EditBackspace
)

// Token is the result of decoding one key-down event.
type Token struct {
	Kind  Kind
	Char  rune
	Label string
	Edit  Edit
}

// Printable returns a token for a character-producing key.
func Printable(r rune) Token {
	return Token{Kind: KindPrintable, Char: r}
}

// Named returns a token for a key rendered by label.
func Named(label string) Token {
	return Token{Kind: KindNamed, Label: label}
}

// None is the token for keys with no transcript effect.
var None = Token{}

// withEdit returns a copy of t carrying a visible-text edit.
func (t Token) withEdit(e Edit) Token {
	t.Edit = e
	return t
}

// Text returns the transcript rendering of the token.
func (t Token) Text() string {
	switch t.Kind {
	case KindPrintable:
		return string(t.Char)
	case KindNamed:
		return t.Label
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (t Token) String() string {
	switch t.Kind {
	case KindPrintable:
		return "Printable(" + string(t.Char) + ")"
	case KindNamed:
		return "Named(" + t.Label + ")"
	default:
		return "None"
	}
}
