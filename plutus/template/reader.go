package template

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode"
)

// FormKind is the syntactic category of a Form
type FormKind int

const (
	FormBool FormKind = iota
	FormInt
	FormString
	FormSymbol
	FormKeyword
	FormList
	FormVector
	FormMap
	FormTagged
)

func (k FormKind) String() string {
	switch k {
	case FormBool:
		return "bool"
	case FormInt:
		return "int"
	case FormString:
		return "string"
	case FormSymbol:
		return "symbol"
	case FormKeyword:
		return "keyword"
	case FormList:
		return "list"
	case FormVector:
		return "vector"
	case FormMap:
		return "map"
	case FormTagged:
		return "tagged"
	default:
		return "unknown"
	}
}

// Form is a node of template source
type Form struct {
	Kind  FormKind
	Pos   Pos
	Text  string   // symbol, keyword, string and tag text
	Int   *big.Int // FormInt
	Bool  bool     // FormBool
	Items []Form   // collections; maps alternate key, value. FormTagged holds one item.
}

func (f Form) String() string {
	switch f.Kind {
	case FormBool:
		if f.Bool {
			return "true"
		}
		return "false"
	case FormInt:
		return f.Int.String()
	case FormString:
		return fmt.Sprintf("%q", f.Text)
	case FormSymbol, FormKeyword:
		return f.Text
	case FormList:
		return "(" + joinForms(f.Items) + ")"
	case FormVector:
		return "[" + joinForms(f.Items) + "]"
	case FormMap:
		return "{" + joinForms(f.Items) + "}"
	case FormTagged:
		return "#" + f.Text + " " + joinForms(f.Items)
	default:
		return "?"
	}
}

func joinForms(forms []Form) string {
	parts := make([]string, len(forms))
	for i, f := range forms {
		parts[i] = f.String()
	}
	return strings.Join(parts, " ")
}

var (
	symbolChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789.*+!-_?$%&=<>/:"

	intPattern = regexp.MustCompile(`^[+-]?\d+N?$`)
)

// Read parses a single form from source
func Read(src string) (Form, error) {
	forms, err := ReadAll(src)
	if err != nil {
		return Form{}, err
	}
	if len(forms) != 1 {
		return Form{}, &CompileError{Pos: Pos{Line: 1, Col: 1}, Msg: fmt.Sprintf("expected exactly one form, found %d", len(forms))}
	}
	return forms[0], nil
}

// ReadAll parses every top-level form of src
func ReadAll(src string) ([]Form, error) {
	l := newLexer(src)
	if err := l.lex(); err != nil {
		return nil, err
	}

	r := &reader{lexer: l}
	var forms []Form
	for r.lexer.peekToken().Type != TokenEOF {
		f, ok, err := r.readForm()
		if err != nil {
			return nil, err
		}
		if ok {
			forms = append(forms, f)
		}
	}
	return forms, nil
}

type reader struct {
	lexer *lexer
}

// readForm reads one form. ok is false for a discarded (#_) form.
func (r *reader) readForm() (form Form, ok bool, err error) {
	tok := r.lexer.peekToken()

	switch tok.Type {
	case TokenEOF:
		return Form{}, false, &CompileError{Pos: tok.Pos, Msg: "unexpected end of input"}
	case TokenString:
		r.lexer.next()
		return Form{Kind: FormString, Text: tok.Value, Pos: tok.Pos}, true, nil
	case TokenAtom:
		return r.readAtom()
	case TokenLeftParen:
		f, err := r.readCollection(FormList, TokenRightParen)
		return f, err == nil, err
	case TokenLeftBracket:
		f, err := r.readCollection(FormVector, TokenRightBracket)
		return f, err == nil, err
	case TokenLeftBrace:
		f, err := r.readCollection(FormMap, TokenRightBrace)
		if err != nil {
			return Form{}, false, err
		}
		if len(f.Items)%2 != 0 {
			return Form{}, false, &CompileError{Pos: f.Pos, Msg: "map must have an even number of forms"}
		}
		return f, true, nil
	default:
		r.lexer.next()
		return Form{}, false, &CompileError{Pos: tok.Pos, Msg: "unexpected closing delimiter"}
	}
}

func (r *reader) readCollection(kind FormKind, closing TokenType) (Form, error) {
	start := r.lexer.next()
	f := Form{Kind: kind, Pos: start.Pos}

	for {
		tok := r.lexer.peekToken()
		if tok.Type == closing {
			r.lexer.next()
			return f, nil
		}
		if tok.Type == TokenEOF {
			return Form{}, &CompileError{Pos: start.Pos, Msg: fmt.Sprintf("unterminated %s", kind)}
		}

		item, ok, err := r.readForm()
		if err != nil {
			return Form{}, err
		}
		if ok {
			f.Items = append(f.Items, item)
		}
	}
}

func (r *reader) readAtom() (Form, bool, error) {
	tok := r.lexer.next()
	value := tok.Value

	switch value {
	case "true", "false":
		return Form{Kind: FormBool, Bool: value == "true", Pos: tok.Pos}, true, nil
	case "nil":
		return Form{}, false, &CompileError{Pos: tok.Pos, Msg: "nil has no data representation"}
	}

	// #_ discards the next form
	if value == "#_" {
		if _, _, err := r.readForm(); err != nil {
			return Form{}, false, err
		}
		return Form{}, false, nil
	}

	if strings.HasPrefix(value, "#") {
		if len(value) == 1 || value == "#{" {
			return Form{}, false, &CompileError{Pos: tok.Pos, Msg: fmt.Sprintf("unsupported dispatch %q", value)}
		}
		inner, ok, err := r.readForm()
		if err != nil {
			return Form{}, false, err
		}
		if !ok {
			return Form{}, false, &CompileError{Pos: tok.Pos, Msg: "tagged form has no value"}
		}
		return Form{Kind: FormTagged, Text: value[1:], Items: []Form{inner}, Pos: tok.Pos}, true, nil
	}

	if strings.HasPrefix(value, ":") {
		if len(value) == 1 {
			return Form{}, false, &CompileError{Pos: tok.Pos, Msg: "empty keyword"}
		}
		if err := validateSymbol(value[1:]); err != nil {
			return Form{}, false, &CompileError{Pos: tok.Pos, Msg: err.Error()}
		}
		return Form{Kind: FormKeyword, Text: value, Pos: tok.Pos}, true, nil
	}

	if intPattern.MatchString(value) {
		n, ok := new(big.Int).SetString(strings.TrimSuffix(strings.TrimPrefix(value, "+"), "N"), 10)
		if !ok {
			return Form{}, false, &CompileError{Pos: tok.Pos, Msg: fmt.Sprintf("invalid integer %s", value)}
		}
		return Form{Kind: FormInt, Int: n, Pos: tok.Pos}, true, nil
	}

	if err := validateSymbol(value); err != nil {
		return Form{}, false, &CompileError{Pos: tok.Pos, Msg: err.Error()}
	}
	return Form{Kind: FormSymbol, Text: value, Pos: tok.Pos}, true, nil
}

func validateSymbol(s string) error {
	if s == "" {
		return fmt.Errorf("empty symbol")
	}
	if unicode.IsDigit(rune(s[0])) {
		return fmt.Errorf("symbol cannot start with digit: %s", s)
	}
	for _, ch := range strings.ToUpper(s) {
		if !strings.ContainsRune(symbolChars, ch) {
			return fmt.Errorf("invalid character '%c' in symbol: %s", ch, s)
		}
	}
	return nil
}
