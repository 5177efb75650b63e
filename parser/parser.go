package parser

import (
	"context"
	"io"
	"strings"

	"github.com/themoritz/turbobean/ast"
)

// Parser is a hand-written recursive-descent parser over a token stream
// produced by the Lexer. It holds the original source buffer so tokens can
// be materialized lazily, avoiding allocation until their text is actually
// needed.
type Parser struct {
	source   []byte
	tokens   []Token
	pos      int
	filename string
	interner *Interner
}

// NewParser builds a Parser over a pre-scanned token stream. The interner is
// shared with the Lexer so account names, currencies and other repeated
// strings are deduplicated across the whole file.
func NewParser(source []byte, tokens []Token, filename string, interner *Interner) *Parser {
	return &Parser{
		source:   source,
		tokens:   tokens,
		pos:      0,
		filename: filename,
		interner: interner,
	}
}

// parseStringWithEscapes parses a STRING token like parseString, but also
// classifies the escape style of the literal so a formatter configured to
// preserve original formatting can reproduce the exact source bytes.
func (p *Parser) parseStringWithEscapes() (ast.RawString, *ast.StringMetadata, error) {
	tok := p.expect(STRING, "expected string")
	if tok.Type == ILLEGAL {
		return ast.RawString{}, nil, p.errorAtEndOfPrevious("expected string")
	}

	rawValue := tok.String(p.source)
	unquoted, err := p.unquoteString(rawValue)
	if err != nil {
		return ast.RawString{}, nil, p.errorAtToken(tok, "invalid string literal: %v", err)
	}

	escapeType := ast.EscapeTypeNone
	if len(rawValue) >= 2 && containsEscapeSequences(rawValue[1:len(rawValue)-1]) {
		escapeType = ast.EscapeTypeCStyle
	}

	rs := ast.NewRawStringWithRaw(rawValue, p.internString(unquoted))
	meta := &ast.StringMetadata{
		OriginalValue: rawValue,
		EscapeType:    escapeType,
	}

	return rs, meta, nil
}

// parseComment consumes a COMMENT token and returns the trivia node for it.
// The trailing newline that the lexer folds into the token is trimmed off.
func (p *Parser) parseComment() *ast.Comment {
	tok := p.advance()
	content := strings.TrimRight(tok.String(p.source), "\n")
	return &ast.Comment{
		Pos:     tokenPosition(tok, p.filename),
		Content: content,
		Type:    ast.StandaloneComment,
	}
}

// finishDirective captures the trailing inline comment and any metadata
// lines that belong to a directive once its header has been parsed. Every
// non-transaction directive parser in directives.go ends by calling this.
func (p *Parser) finishDirective(d ast.Directive) error {
	pos := d.Position()

	if !p.isAtEnd() && p.peek().Type == COMMENT && p.peek().Line == pos.Line {
		d.SetComment(p.parseComment())
	}

	if !p.isAtEnd() && p.peek().Line > pos.Line && p.peek().Column > 1 {
		if metas := p.parseMetadataFromLine(pos.Line); len(metas) > 0 {
			d.AddMetadata(metas...)
		}
	}

	return nil
}

// parseOption parses: option STRING STRING
func (p *Parser) parseOption() (*ast.Option, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(OPTION, "expected 'option'")

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}

	value, escapes, err := p.parseStringWithEscapes()
	if err != nil {
		return nil, err
	}

	return &ast.Option{
		Pos:          pos,
		Name:         name,
		Value:        value,
		ValueEscapes: escapes,
	}, nil
}

// parseInclude parses: include STRING
func (p *Parser) parseInclude() (*ast.Include, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(INCLUDE, "expected 'include'")

	filename, err := p.parseString()
	if err != nil {
		return nil, err
	}

	return &ast.Include{Pos: pos, Filename: filename}, nil
}

// parsePlugin parses: plugin STRING [STRING]
func (p *Parser) parsePlugin() (*ast.Plugin, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(PLUGIN, "expected 'plugin'")

	name, err := p.parseString()
	if err != nil {
		return nil, err
	}

	plugin := &ast.Plugin{Pos: pos, Name: name}

	if p.check(STRING) {
		config, err := p.parseString()
		if err != nil {
			return nil, err
		}
		plugin.Config = config
	}

	return plugin, nil
}

// parsePushtag parses: pushtag TAG
func (p *Parser) parsePushtag() (*ast.Pushtag, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(PUSHTAG, "expected 'pushtag'")

	tag, err := p.parseTag()
	if err != nil {
		return nil, err
	}

	return &ast.Pushtag{Pos: pos, Tag: tag}, nil
}

// parsePoptag parses: poptag TAG
func (p *Parser) parsePoptag() (*ast.Poptag, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(POPTAG, "expected 'poptag'")

	tag, err := p.parseTag()
	if err != nil {
		return nil, err
	}

	return &ast.Poptag{Pos: pos, Tag: tag}, nil
}

// parsePushmeta parses: pushmeta IDENT COLON [VALUE]
func (p *Parser) parsePushmeta() (*ast.Pushmeta, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(PUSHMETA, "expected 'pushmeta'")

	keyTok := p.expect(IDENT, "expected metadata key")
	if keyTok.Type == ILLEGAL {
		return nil, p.errorAtEndOfPrevious("expected metadata key")
	}
	key := keyTok.String(p.source)

	p.consume(COLON, "expected ':'")

	pm := &ast.Pushmeta{Pos: pos, Key: key}

	if !p.isAtEnd() && p.peek().Line == pos.Line {
		value := p.parseMetadataValue()
		pm.Value = value.String()
	}

	return pm, nil
}

// parsePopmeta parses: popmeta IDENT COLON
func (p *Parser) parsePopmeta() (*ast.Popmeta, error) {
	pos := p.tokenPositionFromPeek()
	p.consume(POPMETA, "expected 'popmeta'")

	keyTok := p.expect(IDENT, "expected metadata key")
	if keyTok.Type == ILLEGAL {
		return nil, p.errorAtEndOfPrevious("expected metadata key")
	}
	key := keyTok.String(p.source)

	p.consume(COLON, "expected ':'")

	return &ast.Popmeta{Pos: pos, Key: key}, nil
}

// parseDatedDirective handles the DATE-prefixed directives. Beancount
// normally writes the date and the directive keyword on the same line, but
// the date may also stand alone on its own line, with the keyword following
// after blank lines or comments; the directive's position tracks the
// keyword, not the date.
func (p *Parser) parseDatedDirective() (ast.Directive, error) {
	date, err := p.parseDate()
	if err != nil {
		return nil, err
	}

	for !p.isAtEnd() && (p.peek().Type == NEWLINE || p.peek().Type == COMMENT) {
		p.advance()
	}

	pos := p.tokenPositionFromPeek()
	tok := p.peek()

	switch tok.Type {
	case BALANCE:
		return p.parseBalance(pos, date)
	case OPEN:
		return p.parseOpen(pos, date)
	case CLOSE:
		return p.parseClose(pos, date)
	case COMMODITY:
		return p.parseCommodity(pos, date)
	case PAD:
		return p.parsePad(pos, date)
	case NOTE:
		return p.parseNote(pos, date)
	case DOCUMENT:
		return p.parseDocument(pos, date)
	case PRICE:
		return p.parsePrice(pos, date)
	case EVENT:
		return p.parseEvent(pos, date)
	case CUSTOM:
		return p.parseCustom(pos, date)
	case TXN, ASTERISK, EXCLAIM, STRING:
		return p.parseTransaction(pos, date)
	default:
		return nil, p.error("expected directive keyword")
	}
}

// Parse reads and parses a Beancount file from r.
func Parse(ctx context.Context, r io.Reader) (*ast.AST, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseBytes(ctx, data)
}

// ParseString parses Beancount source held in a string.
func ParseString(ctx context.Context, str string) (*ast.AST, error) {
	return ParseBytes(ctx, []byte(str))
}

// ParseBytes parses Beancount source held in a byte slice.
func ParseBytes(ctx context.Context, data []byte) (*ast.AST, error) {
	return ParseBytesWithFilename(ctx, "", data)
}

// ParseBytesWithFilename parses Beancount source, attributing all positions
// to filename. The loader package uses this to keep errors and directives
// traceable back to the file they came from when a ledger spans includes.
func ParseBytesWithFilename(ctx context.Context, filename string, data []byte) (*ast.AST, error) {
	lex := NewLexer(data, filename)
	tokens, err := lex.ScanAll()
	if err != nil {
		return nil, err
	}

	p := NewParser(data, tokens, filename, lex.Interner())

	tree := &ast.AST{}

	for !p.isAtEnd() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok := p.peek()

		switch tok.Type {
		case NEWLINE:
			blank := &ast.BlankLine{Pos: tokenPosition(tok, p.filename)}
			tree.BlankLines = append(tree.BlankLines, blank)
			p.advance()

		case COMMENT:
			tree.Comments = append(tree.Comments, p.parseComment())

		case OPTION:
			opt, err := p.parseOption()
			if err != nil {
				return nil, err
			}
			tree.Options = append(tree.Options, opt)

		case INCLUDE:
			inc, err := p.parseInclude()
			if err != nil {
				return nil, err
			}
			tree.Includes = append(tree.Includes, inc)

		case PLUGIN:
			plugin, err := p.parsePlugin()
			if err != nil {
				return nil, err
			}
			tree.Plugins = append(tree.Plugins, plugin)

		case PUSHTAG:
			pt, err := p.parsePushtag()
			if err != nil {
				return nil, err
			}
			tree.Pushtags = append(tree.Pushtags, pt)

		case POPTAG:
			pt, err := p.parsePoptag()
			if err != nil {
				return nil, err
			}
			tree.Poptags = append(tree.Poptags, pt)

		case PUSHMETA:
			pm, err := p.parsePushmeta()
			if err != nil {
				return nil, err
			}
			tree.Pushmetas = append(tree.Pushmetas, pm)

		case POPMETA:
			pm, err := p.parsePopmeta()
			if err != nil {
				return nil, err
			}
			tree.Popmetas = append(tree.Popmetas, pm)

		case DATE:
			directive, err := p.parseDatedDirective()
			if err != nil {
				return nil, err
			}
			tree.Directives = append(tree.Directives, directive)

		case EOF:
			// Nothing left to do; loop condition will exit.

		default:
			return nil, p.error("unexpected token %s", tok.Type)
		}
	}

	if err := ast.ApplyPushPopDirectives(tree); err != nil {
		return nil, err
	}
	if err := ast.SortDirectives(tree); err != nil {
		return nil, err
	}

	return tree, nil
}
