package parser

import (
	"fmt"
	"strconv"

	"coolz80/ast"
	"coolz80/lexer"
)

const (
	_ int = iota
	LOWEST
	ASSIGN  // <- (right associative)
	NOT     // not
	COMPARE // <=, <, =
	SUM     // +, -
	PRODUCT // *, /
	ISVOID  // isvoid
	NEG     // ~
	AT      // @
	DOT     // .
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN: ASSIGN,
	lexer.EQ:     COMPARE,
	lexer.LE:     COMPARE,
	lexer.LT:     COMPARE,
	lexer.PLUS:   SUM,
	lexer.MINUS:  SUM,
	lexer.TIMES:  PRODUCT,
	lexer.DIVIDE: PRODUCT,
	lexer.AT:     AT,
	lexer.DOT:    DOT,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	l              *lexer.Lexer
	filename       string
	curToken       lexer.Token
	peekToken      lexer.Token
	errors         []string
	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

// New returns a parser over l. Every class it produces records filename,
// which also prefixes the diagnostics.
func New(l *lexer.Lexer, filename string) *Parser {
	p := &Parser{
		l:              l,
		filename:       filename,
		errors:         []string{},
		prefixParseFns: make(map[lexer.TokenType]prefixParseFn),
		infixParseFns:  make(map[lexer.TokenType]infixParseFn),
	}

	p.nextToken()
	p.nextToken()

	p.registerPrefix(lexer.INT_CONST, p.parseIntegerExpression)
	p.registerPrefix(lexer.STR_CONST, p.parseStringExpression)
	p.registerPrefix(lexer.BOOL_CONST, p.parseBoolExpression)
	p.registerPrefix(lexer.OBJECTID, p.parseObjectIdentifier)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(lexer.IF, p.parseIfExpression)
	p.registerPrefix(lexer.WHILE, p.parseWhileExpression)
	p.registerPrefix(lexer.LET, p.parseLetExpression)
	p.registerPrefix(lexer.CASE, p.parseCaseExpression)
	p.registerPrefix(lexer.NEW, p.parseNewExpression)
	p.registerPrefix(lexer.ISVOID, p.parseIsvoidExpression)
	p.registerPrefix(lexer.NOT, p.parseNotExpression)
	p.registerPrefix(lexer.NEG, p.parseNegExpression)
	p.registerPrefix(lexer.LBRACE, p.parseBlockExpression)

	p.registerInfix(lexer.PLUS, p.parseInfixExpression)
	p.registerInfix(lexer.MINUS, p.parseInfixExpression)
	p.registerInfix(lexer.TIMES, p.parseInfixExpression)
	p.registerInfix(lexer.DIVIDE, p.parseInfixExpression)
	p.registerInfix(lexer.LT, p.parseInfixExpression)
	p.registerInfix(lexer.LE, p.parseInfixExpression)
	p.registerInfix(lexer.EQ, p.parseInfixExpression)
	p.registerInfix(lexer.ASSIGN, p.parseAssignment)
	p.registerInfix(lexer.DOT, p.parseMethodCall)
	p.registerInfix(lexer.AT, p.parseMethodCall)

	return p
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) errorf(line int, format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf("%s:%d: %s", p.filename, line, fmt.Sprintf(format, args...)))
}

// nextToken advances the window. Lexical errors are reported here and
// skipped so the grammar never sees an ERROR token.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	for p.peekToken.Type == lexer.ERROR {
		p.errorf(p.peekToken.Line, "%s", p.peekToken.Literal)
		p.peekToken = p.l.NextToken()
	}
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectAndPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t lexer.TokenType) {
	p.errorf(p.peekToken.Line, "syntax error at or near %s: expected %s", describe(p.peekToken), t)
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "EOF"
	case lexer.TYPEID, lexer.OBJECTID, lexer.INT_CONST, lexer.BOOL_CONST:
		return fmt.Sprintf("%s = %s", tok.Type, tok.Literal)
	case lexer.STR_CONST:
		return fmt.Sprintf("%s = %q", tok.Type, tok.Literal)
	}
	return fmt.Sprintf("'%s'", tok.Literal)
}

// ParseProgram parses classes until EOF. A malformed class is reported and
// skipped up to the next "class" keyword.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	prog.Classes = []*ast.Class{}

	for !p.curTokenIs(lexer.EOF) {
		class := p.ParseClass()
		if class != nil && p.expectAndPeek(lexer.SEMI) {
			prog.Classes = append(prog.Classes, class)
			p.nextToken()
			continue
		}
		p.nextToken()
		p.skipUntil(lexer.CLASS)
	}

	if len(prog.Classes) == 0 && len(p.errors) == 0 {
		p.errorf(p.curToken.Line, "syntax error at or near EOF: no classes")
	}
	return prog
}

func (p *Parser) ParseClass() *ast.Class {
	if !p.curTokenIs(lexer.CLASS) {
		p.errorf(p.curToken.Line, "syntax error at or near %s: expected class", describe(p.curToken))
		return nil
	}

	c := &ast.Class{Token: p.curToken, Filename: p.filename}

	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	c.Name = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(lexer.INHERITS) {
		p.nextToken()
		if !p.expectAndPeek(lexer.TYPEID) {
			return nil
		}
		c.Parent = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}
	}

	if !p.expectAndPeek(lexer.LBRACE) {
		return nil
	}

	c.Features = []ast.Feature{}
	p.nextToken()

	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		feature := p.parseFeature()
		if feature == nil {
			return nil
		}
		c.Features = append(c.Features, feature)

		if !p.expectAndPeek(lexer.SEMI) {
			return nil
		}
		p.nextToken()
	}

	if !p.curTokenIs(lexer.RBRACE) {
		p.errorf(p.curToken.Line, "syntax error at or near EOF: expected '}'")
		return nil
	}

	return c
}

func (p *Parser) skipUntil(tokens ...lexer.TokenType) {
	for !p.curTokenIs(lexer.EOF) {
		for _, t := range tokens {
			if p.curTokenIs(t) {
				return
			}
		}
		p.nextToken()
	}
}

func (p *Parser) parseFeature() ast.Feature {
	if p.peekTokenIs(lexer.LPAREN) {
		if m := p.parseMethod(); m != nil {
			return m
		}
		return nil
	}
	if a := p.parseAttribute(); a != nil {
		return a
	}
	return nil
}

func (p *Parser) parseMethod() *ast.Method {
	m := &ast.Method{Token: p.curToken}

	if !p.curTokenIs(lexer.OBJECTID) {
		p.errorf(p.curToken.Line, "syntax error at or near %s: expected method name", describe(p.curToken))
		return nil
	}
	m.Name = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.LPAREN) {
		return nil
	}

	m.Parameters = []*ast.Formal{}
	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
	} else {
		for {
			p.nextToken()
			formal := p.parseFormal()
			if formal == nil {
				return nil
			}
			m.Parameters = append(m.Parameters, formal)

			if p.peekTokenIs(lexer.RPAREN) {
				p.nextToken()
				break
			}
			if !p.expectAndPeek(lexer.COMMA) {
				return nil
			}
		}
	}

	if !p.expectAndPeek(lexer.COLON) {
		return nil
	}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	m.ReturnType = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.LBRACE) {
		return nil
	}
	p.nextToken()

	m.Body = p.parseExpression(LOWEST)
	if m.Body == nil {
		return nil
	}

	if !p.expectAndPeek(lexer.RBRACE) {
		return nil
	}
	return m
}

func (p *Parser) parseFormal() *ast.Formal {
	f := &ast.Formal{Token: p.curToken}

	if !p.curTokenIs(lexer.OBJECTID) {
		p.errorf(p.curToken.Line, "syntax error at or near %s: expected formal name", describe(p.curToken))
		return nil
	}
	f.Name = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.COLON) {
		return nil
	}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	f.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	return f
}

func (p *Parser) parseAttribute() *ast.Attribute {
	a := &ast.Attribute{Token: p.curToken}

	if !p.curTokenIs(lexer.OBJECTID) {
		p.errorf(p.curToken.Line, "syntax error at or near %s: expected feature", describe(p.curToken))
		return nil
	}
	a.Name = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.COLON) {
		return nil
	}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	a.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	a.Init = p.parseOptionalInit()
	if a.Init == nil {
		return nil
	}
	return a
}

// parseOptionalInit parses "<- expr" when present and returns NoExpr
// otherwise. A nil result means the initializer was malformed.
func (p *Parser) parseOptionalInit() ast.Expression {
	if !p.peekTokenIs(lexer.ASSIGN) {
		return &ast.NoExpr{Token: p.curToken}
	}
	p.nextToken()
	p.nextToken()
	return p.parseExpression(LOWEST)
}

// parseExpression is the Pratt loop: a prefix function for the current
// token, then infix functions while the next operator binds tighter.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}

	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}

	return leftExp
}

// (expr)
func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	exp := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	exp.Right = p.parseExpression(precedence)
	if exp.Right == nil {
		return nil
	}

	// Comparisons do not chain.
	if precedence == COMPARE && p.peekPrecedence() == COMPARE {
		p.errorf(p.peekToken.Line, "syntax error at or near %s: comparison operators are non-associative", describe(p.peekToken))
		return nil
	}
	return exp
}

// { expr; expr; ... }
func (p *Parser) parseBlockExpression() ast.Expression {
	be := &ast.BlockExpression{Token: p.curToken}
	be.Expressions = []ast.Expression{}

	p.nextToken()
	for !p.curTokenIs(lexer.RBRACE) {
		if p.curTokenIs(lexer.EOF) {
			p.errorf(p.curToken.Line, "syntax error at or near EOF: expected '}'")
			return nil
		}
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		be.Expressions = append(be.Expressions, expr)

		if !p.expectAndPeek(lexer.SEMI) {
			return nil
		}
		p.nextToken()
	}

	if len(be.Expressions) == 0 {
		p.errorf(be.Line(), "syntax error at or near '}': empty block")
		return nil
	}
	return be
}

// if expr then expr else expr fi
func (p *Parser) parseIfExpression() ast.Expression {
	ife := &ast.IfExpression{Token: p.curToken}

	p.nextToken()
	if ife.Condition = p.parseExpression(LOWEST); ife.Condition == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.THEN) {
		return nil
	}

	p.nextToken()
	if ife.Consequence = p.parseExpression(LOWEST); ife.Consequence == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.ELSE) {
		return nil
	}

	p.nextToken()
	if ife.Alternative = p.parseExpression(LOWEST); ife.Alternative == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.FI) {
		return nil
	}
	return ife
}

// while expr loop expr pool
func (p *Parser) parseWhileExpression() ast.Expression {
	we := &ast.WhileExpression{Token: p.curToken}

	p.nextToken()
	if we.Condition = p.parseExpression(LOWEST); we.Condition == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.LOOP) {
		return nil
	}

	p.nextToken()
	if we.Body = p.parseExpression(LOWEST); we.Body == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.POOL) {
		return nil
	}
	return we
}

// let ID : TYPE [<- expr] [, ID : TYPE [<- expr]]* in expr
func (p *Parser) parseLetExpression() ast.Expression {
	le := &ast.LetExpression{Token: p.curToken}
	le.Bindings = []*ast.Binding{}

	for {
		if !p.expectAndPeek(lexer.OBJECTID) {
			return nil
		}
		binding := &ast.Binding{
			Token: p.curToken,
			Name:  &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal},
		}

		if !p.expectAndPeek(lexer.COLON) {
			return nil
		}
		if !p.expectAndPeek(lexer.TYPEID) {
			return nil
		}
		binding.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

		if binding.Init = p.parseOptionalInit(); binding.Init == nil {
			return nil
		}
		le.Bindings = append(le.Bindings, binding)

		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectAndPeek(lexer.IN) {
		return nil
	}

	p.nextToken()
	if le.Body = p.parseExpression(LOWEST); le.Body == nil {
		return nil
	}
	return le
}

// case expr of [ID : TYPE => expr;]+ esac
func (p *Parser) parseCaseExpression() ast.Expression {
	ce := &ast.CaseExpression{Token: p.curToken}

	p.nextToken()
	if ce.Expression = p.parseExpression(LOWEST); ce.Expression == nil {
		return nil
	}
	if !p.expectAndPeek(lexer.OF) {
		return nil
	}

	ce.Cases = []*ast.Case{}
	p.nextToken()
	for !p.curTokenIs(lexer.ESAC) {
		if p.curTokenIs(lexer.EOF) {
			p.errorf(p.curToken.Line, "syntax error at or near EOF: expected esac")
			return nil
		}
		branch := p.parseCase()
		if branch == nil {
			return nil
		}
		ce.Cases = append(ce.Cases, branch)

		if !p.expectAndPeek(lexer.SEMI) {
			return nil
		}
		p.nextToken()
	}

	if len(ce.Cases) == 0 {
		p.errorf(p.curToken.Line, "syntax error at or near esac: case needs at least one branch")
		return nil
	}
	return ce
}

func (p *Parser) parseCase() *ast.Case {
	c := &ast.Case{Token: p.curToken}

	if !p.curTokenIs(lexer.OBJECTID) {
		p.errorf(p.curToken.Line, "syntax error at or near %s: expected case branch", describe(p.curToken))
		return nil
	}
	c.Name = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.COLON) {
		return nil
	}
	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	c.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.DARROW) {
		return nil
	}

	p.nextToken()
	if c.Expression = p.parseExpression(LOWEST); c.Expression == nil {
		return nil
	}
	return c
}

// new TYPE
func (p *Parser) parseNewExpression() ast.Expression {
	ne := &ast.NewExpression{Token: p.curToken}

	if !p.expectAndPeek(lexer.TYPEID) {
		return nil
	}
	ne.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}
	return ne
}

// isvoid expr
func (p *Parser) parseIsvoidExpression() ast.Expression {
	ie := &ast.IsVoidExpression{Token: p.curToken}

	p.nextToken()
	if ie.Expression = p.parseExpression(ISVOID); ie.Expression == nil {
		return nil
	}
	return ie
}

// not expr
func (p *Parser) parseNotExpression() ast.Expression {
	ne := &ast.NotExpression{Token: p.curToken}

	p.nextToken()
	if ne.Expression = p.parseExpression(NOT); ne.Expression == nil {
		return nil
	}
	return ne
}

// ~expr
func (p *Parser) parseNegExpression() ast.Expression {
	ne := &ast.NegExpression{Token: p.curToken}

	p.nextToken()
	if ne.Expression = p.parseExpression(NEG); ne.Expression == nil {
		return nil
	}
	return ne
}

func (p *Parser) parseBoolExpression() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curToken.Literal == "true"}
}

func (p *Parser) parseIntegerExpression() ast.Expression {
	value, err := strconv.Atoi(p.curToken.Literal)
	if err != nil {
		p.errorf(p.curToken.Line, "could not parse integer %s", p.curToken.Literal)
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringExpression() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

// ID or ID(args). The call form dispatches on an implicit self.
func (p *Parser) parseObjectIdentifier() ast.Expression {
	oi := &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.peekTokenIs(lexer.LPAREN) {
		return oi
	}

	call := &ast.MethodCall{
		Token:  p.curToken,
		Object: &ast.ObjectIdentifier{Token: p.curToken, Value: ast.Self},
		Method: oi,
	}
	p.nextToken()
	args, ok := p.parseExpressionList(lexer.RPAREN)
	if !ok {
		return nil
	}
	call.Arguments = args
	return call
}

// expr[@TYPE].ID(args)
func (p *Parser) parseMethodCall(object ast.Expression) ast.Expression {
	exp := &ast.MethodCall{
		Token:  p.curToken,
		Object: object,
	}

	if p.curTokenIs(lexer.AT) {
		if !p.expectAndPeek(lexer.TYPEID) {
			return nil
		}
		exp.Type = &ast.TypeIdentifier{Token: p.curToken, Value: p.curToken.Literal}
		if !p.expectAndPeek(lexer.DOT) {
			return nil
		}
	}

	if !p.expectAndPeek(lexer.OBJECTID) {
		return nil
	}
	exp.Method = &ast.ObjectIdentifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectAndPeek(lexer.LPAREN) {
		return nil
	}
	args, ok := p.parseExpressionList(lexer.RPAREN)
	if !ok {
		return nil
	}
	exp.Arguments = args
	return exp
}

// parseExpressionList starts on the opening token and consumes through end.
func (p *Parser) parseExpressionList(end lexer.TokenType) ([]ast.Expression, bool) {
	exps := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return exps, true
	}

	for {
		p.nextToken()
		exp := p.parseExpression(LOWEST)
		if exp == nil {
			return nil, false
		}
		exps = append(exps, exp)

		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectAndPeek(end) {
		return nil, false
	}
	return exps, true
}

func (p *Parser) parseAssignment(left ast.Expression) ast.Expression {
	identifier, ok := left.(*ast.ObjectIdentifier)
	if !ok {
		p.errorf(p.curToken.Line, "syntax error at or near '<-': left side of assignment must be an identifier")
		return nil
	}

	a := &ast.Assignment{
		Token: p.curToken,
		Name:  identifier,
	}

	p.nextToken()
	if a.Expression = p.parseExpression(ASSIGN - 1); a.Expression == nil {
		return nil
	}
	return a
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) noPrefixParseFnError(tok lexer.Token) {
	p.errorf(tok.Line, "syntax error at or near %s", describe(tok))
}
