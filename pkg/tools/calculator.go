package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// CalculatorTool evaluates arithmetic expressions. Pay and entitlement
// questions often reduce to simple arithmetic the model should not be
// trusted to do inline.
type CalculatorTool struct{}

func NewCalculatorTool() *CalculatorTool {
	return &CalculatorTool{}
}

func (t *CalculatorTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "calculator",
		Description: "Evaluate an arithmetic expression. Supports +, -, *, /, %, parentheses and decimal numbers.",
		Parameters: []ToolParameter{
			{
				Name:        "expression",
				Type:        "string",
				Description: "The expression to evaluate, e.g. '44 * 1.5 * 28.50'",
				Required:    true,
			},
		},
		ServerURL: "local",
	}
}

func (t *CalculatorTool) GetName() string {
	return "calculator"
}

func (t *CalculatorTool) GetDescription() string {
	return "Evaluate arithmetic expressions"
}

func (t *CalculatorTool) Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error) {
	start := time.Now()

	expr, ok := args["expression"].(string)
	if !ok || strings.TrimSpace(expr) == "" {
		return errorResult("calculator", "expression parameter is required", start),
			fmt.Errorf("expression parameter is required")
	}

	value, err := evalExpression(expr)
	if err != nil {
		return errorResult("calculator", err.Error(), start), err
	}

	return successResult("calculator", formatNumber(value), start), nil
}

// formatNumber trims trailing zeros so "66.000000" renders as "66".
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

// evalExpression parses and evaluates with standard precedence.
// Grammar: expr := term (('+'|'-') term)*
//
//	term := unary (('*'|'/'|'%') unary)*
//	unary := '-' unary | primary
//	primary := number | '(' expr ')'
func evalExpression(input string) (float64, error) {
	p := &exprParser{input: input}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		op := p.peek()
		if op != '*' && op != '/' && op != '%' {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		switch op {
		case '*':
			left *= right
		case '/':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = float64(int64(left) % int64(right))
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	startPos := p.pos
	for p.pos < len(p.input) && (unicode.IsDigit(rune(p.input[p.pos])) || p.input[p.pos] == '.') {
		p.pos++
	}
	if p.pos == startPos {
		return 0, fmt.Errorf("expected number at position %d", startPos)
	}
	v, err := strconv.ParseFloat(p.input[startPos:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.input[startPos:p.pos])
	}
	return v, nil
}
