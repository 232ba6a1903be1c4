package expr

type node interface{}

type numberNode struct {
	v float64
}

type varNode struct{}

type paramNode struct {
	name string
}

type negNode struct {
	arg node
}

type binaryNode struct {
	op   string
	l, r node
}

type callNode struct {
	name  string
	args  []node
	lists [][]node
}

// maxDepth bounds nesting of parentheses, calls and signs.
const maxDepth = 500

type parser struct {
	toks   []token
	pos    int
	params []string
	seen   map[string]bool
	depth  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) expect(k kind, what string) (token, error) {
	t := p.next()
	if t.kind != k {
		return t, errorf(t.pos, "expected %s, found %s", what, describe(t))
	}
	return t, nil
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of expression"
	}
	return "\"" + t.text + "\""
}

// sum := product (('+'|'-') product)*
func (p *parser) sum() (node, error) {
	l, err := p.product()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		r, err := p.product()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: op, l: l, r: r}
	}
	return l, nil
}

// product := unary (('*'|'/') unary)*
func (p *parser) product() (node, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.next().text
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = &binaryNode{op: op, l: l, r: r}
	}
	return l, nil
}

// unary := ('+'|'-') unary | power
func (p *parser) unary() (node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, errorf(p.peek().pos, "expression nested deeper than %d", maxDepth)
	}

	if p.isOp("+", "-") {
		op := p.next().text
		arg, err := p.unary()
		if err != nil {
			return nil, err
		}
		if op == "-" {
			return &negNode{arg: arg}, nil
		}
		return arg, nil
	}
	return p.power()
}

// power := primary (('**'|'^') unary)?
//
// The exponent binds tighter than a leading sign on the base, so -x**2 is
// -(x**2), and the operator is right associative.
func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("**", "^") {
		p.next()
		exp, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: "**", l: base, r: exp}, nil
	}
	return base, nil
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &numberNode{v: t.num}, nil

	case tokLParen:
		n, err := p.sum()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "\")\""); err != nil {
			return nil, err
		}
		return n, nil

	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.call(t)
		}
		if t.text == Var {
			return &varNode{}, nil
		}
		if v, ok := constants[t.text]; ok {
			return &numberNode{v: v}, nil
		}
		if IsFunction(t.text) {
			return nil, errorf(t.pos, "function %q used without arguments", t.text)
		}
		if !p.seen[t.text] {
			p.seen[t.text] = true
			p.params = append(p.params, t.text)
		}
		return &paramNode{name: t.text}, nil

	case tokLBrack:
		return nil, errorf(t.pos, "list is only allowed as a function argument")
	}

	return nil, errorf(t.pos, "unexpected %s", describe(t))
}

func (p *parser) call(name token) (node, error) {
	sig, ok := signature(name.text)
	if !ok {
		return nil, errorf(name.pos, "unknown function %q", name.text)
	}
	p.next() // (

	c := &callNode{name: name.text}
	for i, k := range sig {
		if i > 0 {
			if _, err := p.expect(tokComma, "\",\""); err != nil {
				return nil, err
			}
		}
		if k == listArg {
			items, err := p.list()
			if err != nil {
				return nil, err
			}
			c.lists = append(c.lists, items)
			continue
		}
		arg, err := p.sum()
		if err != nil {
			return nil, err
		}
		c.args = append(c.args, arg)
	}

	if t := p.peek(); t.kind == tokComma {
		return nil, errorf(t.pos, "%s takes %d argument(s)", name.text, len(sig))
	}
	if _, err := p.expect(tokRParen, "\")\""); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *parser) list() ([]node, error) {
	if _, err := p.expect(tokLBrack, "list"); err != nil {
		return nil, err
	}
	var items []node
	for {
		n, err := p.sum()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokRBrack, "\"]\""); err != nil {
		return nil, err
	}
	return items, nil
}
