package interp

import (
	"math/big"

	"tlog.app/go/errors"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
	"github.com/sergiuiacob1/yulopt/compiler/dialect"
)

type (
	// Effect is one externally observable event: a state or memory
	// access, a log, or an abort.
	Effect struct {
		Name ast.Name
		Args []*big.Int
	}

	Trace struct {
		Effects []Effect
	}

	control int

	scope struct {
		vars map[ast.Name]*big.Int
		prev *scope
	}

	machine struct {
		d     *dialect.Dialect
		trace *Trace

		funcs   map[ast.Name]*ast.FunctionDefinition
		scope   *scope
		storage map[string]*big.Int
		memory  map[string]*big.Int

		steps int
	}
)

const (
	flowNormal control = iota
	flowBreak
	flowContinue
	flowLeave
)

const stepLimit = 100_000

// errTerminated unwinds execution after an abort-like builtin. The
// run itself is still a success; the abort is part of the trace.
var errTerminated = errors.New("terminated")

// Run executes a well-formed program and returns its observable
// trace. Execution stops after stepLimit statements so a wrong loop
// fails the run instead of hanging it.
func Run(d *dialect.Dialect, b *ast.Block) (*Trace, error) {
	m := &machine{
		d:       d,
		trace:   &Trace{},
		funcs:   map[ast.Name]*ast.FunctionDefinition{},
		storage: map[string]*big.Int{},
		memory:  map[string]*big.Int{},
	}

	_, err := m.execBlock(b)
	if err != nil && !errors.Is(err, errTerminated) {
		return nil, err
	}

	return m.trace, nil
}

func (m *machine) execBlock(b *ast.Block) (_ control, err error) {
	m.scope = &scope{vars: map[ast.Name]*big.Int{}, prev: m.scope}
	defer func() { m.scope = m.scope.prev }()

	return m.execStmts(b.Stmts)
}

// execStmts runs a statement sequence in the current scope. Function
// definitions are hoisted: they are visible to every statement of the
// sequence, including earlier ones.
func (m *machine) execStmts(stmts []ast.Stmt) (_ control, err error) {
	type shadowed struct {
		name ast.Name
		prev *ast.FunctionDefinition
	}

	var hoisted []shadowed

	defer func() {
		for _, h := range hoisted {
			if h.prev != nil {
				m.funcs[h.name] = h.prev
			} else {
				delete(m.funcs, h.name)
			}
		}
	}()

	for _, s := range stmts {
		if f, ok := s.(*ast.FunctionDefinition); ok {
			hoisted = append(hoisted, shadowed{name: f.Name, prev: m.funcs[f.Name]})
			m.funcs[f.Name] = f
		}
	}

	for _, s := range stmts {
		c, err := m.execStmt(s)
		if err != nil || c != flowNormal {
			return c, err
		}
	}

	return flowNormal, nil
}

func (m *machine) execStmt(s ast.Stmt) (_ control, err error) {
	m.steps++
	if m.steps > stepLimit {
		return flowNormal, errors.New("step limit exceeded")
	}

	switch s := s.(type) {
	case *ast.Block:
		return m.execBlock(s)
	case *ast.FunctionDefinition:
		// Hoisted at sequence entry.
		return flowNormal, nil
	case *ast.VariableDeclaration:
		vals := make([]*big.Int, len(s.Vars))

		if s.Value != nil {
			vals, err = m.evalMulti(s.Value, len(s.Vars))
			if err != nil {
				return flowNormal, err
			}
		} else {
			for i := range vals {
				vals[i] = new(big.Int)
			}
		}

		for i, v := range s.Vars {
			m.scope.vars[v.Name] = vals[i]
		}

		return flowNormal, nil
	case *ast.Assignment:
		vals, err := m.evalMulti(s.Value, len(s.Targets))
		if err != nil {
			return flowNormal, err
		}

		for i, t := range s.Targets {
			if err = m.setVar(t.Name, vals[i]); err != nil {
				return flowNormal, err
			}
		}

		return flowNormal, nil
	case *ast.If:
		v, err := m.eval(s.Cond)
		if err != nil {
			return flowNormal, err
		}

		if v.Sign() == 0 {
			return flowNormal, nil
		}

		return m.execBlock(s.Body)
	case *ast.Switch:
		return m.execSwitch(s)
	case *ast.ForLoop:
		return m.execForLoop(s)
	case *ast.Break:
		return flowBreak, nil
	case *ast.Continue:
		return flowContinue, nil
	case *ast.Leave:
		return flowLeave, nil
	case *ast.ExpressionStmt:
		_, err = m.evalMulti(s.Expr, -1)
		return flowNormal, err
	default:
		return flowNormal, errors.New("unsupported stmt: %T", s)
	}
}

func (m *machine) execSwitch(s *ast.Switch) (_ control, err error) {
	v, err := m.eval(s.Expr)
	if err != nil {
		return flowNormal, err
	}

	var def *ast.Case

	for _, c := range s.Cases {
		if c.Value == nil {
			def = c
			continue
		}

		if c.Value.Word().Cmp(v) == 0 {
			return m.execBlock(c.Body)
		}
	}

	if def != nil {
		return m.execBlock(def.Body)
	}

	return flowNormal, nil
}

func (m *machine) execForLoop(l *ast.ForLoop) (_ control, err error) {
	m.scope = &scope{vars: map[ast.Name]*big.Int{}, prev: m.scope}
	defer func() { m.scope = m.scope.prev }()

	c, err := m.execStmts(l.Pre.Stmts)
	if err != nil || c == flowLeave {
		return c, err
	}

	for {
		m.steps++
		if m.steps > stepLimit {
			return flowNormal, errors.New("step limit exceeded")
		}

		v, err := m.eval(l.Cond)
		if err != nil {
			return flowNormal, err
		}

		if v.Sign() == 0 {
			return flowNormal, nil
		}

		c, err := m.execBlock(l.Body)
		if err != nil {
			return flowNormal, err
		}

		switch c {
		case flowBreak:
			return flowNormal, nil
		case flowLeave:
			return flowLeave, nil
		}

		c, err = m.execBlock(l.Post)
		if err != nil || c == flowLeave {
			return c, err
		}
	}
}

func (m *machine) setVar(name ast.Name, v *big.Int) error {
	for s := m.scope; s != nil; s = s.prev {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return nil
		}
	}

	return errors.New("assignment to undeclared variable %v", name)
}

func (m *machine) getVar(name ast.Name) (*big.Int, error) {
	for s := m.scope; s != nil; s = s.prev {
		if v, ok := s.vars[name]; ok {
			return v, nil
		}
	}

	return nil, errors.New("read of undeclared variable %v", name)
}

// eval evaluates an expression expected to produce exactly one value.
func (m *machine) eval(x ast.Expr) (*big.Int, error) {
	vals, err := m.evalMulti(x, 1)
	if err != nil {
		return nil, err
	}

	return vals[0], nil
}

// evalMulti evaluates x expecting want values; want -1 accepts any
// number (expression statements discard them all).
func (m *machine) evalMulti(x ast.Expr, want int) (_ []*big.Int, err error) {
	var vals []*big.Int

	switch x := x.(type) {
	case *ast.Literal:
		vals = []*big.Int{x.Word()}
	case *ast.Identifier:
		v, err := m.getVar(x.Name)
		if err != nil {
			return nil, err
		}

		vals = []*big.Int{v}
	case *ast.FunctionCall:
		vals, err = m.call(x)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported expr: %T", x)
	}

	if want >= 0 && len(vals) != want {
		return nil, errors.New("expected %v values, got %v", want, len(vals))
	}

	return vals, nil
}

func (m *machine) call(x *ast.FunctionCall) (_ []*big.Int, err error) {
	args := make([]*big.Int, len(x.Args))

	for i, a := range x.Args {
		args[i], err = m.eval(a)
		if err != nil {
			return nil, errors.Wrap(err, "argument of %v", x.Name)
		}
	}

	if f, ok := m.funcs[x.Name]; ok {
		return m.callFunction(f, args)
	}

	return m.builtin(x.Name, args)
}

func (m *machine) callFunction(f *ast.FunctionDefinition, args []*big.Int) (_ []*big.Int, err error) {
	if len(args) != len(f.Params) {
		return nil, errors.New("%v takes %v arguments, got %v", f.Name, len(f.Params), len(args))
	}

	// Functions do not see outer variables, only outer functions.
	saved := m.scope
	m.scope = &scope{vars: map[ast.Name]*big.Int{}}

	defer func() { m.scope = saved }()

	for i, p := range f.Params {
		m.scope.vars[p.Name] = args[i]
	}

	for _, r := range f.Returns {
		m.scope.vars[r.Name] = new(big.Int)
	}

	_, err = m.execStmts(f.Body.Stmts)
	if err != nil {
		return nil, err
	}

	ret := make([]*big.Int, len(f.Returns))

	for i, r := range f.Returns {
		ret[i] = m.scope.vars[r.Name]
	}

	return ret, nil
}
