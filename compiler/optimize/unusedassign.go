package optimize

import (
	"context"

	"tlog.app/go/tlog"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
	"github.com/sergiuiacob1/yulopt/compiler/dialect"
	"github.com/sergiuiacob1/yulopt/compiler/semantics"
	"github.com/sergiuiacob1/yulopt/compiler/set"
)

type (
	// storeState tracks one store along the current analysis path.
	// The order matters: join of two paths is the maximum.
	storeState uint8

	// trackedStores maps a variable to the stores written to it that
	// are still of interest, keyed by statement identity.
	trackedStores map[ast.Name]map[ast.Stmt]storeState

	forLoopInfo struct {
		pendingBreak    []trackedStores
		pendingContinue []trackedStores
	}

	eliminator struct {
		d  *dialect.Dialect
		tr tlog.Span

		stores   trackedStores
		declared []ast.Name
		returns  map[ast.Name]bool

		loop      forLoopInfo
		loopDepth int

		pending set.Bitmap
	}
)

const (
	// unused: overwritten or gone out of scope before any read.
	// undecided: neither read nor overwritten yet.
	// used: a read may observe the store.
	unused storeState = iota
	undecided
	used
)

// Loops nested less deeply than this are unrolled for analysis; a loop
// at this nesting depth or deeper pins its own stores to used instead,
// which keeps the analysis polynomial.
const maxLoopNesting = 6

// EliminateUnusedAssignments removes stores whose value no read can
// observe before the variable is overwritten or leaves scope, when the
// stored expression is movable. Assignments are dropped entirely;
// declarations only lose their initializer so the name stays in
// scope. Multi-target assignments and multi-variable declarations are
// never candidates.
//
// The analysis is intra-procedural: every function is analyzed with a
// fresh state, and the top-level block counts as a function with no
// return variables.
func EliminateUnusedAssignments(ctx context.Context, d *dialect.Dialect, b *ast.Block) {
	tr := tlog.SpanFromContext(ctx)

	e := &eliminator{
		d:      d,
		tr:     tr,
		stores: trackedStores{},
	}

	numberStores(b, 1)

	e.visitBlock(b)

	tr.V("optimize").Printw("unused assignments", "removed", e.pending.Size(), "ids", e.pending)

	r := remover{pending: &e.pending}
	r.block(b)
}

// numberStores gives every assignment and declaration a positive id,
// the key the removal phase looks up. Ids survive analysis untouched;
// rewriting is batched into the second phase so identities stay valid.
func numberStores(b *ast.Block, next int) int {
	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *ast.Block:
			next = numberStores(s, next)
		case *ast.VariableDeclaration:
			s.ID = next
			next++
		case *ast.Assignment:
			s.ID = next
			next++
		case *ast.If:
			next = numberStores(s.Body, next)
		case *ast.Switch:
			for _, c := range s.Cases {
				next = numberStores(c.Body, next)
			}
		case *ast.ForLoop:
			next = numberStores(s.Pre, next)
			next = numberStores(s.Post, next)
			next = numberStores(s.Body, next)
		case *ast.FunctionDefinition:
			next = numberStores(s.Body, next)
		}
	}

	return next
}

func (e *eliminator) visitStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Block:
		e.visitBlock(s)
	case *ast.VariableDeclaration:
		if s.Value != nil {
			e.visitExpr(s.Value)
		}

		for _, v := range s.Vars {
			e.declared = append(e.declared, v.Name)
		}

		// A single-variable initializer is a store like any other,
		// except removal strips the initializer, not the statement.
		if len(s.Vars) == 1 && s.Value != nil {
			e.record(s.Vars[0].Name, s)
		}
	case *ast.Assignment:
		assert(len(s.Targets) != 0, "assignment without targets")

		e.visitExpr(s.Value)

		// Multi-target assignments are visited for reads only.
		if len(s.Targets) != 1 {
			break
		}

		x := s.Targets[0].Name

		e.changeUndecidedTo(x, unused)
		e.record(x, s)
	case *ast.If:
		e.visitExpr(s.Cond)

		skip := e.stores.clone()

		e.visitBlock(s.Body)

		e.stores.merge(skip)
	case *ast.Switch:
		e.visitSwitch(s)
	case *ast.ForLoop:
		e.visitForLoop(s)
	case *ast.FunctionDefinition:
		e.visitFunction(s)
	case *ast.Break:
		e.loop.pendingBreak = append(e.loop.pendingBreak, e.stores)
		e.stores = trackedStores{}
	case *ast.Continue:
		e.loop.pendingContinue = append(e.loop.pendingContinue, e.stores)
		e.stores = trackedStores{}
	case *ast.Leave:
		// The caller observes every return variable.
		for name := range e.returns {
			e.changeUndecidedTo(name, used)
		}
	case *ast.ExpressionStmt:
		e.visitExpr(s.Expr)
	default:
		assert(false, "unsupported stmt: %T", s)
	}
}

func (e *eliminator) visitExpr(x ast.Expr) {
	switch x := x.(type) {
	case *ast.Literal:
	case *ast.Identifier:
		e.changeUndecidedTo(x.Name, used)
	case *ast.FunctionCall:
		for _, a := range x.Args {
			e.visitExpr(a)
		}
	default:
		assert(false, "unsupported expr: %T", x)
	}
}

func (e *eliminator) visitBlock(b *ast.Block) {
	savedDeclared := e.declared
	e.declared = nil

	pre := e.stores.clone()

	for _, s := range b.Stmts {
		e.visitStmt(s)
	}

	// If the block cannot flow out of its tail, stores introduced in
	// it that are still undecided will never be observed.
	if n := len(b.Stmts); n != 0 {
		switch semantics.ControlFlowKind(e.d, b.Stmts[n-1]) {
		case semantics.Leave, semantics.Terminate:
			e.markNewStoresUnused(pre)
		}
	}

	for _, v := range e.declared {
		e.finalize(v, unused)
	}

	e.declared = savedDeclared
}

func (e *eliminator) visitSwitch(s *ast.Switch) {
	assert(len(s.Cases) != 0, "switch without cases")

	e.visitExpr(s.Expr)

	pre := e.stores.clone()

	var branches []trackedStores
	hasDefault := false

	for _, c := range s.Cases {
		assert(c.Body != nil, "switch case without a body")

		if c.Value == nil {
			hasDefault = true
		}

		e.stores = pre.clone()
		e.visitBlock(c.Body)

		branches = append(branches, e.stores)
	}

	e.stores = branches[0]

	for _, b := range branches[1:] {
		e.stores.merge(b)
	}

	// Without a default some value may match no case at all.
	if !hasDefault {
		e.stores.merge(pre)
	}
}

func (e *eliminator) visitForLoop(l *ast.ForLoop) {
	outerLoop := e.loop
	e.loop = forLoopInfo{}
	e.loopDepth++

	savedDeclared := e.declared
	e.declared = nil

	// Pre runs in the loop's scope, not in a block of its own.
	for _, s := range l.Pre.Stmts {
		e.visitStmt(s)
	}

	e.visitExpr(l.Cond)

	zeroRuns := e.stores.clone()

	e.visitBlock(l.Body)
	e.absorbContinues()
	e.visitBlock(l.Post)
	e.visitExpr(l.Cond)

	if e.loopDepth < maxLoopNesting {
		// One more unrolled iteration reaches the fixpoint of the
		// three-valued state: a store surviving two runs unread
		// stays in the same state forever.
		oneRun := e.stores.clone()

		e.visitBlock(l.Body)
		e.absorbContinues()
		e.visitBlock(l.Post)
		e.visitExpr(l.Cond)

		e.stores.merge(oneRun)
	} else {
		e.shortcutNestedLoop(zeroRuns)
	}

	e.stores.merge(zeroRuns)

	for _, br := range e.loop.pendingBreak {
		e.stores.merge(br)
	}

	preDeclared := e.declared
	e.declared = savedDeclared
	e.loopDepth--
	e.loop = outerLoop

	for _, v := range preDeclared {
		e.finalize(v, unused)
	}
}

func (e *eliminator) absorbContinues() {
	for _, c := range e.loop.pendingContinue {
		e.stores.merge(c)
	}

	e.loop.pendingContinue = nil
}

// shortcutNestedLoop pins every store introduced inside the loop to
// used instead of unrolling further. Break and continue snapshots are
// left alone; they are joined later anyway.
func (e *eliminator) shortcutNestedLoop(zeroRuns trackedStores) {
	for name, stores := range e.stores {
		zero := zeroRuns[name]

		for stmt := range stores {
			if _, ok := zero[stmt]; ok {
				continue
			}

			stores[stmt] = used
		}
	}
}

func (e *eliminator) visitFunction(f *ast.FunctionDefinition) {
	savedStores := e.stores
	savedDeclared := e.declared
	savedReturns := e.returns
	savedLoop := e.loop
	savedDepth := e.loopDepth

	e.stores = trackedStores{}
	e.declared = nil
	e.loop = forLoopInfo{}
	e.loopDepth = 0

	e.returns = make(map[ast.Name]bool, len(f.Returns))
	for _, r := range f.Returns {
		e.returns[r.Name] = true
	}

	e.visitBlock(f.Body)

	for _, p := range f.Params {
		e.finalize(p.Name, unused)
	}

	// Return variables are live on every exit path.
	for _, r := range f.Returns {
		e.finalize(r.Name, used)
	}

	e.stores = savedStores
	e.declared = savedDeclared
	e.returns = savedReturns
	e.loop = savedLoop
	e.loopDepth = savedDepth
}

// record starts tracking s as a store to x. A store met again on a
// loop re-visit keeps the state it already earned.
func (e *eliminator) record(x ast.Name, s ast.Stmt) {
	m := e.stores[x]
	if m == nil {
		m = map[ast.Stmt]storeState{}
		e.stores[x] = m
	}

	if _, ok := m[s]; !ok {
		m[s] = undecided
	}
}

func (e *eliminator) changeUndecidedTo(x ast.Name, to storeState) {
	for s, st := range e.stores[x] {
		if st == undecided {
			e.stores[x][s] = to
		}
	}
}

// markNewStoresUnused downgrades stores that appeared after the pre
// snapshot and were never read; control does not reach any code that
// could observe them.
func (e *eliminator) markNewStoresUnused(pre trackedStores) {
	for name, stores := range e.stores {
		old := pre[name]

		for stmt, st := range stores {
			if st != undecided {
				continue
			}

			if _, ok := old[stmt]; ok {
				continue
			}

			stores[stmt] = unused
		}
	}
}

// finalize flushes v out of the tracked state when it leaves scope,
// folding in every pending break and continue snapshot of the
// enclosing loop, and schedules removable stores.
func (e *eliminator) finalize(v ast.Name, fallback storeState) {
	stores := e.stores[v]
	delete(e.stores, v)

	for _, br := range e.loop.pendingBreak {
		stores = joinInto(stores, br[v])
		delete(br, v)
	}

	for _, c := range e.loop.pendingContinue {
		stores = joinInto(stores, c[v])
		delete(c, v)
	}

	for stmt, st := range stores {
		if st != unused && (st != undecided || fallback != unused) {
			continue
		}

		if !semantics.Movable(e.d, storeValue(stmt)) {
			continue
		}

		e.pending.Set(storeID(stmt))
	}
}

func storeValue(s ast.Stmt) ast.Expr {
	switch s := s.(type) {
	case *ast.Assignment:
		return s.Value
	case *ast.VariableDeclaration:
		return s.Value
	default:
		assert(false, "not a store: %T", s)
		return nil
	}
}

func storeID(s ast.Stmt) int {
	switch s := s.(type) {
	case *ast.Assignment:
		return s.ID
	case *ast.VariableDeclaration:
		return s.ID
	default:
		assert(false, "not a store: %T", s)
		return 0
	}
}

func (a trackedStores) clone() trackedStores {
	c := make(trackedStores, len(a))

	for name, stores := range a {
		m := make(map[ast.Stmt]storeState, len(stores))

		for s, st := range stores {
			m[s] = st
		}

		c[name] = m
	}

	return c
}

// merge joins b into a pointwise. Entries present on one side only
// are preserved as they are. b must not be used afterwards.
func (a trackedStores) merge(b trackedStores) {
	for name, stores := range b {
		a[name] = joinInto(a[name], stores)
	}
}

func joinInto(a, b map[ast.Stmt]storeState) map[ast.Stmt]storeState {
	if a == nil {
		return b
	}

	for s, st := range b {
		if cur, ok := a[s]; !ok || st > cur {
			a[s] = st
		}
	}

	return a
}

type (
	remover struct {
		pending *set.Bitmap
	}
)

// block drops scheduled assignments and strips scheduled declaration
// initializers; everything else, and statement order, is preserved.
func (r *remover) block(b *ast.Block) {
	out := b.Stmts[:0]

	for _, s := range b.Stmts {
		switch s := s.(type) {
		case *ast.Assignment:
			if r.pending.IsSet(s.ID) {
				continue
			}
		case *ast.VariableDeclaration:
			if r.pending.IsSet(s.ID) {
				s.Value = nil
			}
		case *ast.Block:
			r.block(s)
		case *ast.If:
			r.block(s.Body)
		case *ast.Switch:
			for _, c := range s.Cases {
				r.block(c.Body)
			}
		case *ast.ForLoop:
			r.block(s.Pre)
			r.block(s.Post)
			r.block(s.Body)
		case *ast.FunctionDefinition:
			r.block(s.Body)
		}

		out = append(out, s)
	}

	b.Stmts = out
}
