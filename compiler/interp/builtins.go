package interp

import (
	"math/big"

	"tlog.app/go/errors"

	"github.com/sergiuiacob1/yulopt/compiler/ast"
)

var wordMod = new(big.Int).Lsh(big.NewInt(1), 256)

func word(v *big.Int) *big.Int {
	return v.Mod(v, wordMod)
}

func boolWord(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}

	return new(big.Int)
}

func (m *machine) builtin(name ast.Name, args []*big.Int) (_ []*big.Int, err error) {
	one := func(v *big.Int) []*big.Int { return []*big.Int{v} }

	bin := func(f func(z, x, y *big.Int) *big.Int) ([]*big.Int, error) {
		if len(args) != 2 {
			return nil, errors.New("%v takes 2 arguments, got %v", name, len(args))
		}

		return one(word(f(new(big.Int), args[0], args[1]))), nil
	}

	switch name {
	case "add":
		return bin((*big.Int).Add)
	case "sub":
		return bin((*big.Int).Sub)
	case "mul":
		return bin((*big.Int).Mul)
	case "div":
		return bin(func(z, x, y *big.Int) *big.Int {
			if y.Sign() == 0 {
				return z
			}

			return z.Div(x, y)
		})
	case "mod":
		return bin(func(z, x, y *big.Int) *big.Int {
			if y.Sign() == 0 {
				return z
			}

			return z.Mod(x, y)
		})
	case "and":
		return bin((*big.Int).And)
	case "or":
		return bin((*big.Int).Or)
	case "xor":
		return bin((*big.Int).Xor)
	case "shl":
		return bin(func(z, sh, v *big.Int) *big.Int {
			if !sh.IsUint64() || sh.Uint64() > 255 {
				return z
			}

			return z.Lsh(v, uint(sh.Uint64()))
		})
	case "shr":
		return bin(func(z, sh, v *big.Int) *big.Int {
			if !sh.IsUint64() || sh.Uint64() > 255 {
				return z
			}

			return z.Rsh(v, uint(sh.Uint64()))
		})
	case "lt":
		return bin(func(z, x, y *big.Int) *big.Int { return z.Set(boolWord(x.Cmp(y) < 0)) })
	case "gt":
		return bin(func(z, x, y *big.Int) *big.Int { return z.Set(boolWord(x.Cmp(y) > 0)) })
	case "eq":
		return bin(func(z, x, y *big.Int) *big.Int { return z.Set(boolWord(x.Cmp(y) == 0)) })
	case "iszero":
		if len(args) != 1 {
			return nil, errors.New("iszero takes 1 argument, got %v", len(args))
		}

		return one(boolWord(args[0].Sign() == 0)), nil
	case "not":
		if len(args) != 1 {
			return nil, errors.New("not takes 1 argument, got %v", len(args))
		}

		z := new(big.Int).Sub(wordMod, big.NewInt(1))

		return one(z.Xor(z, args[0])), nil
	case "caller", "callvalue":
		return one(new(big.Int)), nil
	case "calldataload":
		if len(args) != 1 {
			return nil, errors.New("calldataload takes 1 argument, got %v", len(args))
		}

		return one(new(big.Int)), nil
	case "sstore":
		m.effect(name, args)
		m.storage[args[0].String()] = args[1]

		return nil, nil
	case "sload":
		m.effect(name, args)

		if v, ok := m.storage[args[0].String()]; ok {
			return one(v), nil
		}

		return one(new(big.Int)), nil
	case "mstore":
		m.effect(name, args)
		m.memory[args[0].String()] = args[1]

		return nil, nil
	case "mload":
		m.effect(name, args)

		if v, ok := m.memory[args[0].String()]; ok {
			return one(v), nil
		}

		return one(new(big.Int)), nil
	case "log0":
		m.effect(name, args)

		return nil, nil
	case "revert", "stop", "invalid":
		m.effect(name, args)

		return nil, errTerminated
	default:
		if m.d.Builtin(name) != nil {
			return nil, errors.New("builtin %v not implemented", name)
		}

		return nil, errors.New("call of undefined function %v", name)
	}
}

// effect records one observable event with copies of the argument
// words, so later mutation cannot change history.
func (m *machine) effect(name ast.Name, args []*big.Int) {
	cp := make([]*big.Int, len(args))

	for i, a := range args {
		cp[i] = new(big.Int).Set(a)
	}

	m.trace.Effects = append(m.trace.Effects, Effect{Name: name, Args: cp})
}

// Equal reports whether two traces record the same events in the
// same order.
func (t *Trace) Equal(o *Trace) bool {
	if len(t.Effects) != len(o.Effects) {
		return false
	}

	for i, e := range t.Effects {
		f := o.Effects[i]

		if e.Name != f.Name || len(e.Args) != len(f.Args) {
			return false
		}

		for j, a := range e.Args {
			if a.Cmp(f.Args[j]) != 0 {
				return false
			}
		}
	}

	return true
}
