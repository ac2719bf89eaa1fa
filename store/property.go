package store

import (
	"errors"
	"fmt"

	"github.com/cayleygraph/quad"

	"github.com/nodeadmin/owlstore/dl"
)

// Op is a property axiom the resolver may have to defer.
type Op uint8

const (
	OpDomain Op = iota + 1
	OpRange
	OpValue
	OpSubPropertyOf
	OpEquivalentProperty
	OpFunctional
	OpInverseFunctional
)

func (op Op) String() string {
	switch op {
	case OpDomain:
		return "domain"
	case OpRange:
		return "range"
	case OpValue:
		return "value"
	case OpSubPropertyOf:
		return "sub_property_of"
	case OpEquivalentProperty:
		return "equivalent_property"
	case OpFunctional:
		return "functional"
	case OpInverseFunctional:
		return "inverse_functional"
	default:
		return fmt.Sprintf("op(%d)", uint8(op))
	}
}

type pendingOp struct {
	op   Op
	s, o quad.Value
}

// propertyState is either unknownProperty or resolvedProperty.
type propertyState interface {
	propertyState()
}

type unknownProperty struct {
	pending []pendingOp
}

type resolvedProperty struct {
	kind dl.Kind
	role dl.Entity
}

func (*unknownProperty) propertyState()  {}
func (*resolvedProperty) propertyState() {}

// propertyEnv is what a PropertyParser needs from its store.
type propertyEnv interface {
	reasoner() dl.Reasoner
	concept(v quad.Value) (dl.Entity, error)
	individual(v quad.Value) (dl.Entity, error)
	// relatedRole resolves another property to kind and returns its role.
	relatedRole(v quad.Value, kind dl.Kind) (dl.Entity, error)
	cacheValue(p, s, o quad.Value)
	deferred(name string, op Op)
	replayed(name string, op Op)
	skipped(name string, op Op, err error)
}

// PropertyParser holds the axioms about one property until its kind is
// known. Before SetRole every operation is buffered and nothing reaches the
// reasoner; SetRole replays the buffer in arrival order and later operations
// go straight through.
type PropertyParser struct {
	term  quad.Value
	env   propertyEnv
	state propertyState
}

func newPropertyParser(term quad.Value, env propertyEnv) *PropertyParser {
	return &PropertyParser{term: term, env: env, state: &unknownProperty{}}
}

// Name returns the property's kernel name.
func (p *PropertyParser) Name() string { return nameOf(p.term) }

// Kind returns the resolved kind, or zero while unknown.
func (p *PropertyParser) Kind() dl.Kind {
	if r, ok := p.state.(*resolvedProperty); ok {
		return r.kind
	}
	return 0
}

// Role returns the resolved role handle.
func (p *PropertyParser) Role() (dl.Entity, bool) {
	if r, ok := p.state.(*resolvedProperty); ok {
		return r.role, true
	}
	return dl.Entity{}, false
}

// Pending returns the number of buffered operations.
func (p *PropertyParser) Pending() int {
	if u, ok := p.state.(*unknownProperty); ok {
		return len(u.pending)
	}
	return 0
}

func (p *PropertyParser) Domain(s, o quad.Value) error { return p.apply(OpDomain, s, o) }
func (p *PropertyParser) Range(s, o quad.Value) error  { return p.apply(OpRange, s, o) }
func (p *PropertyParser) Value(s, o quad.Value) error  { return p.apply(OpValue, s, o) }

func (p *PropertyParser) SubPropertyOf(s, o quad.Value) error {
	return p.apply(OpSubPropertyOf, s, o)
}

func (p *PropertyParser) EquivalentProperty(s, o quad.Value) error {
	return p.apply(OpEquivalentProperty, s, o)
}

func (p *PropertyParser) Functional(s, o quad.Value) error {
	return p.apply(OpFunctional, s, o)
}

func (p *PropertyParser) InverseFunctional(s, o quad.Value) error {
	return p.apply(OpInverseFunctional, s, o)
}

// SetRole resolves the property's kind. Resolving again to the same kind is
// a no-op; resolving to the other kind fails with ErrKindConflict. Replay
// does not stop at a failing record; all failures are joined.
func (p *PropertyParser) SetRole(kind dl.Kind, role dl.Entity) error {
	if kind != dl.KindObjectRole && kind != dl.KindDataRole {
		return fmt.Errorf("%w: %s cannot be resolved to %s", ErrContractViolation, p.Name(), kind)
	}
	switch st := p.state.(type) {
	case *resolvedProperty:
		if st.kind == kind {
			return nil
		}
		return fmt.Errorf("%w: %s is a %s, not a %s", ErrKindConflict, p.Name(), st.kind, kind)
	case *unknownProperty:
		resolved := &resolvedProperty{kind: kind, role: role}
		p.state = resolved
		// Every record is replayed: unsupported ones are reported to the
		// store, failures are returned together.
		var errs []error
		for _, rec := range st.pending {
			p.env.replayed(p.Name(), rec.op)
			err := p.dispatch(resolved, rec.op, rec.s, rec.o)
			switch {
			case err == nil:
			case errors.Is(err, errIgnored):
				p.env.skipped(p.Name(), rec.op, err)
			default:
				errs = append(errs, fmt.Errorf("replay %s: %w", rec.op, err))
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

func (p *PropertyParser) apply(op Op, s, o quad.Value) error {
	switch st := p.state.(type) {
	case *unknownProperty:
		st.pending = append(st.pending, pendingOp{op: op, s: s, o: o})
		p.env.deferred(p.Name(), op)
		return nil
	case *resolvedProperty:
		return p.dispatch(st, op, s, o)
	}
	return nil
}

func (p *PropertyParser) dispatch(st *resolvedProperty, op Op, s, o quad.Value) error {
	kb := p.env.reasoner()
	object := st.kind == dl.KindObjectRole

	switch op {
	case OpDomain:
		c, err := p.env.concept(o)
		if err != nil {
			return err
		}
		if object {
			return kb.SetObjectDomain(st.role, c)
		}
		return kb.SetDataDomain(st.role, c)

	case OpRange:
		if object {
			c, err := p.env.concept(o)
			if err != nil {
				return err
			}
			return kb.SetObjectRange(st.role, c)
		}
		if !isResource(o) {
			return ignored("literal_range", nameOf(o))
		}
		return kb.SetDataRange(st.role, kb.Datatype(nameOf(o)))

	case OpValue:
		subject, err := p.env.individual(s)
		if err != nil {
			return err
		}
		if object {
			if !isResource(o) {
				return fmt.Errorf("%w: literal %s for object property %s", ErrKindMismatch, o, p.Name())
			}
			target, err := p.env.individual(o)
			if err != nil {
				return err
			}
			return kb.RelatedTo(subject, st.role, target)
		}
		if !isLiteral(o) {
			return fmt.Errorf("%w: resource %s for data property %s", ErrKindMismatch, nameOf(o), p.Name())
		}
		if err := kb.ValueOf(subject, st.role, lexical(o)); err != nil {
			return err
		}
		p.env.cacheValue(p.term, s, o)
		return nil

	case OpSubPropertyOf, OpEquivalentProperty:
		other, err := p.env.relatedRole(o, st.kind)
		if err != nil {
			return err
		}
		switch {
		case op == OpSubPropertyOf && object:
			return kb.ImpliesObjectRoles(st.role, other)
		case op == OpSubPropertyOf:
			return kb.ImpliesDataRoles(st.role, other)
		case object:
			return kb.EqualObjectRoles([]dl.Entity{st.role, other})
		default:
			return kb.EqualDataRoles([]dl.Entity{st.role, other})
		}

	case OpFunctional:
		if object {
			return kb.SetObjectFunctional(st.role)
		}
		return kb.SetDataFunctional(st.role)

	case OpInverseFunctional:
		if !object {
			return fmt.Errorf("%w: data property %s cannot be inverse functional", ErrContractViolation, p.Name())
		}
		return kb.SetInverseFunctional(st.role)
	}
	return fmt.Errorf("%w: unknown operation %s", ErrContractViolation, op)
}
