package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/matchdag/internal/types"
)

// Temp is a value derived from the scrutinee. The scrutinee itself is the
// temp with no Source.
type Temp struct {
	ID     int
	Type   *types.Type // static type
	Source *Evaluation // nil for the scrutinee
	Index  int         // output position within Source
}

func (t *Temp) String() string { return "t" + strconv.Itoa(t.ID) }

// EvalKind is the access a derivation performs.
type EvalKind uint8

const (
	// EvalDeconstruct calls a deconstruction member; one output per parameter.
	EvalDeconstruct EvalKind = iota
	// EvalMember reads a property or field (tuple elements included).
	EvalMember
	// EvalStructuralLength reads Length through the structural tuple contract.
	EvalStructuralLength
	// EvalStructuralItem reads an element through the structural tuple contract.
	EvalStructuralItem
	// EvalLength reads the length member named by a list shape.
	EvalLength
	// EvalIndex reads one element of a list, from the front or the end.
	EvalIndex
	// EvalSlice reads the middle span of a list.
	EvalSlice
)

func (k EvalKind) String() string {
	switch k {
	case EvalDeconstruct:
		return "deconstruct"
	case EvalMember:
		return "member"
	case EvalStructuralLength:
		return "structural-length"
	case EvalStructuralItem:
		return "structural-item"
	case EvalLength:
		return "length"
	case EvalIndex:
		return "index"
	case EvalSlice:
		return "slice"
	default:
		return fmt.Sprintf("eval(%d)", uint8(k))
	}
}

// Descriptor identifies a derivation from an input temp. Two descriptors
// with equal keys over the same input yield the same Evaluation.
type Descriptor struct {
	Kind      EvalKind
	Member    string               // EvalMember, EvalLength
	Method    *types.Deconstructor // EvalDeconstruct
	Contract  *types.Type          // structural reads through a cast
	Index     int                  // EvalIndex, EvalStructuralItem
	FromEnd   bool                 // EvalIndex
	Start     int                  // EvalSlice
	EndOffset int                  // EvalSlice
}

func (d Descriptor) key() string {
	var b strings.Builder
	b.WriteString(d.Kind.String())
	switch d.Kind {
	case EvalDeconstruct:
		b.WriteString("|" + d.Method.String())
	case EvalMember, EvalLength:
		b.WriteString("|" + d.Member)
	case EvalStructuralItem:
		fmt.Fprintf(&b, "|%d", d.Index)
	case EvalIndex:
		fmt.Fprintf(&b, "|%d|%t", d.Index, d.FromEnd)
	case EvalSlice:
		fmt.Fprintf(&b, "|%d|%d", d.Start, d.EndOffset)
	}
	if d.Contract != nil {
		b.WriteString("|as " + d.Contract.Name)
	}
	return b.String()
}

// Evaluation is a side-effecting derivation producing one or more temps.
type Evaluation struct {
	ID int
	Descriptor
	Input   *Temp
	Outputs []*Temp
	key     string
}

// Temps allocates temps and deduplicates evaluations. Each graph build
// owns one; it is not safe for concurrent use.
type Temps struct {
	temps []*Temp
	evals []*Evaluation
	byKey map[string]*Evaluation
}

// NewTemps creates a manager whose scrutinee temp t0 has the given type.
func NewTemps(input *types.Type) *Temps {
	m := &Temps{byKey: make(map[string]*Evaluation)}
	m.temps = append(m.temps, &Temp{ID: 0, Type: input})
	return m
}

// Input returns the scrutinee temp.
func (m *Temps) Input() *Temp { return m.temps[0] }

// All returns every temp in creation order.
func (m *Temps) All() []*Temp { return m.temps }

// Evaluations returns every evaluation in creation order.
func (m *Temps) Evaluations() []*Evaluation { return m.evals }

// Evaluate returns the evaluation of d over src, creating it with one
// output temp per entry of outputs the first time it is requested.
// Later requests return the existing evaluation and ignore outputs.
func (m *Temps) Evaluate(src *Temp, d Descriptor, outputs ...*types.Type) *Evaluation {
	key := strconv.Itoa(src.ID) + ":" + d.key()
	if e, ok := m.byKey[key]; ok {
		return e
	}
	e := &Evaluation{ID: len(m.evals), Descriptor: d, Input: src, key: key}
	for i, t := range outputs {
		tmp := &Temp{ID: len(m.temps), Type: t, Source: e, Index: i}
		m.temps = append(m.temps, tmp)
		e.Outputs = append(e.Outputs, tmp)
	}
	m.evals = append(m.evals, e)
	m.byKey[key] = e
	return e
}

// Temp is the single-output form of Evaluate: it returns the temp derived
// from src by d.
func (m *Temps) Temp(src *Temp, d Descriptor, out *types.Type) (*Temp, *Evaluation) {
	e := m.Evaluate(src, d, out)
	return e.Outputs[0], e
}
