// Package compiler turns CUE documents into the engine's inputs: a type
// universe and the constructs (is-expressions and switches) to analyze.
//
// A document has two top-level fields:
//
//	types: Point: {
//		kind: "struct"
//		members: { X: "int", Y: "int" }
//		deconstruct: [["X", "Y"]]
//	}
//	construct: Quadrant: {
//		kind:  "switch-expression"
//		input: "Point"
//		arms: [
//			{ pattern: { positional: [{ const: 0 }, { const: 0 }] } },
//			{ pattern: { positional: [{ rel: ">", value: 0 }, "_"] } },
//			{ pattern: "_" },
//		]
//	}
//
// The document is checked against an embedded CUE schema first; patterns
// are validated while they are compiled.
package compiler

import (
	_ "embed"
	stderrors "errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/matchdag/internal/types"
)

//go:embed schema.cue
var schemaSource string

// Document is a compiled document.
type Document struct {
	Universe *types.Universe
	// Constructs are in declaration order.
	Constructs []*Construct
}

// Construct returns the construct called name.
func (d *Document) Construct(name string) (*Construct, bool) {
	for _, c := range d.Constructs {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// CompileString compiles a document held in memory. filename is used in
// error positions.
func CompileString(filename, src string) (*Document, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return Compile(v)
}

// CompileFile reads and compiles one CUE file.
func CompileFile(path string) (*Document, error) {
	return CompileFiles(path)
}

// CompileFiles reads several CUE files and compiles their unification as
// one document, so types declared in one file serve constructs in another.
func CompileFiles(paths ...string) (*Document, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to compile")
	}
	ctx := cuecontext.New()
	var v cue.Value
	for i, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		fv := ctx.CompileBytes(src, cue.Filename(path))
		if i == 0 {
			v = fv
			continue
		}
		v = v.Unify(fv)
	}
	return Compile(v)
}

// Compile checks v against the document schema, then compiles its types
// and constructs.
func Compile(v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, cueErrorAt(err, v.Pos())
	}
	if err := checkSchema(v); err != nil {
		return nil, err
	}

	u := types.NewUniverse()
	if tv := v.LookupPath(cue.ParsePath("types")); tv.Exists() {
		if err := compileTypes(u, tv); err != nil {
			return nil, err
		}
	}

	doc := &Document{Universe: u}
	if cv := v.LookupPath(cue.ParsePath("construct")); cv.Exists() {
		iter, err := cv.Fields()
		if err != nil {
			return nil, cueErrorAt(err, cv.Pos())
		}
		for iter.Next() {
			c, err := CompileConstruct(u, iter.Selector().Unquoted(), iter.Value())
			if err != nil {
				return nil, err
			}
			doc.Constructs = append(doc.Constructs, c)
		}
	}
	if len(doc.Constructs) == 0 {
		return nil, &CompileError{
			Field:   "construct",
			Message: "at least one construct is required",
			Pos:     v.Pos(),
		}
	}
	return doc, nil
}

func checkSchema(v cue.Value) error {
	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("embedded schema: %w", err)
	}
	doc := schema.LookupPath(cue.ParsePath("#Document")).Unify(v)
	if err := doc.Validate(cue.Concrete(true)); err != nil {
		return cueErrorAt(err, v.Pos())
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func errorf(field string, v cue.Value, format string, args ...any) *CompileError {
	return &CompileError{Field: field, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

// formatCUEError wraps a CUE error as a CompileError at the position of
// its first error.
func formatCUEError(err error) error {
	return cueErrorAt(err, token.NoPos)
}

// cueErrorAt is formatCUEError with a position to use when the CUE error
// carries none.
func cueErrorAt(err error, fallback token.Pos) error {
	if err == nil {
		return nil
	}
	var ce *CompileError
	if stderrors.As(err, &ce) {
		return ce
	}

	msg, pos := err.Error(), fallback
	// CUE errors may contain multiple errors
	if errs := errors.Errors(err); len(errs) > 0 {
		msg = errs[0].Error()
		if positions := errors.Positions(errs[0]); len(positions) > 0 {
			pos = positions[0]
		}
	}
	return &CompileError{Field: "cue", Message: msg, Pos: pos}
}
