package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/token"

	"github.com/roach88/matchdag/internal/compiler"
)

// LoadError represents an error that occurred during document loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult is a compiled document and the files it came from.
type LoadResult struct {
	Document  *compiler.Document
	Files     []string
	FileCount int
}

// LoadDocument compiles the CUE files named by paths. A directory
// contributes every .cue file below it. All files are unified into one
// document, so types may be declared apart from the constructs using them.
func LoadDocument(paths ...string) (*LoadResult, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", p)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", p, err)}
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := FindCUEFiles(p)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(found) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", p)}
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files given"}
	}

	doc, err := compiler.CompileFiles(files...)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return &LoadResult{Document: doc, Files: files, FileCount: len(files)}, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := ErrCodeCompileFailed
		if compileErr.Field == "cue" {
			code = ErrCodeBuildFailed
		}
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// Error code constants - unified across all CLI commands. Document
// validation codes (E1xx) come from the compiler package.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // File read failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE evaluation or schema check failed
	ErrCodeCompileFailed = "E007" // Type or pattern compilation failed
	ErrCodeNoConstruct   = "E008" // Named construct not in the document
	ErrCodeBadInput      = "E009" // --input or --guard could not be parsed
	ErrCodeStore         = "E010" // Plan cache error
)

// selectConstructs returns the named construct, or every construct when
// name is empty.
func selectConstructs(doc *compiler.Document, name string) ([]*compiler.Construct, error) {
	if name == "" {
		return doc.Constructs, nil
	}
	c, ok := doc.Construct(name)
	if !ok {
		return nil, &LoadError{Code: ErrCodeNoConstruct, Message: fmt.Sprintf("construct %q not found", name)}
	}
	return []*compiler.Construct{c}, nil
}
