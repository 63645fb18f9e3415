// Package menufile reads menus written in CUE.
//
// A menu file declares a top-level list:
//
//	menu: [
//		{name: "Tea", price: 12, image: "tea.jpg"},
//		{name: "Vada", price: 8},
//	]
//
// Every file is checked against schema.cue (non-empty name, non-negative
// price, optional image, no other fields) before any entry is returned.
// The default menu shipped with the binary is itself a menu file.
package menufile

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/shopspring/decimal"
)

//go:embed schema.cue
var schemaCUE string

//go:embed defaults.cue
var defaultsCUE string

// Entry is one validated menu line. It carries no id; the catalog assigns one.
type Entry struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

// Error codes for LoadError.
const (
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeSchema      = "E201" // Entry violates the menu schema
	ErrCodeNoMenu      = "E202" // File has no menu field
)

// LoadError is a menu file problem, with a source position when CUE has one.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Defaults returns the built-in first-run menu.
func Defaults() ([]Entry, error) {
	return Parse([]byte(defaultsCUE), "defaults.cue")
}

// Parse validates one CUE source and returns its menu entries in order.
func Parse(src []byte, filename string) ([]Entry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, convertCUEError(ErrCodeBuildFailed, err)
	}
	return compile(ctx, v)
}

// LoadFile reads and parses a single menu file.
func LoadFile(path string) ([]Entry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return Parse(src, path)
}

// LoadDir parses every .cue file under dir (recursively, in lexical path
// order) and concatenates their menus. The first invalid file aborts.
func LoadDir(dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("menu directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing menu directory: %v", err)}
	}
	if !info.IsDir() {
		return LoadFile(dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	var all []Entry
	for _, f := range files {
		entries, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// FindCUEFiles walks dir and returns all .cue file paths, sorted.
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

func compile(ctx *cue.Context, v cue.Value) ([]Entry, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, convertCUEError(ErrCodeBuildFailed, err)
	}

	menu := v.LookupPath(cue.ParsePath("menu"))
	if !menu.Exists() {
		return nil, &LoadError{Code: ErrCodeNoMenu, Message: "no menu field", Pos: v.Pos()}
	}

	checked := schema.Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, convertCUEError(ErrCodeSchema, err)
	}

	iter, err := checked.LookupPath(cue.ParsePath("menu")).List()
	if err != nil {
		return nil, convertCUEError(ErrCodeSchema, err)
	}

	var entries []Entry
	for iter.Next() {
		raw, err := iter.Value().MarshalJSON()
		if err != nil {
			return nil, convertCUEError(ErrCodeSchema, err)
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, &LoadError{Code: ErrCodeSchema, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// convertCUEError keeps the first CUE error and its position.
func convertCUEError(code string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
