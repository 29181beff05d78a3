package rules

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cascade/internal/pattern"
)

// CompileFile reads and compiles a CUE rules file.
func CompileFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Compile(data, path)
}

// Compile parses CUE source into a Config.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// Compilation starts from Default() and overrides only the kinds the
// source names, so a rules file may be partial. Unknown kind names and
// invalid field values are compile errors with source positions.
func Compile(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{
			Field:   "rules",
			Message: "rules struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	cfg := Default()
	for iter.Next() {
		name := iter.Selector().Unquoted()
		kind := pattern.Kind(name)
		if !kind.Known() {
			return nil, &CompileError{
				Field:   name,
				Message: "unknown pattern kind (known: match, merge, transmute)",
				Pos:     iter.Value().Pos(),
			}
		}

		kc, err := compileKind(kind, iter.Value())
		if err != nil {
			return nil, err
		}
		cfg.kinds[kind] = kc
	}

	return cfg, nil
}

// compileKind parses one kind's config struct, starting from defaults.
func compileKind(kind pattern.Kind, v cue.Value) (KindConfig, error) {
	kc := Default().kinds[kind]

	enabledVal := v.LookupPath(cue.ParsePath("enabled"))
	if enabledVal.Exists() {
		enabled, err := enabledVal.Bool()
		if err != nil {
			return KindConfig{}, &CompileError{
				Field:   string(kind) + ".enabled",
				Message: "must be a boolean",
				Pos:     enabledVal.Pos(),
			}
		}
		kc.Enabled = enabled
	}

	minVal := v.LookupPath(cue.ParsePath("min_group"))
	if minVal.Exists() {
		mg, err := minVal.Int64()
		if err != nil {
			return KindConfig{}, &CompileError{
				Field:   string(kind) + ".min_group",
				Message: "must be an integer",
				Pos:     minVal.Pos(),
			}
		}
		if mg < 2 {
			return KindConfig{}, &CompileError{
				Field:   string(kind) + ".min_group",
				Message: fmt.Sprintf("must be at least 2, got %d", mg),
				Pos:     minVal.Pos(),
			}
		}
		kc.MinGroup = int(mg)
	}

	return kc, nil
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

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
