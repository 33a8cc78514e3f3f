package streamsvc

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/streamer/internal/store"
)

// celFilter wraps a compiled CEL program evaluated per entry by GetMany and
// Tail. When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("seq", cel.IntType),
		// Parsed entry fields, see fields.Parse.
		cel.Variable("fields", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	prog, err := env.Program(ast)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the expression against an entry and its parsed fields.
// Evaluation errors count as a non-match.
func (f celFilter) Eval(e store.Entry, parsed map[string]any) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"id":     e.ID.String(),
		"ts_ms":  int64(e.ID.Ms),
		"seq":    int64(e.ID.Seq),
		"fields": parsed,
		"now_ms": time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
