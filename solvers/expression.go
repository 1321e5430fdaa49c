package solvers

import (
	"strings"

	"github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"

	"github.com/goliatone/go-confmerge/value"
)

const (
	defaultExpressionStart = "{{"
	defaultExpressionEnd   = "}}"
)

// EvalAction tells the expression solver what to do with a failed leaf.
type EvalAction int

const (
	EvalLeaveUnchanged EvalAction = iota
	EvalRemove
	EvalFail
)

// EvalErrorHandler decides how an expression evaluation error at path is
// handled.
type EvalErrorHandler func(path string, expr string, err error) EvalAction

type expression struct {
	delimiters *delimiters
	evaluator  opts.Evaluator
	onError    EvalErrorHandler
}

// NewExpressionSolver evaluates expressions wrapped by delimiters (default {{ }})
// using the default expr evaluator.
func NewExpressionSolver(start, end string) Solver {
	return NewExpressionSolverWithEvaluator(start, end, nil, nil)
}

// NewExpressionSolverWithEvaluator allows custom evaluator and error handler.
func NewExpressionSolverWithEvaluator(start, end string, eval opts.Evaluator, onErr EvalErrorHandler) Solver {
	if eval == nil {
		eval = opts.NewExprEvaluator()
	}
	if onErr == nil {
		onErr = OnEvalLeaveUnchanged()
	}
	start, end = normalizeExpressionDelimiters(start, end)

	return &expression{
		delimiters: &delimiters{Start: start, End: end},
		evaluator:  eval,
		onError:    onErr,
	}
}

// Solve evaluates every string leaf that is exactly one delimited
// expression. The whole tree is the evaluation snapshot.
func (s expression) Solve(tree value.Value) (value.Value, error) {
	snapshot := tree.Interface()
	out, _, err := walk(tree, "", func(path string, val string) (value.Value, action, error) {
		expr, ok := s.fullMatch(val)
		if !ok {
			return value.None(), keep, nil
		}

		expr = strings.TrimSpace(expr)
		result, err := s.evaluator.Evaluate(opts.RuleContext{Snapshot: snapshot}, expr)
		if err == nil {
			var conv value.Value
			if conv, err = value.From(result); err == nil {
				return conv, replace, nil
			}
		}

		switch s.onError(path, expr, err) {
		case EvalRemove:
			return value.None(), remove, nil
		case EvalFail:
			return value.None(), keep, errors.Wrap(err, errors.CategoryBadInput, "expression evaluation failed").
				WithTextCode("EXPRESSION_EVAL_FAILED").
				WithMetadata(map[string]any{
					"path":       path,
					"expression": expr,
				})
		default:
			return value.None(), keep, nil
		}
	})
	return out, err
}

func (s expression) fullMatch(input string) (string, bool) {
	if s.delimiters == nil {
		return "", false
	}
	if !strings.HasPrefix(input, s.delimiters.Start) || !strings.HasSuffix(input, s.delimiters.End) {
		return "", false
	}

	start := len(s.delimiters.Start)
	end := len(input) - len(s.delimiters.End)
	if end < start {
		return "", false
	}
	return input[start:end], true
}

func normalizeExpressionDelimiters(start, end string) (string, string) {
	if start == "" {
		start = defaultExpressionStart
	}
	if end == "" {
		end = defaultExpressionEnd
	}
	return start, end
}

// OnEvalFail aborts solving with the evaluation error.
func OnEvalFail() EvalErrorHandler {
	return func(string, string, error) EvalAction { return EvalFail }
}

// OnEvalLeaveUnchanged keeps the original value.
func OnEvalLeaveUnchanged() EvalErrorHandler {
	return func(string, string, error) EvalAction { return EvalLeaveUnchanged }
}

// OnEvalRemove deletes the key from the tree.
func OnEvalRemove() EvalErrorHandler {
	return func(string, string, error) EvalAction { return EvalRemove }
}
