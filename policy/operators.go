package policy

import (
	"fmt"
	"reflect"
	"slices"
)

type Operator func(ctx RequestContext, args []any) (EvalResult, error)

var operators = map[string]Operator{
	"And":      opAnd,
	"Or":       opOr,
	"Not":      opNot,
	"Eq":       opEq,
	"Contains": opContains,
	"In":       opIn,
	"Load":     opLoad,
}

func failed(op string, format string, a ...any) (EvalResult, error) {
	err := fmt.Errorf(format, a...)
	return EvalResult{Operator: op, Error: err.Error()}, err
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func opAnd(ctx RequestContext, args []any) (EvalResult, error) {
	for i, arg := range args {
		evaluated, ok := arg.(bool)
		if !ok {
			return failed("And", "bad argument type for And at index %d: expected bool, got %s", i, typeName(arg))
		}
		if !evaluated {
			return EvalResult{Operator: "And", Result: false}, nil
		}
	}
	return EvalResult{Operator: "And", Result: true}, nil
}

func opOr(ctx RequestContext, args []any) (EvalResult, error) {
	for i, arg := range args {
		evaluated, ok := arg.(bool)
		if !ok {
			return failed("Or", "bad argument type for Or at index %d: expected bool, got %s", i, typeName(arg))
		}
		if evaluated {
			return EvalResult{Operator: "Or", Result: true}, nil
		}
	}
	return EvalResult{Operator: "Or", Result: false}, nil
}

func opNot(ctx RequestContext, args []any) (EvalResult, error) {
	if len(args) != 1 {
		return failed("Not", "bad argument length for Not: expected 1, got %d", len(args))
	}
	evaluated, ok := args[0].(bool)
	if !ok {
		return failed("Not", "bad argument type for Not: expected bool, got %s", typeName(args[0]))
	}
	return EvalResult{Operator: "Not", Result: !evaluated}, nil
}

func opEq(ctx RequestContext, args []any) (EvalResult, error) {
	if len(args) != 2 {
		return failed("Eq", "bad argument length for Eq: expected 2, got %d", len(args))
	}
	return EvalResult{Operator: "Eq", Result: args[0] == args[1]}, nil
}

// opContains tests list membership: Contains(list, value).
func opContains(ctx RequestContext, args []any) (EvalResult, error) {
	if len(args) != 2 {
		return failed("Contains", "bad argument length for Contains: expected 2, got %d", len(args))
	}
	list, ok := args[0].([]any)
	if !ok {
		return failed("Contains", "bad argument type for Contains: expected []any, got %s", typeName(args[0]))
	}
	return EvalResult{Operator: "Contains", Result: slices.Contains(list, args[1])}, nil
}

// opIn is Contains with the arguments flipped: In(value, list).
func opIn(ctx RequestContext, args []any) (EvalResult, error) {
	if len(args) != 2 {
		return failed("In", "bad argument length for In: expected 2, got %d", len(args))
	}
	list, ok := args[1].([]any)
	if !ok {
		return failed("In", "bad argument type for In: expected []any, got %s", typeName(args[1]))
	}
	return EvalResult{Operator: "In", Result: slices.Contains(list, args[0])}, nil
}

func opLoad(ctx RequestContext, args []any) (EvalResult, error) {
	if len(args) != 1 {
		return failed("Load", "bad argument length for Load: expected 1, got %d", len(args))
	}
	key, ok := args[0].(string)
	if !ok {
		return failed("Load", "bad argument type for Load: expected string, got %s", typeName(args[0]))
	}

	value, ok := ctx.lookup(key)
	if !ok {
		return failed("Load", "key not found: %s", key)
	}
	return EvalResult{Operator: "Load", Result: value}, nil
}
