package adapter

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/agenthub/core"
)

var (
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	binaryPattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*(\^|[-+*/])\s*(-?\d+(?:\.\d+)?)`)
)

// wordOps normalizes spelled-out operators before expression matching.
var wordOps = []struct{ word, op string }{
	{"to the power of", " ^ "},
	{"multiplied by", " * "},
	{"divided by", " / "},
	{"plus", " + "},
	{"minus", " - "},
	{"times", " * "},
	{"over", " / "},
}

// Calculator evaluates arithmetic expressions locally. No network, no state,
// always safe to retry.
type Calculator struct{}

// NewCalculator constructs the arithmetic adapter.
func NewCalculator() *Calculator { return &Calculator{} }

// Capability returns the registration descriptor.
func (c *Calculator) Capability() core.Capability {
	return core.Capability{
		Name: "calculator",
		Description: "Perform arithmetic: add, subtract, multiply, divide, " +
			"square a number, compute square roots, factorials, powers and " +
			"check whether a number is prime.",
		InputSchema: queryStringSchema(1),
		Idempotency: core.SafeRetry,
	}
}

// Invoke implements core.Adapter.
func (c *Calculator) Invoke(_ context.Context, call core.Call) (*core.Result, error) {
	answer, err := c.evaluate(call.Query)
	if err != nil {
		return nil, err
	}
	return &core.Result{Payload: answer}, nil
}

func (c *Calculator) evaluate(query string) (string, error) {
	q := strings.ToLower(query)
	for _, w := range wordOps {
		q = strings.ReplaceAll(q, w.word, w.op)
	}

	switch {
	case strings.Contains(q, "squared"):
		n, err := firstNumber(q)
		if err != nil {
			return "", err
		}
		return formatNumber(n * n), nil

	case strings.Contains(q, "square root") || strings.Contains(q, "sqrt"):
		n, err := firstNumber(q)
		if err != nil {
			return "", err
		}
		if n < 0 {
			return "", core.NewPermanentError("square root of a negative number", nil)
		}
		return formatNumber(math.Sqrt(n)), nil

	case strings.Contains(q, "factorial"):
		n, err := firstInteger(q)
		if err != nil {
			return "", err
		}
		return factorial(n)

	case strings.Contains(q, "prime"):
		n, err := firstInteger(q)
		if err != nil {
			return "", err
		}
		if isPrime(n) {
			return fmt.Sprintf("%d is prime", n), nil
		}
		return fmt.Sprintf("%d is not prime", n), nil
	}

	if m := binaryPattern.FindStringSubmatch(q); m != nil {
		a, _ := strconv.ParseFloat(m[1], 64)
		b, _ := strconv.ParseFloat(m[3], 64)
		return applyOp(a, m[2], b)
	}

	return "", core.NewPermanentError("unrecognized arithmetic expression", nil)
}

func applyOp(a float64, op string, b float64) (string, error) {
	switch op {
	case "+":
		return formatNumber(a + b), nil
	case "-":
		return formatNumber(a - b), nil
	case "*":
		return formatNumber(a * b), nil
	case "/":
		if b == 0 {
			return "", core.NewPermanentError("division by zero", nil)
		}
		return formatNumber(a / b), nil
	case "^":
		return formatNumber(math.Pow(a, b)), nil
	default:
		return "", core.NewPermanentError("unsupported operator "+op, nil)
	}
}

func firstNumber(q string) (float64, error) {
	m := numberPattern.FindString(q)
	if m == "" {
		return 0, core.NewPermanentError("no number found in expression", nil)
	}
	return strconv.ParseFloat(m, 64)
}

func firstInteger(q string) (int64, error) {
	m := numberPattern.FindString(q)
	if m == "" {
		return 0, core.NewPermanentError("no number found in expression", nil)
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0, core.NewPermanentError("expected an integer", err)
	}
	return n, nil
}

// factorial overflows int64 past 20!, so larger inputs are rejected instead
// of silently wrapping.
func factorial(n int64) (string, error) {
	if n < 0 {
		return "", core.NewPermanentError("factorial of a negative number", nil)
	}
	if n > 20 {
		return "", core.NewPermanentError("factorial input too large (max 20)", nil)
	}
	result := int64(1)
	for i := int64(2); i <= n; i++ {
		result *= i
	}
	return strconv.FormatInt(result, 10), nil
}

func isPrime(n int64) bool {
	if n < 2 {
		return false
	}
	for i := int64(2); i*i <= n; i++ {
		if n%i == 0 {
			return false
		}
	}
	return true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
