package template

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func generates a value for a template function call. Arguments arrive
// as the raw strings between the parentheses.
type Func func(args []string) any

// Registry maps function names usable inside {{name(...)}} placeholders
// to their implementations.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a registry preloaded with the standard payload
// generation functions.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	r.funcs["uuid"] = func(_ []string) any { return uuid.New().String() }
	r.funcs["now"] = func(_ []string) any { return time.Now().UTC().Format(time.RFC3339) }
	r.funcs["timestamp"] = func(_ []string) any { return time.Now().Unix() }
	r.funcs["date"] = funcDate
	r.funcs["random"] = funcRandom
	r.funcs["randomString"] = funcRandomString
	r.funcs["randomEmail"] = funcRandomEmail
	r.funcs["base64"] = funcBase64
	return r
}

// Register adds or replaces a function.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

var callPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates expr as a function invocation. The second return value
// reports whether expr named a registered function.
func (r *Registry) Call(expr string) (any, bool) {
	matches := callPattern.FindStringSubmatch(expr)
	if matches == nil {
		return nil, false
	}
	fn, ok := r.funcs[matches[1]]
	if !ok {
		return nil, false
	}
	var args []string
	if matches[2] != "" {
		args = splitArgs(matches[2])
	}
	return fn(args), true
}

// splitArgs splits on commas outside quotes and strips surrounding
// quotes from each argument.
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case !inQuote && (ch == '"' || ch == '\''):
			inQuote = true
			quoteChar = ch
		case inQuote && ch == quoteChar:
			inQuote = false
		case !inQuote && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}
	return args
}

func funcDate(args []string) any {
	format := "2006-01-02"
	if len(args) >= 1 {
		format = args[0]
	}
	return time.Now().UTC().Format(format)
}

func funcRandom(args []string) any {
	lo, hi := 0, 100
	if len(args) >= 2 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			lo = v
		}
		if v, err := strconv.Atoi(args[1]); err == nil {
			hi = v
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	return rand.Intn(hi-lo+1) + lo
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func funcRandomString(args []string) any {
	length := 16
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			length = v
		}
	}
	return randomFrom(length, alphanumeric)
}

func funcRandomEmail(_ []string) any {
	user := randomFrom(8, "abcdefghijklmnopqrstuvwxyz")
	domain := randomFrom(6, "abcdefghijklmnopqrstuvwxyz")
	return fmt.Sprintf("%s@%s.test", user, domain)
}

func funcBase64(args []string) any {
	if len(args) < 1 {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0]))
}

func randomFrom(length int, charset string) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = charset[rand.Intn(len(charset))]
	}
	return string(out)
}
