package builtin

import (
	"context"
	"encoding/json"
	"time"

	"github.com/holomush/ruleforge/internal/rules/transport"
	"github.com/holomush/ruleforge/internal/rules/value"
)

// DefaultTimeout is the per-call timeout every rest_* builtin call passes
// to the transport. It is a constant: neither the config package's
// http_timeout nor any other setting overrides it.
const DefaultTimeout = 30 * time.Second

// HTTPTransport is the package-level Transport the rest_* builtins call
// through; swap it in tests for a fake. Grounded on the teacher's
// audit.Logger "never let an external-IO failure abort the caller"
// discipline: transport failures are downgraded to a structured {success:
// false, error, message} Map, never a Go error, per §4.7.
var HTTPTransport transport.Transport = transport.NewHTTPTransport()

func init() {
	Register(Builtin{Name: "rest_get", MinArity: 1, MaxArity: 1, Fn: httpVerb("GET")})
	Register(Builtin{Name: "rest_post", MinArity: 2, MaxArity: 2, Fn: httpVerb("POST")})
	Register(Builtin{Name: "rest_put", MinArity: 2, MaxArity: 2, Fn: httpVerb("PUT")})
	Register(Builtin{Name: "rest_delete", MinArity: 1, MaxArity: 1, Fn: httpVerb("DELETE")})
	Register(Builtin{Name: "rest_patch", MinArity: 2, MaxArity: 2, Fn: httpVerb("PATCH")})
	Register(Builtin{Name: "rest_call", MinArity: 2, MaxArity: 3, Fn: restCallFn})
}

func httpVerb(method string) Fn {
	return func(ctx context.Context, args []value.Value) (value.Value, error) {
		url, ok := asText(args[0])
		if !ok {
			return value.Null(), typeError(method, 1, "Text url")
		}
		var body []byte
		if len(args) == 2 {
			b, err := json.Marshal(value.ToGo(args[1]))
			if err != nil {
				return value.Null(), typeError(method, 2, "JSON-serializable body")
			}
			body = b
		}
		return doCall(ctx, method, url, body)
	}
}

func restCallFn(ctx context.Context, args []value.Value) (value.Value, error) {
	method, ok := asText(args[0])
	if !ok {
		return value.Null(), typeError("rest_call", 1, "Text method")
	}
	url, ok := asText(args[1])
	if !ok {
		return value.Null(), typeError("rest_call", 2, "Text url")
	}
	var body []byte
	if len(args) == 3 {
		b, err := json.Marshal(value.ToGo(args[2]))
		if err != nil {
			return value.Null(), typeError("rest_call", 3, "JSON-serializable body")
		}
		body = b
	}
	return doCall(ctx, method, url, body)
}

func doCall(ctx context.Context, method, url string, body []byte) (value.Value, error) {
	resp, err := HTTPTransport.Call(ctx, method, url, body, map[string]string{"Content-Type": "application/json"}, DefaultTimeout)
	if err != nil {
		te, ok := err.(*transport.Error)
		kind := "TRANSPORT_ERROR"
		msg := err.Error()
		if ok {
			kind = te.Kind
			msg = te.Message
		}
		return failureMap(kind, msg), nil
	}

	var parsed any
	if jsonErr := json.Unmarshal(resp.Body, &parsed); jsonErr != nil {
		return failureMap("INVALID_JSON_RESPONSE", jsonErr.Error()), nil
	}
	out := value.FromGo(parsed)
	m, order, ok := out.AsMap()
	if !ok {
		// non-object JSON bodies (array/scalar) are wrapped so the
		// caller always gets a Map back, per §4.7's "returns a Map."
		return value.MapFromGo(map[string]any{
			"success": true,
			"status":  resp.Status,
			"data":    parsed,
		}), nil
	}
	m["success"] = value.Bool(true)
	m["status"] = value.Int(int64(resp.Status))
	order = append([]string{"success", "status"}, order...)
	return value.Map(order, m), nil
}

func failureMap(kind, message string) value.Value {
	return value.Map([]string{"success", "error", "message"}, map[string]value.Value{
		"success": value.Bool(false),
		"error":   value.Text(kind),
		"message": value.Text(message),
	})
}
