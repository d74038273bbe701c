package builtin

import (
	"context"
	"strconv"
	"strings"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// EvalJSONPath walks a dotted/bracketed path over a Map/List Value,
// recognizing `.length`/`.size` pseudo-properties, per §4.6 and §4.7:
// gjson-style libraries don't expose that pseudo-property or distinguish
// "path absent" from "value is null" the way this grammar needs, so the
// walk is hand-rolled the way the teacher's evaluator.go resolves dotted
// attribute references (resolveAttrRef), generalized to nested
// maps/lists instead of a flat attribute namespace.
func EvalJSONPath(root value.Value, path string) (value.Value, bool) {
	segments := splitPath(path)
	cur := root
	for _, seg := range segments {
		if seg.isLengthProp {
			n, ok := lengthOf(cur)
			if !ok {
				return value.Null(), false
			}
			cur = value.Int(int64(n))
			continue
		}
		if seg.index != nil {
			items, ok := cur.AsList()
			if !ok || *seg.index < 0 || *seg.index >= len(items) {
				return value.Null(), false
			}
			cur = items[*seg.index]
			continue
		}
		m, _, ok := cur.AsMap()
		if !ok {
			return value.Null(), false
		}
		v, ok := m[seg.key]
		if !ok {
			return value.Null(), false
		}
		cur = v
	}
	return cur, true
}

type pathSegment struct {
	key          string
	index        *int
	isLengthProp bool
}

// splitPath tokenizes "a.b[0].length" into [{key:a} {key:b} {index:0}
// {isLengthProp}].
func splitPath(path string) []pathSegment {
	var segs []pathSegment
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		key := cur.String()
		cur.Reset()
		if key == "length" || key == "size" {
			segs = append(segs, pathSegment{isLengthProp: true})
			return
		}
		segs = append(segs, pathSegment{key: key})
	}
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			flush()
			i++
		case '[':
			flush()
			j := strings.IndexByte(path[i:], ']')
			if j < 0 {
				i = len(path)
				break
			}
			idxStr := path[i+1 : i+j]
			if n, err := strconv.Atoi(idxStr); err == nil {
				segs = append(segs, pathSegment{index: &n})
			}
			i += j + 1
		default:
			cur.WriteByte(path[i])
			i++
		}
	}
	flush()
	return segs
}

func init() {
	Register(Builtin{Name: "json_get", MinArity: 2, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		path, ok := asText(args[1])
		if !ok {
			return value.Null(), typeError("json_get", 2, "Text")
		}
		v, ok := EvalJSONPath(args[0], path)
		if !ok {
			return value.Null(), nil
		}
		return v, nil
	}})
	Register(Builtin{Name: "json_exists", MinArity: 2, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		path, ok := asText(args[1])
		if !ok {
			return value.Null(), typeError("json_exists", 2, "Text")
		}
		_, ok = EvalJSONPath(args[0], path)
		return value.Bool(ok), nil
	}})
}
