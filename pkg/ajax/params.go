package ajax

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// MethodOverrideParam is the form parameter which carries the real HTTP method of PUT and DELETE calls.
// The calls are sent as POST, the server is expected to read the method from this parameter.
const MethodOverrideParam = "_method"

// Params of a call. Values are converted to strings, slices are sent as repeated "key[]" values.
type Params map[string]any

// Values converts params to url.Values.
func (p Params) Values() (url.Values, error) {
	out := make(url.Values)
	for k, v := range p {
		switch v := v.(type) {
		case []string:
			for _, item := range v {
				out.Add(k+"[]", item)
			}
		case []any:
			for i, item := range v {
				str, err := cast.ToStringE(item)
				if err != nil {
					return nil, fmt.Errorf(`cannot convert param "%s[%d]" to string: %w`, k, i, err)
				}
				out.Add(k+"[]", str)
			}
		default:
			str, err := cast.ToStringE(v)
			if err != nil {
				return nil, fmt.Errorf(`cannot convert param "%s" to string: %w`, k, err)
			}
			out.Set(k, str)
		}
	}
	return out, nil
}

func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, p[k]))
	}
	return strings.Join(parts, " ")
}

// withMethodOverride returns a copy of the params with the method override marker set.
func (p Params) withMethodOverride(method string) Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	out[MethodOverrideParam] = strings.ToLower(method)
	return out
}
