//go:build property

package ajax_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	. "github.com/keboola/go-ajax/pkg/ajax"
)

func segmentGen() gopter.Gen {
	return gen.SliceOfN(3, gen.AlphaString()).Map(func(parts []string) string {
		return strings.Join(parts, "/")
	})
}

func TestResolveURLProperties(t *testing.T) {
	t.Parallel()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no repeated slashes after the scheme", prop.ForAll(
		func(base, suffix string) bool {
			out := ResolveURL("https://example.com/"+base, "/"+suffix+"/", nil)
			_, rest, _ := strings.Cut(out, "://")
			return !strings.Contains(rest, "//")
		},
		segmentGen(), segmentGen(),
	))

	properties.Property("result starts with the base path", prop.ForAll(
		func(base, suffix string) bool {
			out := ResolveURL("https://example.com/"+base, suffix, nil)
			return strings.HasPrefix(out, strings.TrimRight(ResolveURL("https://example.com/"+base, "", nil), "/"))
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("queries are joined in order base, suffix", prop.ForAll(
		func(x, y string) bool {
			out := ResolveURL("https://example.com/a?x="+x, "b?y="+y, nil)
			return out == "https://example.com/a/b?x="+x+"&y="+y
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("placeholders are replaced", prop.ForAll(
		func(value string) bool {
			out := ResolveURL("https://example.com/users/{id}", "", map[string]string{"id": value})
			return !strings.Contains(out, "{id}") && strings.HasSuffix(out, "/users/"+value)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
