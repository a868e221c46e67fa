package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/keboola/go-utils/pkg/orderedmap"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/keboola/go-ajax/pkg/ajax"
	"github.com/keboola/go-ajax/pkg/indicator"
	"github.com/keboola/go-ajax/pkg/message"
)

type callFlags struct {
	params       []string
	suffix       string
	placeholders []string
	burst        int
	metrics      bool
}

func (a *app) newCallCommand(method string) *cobra.Command {
	flags := &callFlags{}
	cmd := &cobra.Command{
		Use:   method + " <uri>",
		Short: fmt.Sprintf("Send %s call to the endpoint", strings.ToUpper(method)),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCall(cmd, method, args[0], flags)
		},
	}
	cmd.Flags().StringArrayVarP(&flags.params, "param", "p", nil, "call parameter key=value, repeated key is sent as a list")
	cmd.Flags().StringVar(&flags.suffix, "suffix", "", "suffix appended to the URI of the first call")
	cmd.Flags().StringArrayVar(&flags.placeholders, "placeholder", nil, "value of the {key} placeholder in the URI, key=value")
	cmd.Flags().IntVar(&flags.burst, "burst", 1, "number of calls sent at once")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "print coordinator metrics after the calls")
	return cmd
}

func (a *app) runCall(cmd *cobra.Command, method, uri string, flags *callFlags) error {
	if flags.burst < 1 {
		return fmt.Errorf("burst must be at least 1, found %d", flags.burst)
	}

	params, err := parseParams(flags.params)
	if err != nil {
		return err
	}
	placeholders, err := parsePairs("placeholder", flags.placeholders)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	handler := ajax.NewResponseHandler(
		ajax.WithMessenger(message.NewCollector(message.LogSink(a.logger))),
		ajax.WithNavigator(printNavigator(out)),
		ajax.WithRedirectBaseURL(a.cfg.BaseURL),
		ajax.WithHandlerLogger(a.logger),
	)
	opts := []ajax.Option{
		ajax.WithBaseURL(a.cfg.BaseURL),
		ajax.WithPolicy(a.cfg.ParsedPolicy()),
		ajax.WithIndicators(indicator.NewLog(a.logger)),
		ajax.WithResponseHandler(handler),
		ajax.WithLogger(a.logger),
	}
	var m *metrics
	if flags.metrics {
		if m, err = newMetrics(); err != nil {
			return err
		}
		opts = append(opts, m.option())
	}
	coordinator := ajax.New(uri, a.newClient(), opts...)

	// Suffix and placeholders are used by the first call only
	if flags.suffix != "" {
		coordinator.AppendURI(flags.suffix)
	}
	for k, v := range placeholders {
		coordinator.SetPlaceholder(k, v)
	}

	issue := issuer(coordinator, method)
	ctx := cmd.Context()

	// The first call consumes suffix and placeholders, others are sent at once
	wg := ajax.NewWaitGroup()
	first := issue(ctx, params)
	if !first.Sent() {
		_, err := first.Wait()
		return err
	}
	wg.Add(first)
	if err := issueBurst(ctx, issue, params, flags.burst-1, wg); err != nil {
		return err
	}

	results, err := wg.Wait()
	for _, result := range results {
		if err := printResult(out, result); err != nil {
			return err
		}
	}
	if m != nil {
		if err := m.print(out); err != nil {
			return err
		}
	}
	return err
}

type issueFn func(ctx context.Context, params ajax.Params) *ajax.Call

func issuer(c *ajax.Coordinator, method string) issueFn {
	switch method {
	case "post":
		return c.Post
	case "put":
		return c.Put
	case "delete":
		return c.Delete
	default:
		return c.Get
	}
}

// issueBurst sends n calls at once and adds them to the group.
// It fails if any of the calls could not be sent.
func issueBurst(ctx context.Context, issue issueFn, params ajax.Params, n int, wg *ajax.WaitGroup) error {
	grp := &errgroup.Group{}
	for i := 0; i < n; i++ {
		grp.Go(func() error {
			call := issue(ctx, params)
			wg.Add(call)
			if !call.Sent() {
				_, err := call.Wait()
				return err
			}
			return nil
		})
	}
	return grp.Wait()
}

func printResult(out io.Writer, result *ajax.Result) error {
	switch {
	case result == nil, result.Canceled, result.Redirect != "":
		return nil
	case result.Payload != nil:
		// Decode again, to keep the original order of keys
		object := orderedmap.New()
		if err := json.Unmarshal(result.Response.Body, object); err != nil {
			return fmt.Errorf("cannot decode response: %w", err)
		}
		data, found := object.Get("data")
		if !found {
			return nil
		}
		return printJSON(out, data)
	case result.Value == nil:
		return nil
	default:
		if str, ok := result.Value.(string); ok {
			_, err := fmt.Fprintln(out, str)
			return err
		}
		return printJSON(out, result.Value)
	}
}

func printJSON(out io.Writer, v any) error {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode data: %w", err)
	}
	_, err = fmt.Fprintln(out, string(bytes))
	return err
}

func printNavigator(out io.Writer) ajax.NavigatorFunc {
	return func(url string) {
		_, _ = fmt.Fprintf(out, "redirect: %s\n", url)
	}
}

// parseParams converts key=value pairs to params, a repeated key is converted to a list.
func parseParams(pairs []string) (ajax.Params, error) {
	params := make(ajax.Params)
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf(`param "%s" is not valid, expected key=value`, pair)
		}
		switch existing := params[k].(type) {
		case nil:
			params[k] = v
		case string:
			params[k] = []string{existing, v}
		case []string:
			params[k] = append(existing, v)
		}
	}
	return params, nil
}

func parsePairs(name string, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf(`%s "%s" is not valid, expected key=value`, name, pair)
		}
		out[k] = v
	}
	return out, nil
}
