package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scaffold-labs/musicsearch/cli/pkg/output"
	"github.com/scaffold-labs/musicsearch/common/logging"
	"github.com/scaffold-labs/musicsearch/search/pkg/client"
	"github.com/scaffold-labs/musicsearch/search/pkg/model"
	"github.com/scaffold-labs/musicsearch/search/pkg/sink"
	"github.com/scaffold-labs/musicsearch/search/pkg/trigger"
)

var searchCmd = &cobra.Command{
	Use:   "search [term...]",
	Short: "Search for music",
	Long: `Send one request per term to the music search API and print each outcome.
Terms are searched at the same time. Without a term the configured default is used.`,
	Example: `  msearch search
  msearch search 黑色毛衣 "two words"
  msearch search 周杰伦 --output json
  msearch search a a a --policy coalesce`,
	RunE: runSearch,
}

// searchResult is one outcome in json and yaml output.
type searchResult struct {
	Term       string `json:"term" yaml:"term"`
	DispatchID string `json:"dispatch_id" yaml:"dispatch_id"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Status     int    `json:"status,omitempty" yaml:"status,omitempty"`
	Bytes      int    `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	DurationMS int64  `json:"duration_ms" yaml:"duration_ms"`
	Shared     bool   `json:"shared,omitempty" yaml:"shared,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	Body       any    `json:"body,omitempty" yaml:"body,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	mc, err := newMusicClient(cmd)
	if err != nil {
		return err
	}

	policyFlag, _ := cmd.Flags().GetString("policy")
	if policyFlag == "" {
		policyFlag = cfg.Policy
	}
	policy, err := trigger.ParsePolicy(policyFlag)
	if err != nil {
		return err
	}

	logger := logging.Discard()
	var diag sink.Sink = sink.Discard{}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger = logging.NewWithWriter(cmd.ErrOrStderr(), slog.LevelDebug, "text")
		diag = sink.NewLogSink(logger)
	}

	terms := args
	if len(terms) == 0 {
		terms = []string{cfg.DefaultTerm}
	}

	trg := trigger.New(mc, diag, trigger.WithPolicy(policy), trigger.WithLogger(logger))

	outcomes := make([]trigger.Outcome, len(terms))
	var g errgroup.Group
	if parallel, _ := cmd.Flags().GetInt("parallel"); parallel > 0 {
		g.SetLimit(parallel)
	}
	ctx := cmd.Context()
	for i, term := range terms {
		g.Go(func() error {
			outcomes[i] = trg.Fire(ctx, model.Term(term))
			return nil
		})
	}
	_ = g.Wait()

	if err := printOutcomes(printer(cmd), format, outcomes); err != nil {
		return err
	}

	failed := 0
	for _, out := range outcomes {
		if !out.OK() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d searches failed", failed, len(outcomes))
	}
	return nil
}

func newMusicClient(cmd *cobra.Command) (*client.MusicClient, error) {
	c := client.DefaultConfig()
	c.BaseURL = cfg.Endpoint
	c.Timeout = cfg.Timeout()

	if cmd.Flags().Lookup("endpoint") != nil {
		if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
			c.BaseURL = endpoint
		}
	}
	if cmd.Flags().Changed("timeout") {
		c.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	return client.New(c)
}

func toResult(out trigger.Outcome) searchResult {
	r := searchResult{
		Term:       out.Term.String(),
		DispatchID: out.DispatchID,
		DurationMS: out.Elapsed.Milliseconds(),
		Shared:     out.Shared,
	}
	if out.Err != nil {
		r.ErrorKind = string(out.Kind())
		r.Error = out.Err.Error()
		return r
	}
	r.URL = out.Response.URL
	r.Status = out.Response.StatusCode
	r.Bytes = out.Response.Size()
	var body any
	if err := json.Unmarshal(out.Response.Body, &body); err == nil {
		r.Body = body
	}
	return r
}

func printOutcomes(p *output.Printer, format string, outcomes []trigger.Outcome) error {
	results := make([]searchResult, len(outcomes))
	for i, out := range outcomes {
		results[i] = toResult(out)
	}

	switch format {
	case output.FormatJSON:
		return p.JSON(results)
	case output.FormatYAML:
		return p.YAML(results)
	}

	table := p.NewTable("term", "status", "bytes", "duration", "result")
	for _, r := range results {
		status, result := "-", "ok"
		if r.Error != "" {
			result = r.ErrorKind + ": " + r.Error
		} else {
			status = strconv.Itoa(r.Status)
		}
		if r.Shared {
			result += " (shared)"
		}
		table.AddRow(r.Term, status, strconv.Itoa(r.Bytes),
			(time.Duration(r.DurationMS) * time.Millisecond).String(), result)
	}
	return table.Render()
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().String("endpoint", "", "music search endpoint (default from config)")
	searchCmd.Flags().Duration("timeout", 10*time.Second, "per-request timeout, 0 for none")
	searchCmd.Flags().String("policy", "", "overlap policy: concurrent or coalesce (default from config)")
	searchCmd.Flags().Int("parallel", 0, "maximum searches in flight, 0 for unlimited")
	searchCmd.Flags().BoolP("verbose", "v", false, "log each request and response to stderr")
}
