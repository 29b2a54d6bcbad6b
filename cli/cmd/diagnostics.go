package cmd

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/scaffold-labs/musicsearch/cli/pkg/output"
	"github.com/scaffold-labs/musicsearch/common/messaging"
	"github.com/scaffold-labs/musicsearch/search/pkg/sink"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Inspect search diagnostics published by the server",
}

var diagnosticsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print search diagnostics as they are published",
	Example: `  msearch diagnostics tail
  msearch diagnostics tail --count 10 --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		count, _ := cmd.Flags().GetInt("count")

		b, err := dialBus(natsURL(cmd))
		if err != nil {
			return err
		}
		defer b.Close()

		records := make(chan *sink.Record, 16)
		done := make(chan struct{})
		sub, err := b.Subscribe(messaging.SubjectDiagnosticsAll, func(_ context.Context, msg *messaging.Message) error {
			rec, err := sink.DecodeRecord(msg.Data)
			if err != nil {
				return err
			}
			select {
			case records <- rec:
			case <-done:
			}
			return nil
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
		defer close(done)

		return tailRecords(cmd.Context(), printer(cmd), format, records, count)
	},
}

// tailRecords prints records until ctx ends or count records were seen.
// A count of zero means no limit.
func tailRecords(ctx context.Context, p *output.Printer, format string, records <-chan *sink.Record, count int) error {
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec := <-records:
			if err := printRecord(p, format, rec); err != nil {
				return err
			}
			seen++
			if count > 0 && seen >= count {
				return nil
			}
		}
	}
}

func printRecord(p *output.Printer, format string, rec *sink.Record) error {
	switch format {
	case output.FormatJSON:
		return p.JSON(rec)
	case output.FormatYAML:
		return p.YAML(rec)
	}

	ts := rec.Timestamp.Local().Format(time.TimeOnly)
	if rec.Outcome == sink.OutcomeFailure {
		p.Error("%s %s %q %s: %s", ts, rec.RequestID, rec.Term, rec.ErrorKind, rec.Error)
		return nil
	}
	p.Success("%s %s %q %s %dB %s", ts, rec.RequestID, rec.Term,
		strconv.Itoa(rec.Status), len(rec.Body), time.Duration(rec.DurationMS)*time.Millisecond)
	return nil
}

func init() {
	rootCmd.AddCommand(diagnosticsCmd)
	diagnosticsCmd.AddCommand(diagnosticsTailCmd)

	diagnosticsTailCmd.Flags().String("nats-url", "", "NATS server URL (default from config)")
	diagnosticsTailCmd.Flags().Int("count", 0, "exit after this many records, 0 to follow forever")
}
