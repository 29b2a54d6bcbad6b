package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scaffold-labs/musicsearch/cli/pkg/output"
	"github.com/scaffold-labs/musicsearch/common/messaging"
)

var requestCmd = &cobra.Command{
	Use:   "request [term]",
	Short: "Ask a running server to search over NATS",
	Long: `Publish a search request on the bus and wait for the server's reply.
The server sends the request upstream and reports it to its diagnostics, the
same as a search from the web page.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		wait, _ := cmd.Flags().GetDuration("wait")

		req := messaging.SearchRequest{JobID: uuid.NewString()}
		if len(args) == 1 {
			req.Term = &args[0]
		}
		data, err := json.Marshal(req)
		if err != nil {
			return err
		}

		b, err := dialBus(natsURL(cmd))
		if err != nil {
			return err
		}
		defer b.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), wait)
		defer cancel()

		msg, err := b.Request(ctx, messaging.SubjectSearchRequest, data)
		if err != nil {
			return err
		}

		var resp messaging.SearchResponse
		if err := json.Unmarshal(msg.Data, &resp); err != nil {
			return fmt.Errorf("decode reply: %w", err)
		}
		return printSearchResponse(cmd, format, resp)
	},
}

func printSearchResponse(cmd *cobra.Command, format string, resp messaging.SearchResponse) error {
	p := printer(cmd)
	switch format {
	case output.FormatJSON:
		if err := p.JSON(resp); err != nil {
			return err
		}
	case output.FormatYAML:
		if err := p.YAML(resp); err != nil {
			return err
		}
	default:
		if resp.Success {
			p.Success("%q: %d, %d bytes in %s", resp.Term, resp.Status, len(resp.Body),
				time.Duration(resp.TookMs)*time.Millisecond)
			fmt.Fprintln(p.Out(), string(resp.Body))
		}
	}
	if !resp.Success {
		return fmt.Errorf("search %q failed (%s): %s", resp.Term, resp.ErrorKind, resp.Error)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(requestCmd)

	requestCmd.Flags().String("nats-url", "", "NATS server URL (default from config)")
	requestCmd.Flags().Duration("wait", 15*time.Second, "how long to wait for the reply")
}
