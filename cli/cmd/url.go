package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scaffold-labs/musicsearch/search/pkg/model"
)

var urlCmd = &cobra.Command{
	Use:   "url [term]",
	Short: "Print the request URL for a term without sending it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mc, err := newMusicClient(cmd)
		if err != nil {
			return err
		}
		term := cfg.DefaultTerm
		if len(args) == 1 {
			term = args[0]
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), mc.URL(model.Term(term)))
		return err
	},
}

func init() {
	rootCmd.AddCommand(urlCmd)
	urlCmd.Flags().String("endpoint", "", "music search endpoint (default from config)")
}
