package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/scaffold-labs/musicsearch/common/messaging"
	natsclient "github.com/scaffold-labs/musicsearch/common/messaging/nats"
)

// bus is what the NATS-backed commands need from a connection.
type bus interface {
	messaging.Client
	messaging.Requester
}

// dialBus connects to the diagnostics bus. Replaced in tests.
var dialBus = func(url string) (bus, error) {
	c := natsclient.DefaultConfig()
	c.URL = url
	c.Name = "msearch"
	c.MaxReconnects = 0
	c.Timeout = 3 * time.Second
	return natsclient.NewClient(c)
}

func natsURL(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("nats-url"); u != "" {
		return u
	}
	return cfg.NATSURL
}
