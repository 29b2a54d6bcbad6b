package messaging

import "context"

// HealthStatus reports whether a messaging connection is usable.
type HealthStatus struct {
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// CheckClientHealth inspects the connection state of client.
func CheckClientHealth(ctx context.Context, client Client) HealthStatus {
	if client == nil {
		return HealthStatus{Error: "client is nil"}
	}
	if err := ctx.Err(); err != nil {
		return HealthStatus{Error: err.Error()}
	}
	if !client.IsConnected() {
		return HealthStatus{Error: "not connected to message broker"}
	}
	return HealthStatus{Connected: true}
}
