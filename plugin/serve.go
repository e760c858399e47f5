package plugin

import (
	goplugin "github.com/hashicorp/go-plugin"
)

// Serve runs the plugin side of the protocol. Call this from a plugin
// binary's main; it blocks until the host disconnects.
func Serve(impl TaskRunner) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]goplugin.Plugin{
			"runner": &RunnerPlugin{Impl: impl},
		},
	})
}
