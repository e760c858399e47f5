package plugin

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"
)

// Client wraps a running plugin process and its dispensed TaskRunner.
type Client struct {
	client *goplugin.Client
	runner TaskRunner
	path   string
}

// Load launches the plugin binary at path and dispenses its TaskRunner.
// The caller owns the returned Client and must Close it.
func Load(path string, logger hclog.Logger) (*Client, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("plugin binary not found at %s: %w", path, err)
	}

	if logger == nil {
		logger = hclog.New(&hclog.LoggerOptions{
			Name:   "plugin",
			Output: os.Stderr,
			Level:  hclog.Error,
		})
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          PluginMap,
		Cmd:              exec.Command(path),
		Logger:           logger,
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to connect to plugin: %w", err)
	}

	raw, err := rpcClient.Dispense("runner")
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense plugin: %w", err)
	}

	runner, ok := raw.(TaskRunner)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin at %s does not implement TaskRunner", path)
	}

	return &Client{client: client, runner: runner, path: path}, nil
}

// RunTask forwards a task to the plugin process.
func (c *Client) RunTask(taskJSON string) (TaskResult, error) {
	return c.runner.RunTask(taskJSON)
}

// Path returns the plugin binary path.
func (c *Client) Path() string {
	return c.path
}

// Close kills the plugin process.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Kill()
	}
}
