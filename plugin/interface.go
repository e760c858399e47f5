// Package plugin defines the out-of-process executor plugin contract. Plugins
// are standalone binaries speaking go-plugin's net/rpc protocol; the host
// hands them a task as JSON and gets back a success flag and output.
package plugin

import (
	"net/rpc"

	goplugin "github.com/hashicorp/go-plugin"
)

// Handshake guards against launching a binary that is not one of our plugins.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "OVERWATCH_PLUGIN",
	MagicCookieValue: "b4f9c2e7d1a84c0f9e6b3a5d7c2f8e1a",
}

// PluginMap is the map of plugins we can dispense.
var PluginMap = map[string]goplugin.Plugin{
	"runner": &RunnerPlugin{},
}

// TaskResult is the plugin-side outcome of running a task.
type TaskResult struct {
	Success bool
	Output  string
}

// TaskRunner is the interface executor plugins implement. The task arrives as
// the JSON encoding of the host's task type so plugin binaries do not need to
// link against the host module.
type TaskRunner interface {
	RunTask(taskJSON string) (TaskResult, error)
}

// RunnerPlugin is the go-plugin wrapper around TaskRunner.
type RunnerPlugin struct {
	Impl TaskRunner
}

func (p *RunnerPlugin) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &runnerServer{impl: p.Impl}, nil
}

func (*RunnerPlugin) Client(b *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &runnerClient{client: c}, nil
}

// runnerServer is the plugin-side RPC server.
type runnerServer struct {
	impl TaskRunner
}

type runTaskArgs struct {
	TaskJSON string
}

func (s *runnerServer) RunTask(args *runTaskArgs, resp *TaskResult) error {
	result, err := s.impl.RunTask(args.TaskJSON)
	if err != nil {
		return err
	}
	*resp = result
	return nil
}

// runnerClient is the host-side RPC stub.
type runnerClient struct {
	client *rpc.Client
}

func (c *runnerClient) RunTask(taskJSON string) (TaskResult, error) {
	var resp TaskResult
	err := c.client.Call("Plugin.RunTask", &runTaskArgs{TaskJSON: taskJSON}, &resp)
	return resp, err
}
