// plugin_script is an example executor plugin. It runs each task by invoking
// a shell script with the task JSON on stdin; the script's exit code decides
// success and its combined output becomes the task result.
//
// Build it and point executor { type = "plugin", plugin_path = "..." } at the
// binary. Set OVERWATCH_SCRIPT to the script to run (default ./execute_task.sh).
package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"overwatch/plugin"
)

// ScriptRunner implements plugin.TaskRunner by delegating to a shell script.
type ScriptRunner struct {
	scriptPath string
}

func (r *ScriptRunner) RunTask(taskJSON string) (plugin.TaskResult, error) {
	cmd := exec.Command("bash", r.scriptPath)
	cmd.Stdin = strings.NewReader(taskJSON)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return plugin.TaskResult{Success: false, Output: out.String()}, nil
		}
		return plugin.TaskResult{}, fmt.Errorf("running %s: %w", r.scriptPath, err)
	}

	return plugin.TaskResult{Success: true, Output: out.String()}, nil
}

func main() {
	scriptPath := os.Getenv("OVERWATCH_SCRIPT")
	if scriptPath == "" {
		scriptPath = "./execute_task.sh"
	}

	plugin.Serve(&ScriptRunner{scriptPath: scriptPath})
}
