package aitools

import (
	"encoding/json"
	"os/exec"
)

// BashTool executes bash commands inside the workspace and returns the output
type BashTool struct {
	Root string
}

func (t *BashTool) ToolName() string {
	return "run_bash"
}

func (t *BashTool) ToolDescription() string {
	return "Executes a bash command with the project workspace as the working directory and returns the combined output."
}

func (t *BashTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"command": {
				Type:        TypeString,
				Description: "The bash command to execute",
			},
		},
		Required: []string{"command"},
	}
}

type bashParams struct {
	Command string `json:"command"`
}

func (t *BashTool) Call(params string) string {
	var p bashParams
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "Error: invalid parameters - " + err.Error()
	}
	if p.Command == "" {
		return "Error: command is required"
	}

	cmd := exec.Command("bash", "-c", p.Command)
	cmd.Dir = t.Root
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output) + "\nError: " + err.Error()
	}
	return string(output)
}
