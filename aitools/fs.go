package aitools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// resolveWorkspacePath joins a tool-supplied relative path with the workspace
// root, rejecting escapes. All file tools operate inside the workspace only.
func resolveWorkspacePath(root, path string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(root, path))
	if cleaned != root && !strings.HasPrefix(cleaned, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path '%s' escapes the workspace", path)
	}
	return cleaned, nil
}

// WriteFileTool writes a file inside the workspace, creating directories as needed
type WriteFileTool struct {
	Root string
}

func (t *WriteFileTool) ToolName() string {
	return "write_file"
}

func (t *WriteFileTool) ToolDescription() string {
	return "Writes content to a file inside the project workspace. Parent directories are created automatically. The path is relative to the workspace root."
}

func (t *WriteFileTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"path": {
				Type:        TypeString,
				Description: "Relative path of the file to write (e.g. 'src/main.py')",
			},
			"content": {
				Type:        TypeString,
				Description: "Full content to write to the file",
			},
		},
		Required: []string{"path", "content"},
	}
}

type writeFileParams struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (t *WriteFileTool) Call(params string) string {
	var p writeFileParams
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "Error: invalid parameters - " + err.Error()
	}
	if p.Path == "" {
		return "Error: path is required"
	}

	full, err := resolveWorkspacePath(t.Root, p.Path)
	if err != nil {
		return "Error: " + err.Error()
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "Error: " + err.Error()
	}
	if err := os.WriteFile(full, []byte(p.Content), 0644); err != nil {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Successfully wrote %d bytes to %s", len(p.Content), p.Path)
}

// ReadFileTool reads a file from the workspace
type ReadFileTool struct {
	Root string
}

func (t *ReadFileTool) ToolName() string {
	return "read_file"
}

func (t *ReadFileTool) ToolDescription() string {
	return "Reads the content of a file inside the project workspace. The path is relative to the workspace root."
}

func (t *ReadFileTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"path": {
				Type:        TypeString,
				Description: "Relative path of the file to read",
			},
		},
		Required: []string{"path"},
	}
}

type readFileParams struct {
	Path string `json:"path"`
}

func (t *ReadFileTool) Call(params string) string {
	var p readFileParams
	if err := json.Unmarshal([]byte(params), &p); err != nil {
		return "Error: invalid parameters - " + err.Error()
	}
	if p.Path == "" {
		return "Error: path is required"
	}

	full, err := resolveWorkspacePath(t.Root, p.Path)
	if err != nil {
		return "Error: " + err.Error()
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "Error: " + err.Error()
	}
	return string(data)
}

// ListFilesTool lists files and directories in the workspace
type ListFilesTool struct {
	Root string
}

func (t *ListFilesTool) ToolName() string {
	return "list_files"
}

func (t *ListFilesTool) ToolDescription() string {
	return "Lists files and directories inside the project workspace. Omit the path to list the workspace root."
}

func (t *ListFilesTool) ToolPayloadSchema() Schema {
	return Schema{
		Type: TypeObject,
		Properties: PropertyMap{
			"path": {
				Type:        TypeString,
				Description: "Relative directory path to list (defaults to the workspace root)",
			},
		},
	}
}

type listFilesParams struct {
	Path string `json:"path"`
}

func (t *ListFilesTool) Call(params string) string {
	var p listFilesParams
	if params != "" {
		if err := json.Unmarshal([]byte(params), &p); err != nil {
			return "Error: invalid parameters - " + err.Error()
		}
	}

	full, err := resolveWorkspacePath(t.Root, p.Path)
	if err != nil {
		return "Error: " + err.Error()
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "(workspace is empty)"
		}
		return "Error: " + err.Error()
	}
	if len(entries) == 0 {
		return "(directory is empty)"
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n")
}
