package executor

import "strings"

// parsedResponse holds the tagged sections of a complete model response.
type parsedResponse struct {
	Reasoning   string
	Action      string
	ActionInput string
	Answer      string
	HasAnswer   bool
}

// parseResponse extracts the tagged sections from a full (non-streamed)
// response. Closing tags may be missing when the model hit a stop sequence;
// in that case the section runs to the end of the content.
func parseResponse(content string) parsedResponse {
	var p parsedResponse
	p.Reasoning, _ = extractTag(content, "REASONING")
	p.Action, _ = extractTag(content, "ACTION")
	p.ActionInput, _ = extractTag(content, "ACTION_INPUT")
	p.Answer, p.HasAnswer = extractTag(content, "ANSWER")
	return p
}

// extractTag returns the trimmed content between <NAME> and </NAME>. When the
// closing tag is absent the remainder of the string is used.
func extractTag(content, name string) (string, bool) {
	open := "<" + name + ">"
	idx := strings.Index(content, open)
	if idx == -1 {
		return "", false
	}
	rest := content[idx+len(open):]
	if end := strings.Index(rest, "</"+name+">"); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}
