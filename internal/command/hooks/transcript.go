package hooks

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
)

// The host's transcript is a JSONL file whose entry shape has changed
// across releases. Parsing tries the known shapes and skips anything it
// does not recognize; transcripts are observed, not controlled.

type transcriptEntry struct {
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Message struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
}

func readTranscript(path string) ([]transcriptEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []transcriptEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry transcriptEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

func (e transcriptEntry) role() string {
	if e.Message.Role != "" {
		return e.Message.Role
	}
	if e.Role != "" {
		return e.Role
	}
	return e.Type
}

func (e transcriptEntry) rawContent() json.RawMessage {
	if len(e.Message.Content) > 0 {
		return e.Message.Content
	}
	return e.Content
}

func (e transcriptEntry) blocks() []contentBlock {
	raw := e.rawContent()
	if len(raw) == 0 {
		return nil
	}

	var blocks []contentBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		return blocks
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil && text != "" {
		return []contentBlock{{Type: "text", Text: text}}
	}
	return nil
}

// lastAssistantText returns the text of the most recent assistant message.
func lastAssistantText(entries []transcriptEntry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].role() != "assistant" {
			continue
		}
		var parts []string
		for _, block := range entries[i].blocks() {
			if block.Type == "text" && block.Text != "" {
				parts = append(parts, block.Text)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
	}
	return ""
}

// taskInvocation is a Task tool call paired with its result.
type taskInvocation struct {
	AgentType string
	Prompt    string
	Result    string
}

// lastTaskInvocation walks the transcript backwards for the most recent
// Task tool_use and its matching tool_result.
func lastTaskInvocation(entries []transcriptEntry) *taskInvocation {
	for i := len(entries) - 1; i >= 0; i-- {
		for _, block := range entries[i].blocks() {
			if block.Type != "tool_use" || block.Name != "Task" {
				continue
			}

			invocation := &taskInvocation{}
			var input struct {
				Prompt       string `json:"prompt"`
				SubagentType string `json:"subagent_type"`
			}
			if err := json.Unmarshal(block.Input, &input); err == nil {
				invocation.Prompt = input.Prompt
				invocation.AgentType = input.SubagentType
			}
			invocation.Result = findToolResult(entries[i:], block.ID)
			return invocation
		}
	}
	return nil
}

func findToolResult(entries []transcriptEntry, toolUseID string) string {
	if toolUseID == "" {
		return ""
	}
	for _, entry := range entries {
		for _, block := range entry.blocks() {
			if block.Type != "tool_result" || block.ToolUseID != toolUseID {
				continue
			}

			var text string
			if err := json.Unmarshal(block.Content, &text); err == nil {
				return text
			}
			var nested []contentBlock
			if err := json.Unmarshal(block.Content, &nested); err == nil {
				var parts []string
				for _, inner := range nested {
					if inner.Type == "text" && inner.Text != "" {
						parts = append(parts, inner.Text)
					}
				}
				return strings.Join(parts, "\n")
			}
		}
	}
	return ""
}
