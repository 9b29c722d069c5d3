package types

// JobStatus represents job lifecycle state.
type JobStatus string

const (
	JobStatusActive    JobStatus = "active"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCompleted JobStatus = "completed"
)

// Job is a long-lived unit of work grouping sessions.
type Job struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      JobStatus `json:"status"`
	CreatedAt   string    `json:"created_at"`
	PausedAt    *string   `json:"paused_at,omitempty"`
	ResumedAt   *string   `json:"resumed_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
	PauseReason *string   `json:"pause_reason,omitempty"`
}

// Session is one continuous interaction within a job. Summary columns are
// populated at close; a NULL ended_at marks the open session.
type Session struct {
	ID               string  `json:"id"`
	JobID            string  `json:"job_id"`
	CreatedAt        string  `json:"created_at"`
	EndedAt          *string `json:"ended_at,omitempty"`
	ClaudeSessionID  *string `json:"claude_session_id,omitempty"`
	PrimaryRequest   *string `json:"primary_request,omitempty"`
	Accomplishments  *string `json:"accomplishments,omitempty"`
	Decisions        *string `json:"decisions,omitempty"`
	BugsFixed        *string `json:"bugs_fixed,omitempty"`
	Errors           *string `json:"errors_encountered,omitempty"`
	Breakthrough     *string `json:"breakthrough_moment,omitempty"`
	NextStep         *string `json:"next_step,omitempty"`
	QualityScore     *int64  `json:"quality_score,omitempty"`
	ConversationFlow *string `json:"conversation_flow,omitempty"`
}

// SessionSummary carries the fields written to a session at close.
type SessionSummary struct {
	PrimaryRequest   string   `json:"primary_request,omitempty"`
	Accomplishments  []string `json:"accomplishments,omitempty"`
	Decisions        []string `json:"decisions,omitempty"`
	BugsFixed        []string `json:"bugs_fixed,omitempty"`
	Errors           []string `json:"errors_encountered,omitempty"`
	Breakthrough     string   `json:"breakthrough_moment,omitempty"`
	NextStep         string   `json:"next_step,omitempty"`
	ConversationFlow string   `json:"conversation_flow,omitempty"`
}

// ConversationMetrics is the aggregate row built from the conversation log
// when a session closes.
type ConversationMetrics struct {
	UserMessages      int      `json:"user_messages"`
	AssistantMessages int      `json:"assistant_messages"`
	FirstTS           string   `json:"first_ts,omitempty"`
	LastTS            string   `json:"last_ts,omitempty"`
	DurationSeconds   int64    `json:"duration_seconds"`
	AvgResponseSecs   float64  `json:"avg_response_seconds"`
	Commands          []string `json:"commands,omitempty"`
	AgentMentions     []string `json:"agent_mentions,omitempty"`
	CodeBlocks        int      `json:"code_blocks"`
	ConversationJSON  string   `json:"-"`
}

// ToolCategory classifies tool invocations.
type ToolCategory string

const (
	ToolCategoryFile      ToolCategory = "file"
	ToolCategorySearch    ToolCategory = "search"
	ToolCategoryExecution ToolCategory = "execution"
	ToolCategoryAI        ToolCategory = "ai"
	ToolCategoryMCP       ToolCategory = "mcp"
	ToolCategoryUnknown   ToolCategory = "unknown"
)

// ToolLog records one tool invocation (pre-row updated in place by the
// post-invocation hook).
type ToolLog struct {
	ID             int64        `json:"id"`
	SessionID      string       `json:"session_id"`
	ToolName       string       `json:"tool_name"`
	ToolCategory   ToolCategory `json:"tool_category"`
	Parameters     string       `json:"parameters,omitempty"`
	FileAffected   *string      `json:"file_affected,omitempty"`
	BlockedByHook  bool         `json:"blocked_by_hook"`
	HookMessage    *string      `json:"hook_message,omitempty"`
	Success        bool         `json:"success"`
	ResultSummary  *string      `json:"result_summary,omitempty"`
	LinesChanged   int64        `json:"lines_changed"`
	BytesProcessed int64        `json:"bytes_processed"`
	Timestamp      string       `json:"timestamp"`
}

// CodeChange records a file mutation; the full diff lives in the
// conversation log as a synthetic code_change message.
type CodeChange struct {
	ID          int64  `json:"id"`
	SessionID   string `json:"session_id"`
	Tool        string `json:"tool"`
	FilePath    string `json:"file_path"`
	ChangeType  string `json:"change_type"`
	DiffPreview string `json:"diff_preview,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// AgentEntry is a catalog row. The JSON-array columns feed semantic search.
type AgentEntry struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Module      string   `json:"module,omitempty"`
	SubModule   string   `json:"sub_module,omitempty"`
	Role        []string `json:"role,omitempty"`
	TechStack   []string `json:"tech_stack,omitempty"`
	Scenarios   []string `json:"scenarios,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Connections []string `json:"connections,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// AgentMatch is one semantic-search result.
type AgentMatch struct {
	Agent   AgentEntry `json:"agent"`
	Score   int        `json:"score"`
	Reasons []string   `json:"reasons"`
}

// MemorySlots is the fixed set of per-agent memory slot names.
var MemorySlots = []string{
	"knowledge", "structure", "patterns", "interfaces", "dependencies",
	"schemas", "quality", "operations", "context", "domain",
	"security", "errors", "performance", "history",
}

// IsMemorySlot reports whether name is a valid memory slot.
func IsMemorySlot(name string) bool {
	for _, slot := range MemorySlots {
		if slot == name {
			return true
		}
	}
	return false
}

// AgentMemory is one typed memory slot.
type AgentMemory struct {
	AgentName  string `json:"agent_name"`
	MemoryType string `json:"memory_type"`
	Content    string `json:"content"`
	UpdatedAt  string `json:"updated_at"`
}

// Interaction is one record in an agent's history memory. Storage keeps the
// last 100; reads surface the last 10.
type Interaction struct {
	Type      string `json:"type"`
	Request   string `json:"request"`
	Response  string `json:"response"`
	Outcome   string `json:"outcome,omitempty"`
	Timestamp string `json:"timestamp"`
}

// TodoStatus mirrors the host task-list status values.
type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
	TodoStatusBlocked    TodoStatus = "blocked"
	TodoStatusCancelled  TodoStatus = "cancelled"
)

// Todo is a mirrored host task.
type Todo struct {
	ID         int64      `json:"id"`
	Task       string     `json:"task"`
	Status     TodoStatus `json:"status"`
	Priority   string     `json:"priority,omitempty"`
	CreatedAt  string     `json:"created_at"`
	AssignedTo *string    `json:"assigned_to,omitempty"`
	Metadata   string     `json:"metadata,omitempty"`
	Context    string     `json:"context,omitempty"`
	SessionID  *string    `json:"session_id,omitempty"`
}

// TodoItem is the host-side shape received through the TodoWrite tool.
type TodoItem struct {
	ID         string `json:"id,omitempty"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	ActiveForm string `json:"activeForm,omitempty"`
}

// ChatRole is the role of a conversation log message.
type ChatRole string

const (
	ChatRoleUser       ChatRole = "user"
	ChatRoleAssistant  ChatRole = "assistant"
	ChatRoleCodeChange ChatRole = "code_change"
)

// ChatMessage is one conversation log record.
type ChatMessage struct {
	SessionID string   `json:"session_id"`
	Timestamp string   `json:"timestamp"`
	Content   string   `json:"content"`
	Type      ChatRole `json:"type"`
	UUID      string   `json:"uuid"`
	Tool      string   `json:"tool,omitempty"`
}

// AcolyteRecord is one subagent completion captured by the subagent-stop hook.
type AcolyteRecord struct {
	SessionID   string `json:"session_id"`
	Timestamp   string `json:"timestamp"`
	AgentType   string `json:"agent_type,omitempty"`
	Prompt      string `json:"prompt,omitempty"`
	Result      string `json:"result,omitempty"`
	DurationSec int64  `json:"duration_seconds,omitempty"`
}
