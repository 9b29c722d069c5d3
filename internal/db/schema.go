package db

import "database/sql"

const schemaSQL = `
-- Jobs group sessions. At most one job is active at a time.
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,                 -- "job_" prefix
  title TEXT NOT NULL,
  description TEXT,                    -- free text or JSON blob
  status TEXT NOT NULL DEFAULT 'paused', -- active, paused, completed
  created_at TEXT NOT NULL,
  paused_at TEXT,
  resumed_at TEXT,
  completed_at TEXT,
  pause_reason TEXT
);

-- Sessions. ended_at IS NULL marks the open session for a job.
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,                 -- "session_" prefix
  job_id TEXT NOT NULL,
  created_at TEXT NOT NULL,
  ended_at TEXT,
  claude_session_id TEXT,              -- best-effort host correlator
  primary_request TEXT,
  accomplishments TEXT,                -- JSON array
  decisions TEXT,                      -- JSON array
  bugs_fixed TEXT,                     -- JSON array
  errors_encountered TEXT,             -- JSON array
  breakthrough_moment TEXT,
  next_step TEXT,
  quality_score INTEGER,               -- 1..10
  conversation_flow TEXT,
  FOREIGN KEY (job_id) REFERENCES jobs(id)
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);
CREATE INDEX IF NOT EXISTS idx_sessions_job ON sessions(job_id);

-- Per-session conversation aggregate, inserted exactly once at close.
CREATE TABLE IF NOT EXISTS messages (
  session_id TEXT PRIMARY KEY,
  user_messages INTEGER NOT NULL DEFAULT 0,
  assistant_messages INTEGER NOT NULL DEFAULT 0,
  first_ts TEXT,
  last_ts TEXT,
  duration_seconds INTEGER NOT NULL DEFAULT 0,
  avg_response_seconds REAL NOT NULL DEFAULT 0,
  commands TEXT NOT NULL DEFAULT '[]',       -- JSON array
  agent_mentions TEXT NOT NULL DEFAULT '[]', -- JSON array
  code_blocks INTEGER NOT NULL DEFAULT 0,
  conversation TEXT NOT NULL DEFAULT '[]',   -- serialized message array
  FOREIGN KEY (session_id) REFERENCES sessions(id)
);

-- Tool invocations. The pre-invocation hook inserts a provisional row,
-- the post-invocation hook updates the most recent match within 60 s.
CREATE TABLE IF NOT EXISTS tool_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  tool_name TEXT NOT NULL,
  tool_category TEXT NOT NULL DEFAULT 'unknown',
  parameters TEXT,
  file_affected TEXT,
  blocked_by_hook INTEGER NOT NULL DEFAULT 0,
  hook_message TEXT,
  success INTEGER NOT NULL DEFAULT 1,
  result_summary TEXT,
  lines_changed INTEGER NOT NULL DEFAULT 0,
  bytes_processed INTEGER NOT NULL DEFAULT 0,
  timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tool_logs_session ON tool_logs(session_id);

-- File mutations; the full diff lives in the conversation log.
CREATE TABLE IF NOT EXISTS code_changes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  tool TEXT NOT NULL,
  file_path TEXT NOT NULL,
  change_type TEXT NOT NULL,           -- write, edit, update, multi_edit
  diff_preview TEXT,
  timestamp TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_code_changes_session ON code_changes(session_id);

-- Agent catalog (global agents plus project-local acolytes).
CREATE TABLE IF NOT EXISTS agents_catalog (
  name TEXT PRIMARY KEY,               -- "@namespace.role"
  type TEXT NOT NULL DEFAULT 'acolyte',
  module TEXT,
  sub_module TEXT,
  role TEXT NOT NULL DEFAULT '[]',     -- JSON arrays feeding semantic search
  tech_stack TEXT NOT NULL DEFAULT '[]',
  scenarios TEXT NOT NULL DEFAULT '[]',
  tags TEXT NOT NULL DEFAULT '[]',
  connections TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL
);

-- Fourteen typed memory slots per agent, created atomically with the agent.
CREATE TABLE IF NOT EXISTS agents_memory (
  agent_name TEXT NOT NULL,
  memory_type TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '{}',
  updated_at TEXT NOT NULL,
  PRIMARY KEY (agent_name, memory_type),
  FOREIGN KEY (agent_name) REFERENCES agents_catalog(name)
);

-- Mirror of the host task list at the moment of the last TodoWrite.
CREATE TABLE IF NOT EXISTS todos (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  task TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  priority TEXT,
  created_at TEXT NOT NULL,
  assigned_to TEXT,
  metadata TEXT,
  context TEXT,
  session_id TEXT
);

-- Quests: the multi-agent coordination core. JSON-in-TEXT columns keep the
-- broadcast append-only invariant provable on a single row.
CREATE TABLE IF NOT EXISTS quests (
  quest_id INTEGER PRIMARY KEY AUTOINCREMENT,
  quest_name TEXT NOT NULL,
  quest_phase TEXT,                    -- display string like "2/6"
  mission TEXT NOT NULL,
  recruited TEXT NOT NULL,             -- JSON array, leader first
  current_agent TEXT,                  -- exactly one turn holder, NULL when terminal
  status TEXT NOT NULL DEFAULT 'working',
  broadcast TEXT NOT NULL DEFAULT '[]',
  context TEXT NOT NULL DEFAULT '{}',
  result TEXT,                         -- set only on completion
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quests_status ON quests(status);
CREATE INDEX IF NOT EXISTS idx_quests_current_agent ON quests(current_agent);
`

// InitSchema creates all tables and indexes idempotently.
func InitSchema(conn *sql.DB) error {
	_, err := conn.Exec(schemaSQL)
	return err
}
