package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/acolytehq/acolyte/internal/types"
)

const (
	historyStorageCap = 100
	historyReadCap    = 10
)

// CreateAgent inserts a catalog row and all fourteen memory slots (content
// "{}") in a single transaction. A duplicate name is a structured error.
func CreateAgent(conn *sql.DB, entry types.AgentEntry) error {
	if entry.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if entry.Type == "" {
		entry.Type = "acolyte"
	}
	now := nowISO()

	existing, err := GetAgent(conn, entry.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("agent already exists: %s", entry.Name)
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO agents_catalog (name, type, module, sub_module, role,
			tech_stack, scenarios, tags, connections, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Name, entry.Type, entry.Module, entry.SubModule,
		marshalJSON(entry.Role, "[]"),
		marshalJSON(entry.TechStack, "[]"),
		marshalJSON(entry.Scenarios, "[]"),
		marshalJSON(entry.Tags, "[]"),
		marshalJSON(entry.Connections, "[]"), now)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, slot := range types.MemorySlots {
		_, err = tx.Exec(`
			INSERT INTO agents_memory (agent_name, memory_type, content, updated_at)
			VALUES (?, ?, '{}', ?)
		`, entry.Name, slot, now)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// GetAgent returns a catalog entry or nil.
func GetAgent(conn *sql.DB, name string) (*types.AgentEntry, error) {
	row := conn.QueryRow(`
		SELECT name, type, module, sub_module, role, tech_stack, scenarios,
		       tags, connections, created_at
		FROM agents_catalog WHERE name = ?
	`, name)

	var entry types.AgentEntry
	var module, subModule sql.NullString
	var role, techStack, scenarios, tags, connections string
	err := row.Scan(&entry.Name, &entry.Type, &module, &subModule, &role,
		&techStack, &scenarios, &tags, &connections, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entry.Module = module.String
	entry.SubModule = subModule.String
	entry.Role = unmarshalStrings(role)
	entry.TechStack = unmarshalStrings(techStack)
	entry.Scenarios = unmarshalStrings(scenarios)
	entry.Tags = unmarshalStrings(tags)
	entry.Connections = unmarshalStrings(connections)
	return &entry, nil
}

// ListAgents returns all catalog entries in insertion order.
func ListAgents(conn *sql.DB) ([]types.AgentEntry, error) {
	rows, err := conn.Query(`
		SELECT name, type, module, sub_module, role, tech_stack, scenarios,
		       tags, connections, created_at
		FROM agents_catalog ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []types.AgentEntry
	for rows.Next() {
		var entry types.AgentEntry
		var module, subModule sql.NullString
		var role, techStack, scenarios, tags, connections string
		err := rows.Scan(&entry.Name, &entry.Type, &module, &subModule, &role,
			&techStack, &scenarios, &tags, &connections, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		entry.Module = module.String
		entry.SubModule = subModule.String
		entry.Role = unmarshalStrings(role)
		entry.TechStack = unmarshalStrings(techStack)
		entry.Scenarios = unmarshalStrings(scenarios)
		entry.Tags = unmarshalStrings(tags)
		entry.Connections = unmarshalStrings(connections)
		agents = append(agents, entry)
	}
	return agents, rows.Err()
}

// GetMemory returns a memory slot. For the history slot only the last 10
// entries are surfaced; storage keeps up to 100.
func GetMemory(conn *sql.DB, agentName, memoryType string) (*types.AgentMemory, error) {
	if !types.IsMemorySlot(memoryType) {
		return nil, fmt.Errorf("unknown memory slot: %s", memoryType)
	}

	row := conn.QueryRow(`
		SELECT agent_name, memory_type, content, updated_at
		FROM agents_memory WHERE agent_name = ? AND memory_type = ?
	`, agentName, memoryType)

	var mem types.AgentMemory
	err := row.Scan(&mem.AgentName, &mem.MemoryType, &mem.Content, &mem.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no memory for agent %s", agentName)
	}
	if err != nil {
		return nil, err
	}

	if memoryType == "history" {
		mem.Content = trimHistoryContent(mem.Content, historyReadCap)
	}
	return &mem, nil
}

// UpdateMemory replaces a slot's content atomically.
func UpdateMemory(conn *sql.DB, agentName, memoryType, content string) error {
	if !types.IsMemorySlot(memoryType) {
		return fmt.Errorf("unknown memory slot: %s", memoryType)
	}
	if !json.Valid([]byte(content)) {
		return fmt.Errorf("memory content must be valid JSON")
	}

	result, err := conn.Exec(`
		UPDATE agents_memory SET content = ?, updated_at = ?
		WHERE agent_name = ? AND memory_type = ?
	`, content, nowISO(), agentName, memoryType)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("no memory for agent %s", agentName)
	}
	return nil
}

// AddInteraction appends a record to the history slot, trimming storage to
// the most recent 100 entries in place.
func AddInteraction(conn *sql.DB, agentName string, interaction types.Interaction) error {
	if interaction.Timestamp == "" {
		interaction.Timestamp = nowISO()
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}

	var content string
	err = tx.QueryRow(`
		SELECT content FROM agents_memory
		WHERE agent_name = ? AND memory_type = 'history'
	`, agentName).Scan(&content)
	if err == sql.ErrNoRows {
		_ = tx.Rollback()
		return fmt.Errorf("no memory for agent %s", agentName)
	}
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	doc, history := parseHistoryContent(content)
	history = append(history, interaction)
	if len(history) > historyStorageCap {
		history = history[len(history)-historyStorageCap:]
	}

	_, err = tx.Exec(`
		UPDATE agents_memory SET content = ?, updated_at = ?
		WHERE agent_name = ? AND memory_type = 'history'
	`, encodeHistoryContent(doc, history), nowISO(), agentName)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

const historyKey = "history"

// parseHistoryContent splits the slot document into the interaction list and
// the remaining keys. Callers round-trip through encodeHistoryContent so
// keys other than "history" survive trims and appends.
func parseHistoryContent(content string) (map[string]json.RawMessage, []types.Interaction) {
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		doc = map[string]json.RawMessage{}
	}
	var history []types.Interaction
	if raw, ok := doc[historyKey]; ok {
		_ = json.Unmarshal(raw, &history)
	}
	return doc, history
}

func encodeHistoryContent(doc map[string]json.RawMessage, history []types.Interaction) string {
	raw, err := json.Marshal(history)
	if err != nil {
		raw = []byte("[]")
	}
	doc[historyKey] = raw
	return marshalJSON(doc, "{}")
}

func trimHistoryContent(content string, limit int) string {
	doc, history := parseHistoryContent(content)
	if len(history) <= limit {
		return content
	}
	return encodeHistoryContent(doc, history[len(history)-limit:])
}

// Semantic search weights. Deterministic bag-of-words: no embedding calls,
// identical input always ranks identically.
const (
	weightExactTag   = 50
	weightTagWord    = 40
	weightTechStack  = 30
	weightRole       = 20
	weightScenario   = 20
	weightModule     = 15
	weightMultiMatch = 25
)

// SearchAgents scores catalog metadata against a whitespace-tokenized query.
// Returns the top limit agents with non-zero scores, each annotated with up
// to three reasons. Ties keep insertion order.
func SearchAgents(conn *sql.DB, query string, limit int) ([]types.AgentMatch, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = 5
	}

	agents, err := ListAgents(conn)
	if err != nil {
		return nil, err
	}

	var matches []types.AgentMatch
	for _, agent := range agents {
		score, reasons := scoreAgent(agent, tokens)
		if score == 0 {
			continue
		}
		if len(reasons) > 3 {
			reasons = reasons[:3]
		}
		matches = append(matches, types.AgentMatch{Agent: agent, Score: score, Reasons: reasons})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func scoreAgent(agent types.AgentEntry, tokens []string) (int, []string) {
	score := 0
	var reasons []string
	categories := map[string]bool{}

	for _, token := range tokens {
		for _, tag := range agent.Tags {
			if strings.ToLower(tag) == token {
				score += weightExactTag
				categories["tag"] = true
				reasons = append(reasons, fmt.Sprintf("tag %q matches %q", tag, token))
			} else if fieldHasWord(tag, token) {
				score += weightTagWord
				categories["tag"] = true
				reasons = append(reasons, fmt.Sprintf("tag %q mentions %q", tag, token))
			}
		}
		if anyFieldHasWord(agent.TechStack, token) {
			score += weightTechStack
			categories["tech"] = true
			reasons = append(reasons, fmt.Sprintf("tech stack mentions %q", token))
		}
		if anyFieldHasWord(agent.Role, token) {
			score += weightRole
			categories["role"] = true
			reasons = append(reasons, fmt.Sprintf("role mentions %q", token))
		}
		if anyFieldHasWord(agent.Scenarios, token) {
			score += weightScenario
			categories["scenario"] = true
			reasons = append(reasons, fmt.Sprintf("scenarios mention %q", token))
		}
		if fieldHasWord(agent.Module, token) || fieldHasWord(agent.SubModule, token) {
			score += weightModule
			categories["module"] = true
			reasons = append(reasons, fmt.Sprintf("module mentions %q", token))
		}
	}

	if score > 0 && len(categories) >= 2 {
		score += weightMultiMatch
		reasons = append(reasons, "matched across multiple signals")
	}
	return score, reasons
}

func tokenize(query string) []string {
	var tokens []string
	for _, field := range strings.Fields(query) {
		tokens = append(tokens, strings.ToLower(field))
	}
	return tokens
}

func fieldHasWord(field, token string) bool {
	for _, word := range strings.Fields(strings.ToLower(field)) {
		if word == token {
			return true
		}
	}
	return false
}

func anyFieldHasWord(fields []string, token string) bool {
	for _, field := range fields {
		if fieldHasWord(field, token) {
			return true
		}
	}
	return false
}
