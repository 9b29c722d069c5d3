package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Project represents a located acolyte project.
type Project struct {
	Root   string
	DBPath string
}

// MemoryDir returns <root>/.claude/memory.
func (p Project) MemoryDir() string {
	return filepath.Join(p.Root, ".claude", "memory")
}

// ChatDir returns the conversation log directory.
func (p Project) ChatDir() string {
	return filepath.Join(p.MemoryDir(), "chat")
}

// BackupDir returns the database backup directory.
func (p Project) BackupDir() string {
	return filepath.Join(p.MemoryDir(), "backup")
}

// AcolytesDir returns the subagent log directory.
func (p Project) AcolytesDir() string {
	return filepath.Join(p.MemoryDir(), "acolytes")
}

// QuestLogDir returns the per-quest audit log directory.
func (p Project) QuestLogDir() string {
	return filepath.Join(p.Root, ".claude", "logs", "quests")
}

// ConfigPath returns the optional project config file.
func (p Project) ConfigPath() string {
	return filepath.Join(p.MemoryDir(), "config.yml")
}

// DiscoverProject walks up from startDir looking for .claude/memory/project.db.
// The home directory is excluded so a stray global install never shadows a
// project. Failure is a hard error listing every path searched.
func DiscoverProject(startDir string) (Project, error) {
	current := startDir
	if current == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Project{}, err
		}
		current = cwd
	}
	current, err := filepath.Abs(current)
	if err != nil {
		return Project{}, err
	}
	if resolved, err := filepath.EvalSymlinks(current); err == nil {
		current = resolved
	}

	home, _ := os.UserHomeDir()

	var searched []string
	for {
		if home != "" && current == home {
			break
		}

		dbPath := filepath.Join(current, ".claude", "memory", "project.db")
		searched = append(searched, current)
		if info, err := os.Stat(dbPath); err == nil && !info.IsDir() {
			return Project{Root: current, DBPath: dbPath}, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return Project{}, fmt.Errorf(
		"no acolyte project found (searched: %s). Run 'acolyte init' in your project root",
		strings.Join(searched, ", "))
}

// InitProject creates the project layout under dir and returns it. The
// database file itself is created empty; schema init happens on open.
func InitProject(dir string) (Project, error) {
	root := dir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return Project{}, err
		}
		root = cwd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Project{}, err
	}

	project := Project{
		Root:   root,
		DBPath: filepath.Join(root, ".claude", "memory", "project.db"),
	}

	dirs := []string{
		project.MemoryDir(),
		project.ChatDir(),
		project.BackupDir(),
		project.AcolytesDir(),
		project.QuestLogDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return Project{}, err
		}
	}
	ensureGitignore(project.MemoryDir())

	if _, err := os.Stat(project.DBPath); os.IsNotExist(err) {
		if err := os.WriteFile(project.DBPath, nil, 0o644); err != nil {
			return Project{}, err
		}
	}

	return project, nil
}

func ensureGitignore(memoryDir string) {
	gitignore := filepath.Join(memoryDir, ".gitignore")
	entries := []string{"*.db", "*.db-wal", "*.db-shm", "backup/", "chat/*.lock"}

	data, err := os.ReadFile(gitignore)
	if err != nil {
		_ = os.WriteFile(gitignore, []byte(strings.Join(entries, "\n")+"\n"), 0o644)
		return
	}

	existing := map[string]bool{}
	for _, line := range strings.Split(string(data), "\n") {
		existing[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range entries {
		if !existing[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return
	}

	content := strings.TrimRight(string(data), "\n") + "\n" + strings.Join(missing, "\n") + "\n"
	_ = os.WriteFile(gitignore, []byte(content), 0o644)
}
