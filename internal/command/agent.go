package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/acolytehq/acolyte/internal/db"
	"github.com/acolytehq/acolyte/internal/types"
	"github.com/spf13/cobra"
)

// NewAgentCmd groups the agent catalog and memory operations.
func NewAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage the agent catalog and per-agent memory slots",
	}
	cmd.AddCommand(
		newAgentCreateCmd(),
		newAgentMemoryCmd(),
		newAgentInteractionCmd(),
		newAgentSearchCmd(),
	)
	return cmd
}

func newAgentCreateCmd() *cobra.Command {
	var module, subModule string
	var role, techStack, scenarios, tags, connections []string

	cmd := &cobra.Command{
		Use:   "create <@name>",
		Short: "Create an acolyte with its fourteen memory slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			entry := types.AgentEntry{
				Name:        args[0],
				Type:        "acolyte",
				Module:      module,
				SubModule:   subModule,
				Role:        role,
				TechStack:   techStack,
				Scenarios:   scenarios,
				Tags:        tags,
				Connections: connections,
			}
			if err := db.CreateAgent(conn, entry); err != nil {
				return writeError(cmd, err)
			}
			return writeJSON(cmd, map[string]any{
				"agent":        args[0],
				"memory_slots": len(types.MemorySlots),
			})
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "module the agent owns")
	cmd.Flags().StringVar(&subModule, "sub-module", "", "sub-module within the module")
	cmd.Flags().StringSliceVar(&role, "role", nil, "role descriptors")
	cmd.Flags().StringSliceVar(&techStack, "tech-stack", nil, "technologies the agent covers")
	cmd.Flags().StringSliceVar(&scenarios, "scenarios", nil, "scenarios the agent handles")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "search tags")
	cmd.Flags().StringSliceVar(&connections, "connections", nil, "related agents")
	_ = cmd.MarkFlagRequired("module")
	return cmd
}

func newAgentMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Read and write typed memory slots",
	}

	get := &cobra.Command{
		Use:   "get <@name> <slot>",
		Short: "Print a memory slot as JSON (history: last 10 entries)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			mem, err := db.GetMemory(conn, args[0], args[1])
			if err != nil {
				return writeError(cmd, err)
			}
			return writeJSON(cmd, map[string]any{
				"agent":      mem.AgentName,
				"slot":       mem.MemoryType,
				"content":    json.RawMessage(mem.Content),
				"updated_at": mem.UpdatedAt,
			})
		},
	}

	update := &cobra.Command{
		Use:   "update <@name> <slot> <json>",
		Short: "Replace a memory slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			if err := db.UpdateMemory(conn, args[0], args[1], args[2]); err != nil {
				return writeError(cmd, err)
			}
			return writeJSON(cmd, map[string]string{"agent": args[0], "slot": args[1], "status": "updated"})
		},
	}

	cmd.AddCommand(get, update)
	return cmd
}

func newAgentInteractionCmd() *cobra.Command {
	var outcome string

	cmd := &cobra.Command{
		Use:   "interaction <@name> <type> <request> <response>",
		Short: "Append to the history memory (keeps the last 100)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			err = db.AddInteraction(conn, args[0], types.Interaction{
				Type:     args[1],
				Request:  args[2],
				Response: args[3],
				Outcome:  outcome,
			})
			if err != nil {
				return writeError(cmd, err)
			}
			return writeJSON(cmd, map[string]string{"agent": args[0], "status": "recorded"})
		},
	}

	cmd.Flags().StringVar(&outcome, "outcome", "", "optional outcome note")
	return cmd
}

func newAgentSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Semantic-match the agent catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return writeError(cmd, fmt.Errorf("search query is required"))
			}

			_, conn, err := openProjectDB()
			if err != nil {
				return writeError(cmd, err)
			}
			defer conn.Close()

			matches, err := db.SearchAgents(conn, query, limit)
			if err != nil {
				return writeError(cmd, err)
			}
			return writeJSON(cmd, matches)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "maximum matches")
	return cmd
}
