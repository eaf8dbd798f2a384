package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers prompts that walk a client through the graph tools.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("break_down_task").
		Description("Split a task into subtasks and order them with dependencies.").
		Argument("task_id", "ID of the task to break down", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			taskID := args["task_id"]
			if taskID == "" {
				taskID = "[task id]"
			}
			return userPrompt("Task Breakdown", fmt.Sprintf(`Help me break down task %s.

1. Read the limits at taskgraph://limits so the plan fits the maximum tree depth
2. Use tree.children to see which subtasks already exist
3. Add each missing subtask with task.add and parent_id set to %s
4. Where one subtask must wait for another, link them with dependency.add_many

If a dependency is rejected as a cycle, show me the reported path and suggest which link to drop.`, taskID, taskID)), nil
		})

	srv.Prompt("unblock_task").
		Description("Find out what a task is waiting on and what to do first.").
		Argument("task_id", "ID of the blocked task", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			taskID := args["task_id"]
			if taskID == "" {
				taskID = "[task id]"
			}
			return userPrompt("Unblock Task", fmt.Sprintf(`Task %s cannot start yet.

1. Call task.can_start to list the incomplete prerequisites
2. For each blocker, call dependency.blocking in turn until you reach tasks that are ready
3. Propose an order of work starting with the ready tasks

Do not remove dependencies unless I confirm.`, taskID)), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
