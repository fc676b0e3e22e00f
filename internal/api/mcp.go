package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kalambet/complytrain/internal/course"
	"github.com/kalambet/complytrain/internal/profile"
)

// NewMCPServer creates an MCP server exposing the training flow as tools and
// the stored profile as a resource.
func NewMCPServer(deps Deps, version string) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := server.NewMCPServer(
		"complytrain",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("complytrain: personalized compliance training. Generate an introduction, a workplace scenario and a multiple-choice question for one of four topics."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("list_topics",
			mcp.WithDescription("List the compliance training topics in menu order."),
		),
		mcpListTopics(),
	)

	s.AddTool(
		mcp.NewTool("match_topic",
			mcp.WithDescription("Suggest the topic that best matches free text. The suggestion is advisory; no match is a valid result."),
			mcp.WithString("input", mcp.Description("Free-text description of what the user wants to learn"), mcp.Required()),
		),
		mcpMatchTopic(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_training",
			mcp.WithDescription("Generate an introduction, a scenario personalized from the stored profile, and a multiple-choice question."),
			mcp.WithString("topic", mcp.Description("Topic label or its 1-based menu number"), mcp.Required()),
		),
		mcpGenerateTraining(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"profile://current",
			"User Profile",
			mcp.WithResourceDescription("The stored user profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	return s
}

func mcpListTopics() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(course.Topics())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal topics: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpMatchTopic(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := req.RequireString("input")
		if err != nil || strings.TrimSpace(input) == "" {
			return mcpError("input is required"), nil
		}

		topic, ok, err := deps.Generator.MatchTopic(ctx, input)
		if err != nil {
			return mcpError(fmt.Sprintf("match failed: %v", err)), nil
		}
		if !ok {
			return mcpText(course.NoMatchSentinel), nil
		}
		return mcpText(string(topic)), nil
	}
}

func mcpGenerateTraining(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("topic")
		if err != nil {
			return mcpError("topic is required"), nil
		}
		topic, ok := course.SelectTopic(raw)
		if !ok {
			return mcpError(fmt.Sprintf("%v: %q", course.ErrUnknownTopic, raw)), nil
		}

		p, err := profile.Load(deps.ProfilePath)
		if err != nil {
			if errors.Is(err, profile.ErrMissingProfile) {
				return mcpError(fmt.Sprintf("%v. Build one first with: complytrain profile build", err)), nil
			}
			return mcpError(fmt.Sprintf("failed to load profile: %v", err)), nil
		}

		a, err := deps.Generator.Generate(ctx, topic, p, nil)
		if err != nil {
			return mcpError(fmt.Sprintf("generation failed: %v", err)), nil
		}

		deps.Logger.Info("Training generated over MCP", zap.String("run_id", a.ID))
		return mcpText(formatArtifact(a)), nil
	}
}

func formatArtifact(a course.Artifact) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", a.Topic)
	sb.WriteString(a.Intro)
	sb.WriteString("\n\n## Scenario\n\n")
	sb.WriteString(a.Scenario)
	sb.WriteString("\n\n## Question\n\n")
	sb.WriteString(a.Question)
	return sb.String()
}

func mcpResourceProfile(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, err := profile.Load(deps.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		b, err := profile.Encode(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
