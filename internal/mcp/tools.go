package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sondr3/git-anger-management/internal/anger"
	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/internal/render"
	"github.com/sondr3/git-anger-management/pkg/gitlib"
	"github.com/sondr3/git-anger-management/pkg/words"
)

// Tool names.
const (
	ToolNameScan  = "anger_scan"
	ToolNameCheck = "anger_check"
)

// MaxTextInputBytes caps the text accepted by anger_check.
const MaxTextInputBytes = 1 << 20

const (
	scanToolDescription = "Count flagged words in the commit messages of a local Git repository, " +
		"per author and in total. Accepts an absolute repository path and optional traversal limits."

	checkToolDescription = "Count flagged words in a piece of text, such as a draft commit message."
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyRepoPath indicates the repo_path parameter is empty.
	ErrEmptyRepoPath = errors.New("repo_path parameter is required and must not be empty")
	// ErrRepoPathNotAbsolute indicates the repo_path is not an absolute path.
	ErrRepoPathNotAbsolute = errors.New("repo_path must be an absolute path")
	// ErrRepoNotFound indicates the repository path does not exist.
	ErrRepoNotFound = errors.New("repository path does not exist")
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("path is not a git repository")
	// ErrEmptyText indicates the text parameter is empty.
	ErrEmptyText = errors.New("text parameter is required and must not be empty")
	// ErrTextTooLarge indicates the text exceeds MaxTextInputBytes.
	ErrTextTooLarge = errors.New("text input exceeds maximum size")
	// ErrNegativeValue indicates a negative workers or limit value.
	ErrNegativeValue = errors.New("workers and limit must be non-negative")
	// ErrTooManyWorkers indicates a workers value above history.MaxWorkers.
	ErrTooManyWorkers = errors.New("workers exceeds the maximum")
)

// ScanInput is the input schema for the anger_scan tool.
type ScanInput struct {
	RepoPath    string `json:"repo_path"              jsonschema:"absolute path to a Git repository"`
	Since       string `json:"since,omitempty"        jsonschema:"only count commits after this time (e.g. 720h or 2024-01-01)"`
	Limit       int    `json:"limit,omitempty"        jsonschema:"maximum number of commits to scan (default: all)"`
	FirstParent bool   `json:"first_parent,omitempty" jsonschema:"follow only the first parent of merge commits"`
	Workers     int    `json:"workers,omitempty"      jsonschema:"number of scanning goroutines, at most 256 (default: sequential)"`
	Pad         bool   `json:"pad,omitempty"          jsonschema:"list every repository word for every author, zero when unused"`
}

// CheckInput is the input schema for the anger_check tool.
type CheckInput struct {
	Text string `json:"text" jsonschema:"text to check for flagged words"`
}

// ToolOutput is the structured output of every tool.
type ToolOutput struct {
	Data any `json:"data"`
}

// CheckResult is the data returned by anger_check.
type CheckResult struct {
	Curses      int            `json:"curses"`
	Occurrences map[string]int `json:"occurrences"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

func (s *Server) handleScan(ctx context.Context, _ *mcpsdk.CallToolRequest, input ScanInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateScanInput(input)
	if err != nil {
		return errorResult(err)
	}

	opts := s.scan
	opts.Limit = input.Limit
	opts.FirstParent = input.FirstParent

	if input.Workers > 0 {
		opts.Workers = input.Workers
	}

	if input.Since != "" {
		since, parseErr := gitlib.ParseTime(input.Since)
		if parseErr != nil {
			return errorResult(parseErr)
		}

		opts.Since = &since
	}

	repo, _, err := history.Scan(ctx, input.RepoPath, opts)
	if errors.Is(err, history.ErrRepositoryAccess) {
		return errorResult(fmt.Errorf("%w: %w", ErrNotGitRepo, err))
	}

	if err != nil {
		return errorResult(err)
	}

	var buf bytes.Buffer

	err = render.JSON(&buf, repo, render.Options{Pad: input.Pad})
	if err != nil {
		return errorResult(err)
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: render.Summary(repo)},
			&mcpsdk.TextContent{Text: buf.String()},
		},
	}, ToolOutput{Data: json.RawMessage(buf.Bytes())}, nil
}

func (s *Server) handleCheck(_ context.Context, _ *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Text == "" {
		return errorResult(ErrEmptyText)
	}

	if len(input.Text) > MaxTextInputBytes {
		return errorResult(fmt.Errorf("%w: %d bytes (max %d)", ErrTextTooLarge, len(input.Text), MaxTextInputBytes))
	}

	part, err := anger.Scan(s.list(), anger.NewCommit("input", "input", input.Text))
	if err != nil {
		return errorResult(err)
	}

	occurrences := part.Occurrences
	if occurrences == nil {
		occurrences = map[string]int{}
	}

	return jsonResult(CheckResult{Curses: part.Curses, Occurrences: occurrences})
}

func (s *Server) list() *words.List {
	if s.scan.Words != nil {
		return s.scan.Words
	}

	return words.Default()
}

func validateScanInput(input ScanInput) error {
	if input.RepoPath == "" {
		return ErrEmptyRepoPath
	}

	if !filepath.IsAbs(input.RepoPath) {
		return fmt.Errorf("%w: %s", ErrRepoPathNotAbsolute, input.RepoPath)
	}

	if input.Limit < 0 || input.Workers < 0 {
		return ErrNegativeValue
	}

	if input.Workers > history.MaxWorkers {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyWorkers, input.Workers, history.MaxWorkers)
	}

	_, err := os.Stat(input.RepoPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRepoNotFound, input.RepoPath)
	}

	return nil
}
