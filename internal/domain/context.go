package domain

// GitInfo captures version-control signals for the working directory.
type GitInfo struct {
	IsGitRepo             bool   `json:"is_git_repo"`
	Branch                string `json:"branch,omitempty"`
	HasUncommittedChanges bool   `json:"has_uncommitted_changes"`
}

// Context holds the environmental signals a suggestion request is
// ranked against. Built fresh per request, never persisted.
type Context struct {
	CWD            string         `json:"cwd"`
	CWDBasename    string         `json:"cwd_basename"`
	Git            GitInfo        `json:"git_info"`
	FileTypes      map[string]int `json:"file_types"`
	DirectoryTags  []string       `json:"directory_type"`
	RecentCommands []string       `json:"recent_commands"`
	LastCommand    string         `json:"last_command,omitempty"`
	LastExitCode   *int           `json:"last_exit_code,omitempty"`
}

// ContextRequest carries the caller-supplied shell state the collector
// starts from.
type ContextRequest struct {
	CWD            string
	LastCommand    string
	LastExitCode   *int
	RecentCommands []string
}
