// Package contextcollector derives ranking signals from the working
// directory and recent shell activity.
package contextcollector

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/doeshing/cmdsense/internal/domain"
	"github.com/doeshing/cmdsense/internal/ports"
)

// Collector implements ports.ContextCollector with filesystem probes and
// git subprocess calls. Every probe is bounded by a timeout and degrades
// to a neutral field on failure; Collect never fails.
type Collector struct {
	maxRecentCommands int
	fileTypesLimit    int
	probeTimeout      time.Duration
}

// directory tags are derived from marker files; several may co-occur.
var directoryMarkers = []struct {
	tag     string
	markers []string
}{
	{"python", []string{"setup.py", "requirements.txt", "pyproject.toml", "Pipfile"}},
	{"node", []string{"package.json", "node_modules"}},
	{"rust", []string{"Cargo.toml"}},
	{"go", []string{"go.mod", "go.sum"}},
	{"java", []string{"pom.xml", "build.gradle"}},
	{"docker", []string{"Dockerfile", "docker-compose.yml"}},
	{"terraform", []string{"*.tf"}},
}

// NewCollector builds a collector from context settings.
func NewCollector(cfg domain.ContextSettings) *Collector {
	c := &Collector{
		maxRecentCommands: cfg.MaxRecentCommands,
		fileTypesLimit:    cfg.FileTypesLimit,
		probeTimeout:      time.Duration(cfg.ProbeTimeoutMS) * time.Millisecond,
	}
	if c.maxRecentCommands <= 0 {
		c.maxRecentCommands = 10
	}
	if c.fileTypesLimit <= 0 {
		c.fileTypesLimit = 20
	}
	if c.probeTimeout <= 0 {
		c.probeTimeout = 2 * time.Second
	}
	return c
}

// Collect gathers context data. It never returns an error: a failed
// probe leaves the corresponding field at its neutral default.
func (c *Collector) Collect(ctx context.Context, req domain.ContextRequest) domain.Context {
	cwd := req.CWD
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}

	recent := req.RecentCommands
	if len(recent) > c.maxRecentCommands {
		recent = recent[len(recent)-c.maxRecentCommands:]
	}

	return domain.Context{
		CWD:            cwd,
		CWDBasename:    filepath.Base(cwd),
		Git:            c.collectGitInfo(ctx, cwd),
		FileTypes:      c.collectFileTypes(cwd),
		DirectoryTags:  collectDirectoryTags(cwd),
		RecentCommands: recent,
		LastCommand:    req.LastCommand,
		LastExitCode:   req.LastExitCode,
	}
}

func (c *Collector) collectGitInfo(ctx context.Context, cwd string) domain.GitInfo {
	inside := c.runCmd(ctx, cwd, "git", "rev-parse", "--is-inside-work-tree")
	if strings.TrimSpace(inside) != "true" {
		return domain.GitInfo{}
	}
	branch := strings.TrimSpace(c.runCmd(ctx, cwd, "git", "branch", "--show-current"))
	status := strings.TrimSpace(c.runCmd(ctx, cwd, "git", "status", "--porcelain"))
	return domain.GitInfo{
		IsGitRepo:             true,
		Branch:                branch,
		HasUncommittedChanges: status != "",
	}
}

// collectFileTypes counts extensions of regular files in the top level
// of cwd, keeping the most frequent ones.
func (c *Collector) collectFileTypes(cwd string) map[string]int {
	types := map[string]int{}
	entries, err := os.ReadDir(cwd)
	if err != nil {
		return types
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == "" {
			ext = "no_extension"
		}
		types[ext]++
	}
	if len(types) <= c.fileTypesLimit {
		return types
	}
	type extCount struct {
		ext   string
		count int
	}
	counts := make([]extCount, 0, len(types))
	for ext, n := range types {
		counts = append(counts, extCount{ext, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].ext < counts[j].ext
	})
	limited := make(map[string]int, c.fileTypesLimit)
	for _, ec := range counts[:c.fileTypesLimit] {
		limited[ec.ext] = ec.count
	}
	return limited
}

func collectDirectoryTags(cwd string) []string {
	var tags []string
	for _, dm := range directoryMarkers {
		for _, marker := range dm.markers {
			if strings.Contains(marker, "*") {
				if matches, err := filepath.Glob(filepath.Join(cwd, marker)); err == nil && len(matches) > 0 {
					tags = append(tags, dm.tag)
					break
				}
				continue
			}
			if _, err := os.Stat(filepath.Join(cwd, marker)); err == nil {
				tags = append(tags, dm.tag)
				break
			}
		}
	}
	return tags
}

func (c *Collector) runCmd(ctx context.Context, dir string, name string, args ...string) string {
	cctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	cmd := exec.CommandContext(cctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return string(out)
}

var _ ports.ContextCollector = (*Collector)(nil)
