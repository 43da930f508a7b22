package config

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("genbuiltins.config")

// gitDescribe returns `git describe` output for the repository at dir.
func gitDescribe(dir string) (string, error) {
	cmd := exec.Command("git", "describe", "--always", "--dirty")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git describe in %s: %w", dir, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ResolveGitDescribe fills in Build.GitDescribe from the repository
// containing the config when it was not set explicitly. Outside a
// repository it becomes "unknown".
func (c *Config) ResolveGitDescribe() string {
	if c.Build.GitDescribe != "" {
		return c.Build.GitDescribe
	}
	desc, err := gitDescribe(c.Dir)
	if err != nil {
		log.Debugf("%v", err)
		desc = "unknown"
	}
	c.Build.GitDescribe = desc
	return desc
}
