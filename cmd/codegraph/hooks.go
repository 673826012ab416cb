package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codegraph/internal/cgerrors"
)

// hookMarker tags codegraph's own hook body so `hooks status`/`remove` can
// tell it apart from a hook script the project already had, and so `install`
// can detect (and refuse to clobber, absent --force) a foreign hook.
const hookMarker = "# codegraph:sync-hook"

const hookBody = hookMarker + "\ncodegraph sync --quiet --root \"$(git rev-parse --show-toplevel)\" || true\n"

var hooksCommand = &cli.Command{
	Name:  "hooks",
	Usage: "Manage the git post-commit hook that triggers `codegraph sync`",
	Subcommands: []*cli.Command{
		{
			Name:  "install",
			Usage: "Install the post-commit hook",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing non-codegraph hook"},
			},
			Action: func(c *cli.Context) error {
				root, err := resolveRoot(c)
				if err != nil {
					return err
				}
				path, err := hookPath(root)
				if err != nil {
					return err
				}
				if existing, statErr := os.ReadFile(path); statErr == nil && !containsMarker(existing) && !c.Bool("force") {
					return fail(exitError, fmt.Errorf("%s already exists and isn't a codegraph hook (use --force)", path))
				}
				if err := os.WriteFile(path, []byte("#!/bin/sh\n"+hookBody), 0o755); err != nil {
					return fail(exitError, cgerrors.NewIOError("write", path, err))
				}
				fmt.Fprintf(os.Stdout, "installed post-commit hook at %s\n", path)
				return nil
			},
		},
		{
			Name:  "remove",
			Usage: "Remove the post-commit hook, if it's ours",
			Action: func(c *cli.Context) error {
				root, err := resolveRoot(c)
				if err != nil {
					return err
				}
				path, err := hookPath(root)
				if err != nil {
					return err
				}
				data, statErr := os.ReadFile(path)
				if statErr != nil {
					fmt.Fprintf(os.Stdout, "no hook installed at %s\n", path)
					return nil
				}
				if !containsMarker(data) {
					return fail(exitError, fmt.Errorf("%s isn't a codegraph hook, not removing", path))
				}
				if err := os.Remove(path); err != nil {
					return fail(exitError, cgerrors.NewIOError("remove", path, err))
				}
				fmt.Fprintf(os.Stdout, "removed post-commit hook at %s\n", path)
				return nil
			},
		},
		{
			Name:  "status",
			Usage: "Report whether the post-commit hook is installed",
			Action: func(c *cli.Context) error {
				root, err := resolveRoot(c)
				if err != nil {
					return err
				}
				path, err := hookPath(root)
				if err != nil {
					return err
				}
				data, statErr := os.ReadFile(path)
				switch {
				case statErr != nil:
					return printResult(c, map[string]any{"installed": false, "path": path})
				case containsMarker(data):
					return printResult(c, map[string]any{"installed": true, "path": path, "managedByCodegraph": true})
				default:
					return printResult(c, map[string]any{"installed": true, "path": path, "managedByCodegraph": false})
				}
			},
		},
	},
}

func hookPath(root string) (string, error) {
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return "", fail(exitError, fmt.Errorf("%s is not a git repository", root))
	}
	return filepath.Join(gitDir, "hooks", "post-commit"), nil
}

func containsMarker(data []byte) bool {
	return strings.Contains(string(data), hookMarker)
}
