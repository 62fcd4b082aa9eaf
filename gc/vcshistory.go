package gc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Khushiyant/vekt/internal/dcontext"
	"github.com/Khushiyant/vekt/manifest"
)

// scanVCSHistory unions into referenced every hash referenced by a manifest
// reachable from any ref in root's git history, not merely branch tips. If
// root has no .git directory, or git is unavailable, the scan is a no-op:
// the collector tolerates the VCS being absent.
func scanVCSHistory(ctx context.Context, root string, referenced map[string]bool) error {
	logger := dcontext.GetLogger(ctx)

	if _, err := os.Stat(filepath.Join(root, ".git")); err != nil {
		return nil
	}

	shas, err := manifestObjectSHAs(ctx, root)
	if err != nil {
		logger.Warnf("gc: listing VCS objects failed, skipping history scan: %v", err)
		return nil
	}
	if len(shas) == 0 {
		return nil
	}

	return streamManifestObjects(ctx, root, shas, referenced)
}

// manifestObjectSHAs runs `git rev-list --all --objects` and returns the
// SHAs of every object whose recorded path ends in .vekt.json. rev-list's
// output is "<sha> <path>" for blobs reachable via a tree entry, and a bare
// "<sha>" for commits/trees with no path; the bare-SHA lines are not
// manifests and are skipped.
func manifestObjectSHAs(ctx context.Context, root string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", root, "rev-list", "--all", "--objects")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git rev-list: %w", err)
	}

	var shas []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) != 2 {
			continue
		}
		sha, path := parts[0], parts[1]
		if strings.HasSuffix(path, manifestSuffix) {
			shas = append(shas, sha)
		}
	}
	return shas, scanner.Err()
}

// streamManifestObjects pipes shas to `git cat-file --batch` and parses its
// "<sha> <type> <size>\n<payload>\n" framing exactly, unioning each
// successfully parsed manifest's hashes into referenced.
func streamManifestObjects(ctx context.Context, root string, shas []string, referenced map[string]bool) error {
	logger := dcontext.GetLogger(ctx)

	cmd := exec.CommandContext(ctx, "git", "-C", root, "cat-file", "--batch")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("git cat-file: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("git cat-file: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("git cat-file: start: %w", err)
	}

	writeErr := make(chan error, 1)
	go func() {
		w := bufio.NewWriter(stdin)
		for _, sha := range shas {
			if _, err := fmt.Fprintln(w, sha); err != nil {
				writeErr <- err
				stdin.Close()
				return
			}
		}
		writeErr <- w.Flush()
		stdin.Close()
	}()

	reader := bufio.NewReader(stdout)
	for {
		headerLine, err := reader.ReadString('\n')
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("git cat-file: reading header: %w", err)
		}

		parts := strings.Fields(headerLine)
		if len(parts) != 3 {
			// "<sha> missing" or similar; nothing further to read for this entry.
			continue
		}
		size, err := strconv.Atoi(parts[2])
		if err != nil {
			continue
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return fmt.Errorf("git cat-file: reading payload: %w", err)
		}
		if _, err := reader.Discard(1); err != nil { // trailing newline after each object
			return fmt.Errorf("git cat-file: reading trailing newline: %w", err)
		}

		m, err := manifest.Parse(payload)
		if err != nil {
			logger.Debugf("gc: skipping unparsable historical manifest: %v", err)
			continue
		}
		markManifest(m, referenced)
	}

	if err := <-writeErr; err != nil {
		return fmt.Errorf("git cat-file: writing SHAs: %w", err)
	}
	return cmd.Wait()
}
