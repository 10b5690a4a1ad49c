package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/protogen/internal/logfields"
)

type runResult struct {
	stdout string
	stderr string
}

// run executes bin with args, feeding stdin when non-nil, and returns the captured output.
// A non-zero exit is wrapped in failed together with whatever the tool printed.
func run(ctx context.Context, bin string, args []string, stdin io.Reader, failed error) (runResult, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}
	slog.Debug("Invoking external tool", logfields.Tool(bin), slog.String("args", strings.Join(args, " ")))

	err := cmd.Run()
	res := runResult{stdout: stdout.String(), stderr: stderr.String()}
	if res.stderr != "" {
		slog.Debug("External tool stderr", logfields.Tool(bin), slog.String("error_output", res.stderr))
	}
	if err != nil {
		output := strings.TrimSpace(res.stderr)
		if output == "" {
			output = strings.TrimSpace(res.stdout)
		}
		if output != "" {
			return res, fmt.Errorf("%w: %w: %s", failed, err, output)
		}
		return res, fmt.Errorf("%w: %w", failed, err)
	}
	return res, nil
}

func lookPath(bin string, notFound error) (string, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%w: %w", notFound, err)
	}
	return path, nil
}
