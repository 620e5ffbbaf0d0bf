package provider

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/quorumtrade/quorum/internal/models"
)

// cliGateway shells out to a local agent binary (claude, gemini and
// friends). The prompt goes in on stdin, the answer comes back on stdout.
// Token usage is unavailable for CLI providers and stays zero.
type cliGateway struct {
	id   models.ModelID
	argv []string
}

func (g *cliGateway) Query(ctx context.Context, prompt string, opts models.QueryOptions) *models.QueryResult {
	if len(g.argv) == 0 {
		return &models.QueryResult{ErrorMessage: g.id.String() + ": cli command not configured"}
	}

	args := make([]string, 0, len(g.argv)-1)
	for _, a := range g.argv[1:] {
		args = append(args, strings.ReplaceAll(a, "{model}", g.id.Model))
	}

	cmd := exec.CommandContext(ctx, g.argv[0], args...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return errorResult(fmt.Errorf("%s: %s", g.id, detail))
	}

	return &models.QueryResult{Text: strings.TrimSpace(stdout.String())}
}
