package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/graphflow/engine/logger"
)

// workerScript is a thin host that reads {input, source, context} as JSON
// from stdin, evaluates the caller-supplied source (which must declare a
// `handle` function), calls handle, and writes the JSON result to stdout.
// It never embeds engine logic; it only exists to host untrusted code
// outside this process.
const workerScript = `
(async () => {
const chunks = [];
for await (const chunk of process.stdin) chunks.push(chunk);
const { input, source, context } = JSON.parse(Buffer.concat(chunks).toString("utf8"));
const handle = new Function("input", "context", "state", ` + "`" + `return (function(){ ${source} ; return handle({input, context, state: context && context.state}); })();` + "`" + `);
Promise.resolve(handle(input, context, context && context.state))
  .then((result) => process.stdout.write(JSON.stringify({ result })))
  .catch((err) => process.stdout.write(JSON.stringify({ error: String(err && err.message || err) })));
})();
`

// SubprocessCodeExecutor runs sandboxed code by forking a child process per
// call; the child inherits this process's environment and no further
// isolation is applied. This is the way the teacher's BunManager shells out to a Bun
// worker rather than embedding a JS engine in-process. Generalized here to
// any stdin/stdout-JSON worker binary (bun, node, deno) instead of a single
// hardcoded runtime.
type SubprocessCodeExecutor struct {
	binaryPath string
	workerPath string
	timeout    time.Duration
	log        logger.Logger
}

// NewSubprocessCodeExecutor writes the worker script under baseDir and
// returns an executor that shells out to binaryPath (e.g. "bun", "node")
// for every Run call. Mirrors BunManager's "write worker file once at
// construction" pattern.
func NewSubprocessCodeExecutor(binaryPath, baseDir string, timeout time.Duration, log logger.Logger) (*SubprocessCodeExecutor, error) {
	if _, err := exec.LookPath(binaryPath); err != nil {
		return nil, fmt.Errorf("%s executable not found: %w", binaryPath, err)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create worker dir: %w", err)
	}
	workerPath := filepath.Join(baseDir, "graphflow_worker.js")
	if err := os.WriteFile(workerPath, []byte(workerScript), 0o644); err != nil {
		return nil, fmt.Errorf("write worker script: %w", err)
	}
	if log == nil {
		log = logger.NewLogger(logger.DefaultConfig())
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SubprocessCodeExecutor{binaryPath: binaryPath, workerPath: workerPath, timeout: timeout, log: log}, nil
}

type workerPayload struct {
	Input   any            `json:"input"`
	Source  string         `json:"source"`
	Context map[string]any `json:"context"`
}

type workerResult struct {
	Result any    `json:"result"`
	Error  string `json:"error"`
}

// Run forks binaryPath against the worker script, sends the call payload
// on stdin, and parses its JSON response. The subprocess is killed if ctx
// is canceled or the configured timeout elapses first.
func (e *SubprocessCodeExecutor) Run(ctx context.Context, input any, source string, runContext map[string]any) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payload, err := json.Marshal(workerPayload{Input: input, Source: source, Context: runContext})
	if err != nil {
		return nil, fmt.Errorf("marshal worker payload: %w", err)
	}

	args := []string{"run", e.workerPath}
	if filepath.Base(e.binaryPath) == "node" {
		args = []string{e.workerPath}
	}
	cmd := exec.CommandContext(callCtx, e.binaryPath, args...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debug("running sandboxed code", "binary", e.binaryPath, "nodeId", runContext["nodeId"])

	if err := cmd.Run(); err != nil {
		if callCtx.Err() != nil {
			return nil, fmt.Errorf("sandboxed code timed out: %w", callCtx.Err())
		}
		return nil, fmt.Errorf("sandboxed code process failed: %w (stderr: %s)", err, stderr.String())
	}

	var result workerResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("parse worker output: %w (stdout: %s)", err, stdout.String())
	}
	if result.Error != "" {
		return nil, fmt.Errorf("sandboxed code error: %s", result.Error)
	}
	return result.Result, nil
}
