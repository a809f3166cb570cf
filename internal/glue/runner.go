// Package glue forwards an HTTP request into an external process: the request
// and the server's environment go in as a JSON envelope on stdin, the
// process's stdout comes back verbatim as the response body, and the exit
// code maps to 200 or 500. There is deliberately no timeout, no output bound,
// and no structured error body; a hung script blocks its request.
package glue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"chatdesk-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestInfo is the HTTP request portion of the envelope. Multi-valued
// headers and query parameters are flattened to their first value.
type RequestInfo struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// Envelope is what the external process reads from stdin
type Envelope struct {
	Request     RequestInfo       `json:"request"`
	Environment map[string]string `json:"environment"`
}

// Result is the outcome of one process run
type Result struct {
	Output   []byte
	ExitCode int
}

// Runner spawns the configured command once per request
type Runner struct {
	command string
	args    []string
}

// NewRunner creates a runner for the given command
func NewRunner(command string, args ...string) *Runner {
	return &Runner{command: command, args: args}
}

// Run spawns the process, feeds it the envelope, and waits for exit. The
// returned error covers only failure to start or to write the envelope;
// a non-zero exit is reported through Result.ExitCode.
func (r *Runner) Run(req *http.Request, body []byte) (*Result, error) {
	envelope := buildEnvelope(req, body)

	cmd := exec.Command(r.command, r.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", r.command, err)
	}

	encodeErr := json.NewEncoder(stdin).Encode(envelope)
	if closeErr := stdin.Close(); encodeErr == nil {
		encodeErr = closeErr
	}

	waitErr := cmd.Wait()

	if encodeErr != nil {
		return nil, fmt.Errorf("failed to write envelope: %w", encodeErr)
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("process failed: %w", waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	if stderr.Len() > 0 {
		logger.Warn("Send process wrote to stderr",
			zap.String("command", r.command),
			zap.String("stderr", stderr.String()),
		)
	}

	return &Result{Output: stdout.Bytes(), ExitCode: exitCode}, nil
}

// Handler adapts the runner into a gin handler that relays any request
// verbatim. Exit zero maps to 200, anything else to 500; stdout is the
// response body either way.
func (r *Runner) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Error("Failed to read request body", zap.Error(err))
			c.Status(http.StatusInternalServerError)
			return
		}

		result, err := r.Run(c.Request, body)
		if err != nil {
			logger.Error("Forwarding request failed", zap.Error(err))
			c.Status(http.StatusInternalServerError)
			return
		}

		status := http.StatusOK
		if result.ExitCode != 0 {
			status = http.StatusInternalServerError
		}
		c.Data(status, "text/plain; charset=utf-8", result.Output)
	}
}

func buildEnvelope(req *http.Request, body []byte) Envelope {
	headers := make(map[string]string, len(req.Header))
	for name, values := range req.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	query := make(map[string]string)
	for name, values := range req.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	environment := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			environment[kv[:i]] = kv[i+1:]
		}
	}

	return Envelope{
		Request: RequestInfo{
			Method:  req.Method,
			Path:    req.URL.Path,
			Query:   query,
			Headers: headers,
			Body:    string(body),
		},
		Environment: environment,
	}
}
