// Package validation provides startup validation for replydesk with
// colored progress output.
package validation

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Step represents a single validation step with its outcome.
type Step struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// SuiteResult is the aggregate outcome of a validation run.
type SuiteResult struct {
	Steps       []Step
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// Suite runs the replydesk startup checks in order: env file presence,
// provider base URL shape, credential presence, provider reachability.
// A missing environment key is a warning rather than a failure because the
// UI may supply a per-request key.
type Suite struct {
	output       io.Writer
	envPath      string
	baseURL      string
	apiKey       string
	timeout      time.Duration
	showProgress bool
	skipNetwork  bool
}

// NewSuite creates a Suite with default settings.
func NewSuite(baseURL, apiKey string) *Suite {
	return &Suite{
		output:       os.Stdout,
		envPath:      ".env",
		baseURL:      baseURL,
		apiKey:       apiKey,
		timeout:      10 * time.Second,
		showProgress: true,
	}
}

// WithOutput sets the writer for progress messages.
func (s *Suite) WithOutput(w io.Writer) *Suite {
	s.output = w
	return s
}

// WithEnvPath sets a custom .env path.
func (s *Suite) WithEnvPath(path string) *Suite {
	s.envPath = path
	return s
}

// WithTimeout sets the timeout for the reachability check.
func (s *Suite) WithTimeout(timeout time.Duration) *Suite {
	s.timeout = timeout
	return s
}

// WithShowProgress enables or disables progress output.
func (s *Suite) WithShowProgress(show bool) *Suite {
	s.showProgress = show
	return s
}

// WithSkipNetwork skips the provider reachability check.
func (s *Suite) WithSkipNetwork(skip bool) *Suite {
	s.skipNetwork = skip
	return s
}

// Validate runs all checks and returns the aggregate result.
func (s *Suite) Validate() SuiteResult {
	startTime := time.Now()
	steps := make([]Step, 0, 4)

	if s.showProgress {
		s.printHeader("replydesk Configuration Validation")
	}

	steps = append(steps, s.runStep("Environment File", s.checkEnvFile))
	steps = append(steps, s.runStep("Provider Base URL", s.checkBaseURL))
	steps = append(steps, s.runStep("API Credential", s.checkCredential))

	if s.skipNetwork {
		step := Step{Name: "Provider Reachability", Status: StepSkipped, Message: "Skipped (network checks disabled)"}
		if s.showProgress {
			s.printStep(step)
		}
		steps = append(steps, step)
	} else if hasFailure(steps) {
		step := Step{Name: "Provider Reachability", Status: StepSkipped, Message: "Skipped due to configuration errors"}
		if s.showProgress {
			s.printStep(step)
		}
		steps = append(steps, step)
	} else {
		steps = append(steps, s.runStep("Provider Reachability", s.checkReachability))
	}

	result := buildResult(steps, startTime)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

// checkEnvFile verifies the .env file exists. A missing file is a warning:
// configuration may come from real environment variables.
func (s *Suite) checkEnvFile() (StepStatus, string, error) {
	if _, err := os.Stat(s.envPath); err != nil {
		return StepWarning, fmt.Sprintf("%s not found, relying on process environment", s.envPath), nil
	}
	return StepPassed, s.envPath, nil
}

// checkBaseURL validates the provider URL shape without touching the network.
func (s *Suite) checkBaseURL() (StepStatus, string, error) {
	parsed, err := url.Parse(s.baseURL)
	if err != nil {
		return StepFailed, "", fmt.Errorf("unparseable base URL %q: %w", s.baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return StepFailed, "", fmt.Errorf("base URL %q must use http or https", s.baseURL)
	}
	if parsed.Host == "" {
		return StepFailed, "", fmt.Errorf("base URL %q has no host", s.baseURL)
	}
	return StepPassed, parsed.Host, nil
}

// checkCredential reports whether an environment-level API key is present.
func (s *Suite) checkCredential() (StepStatus, string, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return StepWarning, "no GROQ_API_KEY in environment; requests must carry their own key", nil
	}
	return StepPassed, "environment key configured", nil
}

// checkReachability issues a HEAD request against the base URL host.
// Any HTTP response counts as reachable; only transport errors fail.
func (s *Suite) checkReachability() (StepStatus, string, error) {
	parsed, err := url.Parse(s.baseURL)
	if err != nil {
		return StepFailed, "", err
	}
	client := &http.Client{Timeout: s.timeout}
	resp, err := client.Head(parsed.Scheme + "://" + parsed.Host)
	if err != nil {
		return StepFailed, "", fmt.Errorf("provider unreachable: %w", err)
	}
	resp.Body.Close()
	return StepPassed, fmt.Sprintf("HTTP %d", resp.StatusCode), nil
}

// runStep executes a validation step with timing and progress output.
func (s *Suite) runStep(name string, fn func() (StepStatus, string, error)) Step {
	if s.showProgress {
		fmt.Fprintf(s.output, "  ◌ %s...", name)
	}

	startTime := time.Now()
	status, message, err := fn()
	step := Step{
		Name:    name,
		Status:  status,
		Message: message,
		Error:   err,
		Latency: time.Since(startTime),
	}

	if s.showProgress {
		s.printStep(step)
	}
	return step
}

func hasFailure(steps []Step) bool {
	for _, step := range steps {
		if step.Status == StepFailed {
			return true
		}
	}
	return false
}

func buildResult(steps []Step, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}
	return result
}

// printHeader prints a validation header.
func (s *Suite) printHeader(title string) {
	fmt.Fprintln(s.output)
	headerColor := color.New(color.FgCyan, color.Bold)
	headerColor.Fprintf(s.output, "=== %s ===\n", title)
	fmt.Fprintln(s.output)
}

// printStep prints a completed validation step with status indicator.
func (s *Suite) printStep(step Step) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	case StepSkipped:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		color.New(color.FgRed).Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

// printSummary prints the validation summary.
func (s *Suite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)
	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "=== Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ===")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "=== Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ===")
	}
	fmt.Fprintln(s.output)
}

// GetFirstError returns the first error from failed steps, or nil.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			return step.Error
		}
	}
	return nil
}
