package validation

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// TestSuite_Valid tests a passing run with network checks disabled.
func TestSuite_Valid(t *testing.T) {
	var out bytes.Buffer
	result := NewSuite("https://api.groq.com/openai/v1", "gsk_testkey_0123456789abcdef").
		WithOutput(&out).
		WithEnvPath(filepath.Join(t.TempDir(), "absent.env")).
		WithSkipNetwork(true).
		Validate()

	if !result.Success {
		t.Fatalf("Validate() failed: %+v", result.Steps)
	}
	if result.FailedSteps != 0 {
		t.Errorf("FailedSteps = %d, want 0", result.FailedSteps)
	}
	// Missing env file and absent key downgrade to warnings, never failures.
	if result.Warnings == 0 {
		t.Error("Warnings = 0, want missing env file warning")
	}
	if err := result.GetFirstError(); err != nil {
		t.Errorf("GetFirstError() = %v, want nil", err)
	}
}

// TestSuite_BadBaseURL tests failure on malformed provider URLs.
func TestSuite_BadBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"no scheme", "api.groq.com/openai/v1"},
		{"wrong scheme", "ftp://api.groq.com"},
		{"no host", "https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			result := NewSuite(tt.baseURL, "gsk_testkey_0123456789abcdef").
				WithOutput(&out).
				WithEnvPath(filepath.Join(t.TempDir(), "absent.env")).
				WithSkipNetwork(true).
				Validate()

			if result.Success {
				t.Errorf("Validate() succeeded for %q", tt.baseURL)
			}
			if err := result.GetFirstError(); err == nil {
				t.Error("GetFirstError() = nil, want the URL failure")
			}
		})
	}
}

// TestSuite_MissingCredentialIsWarning tests that the absent environment key
// does not fail validation.
func TestSuite_MissingCredentialIsWarning(t *testing.T) {
	var out bytes.Buffer
	result := NewSuite("https://api.groq.com/openai/v1", "").
		WithOutput(&out).
		WithEnvPath(filepath.Join(t.TempDir(), "absent.env")).
		WithSkipNetwork(true).
		Validate()

	if !result.Success {
		t.Fatal("Validate() failed for missing environment key")
	}
	found := false
	for _, step := range result.Steps {
		if step.Name == "API Credential" && step.Status == StepWarning {
			found = true
		}
	}
	if !found {
		t.Error("API Credential step is not a warning")
	}
}

// TestSuite_ReachabilitySkippedOnFailure tests the network step is skipped
// when configuration already failed.
func TestSuite_ReachabilitySkippedOnFailure(t *testing.T) {
	var out bytes.Buffer
	result := NewSuite("ftp://bad", "").
		WithOutput(&out).
		WithEnvPath(filepath.Join(t.TempDir(), "absent.env")).
		Validate()

	var reachability *Step
	for i := range result.Steps {
		if result.Steps[i].Name == "Provider Reachability" {
			reachability = &result.Steps[i]
		}
	}
	if reachability == nil {
		t.Fatal("no reachability step recorded")
	}
	if reachability.Status != StepSkipped {
		t.Errorf("reachability status = %v, want skipped", reachability.Status)
	}
}

// TestStepStatus_String tests status names.
func TestStepStatus_String(t *testing.T) {
	tests := []struct {
		status StepStatus
		want   string
	}{
		{StepPending, "pending"},
		{StepPassed, "passed"},
		{StepFailed, "failed"},
		{StepWarning, "warning"},
		{StepSkipped, "skipped"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// TestSuite_ProgressOutput tests that progress lines mention every step.
func TestSuite_ProgressOutput(t *testing.T) {
	var out bytes.Buffer
	NewSuite("https://api.groq.com/openai/v1", "gsk_testkey_0123456789abcdef").
		WithOutput(&out).
		WithEnvPath(filepath.Join(t.TempDir(), "absent.env")).
		WithSkipNetwork(true).
		Validate()

	for _, want := range []string{"Environment File", "Provider Base URL", "API Credential", "Provider Reachability"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("progress output missing %q", want)
		}
	}
}
