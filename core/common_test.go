package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestStageText(t *testing.T) {
	tests := []struct {
		stage Stage
		text  string
	}{
		{StageNotStarted, "not_started"},
		{StageNavigated, "navigated"},
		{StageVerified, "verified"},
		{StageCaptured, "captured"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			b, err := tt.stage.MarshalText()
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.text {
				t.Fatalf("Want: %s, Got: %s", tt.text, b)
			}

			var got Stage
			if err := got.UnmarshalText([]byte(tt.text)); err != nil {
				t.Fatal(err)
			}
			if got != tt.stage {
				t.Fatalf("Want: %v, Got: %v", tt.stage, got)
			}
		})
	}

	var s Stage
	if err := s.UnmarshalText([]byte("finished")); err == nil {
		t.Fatalf("Unknown stage accepted")
	}
	if Stage(9).String() != "stage(9)" {
		t.Fatalf("Unexpected out of range name: %s", Stage(9))
	}
}

func TestReportJSON(t *testing.T) {
	r := Report{RunID: "id", Stage: StageVerified, URL: DefaultURL, Duration: time.Second}
	r.Fail(fmt.Errorf("%w: disk full", ErrCapture))

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}

	got := map[string]interface{}{}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["stage"] != "verified" {
		t.Fatalf("Stage is not text encoded: %v", got["stage"])
	}
	if got["error"] != "Cannot capture screenshot: disk full" {
		t.Fatalf("Unexpected error field: %v", got["error"])
	}
	if _, ok := got["screenshot"]; ok {
		t.Fatalf("Empty screenshot should be omitted")
	}
	if r.Passed() {
		t.Fatalf("Failed report marked as passed")
	}
}

func TestReportPassed(t *testing.T) {
	r := Report{Stage: StageCaptured}
	if !r.Passed() {
		t.Fatalf("Captured report without error should pass")
	}
	r.Fail(nil)
	if !r.Passed() {
		t.Fatalf("Fail(nil) must not change the report")
	}
}

func TestTargetOptionsInit(t *testing.T) {
	o := TargetOptions{}
	o.Init()

	if o.URL != "http://localhost:3000" || o.Role != "button" || o.Name != "Google Drive" {
		t.Fatalf("Unexpected target defaults: %+v", o)
	}
	if o.ScreenshotPath != "jules-scratch/verification/google-drive-integration.png" {
		t.Fatalf("Unexpected screenshot path: %s", o.ScreenshotPath)
	}
	if o.GetNavTimeout() != 30*time.Second {
		t.Fatalf("Unexpected navigation timeout: %v", o.GetNavTimeout())
	}
	if o.GetSelectorTimeout() != 5*time.Second {
		t.Fatalf("Unexpected selector timeout: %v", o.GetSelectorTimeout())
	}
	if o.GetPollInterval() != 100*time.Millisecond {
		t.Fatalf("Unexpected poll interval: %v", o.GetPollInterval())
	}
	if o.GetRatelimit() != 10*time.Second {
		t.Fatalf("Unexpected rate limit: %v", o.GetRatelimit())
	}

	custom := TargetOptions{Name: "Drive", SelectorTimeout: 1, FullPage: true}
	custom.Init()
	if custom.Name != "Drive" || custom.GetSelectorTimeout() != time.Second || !custom.FullPage {
		t.Fatalf("Init overwrote explicit options: %+v", custom)
	}
}

func TestErrorClasses(t *testing.T) {
	ambiguous := fmt.Errorf("%w: %w", ErrAssertion, ErrAmbiguous)
	if !errors.Is(ambiguous, ErrAssertion) || !errors.Is(ambiguous, ErrAmbiguous) {
		t.Fatalf("Ambiguous locator must be an assertion failure")
	}
	if errors.Is(fmt.Errorf("%w: refused", ErrNavigation), ErrAssertion) {
		t.Fatalf("Navigation error classified as assertion")
	}
}

func TestNewReport(t *testing.T) {
	opts := TargetOptions{}
	opts.Init()

	first := NewReport(opts)
	second := NewReport(opts)
	if first.RunID == "" || first.RunID == second.RunID {
		t.Fatalf("Run ids must be unique and set: %q %q", first.RunID, second.RunID)
	}
	if first.Stage != StageNotStarted || first.Passed() {
		t.Fatalf("Unexpected fresh report: %+v", first)
	}
	if first.URL != DefaultURL || first.Role != DefaultRole || first.Name != DefaultName {
		t.Fatalf("Report target not taken from options: %+v", first)
	}
}
