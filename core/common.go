package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNavigation = errors.New("Navigation failed")
var ErrAssertion = errors.New("Expectation failed")
var ErrAmbiguous = errors.New("Strict mode violation. Locator resolved to more than one element")
var ErrCapture = errors.New("Cannot capture screenshot")

// Stage is the last scenario step that completed successfully
type Stage int

const (
	StageNotStarted Stage = iota
	StageNavigated
	StageVerified
	StageCaptured
)

var stageNames = []string{"not_started", "navigated", "verified", "captured"}

func (s Stage) String() string {
	if int(s) < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	for i, name := range stageNames {
		if strings.EqualFold(name, string(text)) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage: %q", text)
}

type Report struct {
	RunID      string        `json:"run_id"`
	Stage      Stage         `json:"stage"`
	URL        string        `json:"url"`
	Role       string        `json:"role"`
	Name       string        `json:"name"`
	Screenshot string        `json:"screenshot,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// NewReport starts a report for a run against the target in opts
func NewReport(opts TargetOptions) Report {
	return Report{
		RunID: uuid.New().String(),
		Stage: StageNotStarted,
		URL:   opts.URL,
		Role:  opts.Role,
		Name:  opts.Name,
	}
}

// Passed reports whether the scenario reached its final stage
func (r Report) Passed() bool {
	return r.Stage == StageCaptured && r.Error == ""
}

// Fail records err on the report
func (r *Report) Fail(err error) {
	if err != nil {
		r.Error = err.Error()
	}
}

const (
	DefaultURL            = "http://localhost:3000"
	DefaultRole           = "button"
	DefaultName           = "Google Drive"
	DefaultScreenshotPath = "jules-scratch/verification/google-drive-integration.png"
)

type TargetOptions struct {
	URL             string `mapstructure:"url"`
	Role            string `mapstructure:"role"`
	Name            string `mapstructure:"name"`
	Exact           bool   `mapstructure:"exact"`            // Case-sensitive full name match
	ScreenshotPath  string `mapstructure:"screenshot"`       // Where to write the PNG
	FullPage        bool   `mapstructure:"full_page"`        // Capture whole scrollable page instead of viewport
	NavTimeout      int64  `mapstructure:"nav_timeout"`      // Page load timeout in seconds
	SelectorTimeout int64  `mapstructure:"selector_timeout"` // Visibility assertion timeout in seconds
	PollInterval    int64  `mapstructure:"poll_interval_ms"` // Visibility re-check interval in milliseconds
	RateRequests    int    `mapstructure:"rate_requests"`
	RateTime        int64  `mapstructure:"rate_seconds"`
	RateBurst       int    `mapstructure:"rate_burst"`
}

// Init fills unset options with the defaults of the Google Drive scenario
func (o *TargetOptions) Init() {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.Role == "" {
		o.Role = DefaultRole
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	if o.ScreenshotPath == "" {
		o.ScreenshotPath = DefaultScreenshotPath
	}
	if o.NavTimeout == 0 {
		o.NavTimeout = 30
	}
	if o.SelectorTimeout == 0 {
		o.SelectorTimeout = 5
	}
	if o.PollInterval == 0 {
		o.PollInterval = 100
	}
	if o.RateRequests == 0 {
		o.RateRequests = 6
	}
	if o.RateTime == 0 {
		o.RateTime = 60
	}
	if o.RateBurst == 0 {
		o.RateBurst = 1
	}
}

func (o *TargetOptions) GetRatelimit() time.Duration {
	return (time.Duration(o.RateTime) * time.Second) / time.Duration(o.RateRequests)
}

func (o *TargetOptions) GetNavTimeout() time.Duration {
	return time.Duration(o.NavTimeout) * time.Second
}

func (o *TargetOptions) GetSelectorTimeout() time.Duration {
	return time.Duration(o.SelectorTimeout) * time.Second
}

func (o *TargetOptions) GetPollInterval() time.Duration {
	return time.Duration(o.PollInterval) * time.Millisecond
}
