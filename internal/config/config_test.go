package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if errs := Default().Validate(); len(errs) != 0 {
		t.Fatalf("default config fails validation: %v", ValidationErrors(errs))
	}
}

func TestValidateTarget(t *testing.T) {
	cfg := Default()
	cfg.Target.DeepLinkTemplate = ""
	if errs := cfg.Validate(); len(errs) != 1 || errs[0].Field != "target.deep_link_template" {
		t.Errorf("empty template: errs = %v", errs)
	}

	cfg.Target.DeepLinkTemplate = "assistant://new"
	errs := cfg.Validate()
	if len(errs) != 1 || !strings.Contains(errs[0].Message, PromptPlaceholder) {
		t.Errorf("template without placeholder: errs = %v", errs)
	}
}

func TestValidateTimingOrdering(t *testing.T) {
	cfg := Default()
	cfg.Timing.SecondEnterSec = cfg.Timing.OpenToEnterSec // must be strictly after
	errs := cfg.Validate()
	found := false
	for _, e := range errs {
		if e.Field == "timing.second_enter_sec" {
			found = true
		}
	}
	if !found {
		t.Errorf("second_enter_sec <= open_to_enter_sec not rejected: %v", errs)
	}

	cfg = Default()
	cfg.Timing.FollowUpBaseSec = cfg.Timing.SecondEnterSec
	errs = cfg.Validate()
	if len(errs) != 1 || errs[0].Field != "timing.follow_up_base_sec" {
		t.Errorf("follow_up_base_sec <= second_enter_sec not rejected: %v", errs)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Timing.SettleMs = 0
	cfg.Timing.TaskGapMs = -1
	cfg.Jobs.IDMismatch = "panic"
	cfg.Logging.Level = "loud"

	errs := cfg.Validate()
	if len(errs) != 4 {
		t.Errorf("got %d errors, want 4: %v", len(errs), ValidationErrors(errs))
	}
}

func TestIDMismatchPolicy(t *testing.T) {
	j := JobsConfig{IDMismatch: "error"}
	if j.Policy() != IDMismatchError {
		t.Errorf("Policy() = %s", j.Policy())
	}
	// Unrecognized and empty values fall back to warn.
	for _, v := range []string{"", "shrug"} {
		j := JobsConfig{IDMismatch: v}
		if j.Policy() != IDMismatchWarn {
			t.Errorf("Policy(%q) = %s, want warn", v, j.Policy())
		}
	}
}

func TestResolveStateFile(t *testing.T) {
	p := PathsConfig{}
	if got := p.ResolveStateFile(); !strings.HasSuffix(got, "agents.json") {
		t.Errorf("default state file = %q", got)
	}

	p.StateFile = "/tmp/custom/agents.json"
	if got := p.ResolveStateFile(); got != "/tmp/custom/agents.json" {
		t.Errorf("explicit state file = %q", got)
	}
}

func TestLifecycleDurations(t *testing.T) {
	c := Default().Lifecycle
	if c.CompleteTimeout().Minutes() != 30 {
		t.Errorf("CompleteTimeout = %v", c.CompleteTimeout())
	}
	if c.PollInterval().Seconds() != 2 {
		t.Errorf("PollInterval = %v", c.PollInterval())
	}
}
