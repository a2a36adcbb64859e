// Package schedule drives the target application through a sequence of
// timed automation steps, in two modes: a sequential mode that really
// waits between steps, and a detached mode that compiles the whole
// sequence into fire-and-forget delayed shell commands.
package schedule

import (
	"net/url"
	"strings"
	"time"

	"github.com/mkendall/drover/internal/config"
)

// Timing holds every delay constant the scheduler uses. Sequential-mode
// ordering is guaranteed by real waits; detached-mode ordering exists only
// because these constants are conservative.
type Timing struct {
	// TypeCharDelay is the synthetic per-character typing delay.
	TypeCharDelay time.Duration

	// Settle is the pause between typing text and pressing enter.
	Settle time.Duration

	// SubmitBase is the minimum pause after submitting; the effective
	// pause grows with payload length.
	SubmitBase time.Duration

	// CommandGap separates commands within a task.
	CommandGap time.Duration

	// TaskGap separates tasks within a job.
	TaskGap time.Duration

	// OpenToEnter is the detached-mode offset from opening the deep link
	// to the first enter press.
	OpenToEnter time.Duration

	// SecondEnter is the detached-mode offset to the confirming enter.
	SecondEnter time.Duration

	// FollowUpBase is the detached-mode offset to the first follow-up
	// prompt.
	FollowUpBase time.Duration

	// FollowUpSpacing separates successive follow-up prompts.
	FollowUpSpacing time.Duration
}

// TimingFromConfig converts the configured values into durations.
func TimingFromConfig(cfg config.TimingConfig) Timing {
	return Timing{
		TypeCharDelay:   time.Duration(cfg.TypeCharMs) * time.Millisecond,
		Settle:          time.Duration(cfg.SettleMs) * time.Millisecond,
		SubmitBase:      time.Duration(cfg.SubmitBaseMs) * time.Millisecond,
		CommandGap:      time.Duration(cfg.CommandGapMs) * time.Millisecond,
		TaskGap:         time.Duration(cfg.TaskGapMs) * time.Millisecond,
		OpenToEnter:     time.Duration(cfg.OpenToEnterSec) * time.Second,
		SecondEnter:     time.Duration(cfg.SecondEnterSec) * time.Second,
		FollowUpBase:    time.Duration(cfg.FollowUpBaseSec) * time.Second,
		FollowUpSpacing: time.Duration(cfg.FollowUpSpacingSec) * time.Second,
	}
}

// DefaultTiming returns the built-in delay constants.
func DefaultTiming() Timing {
	return TimingFromConfig(config.Default().Timing)
}

// submitSettle is the post-submit pause: the base plus a length-dependent
// component, so longer payloads give the target more processing time.
func (t Timing) submitSettle(text string) time.Duration {
	return t.SubmitBase + time.Duration(len(text))*t.TypeCharDelay
}

// typingSeconds estimates, in whole seconds, how long the synthetic typing
// of text takes. Detached offsets are whole seconds, so round up and never
// return less than one.
func (t Timing) typingSeconds(text string) int {
	d := time.Duration(len(text)) * t.TypeCharDelay
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// DeepLink expands a deep-link template, substituting the URL-encoded
// prompt for the {prompt} placeholder.
func DeepLink(template, prompt string) string {
	return strings.ReplaceAll(template, config.PromptPlaceholder, url.QueryEscape(prompt))
}
