package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"VoiceCalendarAI/backend/go/internal/config"
	"VoiceCalendarAI/backend/go/internal/llm"
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/circuitbreaker"
	"VoiceCalendarAI/backend/go/pkg/logger"
)

// Config carries the interpreter's explicit resolution policies.
type Config struct {
	Location               *time.Location // default zone for reference timestamps
	DefaultDurationMinutes int            // applied when no duration is stated
	BusinessHoursStart     int            // window for disambiguating bare hours
	BusinessHoursEnd       int
	LLMTimeout             time.Duration // per-request bound on the primary path
}

// NewConfig resolves the YAML interpreter section into a Config.
func NewConfig(cfg config.InterpreterConfig, llmTimeout string) (Config, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid interpreter timezone %q: %w", cfg.Timezone, err)
	}
	timeout := 10 * time.Second
	if llmTimeout != "" {
		timeout, err = time.ParseDuration(llmTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LLM timeout %q: %w", llmTimeout, err)
		}
	}
	c := Config{
		Location:               loc,
		DefaultDurationMinutes: cfg.DefaultDurationMinutes,
		BusinessHoursStart:     cfg.BusinessHoursStart,
		BusinessHoursEnd:       cfg.BusinessHoursEnd,
		LLMTimeout:             timeout,
	}
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = 30
	}
	if c.BusinessHoursStart <= 0 {
		c.BusinessHoursStart = 8
	}
	if c.BusinessHoursEnd <= 0 {
		c.BusinessHoursEnd = 18
	}
	return c, nil
}

// Interpreter converts a transcript into a calendar event intent, or reports
// that it cannot. It holds no state across calls: interpreting the same
// transcript against the same reference timestamp always yields the same
// outcome.
type Interpreter struct {
	llm     llm.LLM                       // primary path; nil disables it
	breaker circuitbreaker.CircuitBreaker // guards the LLM call; nil disables it
	cfg     Config
	logger  *logger.Logger
}

// New creates an Interpreter. A nil client restricts interpretation to the
// fallback rule set.
func New(client llm.LLM, breaker circuitbreaker.CircuitBreaker, cfg Config, log *logger.Logger) *Interpreter {
	return &Interpreter{llm: client, breaker: breaker, cfg: cfg, logger: log}
}

// Interpret produces exactly one of EventIntent or ParseFailure for the
// given request. The primary LLM path runs first; any service error,
// timeout, open circuit, or malformed response routes the transcript
// through the fallback rules. An error is returned only for unusable input
// (an unknown timezone), never for interpretation failures.
func (i *Interpreter) Interpret(ctx context.Context, req models.InterpretRequest) (*models.InterpretOutcome, error) {
	loc := i.cfg.Location
	if req.Timezone != "" {
		l, err := time.LoadLocation(req.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", req.Timezone, err)
		}
		loc = l
	}

	if strings.TrimSpace(req.Transcript) == "" {
		return failure(models.FailureEmptyInput, "transcript"), nil
	}

	ref := req.Reference.In(loc)

	if i.llm != nil {
		out, err := i.llmExtract(ctx, req, ref)
		if err == nil {
			return out, nil
		}
		if i.logger != nil {
			i.logger.WithPayload(map[string]interface{}{"reason": err.Error()}).Warn("LLM path unavailable, using fallback rules")
		}
	}

	return i.fallbackExtract(req, ref), nil
}

// outcome finalizes a successful extraction: tags the source, stamps the
// zone the times were resolved in, and fills the title default.
func (i *Interpreter) outcome(intent *models.EventIntent, source models.IntentSource, ref time.Time) *models.InterpretOutcome {
	intent.Source = source
	intent.Timezone = ref.Location().String()
	if intent.Title == "" {
		intent.Title = "Meeting"
	}
	return &models.InterpretOutcome{Intent: intent}
}

func failure(reason, field string) *models.InterpretOutcome {
	return &models.InterpretOutcome{Failure: &models.ParseFailure{Reason: reason, Field: field}}
}
