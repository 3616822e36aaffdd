package pipeline

import (
	"strings"
	"time"

	"shortscout/internal/checkpoint"
	"shortscout/internal/config"
	"shortscout/internal/discovery"
	"shortscout/internal/language"
	"shortscout/internal/services"
)

// DefaultParams returns the run defaults from the discovery config section.
func DefaultParams(cfg *config.Config) checkpoint.Params {
	return checkpoint.Params{
		Language: cfg.Discovery.Language,
		Region:   cfg.Discovery.Region,
		Days:     cfg.Discovery.Days,
		Target:   cfg.Discovery.Target,
	}
}

// resolveParams fills blanks from defaults, validates the result, and fixes
// the published-after window at now.
func resolveParams(in, defaults checkpoint.Params, now time.Time) (checkpoint.Params, error) {
	out := in
	out.Topic = strings.TrimSpace(out.Topic)
	if out.Topic == "" {
		return checkpoint.Params{}, services.Wrap(services.ErrValidation, "pipeline", "params",
			"Please provide a topic", nil)
	}
	if strings.TrimSpace(out.Language) == "" {
		out.Language = defaults.Language
	}
	if strings.TrimSpace(out.Region) == "" {
		out.Region = defaults.Region
	}
	if out.Days == 0 {
		out.Days = defaults.Days
	}
	if out.Target == 0 {
		out.Target = defaults.Target
	}

	if out.Language != "" {
		code, err := language.Normalize(out.Language)
		if err != nil {
			return checkpoint.Params{}, services.Wrap(services.ErrValidation, "pipeline", "params", "language", err)
		}
		out.Language = code
	}
	if out.Region != "" {
		code, err := language.NormalizeRegion(out.Region)
		if err != nil {
			return checkpoint.Params{}, services.Wrap(services.ErrValidation, "pipeline", "params", "region", err)
		}
		out.Region = code
	}
	if err := checkParams(out); err != nil {
		return checkpoint.Params{}, err
	}
	if strings.TrimSpace(out.PublishedAfter) == "" {
		out.PublishedAfter = discovery.PublishedAfter(now, out.Days)
	} else if _, err := time.Parse(time.RFC3339, out.PublishedAfter); err != nil {
		return checkpoint.Params{}, services.Wrap(services.ErrValidation, "pipeline", "params",
			"published_after must be RFC3339", err)
	}
	return out, nil
}

// checkParams applies the numeric bounds to params carried in a payload.
func checkParams(p checkpoint.Params) error {
	if p.Days < 0 {
		return services.Wrap(services.ErrValidation, "pipeline", "params",
			"days must not be negative", nil)
	}
	if p.Target <= 0 {
		return services.Wrap(services.ErrValidation, "pipeline", "params",
			"target must be positive", nil)
	}
	return nil
}
