package state

import (
	"fmt"
	"regexp"
)

var namePattern = regexp.MustCompile("^[0-9a-z._-]+$")

func NameValidator(s string) error {
	if !namePattern.MatchString(s) {
		return fmt.Errorf("%s is not a valid name, must match pattern %s", s, namePattern.String())
	}
	if len(s) > 100 {
		return fmt.Errorf("len(\"%s\") = %d > 100 is too long", s, len(s))
	}
	return nil
}

// NodeConfigValidator checks an expanded LocalCfg. Run ExpandLocalConfig
// first so defaults have been filled in.
func NodeConfigValidator(cfg *LocalCfg) error {
	err := NameValidator(cfg.Id)
	if err != nil {
		return err
	}
	t := cfg.Trickle
	if t.IMin <= 0 {
		return fmt.Errorf("trickle.imin must be positive, got %s", t.IMin)
	}
	if t.IMax < t.IMin {
		return fmt.Errorf("trickle.imax (%s) must not be smaller than imin (%s)", t.IMax, t.IMin)
	}
	if t.K < 1 {
		return fmt.Errorf("trickle.k must be at least 1, got %d", t.K)
	}
	if t.SafetyInterval < t.IMin {
		return fmt.Errorf("trickle.safety_interval (%s) must not be smaller than imin (%s)", t.SafetyInterval, t.IMin)
	}
	c := cfg.Cost
	for name, w := range map[string]float64{
		"hop_weight":        c.HopWeight,
		"rssi_weight":       c.RssiWeight,
		"snr_weight":        c.SnrWeight,
		"etx_weight":        c.EtxWeight,
		"bias_weight":       c.BiasWeight,
		"weak_link_penalty": c.WeakLinkPenalty,
	} {
		if w < 0 {
			return fmt.Errorf("cost.%s must not be negative, got %f", name, w)
		}
	}
	if c.Hysteresis < 0 || c.Hysteresis >= 1 {
		return fmt.Errorf("cost.hysteresis must be in [0, 1), got %f", c.Hysteresis)
	}
	return nil
}
