package state

import "time"

// TrickleCfg tunes the adaptive advertisement scheduler.
type TrickleCfg struct {
	// Disabled falls back to the transport's fixed-interval advertisements.
	Disabled       bool          `yaml:"disabled,omitempty"`
	IMin           time.Duration `yaml:"imin,omitempty"`
	IMax           time.Duration `yaml:"imax,omitempty"`
	K              int           `yaml:"k,omitempty"`
	SafetyInterval time.Duration `yaml:"safety_interval,omitempty"`
}

// CostCfg tunes the composite route cost function.
type CostCfg struct {
	HopWeight       float64 `yaml:"hop_weight,omitempty"`
	RssiWeight      float64 `yaml:"rssi_weight,omitempty"`
	SnrWeight       float64 `yaml:"snr_weight,omitempty"`
	EtxWeight       float64 `yaml:"etx_weight,omitempty"`
	BiasWeight      float64 `yaml:"bias_weight,omitempty"`
	WeakLinkPenalty float64 `yaml:"weak_link_penalty,omitempty"`
	Hysteresis      float64 `yaml:"hysteresis,omitempty"`
}

// LocalCfg represents local node-level configuration
type LocalCfg struct {
	Id      string     `yaml:"id"`                 // unique id for this node, used as the log prefix
	Gateway bool       `yaml:"gateway,omitempty"`  // this node sinks sensor traffic and samples its own load
	LogPath string     `yaml:"log_path,omitempty"` // if not empty, trellis will also write logs to this file
	Trickle TrickleCfg `yaml:"trickle,omitempty"`
	Cost    CostCfg    `yaml:"cost,omitempty"`
}

// ExpandLocalConfig fills zero-valued fields with package defaults.
func ExpandLocalConfig(cfg *LocalCfg) {
	if cfg.Trickle.IMin == 0 {
		cfg.Trickle.IMin = TrickleIMin
	}
	if cfg.Trickle.IMax == 0 {
		cfg.Trickle.IMax = TrickleIMax
	}
	if cfg.Trickle.K == 0 {
		cfg.Trickle.K = TrickleK
	}
	if cfg.Trickle.SafetyInterval == 0 {
		cfg.Trickle.SafetyInterval = 3 * cfg.Trickle.IMin
	}
	if cfg.Cost.HopWeight == 0 {
		cfg.Cost.HopWeight = HopWeight
	}
	if cfg.Cost.RssiWeight == 0 {
		cfg.Cost.RssiWeight = RssiWeight
	}
	if cfg.Cost.SnrWeight == 0 {
		cfg.Cost.SnrWeight = SnrWeight
	}
	if cfg.Cost.EtxWeight == 0 {
		cfg.Cost.EtxWeight = EtxWeight
	}
	if cfg.Cost.BiasWeight == 0 {
		cfg.Cost.BiasWeight = BiasWeight
	}
	if cfg.Cost.WeakLinkPenalty == 0 {
		cfg.Cost.WeakLinkPenalty = WeakLinkPenalty
	}
	if cfg.Cost.Hysteresis == 0 {
		cfg.Cost.Hysteresis = HysteresisThreshold
	}
}
