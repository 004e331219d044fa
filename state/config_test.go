package state

import (
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
)

func TestLocalConfigParsing(t *testing.T) {
	yamlStr := `id: node-a
gateway: true
trickle:
  imin: 30s
  imax: 300s
  k: 2
cost:
  etx_weight: 0.5
  hysteresis: 0.2
`
	var cfg LocalCfg
	err := yaml.Unmarshal([]byte(yamlStr), &cfg)
	assert.NoError(t, err)
	assert.Equal(t, "node-a", cfg.Id)
	assert.True(t, cfg.Gateway)
	assert.Equal(t, 30*time.Second, cfg.Trickle.IMin)
	assert.Equal(t, 2, cfg.Trickle.K)
	assert.Equal(t, 0.5, cfg.Cost.EtxWeight)

	ExpandLocalConfig(&cfg)
	// unset fields pick up defaults, set fields stay
	assert.Equal(t, 30*time.Second, cfg.Trickle.IMin)
	assert.Equal(t, 3*cfg.Trickle.IMin, cfg.Trickle.SafetyInterval)
	assert.Equal(t, HopWeight, cfg.Cost.HopWeight)
	assert.Equal(t, 0.2, cfg.Cost.Hysteresis)

	assert.NoError(t, NodeConfigValidator(&cfg))
}

func TestExpandFillsAllDefaults(t *testing.T) {
	cfg := LocalCfg{Id: "n1"}
	ExpandLocalConfig(&cfg)
	assert.Equal(t, TrickleIMin, cfg.Trickle.IMin)
	assert.Equal(t, TrickleIMax, cfg.Trickle.IMax)
	assert.Equal(t, TrickleK, cfg.Trickle.K)
	assert.Equal(t, 3*TrickleIMin, cfg.Trickle.SafetyInterval)
	assert.Equal(t, EtxWeight, cfg.Cost.EtxWeight)
	assert.Equal(t, HysteresisThreshold, cfg.Cost.Hysteresis)
	assert.NoError(t, NodeConfigValidator(&cfg))
}

func TestNodeConfigValidation(t *testing.T) {
	valid := func() LocalCfg {
		cfg := LocalCfg{Id: "node-a"}
		ExpandLocalConfig(&cfg)
		return cfg
	}

	cfg := valid()
	cfg.Id = "Node A!"
	assert.Error(t, NodeConfigValidator(&cfg))

	cfg = valid()
	cfg.Trickle.IMax = cfg.Trickle.IMin / 2
	assert.Error(t, NodeConfigValidator(&cfg))

	cfg = valid()
	cfg.Trickle.K = 0
	assert.Error(t, NodeConfigValidator(&cfg))

	cfg = valid()
	cfg.Trickle.SafetyInterval = cfg.Trickle.IMin - time.Second
	assert.Error(t, NodeConfigValidator(&cfg))

	cfg = valid()
	cfg.Cost.EtxWeight = -1
	assert.Error(t, NodeConfigValidator(&cfg))

	cfg = valid()
	cfg.Cost.Hysteresis = 1
	assert.Error(t, NodeConfigValidator(&cfg))
}
