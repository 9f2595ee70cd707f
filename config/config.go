// Package config loads the JSON configuration files a clustersim run is
// driven by — system, network, workload, and remote-memory — the way the
// teacher's serialization package decodes JSON with DisallowUnknownFields
// so a typo in a config file fails loudly instead of being silently
// ignored.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/clustersim/collective"
	"github.com/sarchlab/clustersim/scheduling"
)

// Flags is the parsed form of the CLI summary: required config file
// paths, the optional comm-group file (defaulting to the "empty"
// sentinel commgroup.Load recognizes), and the scale/protocol knobs.
type Flags struct {
	WorkloadConfigPath     string
	SystemConfigPath       string
	NetworkConfigPath      string
	RemoteMemoryConfigPath string
	CommGroupConfigPath    string
	LoggingConfigPath      string

	NumQueuesPerDim    int
	CommScale          float64
	ComputeScale       float64
	InjectionScale     float64
	RendezvousProtocol bool
}

// RingDimConfig describes one ring dimension's extent and locality.
type RingDimConfig struct {
	Size  int  `json:"size"`
	Local bool `json:"local"`
}

// TreeDimConfig describes one binary-tree dimension's extent.
type TreeDimConfig struct {
	Size int `json:"size"`
}

// SystemConfig is the system-configuration file: topology shape plus
// scheduling and injection policy names.
type SystemConfig struct {
	RingDims         []RingDimConfig `json:"ring_dims,omitempty"`
	TreeDims         []TreeDimConfig `json:"tree_dims,omitempty"`
	IntraOrdering    string          `json:"intra_ordering"`
	InterOrdering    string          `json:"inter_ordering"`
	SchedulingPolicy string          `json:"scheduling_policy"`
	Injection        string          `json:"injection_policy"`
	QueuesPerDim     int             `json:"queues_per_dim"`
}

// NetworkConfig is the network-configuration file: which Backend
// implementation to construct and its per-dimension bandwidth table. The
// backend implementation itself is an external collaborator (§6.2); this
// struct only carries the parameters a concrete backend constructor
// needs.
type NetworkConfig struct {
	Backend       string             `json:"backend"`
	BandwidthGBps map[string]float64 `json:"bandwidth_gbps,omitempty"`
	LatencyNs     int64              `json:"latency_ns"`
}

// WorkloadConfig is the workload-configuration file: where to find the
// per-rank execution traces.
type WorkloadConfig struct {
	ETPrefix string `json:"et_prefix"`
}

// RemoteMemoryConfig is the remote-memory-configuration file: the oracle
// MEM_LOAD/MEM_STORE nodes consult.
type RemoteMemoryConfig struct {
	Type      string `json:"type"`
	LatencyNs int64  `json:"latency_ns"`
}

func loadJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	decoder := json.NewDecoder(f)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

// LoadSystemConfig reads a system-configuration file.
func LoadSystemConfig(path string) (*SystemConfig, error) {
	c := &SystemConfig{QueuesPerDim: 1}
	if err := loadJSON(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadNetworkConfig reads a network-configuration file.
func LoadNetworkConfig(path string) (*NetworkConfig, error) {
	c := &NetworkConfig{}
	if err := loadJSON(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWorkloadConfig reads a workload-configuration file.
func LoadWorkloadConfig(path string) (*WorkloadConfig, error) {
	c := &WorkloadConfig{}
	if err := loadJSON(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadRemoteMemoryConfig reads a remote-memory-configuration file.
func LoadRemoteMemoryConfig(path string) (*RemoteMemoryConfig, error) {
	c := &RemoteMemoryConfig{}
	if err := loadJSON(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// InjectionPolicy resolves a SystemConfig's named injection policy,
// defaulting to Normal for an unrecognized or empty name.
func (c *SystemConfig) InjectionPolicy() collective.InjectionPolicy {
	switch c.Injection {
	case "aggressive":
		return collective.Aggressive
	case "semi_aggressive":
		return collective.SemiAggressive
	case "extra_aggressive":
		return collective.ExtraAggressive
	case "infinite":
		return collective.Infinite
	default:
		return collective.Normal
	}
}

// IntraOrderingPolicy resolves a SystemConfig's named intra-dimension
// ordering.
func (c *SystemConfig) IntraOrderingPolicy() scheduling.IntraOrdering {
	switch c.IntraOrdering {
	case "round_robin_greedy":
		return scheduling.IntraRoundRobinGreedy
	case "smallest_first":
		return scheduling.IntraSmallestFirst
	case "less_remaining_phase_first":
		return scheduling.IntraLessRemainingPhaseFirst
	default:
		return scheduling.IntraFIFO
	}
}

// InterOrderingPolicy resolves a SystemConfig's named inter-dimension
// ordering.
func (c *SystemConfig) InterOrderingPolicy() scheduling.InterOrdering {
	switch c.InterOrdering {
	case "round_robin":
		return scheduling.InterRoundRobin
	case "online_greedy":
		return scheduling.InterOnlineGreedy
	case "offline_greedy":
		return scheduling.InterOfflineGreedy
	case "offline_greedy_flex":
		return scheduling.InterOfflineGreedyFlex
	default:
		return scheduling.InterAscending
	}
}

// SchedulingPolicyValue resolves a SystemConfig's named scheduling policy.
func (c *SystemConfig) SchedulingPolicyValue() scheduling.Policy {
	switch c.SchedulingPolicy {
	case "fifo":
		return scheduling.PolicyFIFO
	case "lifo":
		return scheduling.PolicyLIFO
	case "explicit":
		return scheduling.PolicyExplicit
	default:
		return scheduling.PolicyNone
	}
}
