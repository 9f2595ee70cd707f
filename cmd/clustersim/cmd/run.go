package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/clustersim/commgroup"
	"github.com/sarchlab/clustersim/config"
	"github.com/sarchlab/clustersim/monitor"
	"github.com/sarchlab/clustersim/topology"
)

var runFlags config.Flags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a set of configuration files.",
	RunE:  run,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.WorkloadConfigPath, "workload-configuration", "", "workload configuration file (required)")
	f.StringVar(&runFlags.SystemConfigPath, "system-configuration", "", "system configuration file (required)")
	f.StringVar(&runFlags.NetworkConfigPath, "network-configuration", "", "network configuration file (required)")
	f.StringVar(&runFlags.RemoteMemoryConfigPath, "remote-memory-configuration", "", "remote memory configuration file (required)")
	f.StringVar(&runFlags.CommGroupConfigPath, "comm-group-configuration", "empty", "communicator group configuration file")
	f.StringVar(&runFlags.LoggingConfigPath, "logging-configuration", "", "logging configuration file")
	f.IntVar(&runFlags.NumQueuesPerDim, "num-queues-per-dim", 1, "number of scheduler queues per topology dimension")
	f.Float64Var(&runFlags.CommScale, "comm-scale", 1.0, "communication time scale factor")
	f.Float64Var(&runFlags.ComputeScale, "compute-scale", 1.0, "compute time scale factor")
	f.Float64Var(&runFlags.InjectionScale, "injection-scale", 1.0, "injection time scale factor")
	f.BoolVar(&runFlags.RendezvousProtocol, "rendezvous-protocol", false, "enable packet-level rendezvous semantics")

	for _, name := range []string{
		"workload-configuration", "system-configuration",
		"network-configuration", "remote-memory-configuration",
	} {
		if err := runCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(runCmd)
}

func run(_ *cobra.Command, _ []string) error {
	sysCfg, err := config.LoadSystemConfig(runFlags.SystemConfigPath)
	if err != nil {
		return err
	}
	netCfg, err := config.LoadNetworkConfig(runFlags.NetworkConfigPath)
	if err != nil {
		return err
	}
	wlCfg, err := config.LoadWorkloadConfig(runFlags.WorkloadConfigPath)
	if err != nil {
		return err
	}
	remCfg, err := config.LoadRemoteMemoryConfig(runFlags.RemoteMemoryConfigPath)
	if err != nil {
		return err
	}

	topo := buildTopology(sysCfg)

	logger := log.New(os.Stderr, "clustersim: ", log.LstdFlags)
	logger.Printf("loaded system config: %d ring dims, %d tree dims, injection=%s",
		topo.NumRingDims(), topo.NumTreeDims(), sysCfg.Injection)
	logger.Printf("network backend=%s latency_ns=%d", netCfg.Backend, netCfg.LatencyNs)
	logger.Printf("workload et_prefix=%s", wlCfg.ETPrefix)
	logger.Printf("remote memory type=%s latency_ns=%d", remCfg.Type, remCfg.LatencyNs)
	logger.Printf("rendezvous protocol enabled=%v", runFlags.RendezvousProtocol)

	if group, err := commgroup.Load(runFlags.CommGroupConfigPath, 0); err != nil {
		return err
	} else if group != nil {
		logger.Printf("rank 0 joined comm group %d with %d members", group.ID, len(group.Members))
	}

	m := monitor.New()
	if err := m.StartServer(); err != nil {
		return fmt.Errorf("clustersim: failed to start monitor: %w", err)
	}

	// A concrete netio.Backend and workload.NodeIterator are supplied by
	// the embedding program (§6.1/§6.2 define them as external
	// contracts, not implementations this module owns) — construct them
	// here, one workload.Engine per rank, and call Engine.Start on each
	// before calling the chosen engine.Engine's Run. If
	// runFlags.RendezvousProtocol is set, every rank's Engine should share
	// one rendezvous.Matcher and call EnableRendezvousProtocol with it
	// before Start, so sends and receives pair by chunk-id instead of by
	// the backend's own completion order.
	logger.Printf("configuration loaded; supply a netio.Backend and workload.NodeIterator to drive ranks")

	return nil
}

func buildTopology(c *config.SystemConfig) *topology.Topology {
	if len(c.TreeDims) > 0 {
		dims := make([]topology.TreeDimension, 0, len(c.TreeDims))
		for _, d := range c.TreeDims {
			dims = append(dims, topology.NewTreeDimension(d.Size))
		}
		return topology.NewTreeTopology(dims...)
	}

	dims := make([]topology.RingDimension, 0, len(c.RingDims))
	for _, d := range c.RingDims {
		dims = append(dims, topology.NewRingDimension(d.Size, d.Local))
	}
	return topology.NewTopology(dims...)
}
