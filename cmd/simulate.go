package cmd

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/xmesh-net/trellis/core"
	"github.com/xmesh-net/trellis/state"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run trellis against a simulated transport",
	Long: `Runs the full control layer on this host against an in-memory transport with a
few synthetic neighbours, two of them gateways under different load. Useful for
watching the trickle schedule, link estimates and gateway bias behave without radios.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadNodeConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		level := slog.LevelInfo
		if ok, _ := cmd.Flags().GetBool("verbose"); ok {
			level = slog.LevelDebug
		}

		transport := core.NewMockTransport(0x0001)
		go simulateNeighbours(transport)

		err = core.Start(*cfg, transport, level, nil)
		if err != nil {
			panic(err)
		}
	},
	GroupID: "tl",
}

// simulateNeighbours feeds the transport synthetic traffic: a loaded gateway, a
// lightly loaded gateway, and a lossy relay whose frames skip sequence numbers.
func simulateNeighbours(transport *core.MockTransport) {
	transport.SetRoute(state.RouteEntry{
		Address: 0x0002, Via: 0x0002, HopMetric: 1,
		Role: state.RoleGateway, GatewayLoad: 40,
	})
	transport.SetRoute(state.RouteEntry{
		Address: 0x0003, Via: 0x0003, HopMetric: 2,
		Role: state.RoleGateway, GatewayLoad: 10,
	})
	transport.SetRoute(state.RouteEntry{
		Address: 0x0004, Via: 0x0004, HopMetric: 1,
	})

	seqs := map[state.Addr]uint32{}
	for {
		time.Sleep(time.Second * 5)
		for _, n := range []struct {
			addr       state.Addr
			rssi, snr  float64
			lossChance float64
		}{
			{0x0002, -60, 8, 0},
			{0x0003, -85, 4, 0.1},
			{0x0004, -105, -2, 0.4},
		} {
			seqs[n.addr]++
			if rand.Float64() < n.lossChance {
				// skipped sequence number, shows up as an inferred loss
				seqs[n.addr]++
			}
			transport.DeliverAdvertisement(state.Observation{
				From:      n.addr,
				Seq:       seqs[n.addr],
				Rssi:      n.rssi + rand.Float64()*6 - 3,
				Snr:       n.snr + rand.Float64()*2 - 1,
				HasSignal: true,
			})
		}
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	simulateCmd.Flags().BoolVarP(&state.DBG_log_cost, "lcost", "c", false, "Write route costs to console")
	simulateCmd.Flags().BoolVarP(&state.DBG_log_table, "ltable", "t", false, "Write link diagnostics to console")
}
