// Command aopctl boots the sample order-processing object graph through
// the AOP kernel and drives it from the command line: placing an order,
// inspecting the live proxies a boot produced, or printing the
// effective configuration.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"aspectkit/internal/demo"
	"aspectkit/pkg/config"
	"aspectkit/pkg/logger"
)

var (
	flagDebug    bool
	flagNoColor  bool
	flagConfig   string
	flagSKU      string
	flagQuantity int
	flagAmount   int
	flagLimit    int
)

func main() {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aopctl",
	Short: "aopctl drives the aspectkit AOP kernel's sample object graph",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Place one order through the woven OrderService and report every advice that fired",
	RunE:  runPlaceOrder,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Boot the sample graph and list the live proxies it produced",
	RunE:  runInspect,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration (file-backed, or the built-in default)",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug-level logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a .yaml or .toml graph config (default: built-in)")

	runCmd.Flags().StringVar(&flagSKU, "sku", "WIDGET-1", "SKU to order")
	runCmd.Flags().IntVar(&flagQuantity, "quantity", 2, "quantity to order")
	runCmd.Flags().IntVar(&flagAmount, "amount-cents", 1500, "charge amount in cents")
	runCmd.Flags().IntVar(&flagLimit, "decline-over-cents", 0, "simulated card limit in cents (0 disables); overridden by --config when set")

	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(configCmd)
}

func bootGraph() (*demo.Graph, error) {
	logger.Initialize(flagDebug)
	if flagNoColor {
		color.NoColor = true
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagConfig == "" {
		cfg.DeclineOverCents = flagLimit
	}
	return demo.BuildSelected(cfg.DeclineOverCents, cfg.Stock, cfg.Aspects)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("aopctl: %w", err)
	}
	fmt.Printf("decline_over_cents: %d\n", cfg.DeclineOverCents)
	fmt.Printf("stock: %v\n", cfg.Stock)
	fmt.Printf("aspects: %v\n", cfg.Aspects)
	return nil
}

func runPlaceOrder(cmd *cobra.Command, args []string) error {
	graph, err := bootGraph()
	if err != nil {
		return fmt.Errorf("aopctl: boot: %w", err)
	}
	defer graph.Weaver.Dispose()

	bold := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)

	bold.Printf("placing order: sku=%s quantity=%d amount=%dc\n", flagSKU, flagQuantity, flagAmount)

	confirmation, err := graph.PlaceOrder(flagSKU, flagQuantity, flagAmount)
	if err != nil {
		red.Printf("order failed: %v\n", err)
		fmt.Printf("alerts raised: %d\n", len(graph.Alert.Alerts))
		return nil
	}

	green.Printf("order confirmed: %s\n", confirmation)
	fmt.Printf("audit ledger: %v\n", graph.Audit.Ledger)
	fmt.Printf("timed calls: %d\n", graph.Timing.Calls)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	graph, err := bootGraph()
	if err != nil {
		return fmt.Errorf("aopctl: boot: %w", err)
	}
	defer graph.Weaver.Dispose()

	proxies := graph.Weaver.LiveProxies()
	fmt.Printf("%d live proxies over %T\n", len(proxies), graph.Orders)
	for i, p := range proxies {
		fmt.Printf("  [%d] id=%s target-type=%s\n", i, p.ID, p.TargetType)
	}
	return nil
}
