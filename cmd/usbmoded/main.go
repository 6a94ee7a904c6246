// usbmoded is the USB mode control daemon: it watches a power-supply
// device for cable state changes, runs the mode selection policy, and
// drives a USB gadget backend (ConfigFS or legacy Android-sysfs) to
// realize the chosen mode. Control and status are exposed over a Redis
// hash that other processes on the device poll and write.
//
// usbmoded wires components A through F together and runs the main
// loop; it does not itself implement mode selection, gadget I/O, or the
// event bridge wire format — see pkg/cable, pkg/selector, pkg/controller,
// pkg/worker, pkg/gadget, pkg/bridge.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/librescoot/usbmoded/pkg/actions"
	"github.com/librescoot/usbmoded/pkg/bridge"
	"github.com/librescoot/usbmoded/pkg/cable"
	"github.com/librescoot/usbmoded/pkg/config"
	"github.com/librescoot/usbmoded/pkg/controller"
	"github.com/librescoot/usbmoded/pkg/gadget"
	"github.com/librescoot/usbmoded/pkg/mode"
	"github.com/librescoot/usbmoded/pkg/selector"
	"github.com/librescoot/usbmoded/pkg/util"
	"github.com/librescoot/usbmoded/pkg/version"
	"github.com/librescoot/usbmoded/pkg/worker"
)

// flags holds every cobra-parsed option for the root command.
type flags struct {
	modesPath  string
	policyPath string

	redisAddr string
	redisKey  string

	configfsRoot    string
	androidUsbRoot  string
	udcRoot         string
	powerSupplyRoot string
	powerSupply     string

	mtpMountSource string
	mtpServiceUnit string

	logLevel string
	logJSON  bool

	interactive bool
}

var opts = &flags{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "usbmoded",
	Short:         "USB mode control daemon",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(opts)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("usbmoded dev build")
		} else {
			fmt.Printf("usbmoded %s (%s)\n", version.Version, version.GitCommit)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.modesPath, "modes", "/etc/usbmoded/modes.yaml", "path to the mode descriptor file")
	rootCmd.PersistentFlags().StringVar(&opts.policyPath, "policy", "/etc/usbmoded/policy.yaml", "path to the whitelist/capability policy file")

	rootCmd.PersistentFlags().StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "redis address for the event bridge")
	rootCmd.PersistentFlags().StringVar(&opts.redisKey, "redis-key", bridge.DefaultKey, "redis hash key the event bridge publishes and polls")

	rootCmd.PersistentFlags().StringVar(&opts.configfsRoot, "configfs-root", gadget.DefaultConfigFSRoot, "configfs gadget root")
	rootCmd.PersistentFlags().StringVar(&opts.androidUsbRoot, "android-root", gadget.DefaultAndroidRoot, "legacy android_usb gadget root")
	rootCmd.PersistentFlags().StringVar(&opts.udcRoot, "udc-root", gadget.DefaultUDCRoot, "udc class root")

	rootCmd.PersistentFlags().StringVar(&opts.powerSupplyRoot, "power-supply-root", cable.DefaultSubsystemRoot, "power-supply class root")
	rootCmd.PersistentFlags().StringVar(&opts.powerSupply, "power-supply", "", "power-supply device name (auto-discovered if empty)")

	rootCmd.PersistentFlags().StringVar(&opts.mtpMountSource, "mtp-mount-source", "", "functionfs mount source tag for MTP")
	rootCmd.PersistentFlags().StringVar(&opts.mtpServiceUnit, "mtp-service-unit", "", "systemd unit running the MTP userspace daemon")

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "emit logs as JSON")

	rootCmd.PersistentFlags().BoolVar(&opts.interactive, "interactive", false, "run a debug REPL alongside the daemon loop")

	rootCmd.AddCommand(versionCmd)
}

// run wires components A-F together and blocks until a termination
// signal arrives or a collaborator reports a fatal error.
func run(f *flags) error {
	if err := util.SetLogLevel(f.logLevel); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if f.logJSON {
		util.SetJSONFormat()
	}

	modes, err := config.LoadModes(f.modesPath)
	if err != nil {
		return fmt.Errorf("loading modes: %w", err)
	}
	policy, err := config.LoadPolicy(f.policyPath)
	if err != nil {
		return fmt.Errorf("loading policy: %w", err)
	}

	backendActions := actions.NewSystemActions(f.mtpMountSource, f.mtpServiceUnit)
	backend, err := gadget.Probe(f.configfsRoot, f.androidUsbRoot, f.udcRoot, backendActions)
	if err != nil {
		return fmt.Errorf("probing gadget backend: %w", err)
	}

	powerSupply := f.powerSupply
	if powerSupply == "" {
		powerSupply, err = cable.Discover(f.powerSupplyRoot, "")
		if err != nil {
			return fmt.Errorf("discovering power-supply device: %w", err)
		}
	}
	util.WithOperation("main").Infof("using power-supply device %q, backend %s", powerSupply, backend.Kind())

	requests := make(chan mode.Name, 1)
	completions := make(chan mode.Name, 1)
	w := worker.New(requests, completions, backend, modes)

	checker := bridge.NewChecker(modes, policy.SuperUsers)
	b := bridge.New(f.redisAddr, f.redisKey, nil, checker)
	defer b.Close()

	buildPolicy := func(user mode.UserID) selector.Policy {
		return selector.Policy{
			Diagnostic:          false,
			ConfiguredMode:      policy.ConfiguredMode,
			AvailableModes:      func(mode.UserID) []mode.Name { return modes.Names() },
			DataExportPermitted: true,
		}
	}
	ctrl := controller.New(modes, policy.Synonyms, requests, b, buildPolicy)
	b.SetController(ctrl)

	src := cable.NewUeventSource(f.powerSupplyRoot, powerSupply)
	if err := src.Refresh(); err != nil {
		return fmt.Errorf("reading power-supply device: %w", err)
	}
	reinit := func() (cable.PropertySource, error) {
		s := cable.NewUeventSource(f.powerSupplyRoot, powerSupply)
		return s, s.Refresh()
	}
	observer := cable.New(src, reinit, func(s cable.State) {
		ctrl.SetCableState(s, mode.UnknownUser)
	})
	observer.SetWakeLock(backendActions)

	stop := make(chan struct{})
	fatal := make(chan error, 1)
	watcher, err := cable.NewWatcher(cable.UeventPath(f.powerSupplyRoot, powerSupply), observer, func(err error) {
		select {
		case fatal <- err:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("starting power-supply watcher: %w", err)
	}
	defer watcher.Close()

	b.PublishModeLists(modes)

	go w.Run(stop)
	go watcher.Run(stop)
	go b.Run(stop, func() {
		util.WithOperation("main").Info("reload requested")
		reloaded, err := config.LoadModes(f.modesPath)
		if err != nil {
			util.WithOperation("main").Warnf("reload failed: %v", err)
			return
		}
		*modes = *reloaded
		b.PublishModeLists(modes)
		ctrl.RethinkChargingFallback(observer.State(), mode.UnknownUser)
	})

	if f.interactive {
		go runInteractive(ctrl)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case m := <-completions:
			ctrl.ModeSwitched(m)
		case err := <-fatal:
			close(stop)
			return fmt.Errorf("fatal: %w", err)
		case s := <-sig:
			util.WithOperation("main").Infof("received %s, shutting down", s)
			close(stop)
			return nil
		}
	}
}
