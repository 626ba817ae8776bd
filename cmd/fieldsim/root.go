package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/emagsim/dispatch"
	"github.com/emagsim/dispatch/dtypes"
	"github.com/emagsim/dispatch/field"
	"github.com/emagsim/dispatch/hostdev"
)

var (
	flagBackend    string
	flagDevices    int
	flagCharges    int
	flagLines      int
	flagSteps      int
	flagResolution float32
	flagSeed       int64
	flagDType      string
	flagMaxRetries int
	flagFailExec   []int
	flagFailAlloc  []int
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fieldsim",
		Short:        "fieldsim -- electrostatic field lines across emulated compute devices",
		Long:         "fieldsim traces the field lines of a random set of point charges,\ndispatching the work across emulated compute devices with failure remapping.",
		SilenceUsage: true,
	}
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)
	root.AddCommand(newRunCmd(), newBackendsCmd(), newVersionCmd())
	return root
}

const version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fieldsim version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("fieldsim", version)
		},
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the registered device back-ends",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(strings.Join(dispatch.Backends(), "\n"))
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trace field lines of a random charge set across devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim()
		},
	}
	cmd.Flags().StringVar(&flagBackend, "backend", "host", "Device back-end to run on")
	cmd.Flags().IntVar(&flagDevices, "devices", 4, "Number of devices to dispatch across")
	cmd.Flags().IntVar(&flagCharges, "charges", 16, "Number of random point charges")
	cmd.Flags().IntVar(&flagLines, "lines", 256, "Number of field lines to trace")
	cmd.Flags().IntVar(&flagSteps, "steps", 1000, "Maximum steps per field line")
	cmd.Flags().Float32Var(&flagResolution, "resolution", 0.01, "Step length along the field direction")
	cmd.Flags().Int64Var(&flagSeed, "seed", 42, "Random seed for charges and start points")
	cmd.Flags().StringVar(&flagDType, "dtype", "f32", "Element type for device scratch buffers")
	cmd.Flags().IntVar(&flagMaxRetries, "max-retries", 1, "Remap attempts per failed work unit")
	cmd.Flags().IntSliceVar(&flagFailExec, "fail-device", nil, "Inject one execution failure on each listed device (repeatable)")
	cmd.Flags().IntSliceVar(&flagFailAlloc, "fail-alloc", nil, "Inject a permanent allocation failure on each listed device")
	return cmd
}

func runSim() error {
	dt := dtypes.FromName(flagDType)
	if dt == dtypes.InvalidDType {
		return errors.Errorf("unknown dtype %q", flagDType)
	}

	functor := must.M1(dispatch.New(flagBackend))
	backend, ok := functor.(*hostdev.Backend)
	if !ok {
		return errors.Errorf("back-end %q does not support fieldsim configuration", flagBackend)
	}

	rng := rand.New(rand.NewSource(flagSeed))
	randVec := func(scale float32) field.Vec3 {
		return field.Vec3{
			X: (rng.Float32() - 0.5) * scale,
			Y: (rng.Float32() - 0.5) * scale,
			Z: (rng.Float32() - 0.5) * scale,
		}
	}
	charges := make([]field.PointCharge, flagCharges)
	for i := range charges {
		charges[i] = field.PointCharge{Pos: randVec(2), Charge: (rng.Float32() - 0.5) * 1e-9}
	}
	starts := make([]field.Vec3, flagLines)
	for i := range starts {
		starts[i] = randVec(4)
	}
	problem := field.NewProblem(charges, starts, flagSteps, flagResolution)

	faults := hostdev.FaultPlan{
		ExecFailures:  map[int]int{},
		AllocFailures: map[int]int{},
	}
	for _, d := range flagFailExec {
		faults.ExecFailures[d]++
	}
	for _, d := range flagFailAlloc {
		faults.AllocFailures[d] = 1 << 10 // beyond any retry budget
	}

	backend.Configure(
		hostdev.WithKernel(field.Kernel),
		hostdev.WithLanes(flagDevices),
		hostdev.WithScratch(flagSteps, dt),
		hostdev.WithFaults(faults),
	)

	res, err := dispatch.Run(backend, problem, backend.Lanes(), dispatch.WithMaxRetries(flagMaxRetries))
	if err != nil {
		return err
	}

	points := 0
	for _, line := range problem.Lines {
		points += len(line)
	}
	fmt.Printf("job %s finished: %s\n", res.JobID, res.Status)
	fmt.Printf("  work units: %d completed, %d failed\n", res.Completed(), len(res.FailedFunctors))
	fmt.Printf("  traced %d points over %d lines\n", points, flagLines)
	if len(res.RemapTable) > 0 {
		remapped := keysSorted(res.RemapTable)
		for _, f := range remapped {
			fmt.Printf("  unit %d remapped to device %d\n", f, res.RemapTable[f])
		}
	}
	if res.Err != nil {
		fmt.Printf("  failures:\n%v\n", res.Err)
	}
	return nil
}

func keysSorted(m map[int]int) []int {
	s := make([]int, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	sort.Ints(s)
	return s
}
