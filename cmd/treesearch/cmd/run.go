package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yewpar-go/yewpar/internal/generator/knapsack"
	"github.com/yewpar-go/yewpar/internal/generator/maxclique"
	"github.com/yewpar-go/yewpar/internal/generator/uts"
	"github.com/yewpar-go/yewpar/internal/runstore"
	"github.com/yewpar-go/yewpar/internal/storage"
	"github.com/yewpar-go/yewpar/pkg/treesearch"
)

var (
	flagProblem      string
	flagSkeletonType string
	flagSpawnDepth   uint32
	flagUntilDepth   uint32
	flagLocalities   int
	flagWorkers      int
	flagStealAttempt int
	flagPersist      bool

	flagUTSType       string
	flagUTSRootBranch int
	flagUTSNonLeafB   int
	flagUTSNonLeafQ   float64
	flagUTSSeed       uint64
	flagUTSGenMax     int
	flagUTSShape      int

	flagKnapsackWeights string
	flagKnapsackValues  string
	flagKnapsackCap     int

	flagCliqueVertices int
	flagCliqueEdges    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a tree-search skeleton over one of the bundled example problems",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&flagProblem, "problem", "uts", "Example problem: uts, knapsack, maxclique")
	runCmd.Flags().StringVar(&flagSkeletonType, "skeleton-type", "seq", "Skeleton: seq, dist, bnb")
	runCmd.Flags().Uint32Var(&flagSpawnDepth, "spawn-depth", 0, "Depth at/below which dist/bnb spawn a task per child")
	runCmd.Flags().Uint32Var(&flagUntilDepth, "until-depth", 0, "Inclusive depth bound (0 = unlimited, seq only)")
	runCmd.Flags().IntVar(&flagLocalities, "localities", 2, "Number of simulated localities for dist/bnb")
	runCmd.Flags().IntVar(&flagWorkers, "workers", 0, "Per-locality worker count (0 = scheduler default)")
	runCmd.Flags().IntVar(&flagStealAttempt, "steal-attempts", 0, "Steal attempts per round (0 = scheduler default)")
	runCmd.Flags().BoolVar(&flagPersist, "persist", false, "Persist this run's summary to the run store")

	runCmd.Flags().StringVar(&flagUTSType, "uts-type", "binomial", "UTS variant: binomial, geometric")
	runCmd.Flags().IntVar(&flagUTSRootBranch, "uts-b", 4, "UTS root branching factor")
	runCmd.Flags().IntVar(&flagUTSNonLeafB, "uts-m", 4, "UTS binomial non-leaf branching factor")
	runCmd.Flags().Float64Var(&flagUTSNonLeafQ, "uts-q", 15.0/64.0, "UTS binomial non-leaf probability")
	runCmd.Flags().Uint64Var(&flagUTSSeed, "uts-r", 0, "UTS root RNG seed")
	runCmd.Flags().IntVar(&flagUTSGenMax, "uts-d", 10, "UTS geometric gen_mx (max depth shape parameter)")
	runCmd.Flags().IntVar(&flagUTSShape, "uts-a", 0, "UTS geometric shape: 0=linear, 1=cyclic, 2=fixed, 3=expdec")

	runCmd.Flags().StringVar(&flagKnapsackWeights, "kn-weights", "2,3,4", "Knapsack item weights, comma-separated")
	runCmd.Flags().StringVar(&flagKnapsackValues, "kn-values", "3,4,5", "Knapsack item values, comma-separated")
	runCmd.Flags().IntVar(&flagKnapsackCap, "kn-capacity", 5, "Knapsack capacity")

	runCmd.Flags().IntVar(&flagCliqueVertices, "mc-vertices", 5, "Maximum clique vertex count")
	runCmd.Flags().StringVar(&flagCliqueEdges, "mc-edges", "0-1,1-2,2-3,3-4,4-0,0-2", "Maximum clique edges, \"u-v\" pairs comma-separated")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch flagProblem {
	case "uts":
		return runUTS(ctx)
	case "knapsack":
		return runKnapsack(ctx)
	case "maxclique":
		return runMaxClique(ctx)
	default:
		return fmt.Errorf("unknown problem: %q (valid: uts, knapsack, maxclique)", flagProblem)
	}
}

func runUTS(ctx context.Context) error {
	if flagSkeletonType == "bnb" {
		return fmt.Errorf("uts is a node-counting benchmark and has no objective to bound; bnb does not apply")
	}

	params := uts.Params{
		RootBranchingFactor:    flagUTSRootBranch,
		NonLeafBranchingFactor: flagUTSNonLeafB,
		NonLeafProbability:     flagUTSNonLeafQ,
		GenMax:                 flagUTSGenMax,
		GeoShape:               uts.Shape(flagUTSShape),
	}
	root := uts.Root(flagUTSSeed)

	var newGen treesearch.NewGeneratorFunc[uts.Params, uts.Node]
	switch flagUTSType {
	case "binomial":
		newGen = uts.NewBinomialGenerator(params)
	case "geometric":
		newGen = uts.NewGeometricGenerator(params)
	default:
		return fmt.Errorf("unknown uts-type: %q (valid: binomial, geometric)", flagUTSType)
	}

	opts := treesearch.Options[uts.Params, uts.Node, int]{Mode: treesearch.ModeCountNodes}

	started := time.Now()
	result, err := runSkeleton[uts.Params, uts.Node, int](ctx, flagSkeletonType, params, root, newGen, opts,
		flagSpawnDepth, flagUntilDepth, flagLocalities, flagWorkers, flagStealAttempt)
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	logger := GetLogger()
	var total uint64
	for depth, count := range result.Counts {
		logger.Info(fmt.Sprintf("depth %d: %d nodes", depth, count))
		total += count
	}
	logger.Info(fmt.Sprintf("tree size = %d nodes, %s", total, elapsed))

	if flagPersist {
		return persistRun(ctx, "uts", started, elapsed, result.Counts, nil)
	}
	return nil
}

func runKnapsack(ctx context.Context) error {
	weights, err := parseIntCSV(flagKnapsackWeights)
	if err != nil {
		return fmt.Errorf("invalid --kn-weights: %w", err)
	}
	values, err := parseIntCSV(flagKnapsackValues)
	if err != nil {
		return fmt.Errorf("invalid --kn-values: %w", err)
	}
	if len(weights) != len(values) {
		return fmt.Errorf("--kn-weights and --kn-values must have the same length (got %d and %d)", len(weights), len(values))
	}

	items := make([]knapsack.Item, len(weights))
	for i := range weights {
		items[i] = knapsack.Item{Weight: weights[i], Value: values[i]}
	}
	space := knapsack.NewSpace(items, flagKnapsackCap)
	root := knapsack.Root()

	opts := treesearch.Options[knapsack.Space, knapsack.Node, int]{
		Mode:    treesearch.ModeOptimisation,
		BoundFn: knapsack.Bound,
		ValueFn: knapsack.Value,
		Better:  treesearch.Greater[int](),
	}

	if flagSkeletonType != "seq" && flagUntilDepth == 0 {
		flagUntilDepth = uint32(len(items))
	}

	started := time.Now()
	result, err := runSkeleton[knapsack.Space, knapsack.Node, int](ctx, flagSkeletonType, space, root, knapsack.NewGenerator, opts,
		flagSpawnDepth, flagUntilDepth, flagLocalities, flagWorkers, flagStealAttempt)
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	logger := GetLogger()
	if result.Incumbent.Found {
		logger.Info(fmt.Sprintf("best value = %d (weight %d), found in %s", result.Incumbent.Bound, result.Incumbent.Solution.Weight, elapsed))
	} else {
		logger.Info("no feasible solution found")
	}

	if flagPersist {
		return persistRun(ctx, "knapsack", started, elapsed, result.Counts, result.Incumbent)
	}
	return nil
}

func runMaxClique(ctx context.Context) error {
	edges, err := parseEdgeCSV(flagCliqueEdges)
	if err != nil {
		return fmt.Errorf("invalid --mc-edges: %w", err)
	}

	space := maxclique.NewSpace(flagCliqueVertices, edges)
	root := maxclique.Root(space)

	opts := treesearch.Options[maxclique.Space, maxclique.Node, int]{
		Mode:    treesearch.ModeOptimisation,
		BoundFn: maxclique.Bound,
		ValueFn: maxclique.Value,
		Better:  treesearch.Greater[int](),
	}

	if flagSkeletonType != "seq" && flagUntilDepth == 0 {
		flagUntilDepth = uint32(flagCliqueVertices)
	}

	started := time.Now()
	result, err := runSkeleton[maxclique.Space, maxclique.Node, int](ctx, flagSkeletonType, space, root, maxclique.NewGenerator, opts,
		flagSpawnDepth, flagUntilDepth, flagLocalities, flagWorkers, flagStealAttempt)
	if err != nil {
		return err
	}
	elapsed := time.Since(started)

	logger := GetLogger()
	if result.Incumbent.Found {
		logger.Info(fmt.Sprintf("max clique size = %d, found in %s", result.Incumbent.Bound, elapsed))
	} else {
		logger.Info("no clique found")
	}

	if flagPersist {
		return persistRun(ctx, "maxclique", started, elapsed, result.Counts, result.Incumbent)
	}
	return nil
}

func persistRun(ctx context.Context, problem string, started time.Time, elapsed time.Duration, counts []uint64, incumbent any) error {
	cfg := GetConfig()

	dbCfg := cfg.Database
	if dbCfg.Type == "" {
		dbCfg.Type = "sqlite"
	}
	if dbCfg.Type == "sqlite" && dbCfg.Database == "" {
		dbCfg.Database = "./treesearch-runs.db"
	}

	db, err := runstore.OpenDB(&dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	store := runstore.NewGormStore(db)

	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to encode counts: %w", err)
	}
	incumbentJSON, err := json.Marshal(incumbent)
	if err != nil {
		return fmt.Errorf("failed to encode incumbent: %w", err)
	}

	run := &runstore.Run{
		UUID:          uuid.NewString(),
		Skeleton:      flagSkeletonType,
		ProblemName:   problem,
		SpawnDepth:    flagSpawnDepth,
		MaxDepth:      flagUntilDepth,
		StartedAt:     started,
		FinishedAt:    started.Add(elapsed),
		CountsJSON:    string(countsJSON),
		IncumbentJSON: string(incumbentJSON),
		Status:        runstore.StatusCompleted,
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return err
	}

	if cfg.Storage.Type != "" {
		objStore, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to open object storage for run archival: %w", err)
		}
		snapshot, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("failed to encode run snapshot: %w", err)
		}
		if err := runstore.ArchiveSnapshot(ctx, objStore, run.UUID, snapshot); err != nil {
			return err
		}
	}

	GetLogger().Info(fmt.Sprintf("run %s persisted", run.UUID))
	return nil
}

func parseIntCSV(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseEdgeCSV(s string) ([][2]int, error) {
	parts := strings.Split(s, ",")
	out := make([][2]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		uv := strings.SplitN(p, "-", 2)
		if len(uv) != 2 {
			return nil, fmt.Errorf("malformed edge %q, expected \"u-v\"", p)
		}
		u, err := strconv.Atoi(strings.TrimSpace(uv[0]))
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(strings.TrimSpace(uv[1]))
		if err != nil {
			return nil, err
		}
		out = append(out, [2]int{u, v})
	}
	return out, nil
}
