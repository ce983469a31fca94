// Command nsdriver is a smoke-test and stress-test harness for the tree
// package. It builds an empty namespace and drives a configurable number
// of concurrent workers through randomized create/list/remove/move calls,
// then prints a summary -- a generalization of the original reference
// design's ad hoc main() driver into a proper, flag-driven command.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dijkstracula/go-nstree/tree"
)

var (
	workers    int
	ops        int
	writeFrac  float64
	seed       int64
	verbose    bool
	numPaths   int
	pathDepth  int
)

var rootCmd = &cobra.Command{
	Use:   "nsdriver",
	Short: "Stress-drive a concurrent namespace tree",
	Long: `nsdriver builds an in-memory hierarchical namespace and fires a
randomized mix of create, list, remove, and move operations at it from
many goroutines concurrently, then reports the resulting tree shape.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().IntVar(&workers, "workers", 16, "number of concurrent worker goroutines")
	rootCmd.Flags().IntVar(&ops, "ops", 2000, "number of operations per worker")
	rootCmd.Flags().Float64Var(&writeFrac, "write-frac", 0.3, "fraction of operations that mutate the tree")
	rootCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "enable debug logging of tree structural events")
	rootCmd.Flags().IntVar(&numPaths, "paths", 12, "number of candidate top-level names to operate on")
	rootCmd.Flags().IntVar(&pathDepth, "depth", 3, "maximum path depth to exercise")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	tree.SetLogger(tree.NewLogger(os.Stderr, level))

	rng := rand.New(rand.NewSource(seed))
	candidates := candidatePaths(rng, numPaths, pathDepth)

	t := tree.New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[error]int{nil: 0}

	record := func(err error) {
		mu.Lock()
		counts[normalizeErr(err)]++
		mu.Unlock()
	}

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		workerSeed := seed + int64(w)
		go func(workerSeed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(workerSeed))
			for i := 0; i < ops; i++ {
				p1 := candidates[r.Intn(len(candidates))]
				p2 := candidates[r.Intn(len(candidates))]

				if r.Float64() < writeFrac {
					switch r.Intn(3) {
					case 0:
						record(t.Create(p1))
					case 1:
						record(t.Remove(p1))
					case 2:
						record(t.Move(p1, p2))
					}
				} else {
					_, err := t.List(p1)
					record(err)
				}
			}
		}(workerSeed)
	}
	wg.Wait()
	elapsed := time.Since(start)

	stats, err := t.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("workers=%d ops/worker=%d elapsed=%s\n", workers, ops, elapsed)
	fmt.Printf("final tree: nodes=%d max-depth=%d\n", stats.NodeCount, stats.MaxDepth)
	fmt.Println("outcome counts:")
	for err, n := range counts {
		if err == nil {
			fmt.Printf("  ok: %d\n", n)
		} else {
			fmt.Printf("  %v: %d\n", err, n)
		}
	}
	return nil
}

// normalizeErr maps any error to its taxonomy sentinel (or nil), so the
// summary counts group by kind rather than by the per-call wrapped message.
func normalizeErr(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		tree.ErrInvalidArgument,
		tree.ErrNotFound,
		tree.ErrAlreadyExists,
		tree.ErrNotEmpty,
		tree.ErrBusy,
		tree.ErrInvalidMove,
	} {
		if isErr(err, sentinel) {
			return sentinel
		}
	}
	return err
}

func isErr(err, target error) bool {
	for err != nil {
		if err == target {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// candidatePaths builds a small, fixed pool of valid absolute paths up to
// depth components deep, using count distinct lowercase names per level,
// so that concurrent workers contend on overlapping regions of the tree
// rather than talking past each other.
func candidatePaths(rng *rand.Rand, count, depth int) []string {
	names := make([]string, count)
	for i := range names {
		names[i] = string(rune('a' + i%26))
		if i >= 26 {
			names[i] += string(rune('a' + i/26))
		}
	}

	paths := []string{"/"}
	for d := 0; d < depth; d++ {
		next := make([]string, 0, len(paths)*len(names))
		for _, p := range paths {
			for _, n := range names {
				next = append(next, p+n+"/")
			}
		}
		paths = append(paths, next...)
	}
	return paths
}
