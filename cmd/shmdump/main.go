// Command shmdump attaches to an existing shared-memory arena and prints
// its statistics and block table.
//
// Usage:
//
//	shmdump -name my-arena -size 1048576 [-dir /dev/shm] [-debug]
//
// The dump runs under the arena's own exclusive lock, so it is a
// consistent snapshot; it will block while another process holds the
// lock.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/tinternet/rshmem/arena"
)

func main() {
	var (
		name  = flag.String("name", "", "segment name (required)")
		size  = flag.Int("size", 0, "segment size in bytes (required)")
		dir   = flag.String("dir", "", "segment directory (platform default when empty)")
		debug = flag.Bool("debug", false, "log debug details to stderr")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *debug {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if *name == "" || *size <= 0 {
		fmt.Fprintln(os.Stderr, "usage: shmdump -name <segment> -size <bytes> [-dir <path>] [-debug]")
		os.Exit(2)
	}

	log.Debug("attaching to segment", "name", *name, "size", *size, "dir", *dir)
	a, err := arena.Open(*name, *size, arena.WithDir(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "shmdump: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	st := a.Stats()
	fmt.Printf("capacity:    %d bytes\n", st.Capacity)
	fmt.Printf("blocks:      %d\n", st.Blocks)
	fmt.Printf("used:        %d bytes\n", st.Used)
	fmt.Printf("free:        %d bytes\n", st.Free)
	fmt.Printf("largest gap: %d bytes\n", st.LargestGap)

	blocks := a.Blocks()
	log.Debug("snapshot taken", "blocks", len(blocks))
	if len(blocks) == 0 {
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REF\tSIZE\tPARENT")
	for _, b := range blocks {
		parent := "-"
		if b.Parent != arena.NilRef {
			parent = fmt.Sprintf("%d", b.Parent)
		}
		fmt.Fprintf(w, "%d\t%d\t%s\n", b.Ref, b.Size, parent)
	}
	w.Flush()
}
