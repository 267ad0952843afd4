package main

import (
	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/poolkit/mem/flist"
)

// num formats counts with thousands separators.
var num = message.NewPrinter(language.English)

// bytesOf renders a byte count as a short human-readable size.
func bytesOf(n int) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// printStats writes the allocator statistics block shared by every command.
func printStats(st flist.Stats) {
	printInfo("  Pools:          %s (%s grown)\n", num.Sprintf("%d", st.Pools), num.Sprintf("%d", st.Grows))
	printInfo("  Capacity:       %s (region %s)\n", bytesOf(st.Capacity), bytesOf(st.Region))
	printInfo("  Live:           %s allocations, %s\n", num.Sprintf("%d", st.Live), bytesOf(st.LiveBytes))
	printInfo("  Free:           %s blocks, %s (largest %s)\n",
		num.Sprintf("%d", st.FreeBlocks), bytesOf(st.FreeBytes), bytesOf(st.Largest))
	printInfo("  Fragmentation:  %.1f%%\n", st.Fragmentation()*100)
	printVerbose("  Calls:          %s allocate, %s exhausted, %s free, %s splits\n",
		num.Sprintf("%d", st.AllocCalls), num.Sprintf("%d", st.Exhausted),
		num.Sprintf("%d", st.FreeCalls), num.Sprintf("%d", st.Splits))
}
