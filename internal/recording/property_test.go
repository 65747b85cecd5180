package recording

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestExtractFolderInvertsBuildKey checks that the folder survives a round trip
// through the physical key regardless of separator placement.
// Property: ExtractFolder(BuildKey(p, ns, f, file), p, ns) == f
func TestExtractFolderInvertsBuildKey(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	separators := gen.OneConstOf("", "/", "//")

	properties.Property("folder round-trips through the key", prop.ForAll(
		func(prefix, prefixSep, ns, nsSep, folder, file string) bool {
			p := prefix + prefixSep
			n := ""
			if ns != "" {
				n = ns + nsSep
			}
			key := BuildKey(p, n, folder, file)
			got, ok := ExtractFolder(key, p, n)
			return ok && got == folder
		},
		gen.AlphaString(),
		separators,
		gen.AlphaString(),
		separators,
		gen.Identifier(),
		gen.OneConstOf(TimingFile, TypescriptFile),
	))

	properties.TestingRun(t)
}

// TestParseTimingKeepsValidLines checks that interleaved garbage never drops
// or reorders valid entries.
func TestParseTimingKeepsValidLines(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("valid lines survive in order", prop.ForAll(
		func(millis []uint16, junk []string) bool {
			var b strings.Builder
			var want float64
			for i, ms := range millis {
				delay := float64(ms) / 1000
				want += delay
				fmt.Fprintf(&b, "%.3f %d\n", delay, i)
				if i < len(junk) {
					b.WriteString("#" + junk[i] + "\n")
				}
			}

			stream := ParseTiming(b.String())
			if len(stream) != len(millis) {
				return false
			}
			for i, e := range stream {
				if e.Bytes != i {
					return false
				}
			}
			return math.Abs(stream.Duration()-want) < 1e-6
		},
		gen.SliceOf(gen.UInt16()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
