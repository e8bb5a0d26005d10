package hog

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// workloadSink receives the result of every burn repetition so the compiler
// cannot prove the work dead and elide it.
var workloadSink uint64

var tokenPattern = regexp.MustCompile(`tok-[0-9a-f]{2,}`)

type workloadDoc struct {
	ID      int       `json:"id"`
	Label   string    `json:"label"`
	Values  []float64 `json:"values"`
	Checked bool      `json:"checked"`
}

// burnOnce performs one repetition of the mixed CPU workload: transcendental
// float math, string construction with pattern matching, a sort/transform/
// reduce pass, and a JSON round trip. The mix touches several CPU subsystems
// so a single hot loop cannot be optimized into nothing.
func burnOnce(seed uint64) uint64 {
	// Transcendental float accumulation.
	acc := float64(seed%977) + 1.0
	for i := 1; i <= 192; i++ {
		x := float64(i) * 0.7318
		acc += math.Sin(x)*math.Cos(acc) + math.Sqrt(math.Abs(math.Log(x+acc*acc)))
	}

	// String construction and pattern matching.
	var b strings.Builder
	for i := 0; i < 24; i++ {
		fmt.Fprintf(&b, "tok-%02x/%d;", (seed+uint64(i))&0xff, i)
	}
	matches := tokenPattern.FindAllString(b.String(), -1)

	// Sort, transform, reduce.
	vals := make([]float64, 96)
	state := seed | 1
	for i := range vals {
		state = state*6364136223846793005 + 1442695040888963407
		vals[i] = float64(state%100000) / 997.0
	}
	sort.Float64s(vals)
	sum := 0.0
	for _, v := range vals {
		sum += math.Sqrt(v) * acc
	}

	// Structured-data serialize/deserialize.
	doc := workloadDoc{
		ID:      int(seed & 0xffff),
		Label:   b.String()[:32],
		Values:  vals[:16],
		Checked: len(matches) > 0,
	}
	encoded, err := json.Marshal(&doc)
	if err != nil {
		return uint64(sum) + uint64(len(matches))
	}
	var decoded workloadDoc
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return uint64(sum) + uint64(len(matches))
	}

	return uint64(sum) + uint64(decoded.ID) + uint64(len(matches)) + uint64(len(encoded))
}
