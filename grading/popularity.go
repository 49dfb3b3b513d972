package grading

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// DefaultPopularityWeight keeps popularity a tie-breaker next to the
// deterministic score.
const DefaultPopularityWeight = 0.15

// PopularityDataset maps item hashes to a usage score in [0,1].
type PopularityDataset struct {
	Source string
	Scores map[uint32]float64
}

// ParsePopularity reads a JSON object of hash -> score. Scores above 1 are
// read as percentages.
func ParsePopularity(r io.Reader, source string) (*PopularityDataset, error) {
	var raw map[string]float64
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &ParseError{Source: source, Msg: fmt.Sprintf("decode: %v", err)}
	}
	ds := &PopularityDataset{Source: source, Scores: make(map[uint32]float64, len(raw))}
	for k, v := range raw {
		h, err := strconv.ParseUint(k, 10, 32)
		if err != nil {
			return nil, &ParseError{Source: source, Msg: fmt.Sprintf("bad item hash %q", k)}
		}
		if v > 1 {
			v /= 100
		}
		ds.Scores[uint32(h)] = clamp01(v)
	}
	return ds, nil
}

// Score returns the popularity of hash. A nil dataset has no scores.
func (d *PopularityDataset) Score(hash uint32) (float64, bool) {
	if d == nil {
		return 0, false
	}
	v, ok := d.Scores[hash]
	return v, ok
}

// GetScore is Score as an optional value for Blend.
func GetScore(d *PopularityDataset, hash uint32) *float64 {
	v, ok := d.Score(hash)
	if !ok {
		return nil
	}
	return &v
}

// Blend mixes a popularity score into a deterministic score. Without a
// popularity score, or with a non-positive weight, deterministic is returned
// unchanged; otherwise both are clamped to [0,1] and linearly interpolated.
func Blend(deterministic float64, popularity *float64, weight float64) float64 {
	if popularity == nil || weight <= 0 {
		return deterministic
	}
	if weight > 1 {
		weight = 1
	}
	return clamp01(deterministic)*(1-weight) + clamp01(*popularity)*weight
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
