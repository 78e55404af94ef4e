package analytics

import "github.com/moznion/go-optional"

// WalkForwardWindow is a pair of adjacent half-open bar ranges.
// Train is [TrainStart, TrainEnd), test is [TestStart, TestEnd).
type WalkForwardWindow struct {
	TrainStart int `yaml:"train_start" json:"train_start"`
	TrainEnd   int `yaml:"train_end" json:"train_end"`
	TestStart  int `yaml:"test_start" json:"test_start"`
	TestEnd    int `yaml:"test_end" json:"test_end"`
}

// SplitWindows splits nBars into train/test windows.
//
// Without a step there is a single split at trainPct. With a step, windows of
// trainPct*nBars training bars roll forward by step bars, each followed by up
// to step test bars.
func SplitWindows(nBars int, trainPct float64, step optional.Option[int]) []WalkForwardWindow {
	trainLen := int(float64(nBars) * trainPct)

	if step.IsNone() {
		if trainLen < 1 || trainLen >= nBars {
			return nil
		}

		return []WalkForwardWindow{{TrainStart: 0, TrainEnd: trainLen, TestStart: trainLen, TestEnd: nBars}}
	}

	stepBars := step.Unwrap()
	if stepBars <= 0 {
		return nil
	}

	var windows []WalkForwardWindow

	for start := 0; start+trainLen < nBars; start += stepBars {
		windows = append(windows, WalkForwardWindow{
			TrainStart: start,
			TrainEnd:   start + trainLen,
			TestStart:  start + trainLen,
			TestEnd:    min(start+trainLen+stepBars, nBars),
		})
	}

	return windows
}
