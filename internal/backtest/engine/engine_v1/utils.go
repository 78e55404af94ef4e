package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// getResultFolder returns <results>/<strategy>/<symbol>[_<start>_<end>]/<data file name>.
func getResultFolder(config BacktestEngineV1Config, strategyName string, dataPath string) string {
	strategyFolder := filepath.Join(config.ResultsFolder, strategyName)
	symbolFolder := config.Symbol

	if config.StartTime.IsSome() || config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if config.StartTime.IsSome() {
			startTimeStr = config.StartTime.Unwrap().Format("20060102")
		}

		if config.EndTime.IsSome() {
			endTimeStr = config.EndTime.Unwrap().Format("20060102")
		}

		symbolFolder = fmt.Sprintf("%s_%s_%s", config.Symbol, startTimeStr, endTimeStr)
	}

	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
	if dataFileName == "" || dataFileName == "." {
		dataFileName = "bars"
	}

	return filepath.Join(strategyFolder, symbolFolder, dataFileName)
}
