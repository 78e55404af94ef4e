package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}
	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestParseLevel() {
	tests := []struct {
		input    string
		expected zapcore.Level
		wantErr  bool
	}{
		{"", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{" warn ", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		suite.Run(tt.input, func() {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				suite.Error(err)

				return
			}

			suite.NoError(err)
			suite.Equal(tt.expected, level)
		})
	}
}

func (suite *LoggerTestSuite) TestFileOutput() {
	dir := suite.T().TempDir()
	logger, err := NewLoggerWithOptions(Options{Level: "info", Dir: dir, File: "test.log"})
	suite.Require().NoError(err)

	logger.Info("written to file")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	suite.Require().NoError(err)
	suite.Contains(string(data), "written to file")
}

func (suite *LoggerTestSuite) TestInvalidLevel() {
	_, err := NewLoggerWithOptions(Options{Level: "loud"})
	suite.Error(err)
}

func (suite *LoggerTestSuite) TestNopLogger() {
	logger := NewNopLogger()
	logger.Info("discarded")
	suite.NoError(logger.Sync())
}
