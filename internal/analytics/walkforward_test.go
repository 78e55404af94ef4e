package analytics

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type WalkForwardTestSuite struct {
	suite.Suite
}

func TestWalkForwardSuite(t *testing.T) {
	suite.Run(t, new(WalkForwardTestSuite))
}

func (suite *WalkForwardTestSuite) TestSingleSplit() {
	windows := SplitWindows(100, 0.7, optional.None[int]())
	suite.Equal([]WalkForwardWindow{{TrainStart: 0, TrainEnd: 70, TestStart: 70, TestEnd: 100}}, windows)
}

func (suite *WalkForwardTestSuite) TestSingleSplitDegenerate() {
	suite.Empty(SplitWindows(1, 0.7, optional.None[int]()))
	suite.Empty(SplitWindows(10, 1.0, optional.None[int]()))
	suite.Empty(SplitWindows(0, 0.7, optional.None[int]()))
}

func (suite *WalkForwardTestSuite) TestRollingWindows() {
	windows := SplitWindows(100, 0.5, optional.Some(20))
	suite.Equal([]WalkForwardWindow{
		{TrainStart: 0, TrainEnd: 50, TestStart: 50, TestEnd: 70},
		{TrainStart: 20, TrainEnd: 70, TestStart: 70, TestEnd: 90},
		{TrainStart: 40, TrainEnd: 90, TestStart: 90, TestEnd: 100},
	}, windows)

	for _, w := range windows {
		suite.Equal(w.TrainEnd, w.TestStart)
		suite.Greater(w.TestEnd, w.TestStart)
	}
}

func (suite *WalkForwardTestSuite) TestRollingInvalidStep() {
	suite.Empty(SplitWindows(100, 0.5, optional.Some(0)))
}
