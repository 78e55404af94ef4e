package engine

import (
	"errors"
	"testing"

	"github.com/rxtech-lab/argo-scalper/internal/types"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)

		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *EngineTestSuite) TestOnTradeCallbackCanAbort() {
	callback := OnTradeCallback(func(trade types.TradeRecord) error {
		if trade.PnL < 0 {
			return errors.New("stop")
		}

		return nil
	})

	callbacks := LifecycleCallbacks{OnTrade: &callback}

	suite.NoError((*callbacks.OnTrade)(types.TradeRecord{PnL: 1}))
	suite.Error((*callbacks.OnTrade)(types.TradeRecord{PnL: -1}))
	suite.Nil(callbacks.OnRunStart)
}
