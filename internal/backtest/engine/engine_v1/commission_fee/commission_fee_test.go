package commission_fee

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type CommissionFeeTestSuite struct {
	suite.Suite
}

func TestCommissionFeeSuite(t *testing.T) {
	suite.Run(t, new(CommissionFeeTestSuite))
}

func (suite *CommissionFeeTestSuite) TestZeroCommissionFee() {
	fee := NewZeroCommissionFee()

	for _, notional := range []float64{0, 10, 10000, -100} {
		suite.Equal(0.0, fee.Calculate(notional))
	}
}

func (suite *CommissionFeeTestSuite) TestBpsCommissionFee() {
	fee := NewBpsCommissionFee(4)

	tests := []struct {
		name     string
		notional float64
		expected float64
	}{
		{"zero notional", 0, 0},
		{"negative notional", -500, 0},
		{"round trip of 1000", 1000, 0.4},
		{"large notional", 250000, 100},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.InDelta(tc.expected, fee.Calculate(tc.notional), 1e-12)
		})
	}
}

func (suite *CommissionFeeTestSuite) TestGetCommissionFeeHandler() {
	suite.InDelta(0.5, GetCommissionFeeHandler(FeeModelBps, 5).Calculate(1000), 1e-12)
	suite.Equal(0.0, GetCommissionFeeHandler(FeeModelZero, 5).Calculate(1000))
	suite.Equal(0.0, GetCommissionFeeHandler(FeeModel("unknown"), 5).Calculate(1000))
}

func (suite *CommissionFeeTestSuite) TestAllFeeModels() {
	suite.Len(AllFeeModels, 2)
	suite.Contains(AllFeeModels, FeeModelBps)
	suite.Contains(AllFeeModels, FeeModelZero)
}
