package commission_fee

// CommissionFee computes the fee charged on a traded notional.
type CommissionFee interface {
	// Calculate returns the fee in quote currency for the given notional.
	Calculate(notional float64) float64
}

type FeeModel string

const (
	// FeeModelBps charges a fixed number of basis points of notional.
	FeeModelBps  FeeModel = "bps"
	FeeModelZero FeeModel = "zero_commission"
)

var AllFeeModels = []any{
	FeeModelBps,
	FeeModelZero,
}

// GetCommissionFeeHandler returns the fee model. Unknown models charge nothing.
func GetCommissionFeeHandler(model FeeModel, bps float64) CommissionFee {
	switch model {
	case FeeModelBps:
		return NewBpsCommissionFee(bps)
	case FeeModelZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
