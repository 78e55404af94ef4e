package commission_fee

// BpsCommissionFee charges Bps / 10000 of notional, like exchange taker fees.
type BpsCommissionFee struct {
	Bps float64
}

func NewBpsCommissionFee(bps float64) CommissionFee {
	return &BpsCommissionFee{Bps: bps}
}

func (c *BpsCommissionFee) Calculate(notional float64) float64 {
	if notional <= 0 {
		return 0
	}

	return notional * c.Bps / 10000.0
}
