package runtime

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AccountStorageOverhead is charged on top of the data length of every account.
const AccountStorageOverhead = 128

const (
	DefaultLamportsPerByteYear = 3480
	DefaultExemptionThreshold  = "2"
)

type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  decimal.Decimal
}

func NewRent(conf *Configuration) (Rent, error) {
	rent := Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  decimal.RequireFromString(DefaultExemptionThreshold),
	}
	if conf == nil {
		return rent, nil
	}
	if conf.LamportsPerByteYear > 0 {
		rent.LamportsPerByteYear = conf.LamportsPerByteYear
	}
	if conf.ExemptionThreshold != "" {
		th, err := decimal.NewFromString(conf.ExemptionThreshold)
		if err != nil || th.Sign() <= 0 {
			return rent, fmt.Errorf("invalid rent exemption threshold %s", conf.ExemptionThreshold)
		}
		rent.ExemptionThreshold = th
	}
	return rent, nil
}

func (r Rent) MinimumBalance(dataLen int) uint64 {
	size := decimal.NewFromInt(int64(AccountStorageOverhead + dataLen))
	perByte := decimal.NewFromInt(int64(r.LamportsPerByteYear))
	return uint64(size.Mul(perByte).Mul(r.ExemptionThreshold).IntPart())
}

func (r Rent) IsExempt(lamports uint64, dataLen int) bool {
	return lamports >= r.MinimumBalance(dataLen)
}
