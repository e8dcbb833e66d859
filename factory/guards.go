package factory

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type check func() error

// checks runs every predicate in order and stops at the first failure.
func checks(cs ...check) error {
	for _, c := range cs {
		err := c()
		if err != nil {
			return err
		}
	}
	return nil
}

func notLocked(p *Protocol) check {
	return func() error {
		if p.Locked {
			return ErrProtocolLocked
		}
		return nil
	}
}

func identityMatches(expected, actual solana.PublicKey) check {
	return func() error {
		if expected != actual {
			return fmt.Errorf("%w: expected %s got %s", ErrUnauthorizedAdmin, expected, actual)
		}
		return nil
	}
}

// supplyNotExceeded lets issuance go on while total equals max.
func supplyNotExceeded(c *Collection) check {
	return func() error {
		if c.TotalSupply > c.MaxSupply {
			return fmt.Errorf("%w: %d/%d", ErrSoldOut, c.TotalSupply, c.MaxSupply)
		}
		return nil
	}
}

func supplyAvailable(c *Collection) check {
	return func() error {
		if c.MaxSupply <= c.TotalSupply {
			return fmt.Errorf("%w: %d/%d", ErrSoldOut, c.TotalSupply, c.MaxSupply)
		}
		return nil
	}
}
