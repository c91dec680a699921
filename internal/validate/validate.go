// Package validate is the pre-trade admission gate. It is pure: every rule
// reads the order, the latest quote, and the instrument spec, and reports
// all failures at once instead of stopping at the first.
package validate

import "simex/internal/schema"

// Kind classifies a validation failure.
type Kind uint16

const (
	KindUnknown Kind = iota
	KindMissingField
	KindPriceDirection
)

func (k Kind) String() string {
	switch k {
	case KindMissingField:
		return "missing field"
	case KindPriceDirection:
		return "price direction"
	default:
		return "unknown"
	}
}

// Error identifies a single admission failure on an order field. It is a
// result value, not a Go error; callers check the slice for emptiness.
type Error struct {
	Kind  Kind
	Field string
}

func (e Error) String() string {
	return e.Field + ": " + e.Kind.String()
}

// Check applies the required-field and price-direction rules to an order.
// An empty result means the order is admissible; downstream components
// assume admissibility and must not re-validate.
func Check(order schema.Order, quote schema.Quote, spec schema.InstrumentSpec) []Error {
	var errs []Error

	missing := func(field string) {
		errs = append(errs, Error{Kind: KindMissingField, Field: field})
	}
	direction := func(field string) {
		errs = append(errs, Error{Kind: KindPriceDirection, Field: field})
	}

	if order.Side == schema.SideUnknown {
		missing("side")
	}
	if order.Type == schema.OrderTypeUnknown {
		missing("type")
	}
	if order.TimeInForce == schema.TimeInForceUnknown {
		missing("timeInForce")
	}
	if order.Volume <= 0 {
		missing("volume")
	}
	if order.InstrumentID == 0 {
		missing("instrument")
	}
	if spec.Commission == 0 {
		missing("commission")
	}
	if spec.ContractSize == 0 {
		missing("contractSize")
	}
	if spec.StepSize == 0 {
		missing("stepSize")
	}
	if spec.StepValue == 0 {
		missing("stepValue")
	}

	if order.Side == schema.SideUnknown {
		return errs
	}

	switch order.Type {
	case schema.OrderTypeStop:
		if order.LimitPrice == 0 {
			missing("limitPrice")
			break
		}
		switch order.Side {
		case schema.SideBuy:
			if order.LimitPrice < quote.Ask {
				direction("limitPrice")
			}
		case schema.SideSell:
			if order.LimitPrice > quote.Bid {
				direction("limitPrice")
			}
		}
	case schema.OrderTypeLimit:
		if order.LimitPrice == 0 {
			missing("limitPrice")
			break
		}
		switch order.Side {
		case schema.SideBuy:
			if order.LimitPrice > quote.Ask {
				direction("limitPrice")
			}
		case schema.SideSell:
			if order.LimitPrice < quote.Bid {
				direction("limitPrice")
			}
		}
	case schema.OrderTypeStopLimit:
		activationOK := order.ActivationPrice != 0
		if !activationOK {
			missing("activationPrice")
		}
		if order.LimitPrice == 0 {
			missing("limitPrice")
			break
		}
		switch order.Side {
		case schema.SideBuy:
			if activationOK && order.ActivationPrice < quote.Ask {
				direction("activationPrice")
			}
			if activationOK && order.LimitPrice < order.ActivationPrice {
				direction("limitPrice")
			}
		case schema.SideSell:
			if activationOK && order.ActivationPrice > quote.Bid {
				direction("activationPrice")
			}
			if activationOK && order.LimitPrice > order.ActivationPrice {
				direction("limitPrice")
			}
		}
	}

	return errs
}
