package delivery

import (
	"fmt"

	"sweetshop-backend/internal/util"
)

// Quote is the serviceability answer for one pincode/amount pair. It is
// computed fresh per request and never persisted.
type Quote struct {
	IsServiceable  bool   `json:"is_serviceable"`
	DeliveryCharge int64  `json:"delivery_charge"`
	EstimatedDays  int    `json:"estimated_days"`
	Zone           string `json:"zone"`
	Message        string `json:"message"`
}

// Resolver answers pincode serviceability questions against a validated zone
// table. It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	zones []Zone
}

// NewResolver builds a resolver. The zone table is validated up front so
// Quote never has to deal with a missing catch-all.
func NewResolver(zones []Zone) (*Resolver, error) {
	if err := ValidateZones(zones); err != nil {
		return nil, err
	}
	return &Resolver{zones: zones}, nil
}

// Quote resolves a pincode and order amount to a delivery charge and ETA.
// A malformed pincode yields an unserviceable quote, not an error; callers
// must branch on IsServiceable.
func (r *Resolver) Quote(pincode string, orderAmount int64) Quote {
	util.DeliveryQuotesTotal.Inc()

	if !isPincode(pincode) {
		util.DeliveryQuotesRejected.Inc()
		return Quote{
			IsServiceable:  false,
			DeliveryCharge: 0,
			EstimatedDays:  0,
			Zone:           "invalid",
			Message:        "pincode must be exactly 6 digits",
		}
	}

	for i := range r.zones {
		z := &r.zones[i]
		if !z.matches(pincode) {
			continue
		}

		charge := z.BaseCharge
		if z.FreeAbove > 0 && orderAmount >= z.FreeAbove {
			charge = 0
		}
		var message string
		if charge == 0 {
			message = fmt.Sprintf("free shipping on orders above %d", z.FreeAbove)
		} else {
			message = fmt.Sprintf("delivery charge %d", charge)
		}

		return Quote{
			IsServiceable:  true,
			DeliveryCharge: charge,
			EstimatedDays:  z.EstimatedDays,
			Zone:           z.Name,
			Message:        message,
		}
	}

	// Unreachable while the table invariant holds: the validated catch-all
	// matches everything.
	util.DeliveryQuotesRejected.Inc()
	return Quote{
		IsServiceable: false,
		Zone:          "invalid",
		Message:       "no delivery zone configured for this pincode",
	}
}
