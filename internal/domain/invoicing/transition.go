package invoicing

import (
	"github.com/shopspring/decimal"
)

// Transition is a requested change to an invoice
type Transition string

const (
	TransitionCreate        Transition = "create"
	TransitionEdit          Transition = "edit"
	TransitionConfirm       Transition = "confirm"
	TransitionUnconfirm     Transition = "unconfirm"
	TransitionCancel        Transition = "cancel"
	TransitionAddPayment    Transition = "add_payment"
	TransitionDeletePayment Transition = "delete_payment"
	TransitionDelete        Transition = "delete"
)

// EffectKind names a side effect a transition requires
type EffectKind string

const (
	EffectRecomputeTotals EffectKind = "recompute_totals"
	EffectDecrementStock  EffectKind = "decrement_stock"
	EffectRestoreStock    EffectKind = "restore_stock"
	EffectIncreaseBalance EffectKind = "increase_balance"
	EffectDecreaseBalance EffectKind = "decrease_balance"
	EffectAppendPayment   EffectKind = "append_payment"
	EffectReversePayment  EffectKind = "reverse_payment"
	EffectRemoveInvoice   EffectKind = "remove_invoice"
)

// Effect is one required side effect. Amount is set for balance and payment effects.
type Effect struct {
	Kind   EffectKind
	Amount decimal.Decimal
}

// TransitionInput is everything the validator needs to decide
type TransitionInput struct {
	Current        InvoiceStatus
	Transition     Transition
	Total          decimal.Decimal
	Paid           decimal.Decimal
	Amount         decimal.Decimal
	ItemCount      int
	StockApplied   bool
	BalanceApplied decimal.Decimal
}

// Decision is the validator outcome for an allowed transition
type Decision struct {
	Next    InvoiceStatus
	Effects []Effect
	// NoOp marks a repeated request that is already satisfied
	NoOp bool
}

// Has reports whether the decision requires an effect of the given kind
func (d Decision) Has(kind EffectKind) bool {
	_, ok := d.Effect(kind)
	return ok
}

// Effect returns the first effect of the given kind
func (d Decision) Effect(kind EffectKind) (Effect, bool) {
	for _, e := range d.Effects {
		if e.Kind == kind {
			return e, true
		}
	}
	return Effect{}, false
}

func noOp(current InvoiceStatus) Decision {
	return Decision{Next: current, NoOp: true}
}

// Decide validates a transition and returns its resulting status and side effects.
// It is a pure function of its input.
func Decide(in TransitionInput) (Decision, error) {
	if !in.Current.IsValid() {
		return Decision{}, ErrInvalidTransition.WithMessage("Invoice has an unknown status " + in.Current.String())
	}

	switch in.Transition {
	case TransitionCreate:
		return Decision{
			Next:    StatusDraft,
			Effects: []Effect{{Kind: EffectRecomputeTotals}},
		}, nil

	case TransitionEdit:
		if in.Current != StatusDraft {
			return Decision{}, ErrInvoiceNotEditable
		}
		return Decision{
			Next:    StatusDraft,
			Effects: []Effect{{Kind: EffectRecomputeTotals}},
		}, nil

	case TransitionConfirm:
		return decideConfirm(in)

	case TransitionUnconfirm:
		if in.Current == StatusDraft {
			return noOp(in.Current), nil
		}
		if in.Current == StatusCancelled {
			return Decision{}, ErrInvalidTransition.WithMessage("Cancelled invoices cannot be unconfirmed")
		}
		if in.Paid.IsPositive() {
			return Decision{}, ErrHasPayments
		}
		return Decision{Next: StatusDraft, Effects: reversalEffects(in)}, nil

	case TransitionCancel:
		if in.Current == StatusCancelled {
			return noOp(in.Current), nil
		}
		if in.Current == StatusDraft {
			return Decision{}, ErrInvalidTransition.WithMessage("Draft invoices cannot be cancelled; delete them instead")
		}
		if in.Paid.IsPositive() {
			return Decision{}, ErrHasPayments
		}
		return Decision{Next: StatusCancelled, Effects: reversalEffects(in)}, nil

	case TransitionAddPayment:
		return decideAddPayment(in)

	case TransitionDeletePayment:
		return decideDeletePayment(in)

	case TransitionDelete:
		effects := append(reversalEffects(in), Effect{Kind: EffectRemoveInvoice})
		return Decision{Next: in.Current, Effects: effects}, nil
	}

	return Decision{}, ErrInvalidTransition.WithMessage("Unknown transition " + string(in.Transition))
}

func decideConfirm(in TransitionInput) (Decision, error) {
	if in.Current.IsConfirmedFamily() {
		return noOp(in.Current), nil
	}
	if in.Current == StatusCancelled {
		return Decision{}, ErrInvalidTransition.WithMessage("Cancelled invoices cannot be confirmed")
	}
	if in.ItemCount == 0 {
		return Decision{}, NewValidationError("items", "add at least one item before confirming")
	}

	effects := []Effect{{Kind: EffectDecrementStock}}
	if remaining := Remaining(in.Total, in.Paid); remaining.IsPositive() {
		effects = append(effects, Effect{Kind: EffectIncreaseBalance, Amount: remaining})
	}
	return Decision{Next: DeriveStatus(in.Total, in.Paid), Effects: effects}, nil
}

func decideAddPayment(in TransitionInput) (Decision, error) {
	if !in.Current.IsConfirmedFamily() {
		return Decision{}, ErrInvoiceNotPayable
	}
	if !in.Amount.IsPositive() {
		return Decision{}, NewValidationError("amount", "payment amount must be greater than zero")
	}
	if in.Amount.GreaterThan(Remaining(in.Total, in.Paid)) {
		return Decision{}, ErrAmountExceedsRemaining
	}

	return Decision{
		Next: DeriveStatus(in.Total, in.Paid.Add(in.Amount)),
		Effects: []Effect{
			{Kind: EffectAppendPayment, Amount: in.Amount},
			{Kind: EffectDecreaseBalance, Amount: in.Amount},
		},
	}, nil
}

func decideDeletePayment(in TransitionInput) (Decision, error) {
	if in.Current == StatusCancelled {
		return Decision{}, ErrInvalidTransition.WithMessage("Payments of a cancelled invoice cannot be deleted")
	}
	if !in.Current.IsConfirmedFamily() {
		return Decision{}, ErrInvalidTransition.WithMessage("Draft invoices have no payments to delete")
	}
	if in.Amount.GreaterThan(in.Paid) {
		return Decision{}, ErrInvalidTransition.WithMessage("Payment exceeds the paid amount of the invoice")
	}

	return Decision{
		Next: DeriveStatus(in.Total, in.Paid.Sub(in.Amount)),
		Effects: []Effect{
			{Kind: EffectReversePayment, Amount: in.Amount},
			{Kind: EffectIncreaseBalance, Amount: in.Amount},
		},
	}, nil
}

// reversalEffects undoes whatever stock and balance effects the invoice still holds
func reversalEffects(in TransitionInput) []Effect {
	var effects []Effect
	if in.StockApplied {
		effects = append(effects, Effect{Kind: EffectRestoreStock})
	}
	if in.BalanceApplied.IsPositive() {
		effects = append(effects, Effect{Kind: EffectDecreaseBalance, Amount: in.BalanceApplied})
	}
	return effects
}
