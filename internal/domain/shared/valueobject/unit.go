package valueobject

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const maxUnitLength = 20

// ErrInvalidUnit is returned when a unit payload has neither a name nor a symbol
var ErrInvalidUnit = errors.New("unit requires a name or symbol")

// Unit is the measurement unit of an invoice line, e.g. {Piece, pcs}.
// Callers historically sent the unit either as a bare string or as an object
// with a name; both shapes are normalized here and nothing else sees them.
type Unit struct {
	name   string
	symbol string
}

// NewUnit creates a Unit. A missing symbol defaults to the name and vice versa.
func NewUnit(name, symbol string) (Unit, error) {
	name = strings.TrimSpace(name)
	symbol = strings.TrimSpace(symbol)
	if name == "" && symbol == "" {
		return Unit{}, ErrInvalidUnit
	}
	if name == "" {
		name = symbol
	}
	if symbol == "" {
		symbol = name
	}
	if len(name) > maxUnitLength || len(symbol) > maxUnitLength {
		return Unit{}, fmt.Errorf("unit cannot exceed %d characters", maxUnitLength)
	}
	return Unit{name: name, symbol: symbol}, nil
}

// MustNewUnit panics on invalid input; intended for fixtures and defaults
func MustNewUnit(name, symbol string) Unit {
	u, err := NewUnit(name, symbol)
	if err != nil {
		panic(err)
	}
	return u
}

// PieceUnit is the unit used when a line omits one
func PieceUnit() Unit {
	return Unit{name: "Piece", symbol: "pcs"}
}

// Name returns the display name
func (u Unit) Name() string {
	return u.name
}

// Symbol returns the short symbol
func (u Unit) Symbol() string {
	return u.symbol
}

// IsZero reports whether the unit is unset
func (u Unit) IsZero() bool {
	return u.name == "" && u.symbol == ""
}

// Equals compares two units by name and symbol, ignoring case
func (u Unit) Equals(other Unit) bool {
	return strings.EqualFold(u.name, other.name) && strings.EqualFold(u.symbol, other.symbol)
}

func (u Unit) String() string {
	if u.name == u.symbol {
		return u.name
	}
	return fmt.Sprintf("%s (%s)", u.name, u.symbol)
}

// MarshalJSON always writes the object shape
func (u Unit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}{
		Name:   u.name,
		Symbol: u.symbol,
	})
}

// UnmarshalJSON accepts "kg", {"name":"Kilogram"} or {"name":"Kilogram","symbol":"kg"}.
// null and "" leave the unit zero.
func (u *Unit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = Unit{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*u = Unit{}
			return nil
		}
		parsed, err := NewUnit(s, "")
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	}

	var v struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid unit: %w", err)
	}
	if v.Symbol == "" {
		v.Symbol = v.Code
	}
	parsed, err := NewUnit(v.Name, v.Symbol)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
