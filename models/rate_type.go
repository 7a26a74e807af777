package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// RateKind identifies how an agent converts a transaction amount into a commission.
type RateKind int

const (
	RateUnknown RateKind = iota
	RatePercentage
	RateFixed
	RateMarkup
)

var rateKindNames = map[RateKind]string{
	RatePercentage: "percentage",
	RateFixed:      "fixed",
	RateMarkup:     "markup",
}

func (k RateKind) String() string {
	if name, ok := rateKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// RateType is the closed set Percentage | Fixed | Markup | Unknown(raw).
// Raw keeps the persisted value so unrecognized types survive a round trip.
type RateType struct {
	Kind RateKind
	Raw  string
}

var (
	Percentage = RateType{Kind: RatePercentage, Raw: "percentage"}
	Fixed      = RateType{Kind: RateFixed, Raw: "fixed"}
	Markup     = RateType{Kind: RateMarkup, Raw: "markup"}
)

// ParseRateType maps a stored rate type string onto the variant. Matching ignores case and
// surrounding whitespace; anything unrecognized becomes RateUnknown.
func ParseRateType(raw string) RateType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "percentage":
		return RateType{Kind: RatePercentage, Raw: raw}
	case "fixed":
		return RateType{Kind: RateFixed, Raw: raw}
	case "markup":
		return RateType{Kind: RateMarkup, Raw: raw}
	}
	return RateType{Kind: RateUnknown, Raw: raw}
}

// Known reports whether the type is one of the supported rate models.
func (r RateType) Known() bool {
	return r.Kind != RateUnknown
}

func (r RateType) String() string {
	if r.Known() {
		return r.Kind.String()
	}
	return r.Raw
}

func (r RateType) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *RateType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("rate type must be a string: %w", err)
	}
	*r = ParseRateType(raw)
	return nil
}

func (r RateType) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.String())
}

func (r *RateType) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*r = ParseRateType("")
		return nil
	}
	var raw string
	if err := bson.UnmarshalValue(t, data, &raw); err != nil {
		return fmt.Errorf("rate type must be a string: %w", err)
	}
	*r = ParseRateType(raw)
	return nil
}
