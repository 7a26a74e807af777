package repositories

import (
	"fmt"

	"github.com/HSouheill/barrim_commission/utils"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// decimalFromBSON reads a money or rate field. Decimal128 is the stored form; doubles,
// integers and strings written by older code are accepted too. A missing field is zero.
func decimalFromBSON(rv bson.RawValue) (decimal.Decimal, error) {
	switch rv.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return decimal.Zero, nil
	case bsontype.Decimal128:
		return decimal.NewFromString(rv.Decimal128().String())
	case bsontype.Double:
		return decimal.NewFromFloat(rv.Double()), nil
	case bsontype.Int32:
		return decimal.NewFromInt32(rv.Int32()), nil
	case bsontype.Int64:
		return decimal.NewFromInt(rv.Int64()), nil
	case bsontype.String:
		return utils.ParseDecimal(rv.StringValue())
	}
	return decimal.Zero, fmt.Errorf("unsupported decimal type %s", rv.Type)
}

func decimalToBSON(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}

// amountToBSON keeps the commission scale so stored amounts read back as 50.0000.
func amountToBSON(d decimal.Decimal, places int32) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.StringFixed(places))
}
