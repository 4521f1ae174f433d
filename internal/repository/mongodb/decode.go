package mongodb

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/waterbill/internal/domain/models"
)

// Stored documents are decoded field by field: a field of the wrong type reads
// as absent, so one bad value never hides the rest of the record. Only a
// document without a string _id is rejected.

var errMissingID = errors.New("document has no string _id")

func customerFromRaw(doc bson.Raw) (models.CustomerRecord, error) {
	id, ok := doc.Lookup("_id").StringValueOK()
	if !ok {
		return models.CustomerRecord{}, errMissingID
	}
	return models.CustomerRecord{
		ID:          id,
		SubjectID:   stringOrEmpty(doc, "subject_id"),
		Name:        stringField(doc, "name"),
		Building:    stringField(doc, "building"),
		Room:        stringField(doc, "room"),
		Contact:     stringField(doc, "contact"),
		BottlePrice: floatField(doc, "bottle_price"),
		CreatedAt:   timeField(doc, "created_at"),
	}, nil
}

func deliveryFromRaw(doc bson.Raw) (models.DeliveryRecord, error) {
	id, ok := doc.Lookup("_id").StringValueOK()
	if !ok {
		return models.DeliveryRecord{}, errMissingID
	}
	return models.DeliveryRecord{
		ID:         id,
		SubjectID:  stringOrEmpty(doc, "subject_id"),
		CustomerID: stringOrEmpty(doc, "customer_id"),
		Bottles:    intField(doc, "bottles"),
		Date:       timeField(doc, "date"),
	}, nil
}

func paymentFromRaw(doc bson.Raw) (models.PaymentRecord, error) {
	id, ok := doc.Lookup("_id").StringValueOK()
	if !ok {
		return models.PaymentRecord{}, errMissingID
	}
	return models.PaymentRecord{
		ID:         id,
		SubjectID:  stringOrEmpty(doc, "subject_id"),
		CustomerID: stringOrEmpty(doc, "customer_id"),
		Amount:     floatField(doc, "amount"),
		Date:       timeField(doc, "date"),
	}, nil
}

func stringOrEmpty(doc bson.Raw, key string) string {
	s, _ := doc.Lookup(key).StringValueOK()
	return s
}

func stringField(doc bson.Raw, key string) *string {
	s, ok := doc.Lookup(key).StringValueOK()
	if !ok {
		return nil
	}
	return &s
}

// floatField accepts any numeric BSON type. Strings are not numbers.
func floatField(doc bson.Raw, key string) *float64 {
	v := doc.Lookup(key)

	var f float64
	switch v.Type {
	case bson.TypeDouble:
		f = v.Double()
	case bson.TypeInt32:
		f = float64(v.Int32())
	case bson.TypeInt64:
		f = float64(v.Int64())
	case bson.TypeDecimal128:
		d, err := decimal.NewFromString(v.Decimal128().String())
		if err != nil {
			return nil
		}
		f = d.InexactFloat64()
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// intField accepts integers and doubles without a fractional part.
func intField(doc bson.Raw, key string) *int64 {
	v := doc.Lookup(key)

	var n int64
	switch v.Type {
	case bson.TypeInt32:
		n = int64(v.Int32())
	case bson.TypeInt64:
		n = v.Int64()
	case bson.TypeDouble:
		f := v.Double()
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil
		}
		n = int64(f)
	default:
		return nil
	}
	return &n
}

func timeField(doc bson.Raw, key string) *time.Time {
	ms, ok := doc.Lookup(key).DateTimeOK()
	if !ok {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}
