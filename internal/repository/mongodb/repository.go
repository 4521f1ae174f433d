package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/repository"
)

const (
	customersCollection    = "customers"
	deliveriesCollection   = "deliveries"
	paymentsCollection     = "payments"
	dailyReportsCollection = "daily_reports"
)

// MongoDBRepository implements repository.DocumentStore on MongoDB. Children
// live in their own collections and point at their customer through
// customer_id; every document carries subject_id.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// EnsureIndexes creates the lookup indexes used by the list queries.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	children := []mongo.IndexModel{
		{Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "customer_id", Value: 1}, {Key: "date", Value: 1}}},
	}

	if _, err := r.db.Collection(customersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create customers index: %w", err)
	}
	for _, name := range []string{deliveriesCollection, paymentsCollection} {
		if _, err := r.db.Collection(name).Indexes().CreateMany(ctx, children); err != nil {
			return fmt.Errorf("create %s index: %w", name, err)
		}
	}
	if _, err := r.db.Collection(dailyReportsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "subject_id", Value: 1}, {Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create daily reports index: %w", err)
	}
	return nil
}

// ListCustomers returns every customer of the subject. Documents without an
// id are logged and skipped.
func (r *MongoDBRepository) ListCustomers(ctx context.Context, subjectID string) ([]models.CustomerRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.db.Collection(customersCollection).Find(ctx, bson.M{"subject_id": subjectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find customers: %w", err)
	}
	return decodeAll(ctx, cur, customerFromRaw, r.logger.With(zap.String("collection", customersCollection)))
}

// GetCustomer returns one customer or repository.ErrNotFound.
func (r *MongoDBRepository) GetCustomer(ctx context.Context, subjectID, customerID string) (models.CustomerRecord, error) {
	raw, err := r.db.Collection(customersCollection).
		FindOne(ctx, bson.M{"_id": customerID, "subject_id": subjectID}).
		Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CustomerRecord{}, fmt.Errorf("customer %s: %w", customerID, repository.ErrNotFound)
	}
	if err != nil {
		return models.CustomerRecord{}, fmt.Errorf("find customer %s: %w", customerID, err)
	}

	record, err := customerFromRaw(raw)
	if err != nil {
		return models.CustomerRecord{}, fmt.Errorf("decode customer %s: %w", customerID, err)
	}
	return record, nil
}

// InsertCustomer stores a customer. The id is generated here and created_at is
// set by the server.
func (r *MongoDBRepository) InsertCustomer(ctx context.Context, subjectID string, record models.CustomerRecord) (models.CustomerRecord, error) {
	fields := bson.M{
		"subject_id":   subjectID,
		"name":         record.Name,
		"building":     record.Building,
		"room":         record.Room,
		"contact":      record.Contact,
		"bottle_price": record.BottlePrice,
	}

	raw, err := r.insertStamped(ctx, customersCollection, fields, "created_at")
	if err != nil {
		return models.CustomerRecord{}, fmt.Errorf("insert customer: %w", err)
	}
	return customerFromRaw(raw)
}

// ListDeliveries returns the customer's deliveries inside the window.
func (r *MongoDBRepository) ListDeliveries(ctx context.Context, subjectID, customerID string, window repository.Window) ([]models.DeliveryRecord, error) {
	cur, err := r.db.Collection(deliveriesCollection).Find(ctx, childFilter(subjectID, customerID, window))
	if err != nil {
		return nil, fmt.Errorf("find deliveries of %s: %w", customerID, err)
	}
	return decodeAll(ctx, cur, deliveryFromRaw, r.logger.With(zap.String("collection", deliveriesCollection)))
}

// InsertDelivery appends a delivery dated by the server.
func (r *MongoDBRepository) InsertDelivery(ctx context.Context, subjectID, customerID string, record models.DeliveryRecord) (models.DeliveryRecord, error) {
	fields := bson.M{
		"subject_id":  subjectID,
		"customer_id": customerID,
		"bottles":     record.Bottles,
	}

	raw, err := r.insertStamped(ctx, deliveriesCollection, fields, "date")
	if err != nil {
		return models.DeliveryRecord{}, fmt.Errorf("insert delivery for %s: %w", customerID, err)
	}
	return deliveryFromRaw(raw)
}

// ListPayments returns the customer's payments inside the window.
func (r *MongoDBRepository) ListPayments(ctx context.Context, subjectID, customerID string, window repository.Window) ([]models.PaymentRecord, error) {
	cur, err := r.db.Collection(paymentsCollection).Find(ctx, childFilter(subjectID, customerID, window))
	if err != nil {
		return nil, fmt.Errorf("find payments of %s: %w", customerID, err)
	}
	return decodeAll(ctx, cur, paymentFromRaw, r.logger.With(zap.String("collection", paymentsCollection)))
}

// InsertPayment appends a payment dated by the server.
func (r *MongoDBRepository) InsertPayment(ctx context.Context, subjectID, customerID string, record models.PaymentRecord) (models.PaymentRecord, error) {
	fields := bson.M{
		"subject_id":  subjectID,
		"customer_id": customerID,
		"amount":      record.Amount,
	}

	raw, err := r.insertStamped(ctx, paymentsCollection, fields, "date")
	if err != nil {
		return models.PaymentRecord{}, fmt.Errorf("insert payment for %s: %w", customerID, err)
	}
	return paymentFromRaw(raw)
}

// ListSubjects returns every subject that owns customers.
func (r *MongoDBRepository) ListSubjects(ctx context.Context) ([]string, error) {
	values, err := r.db.Collection(customersCollection).Distinct(ctx, "subject_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct subjects: %w", err)
	}

	subjects := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			subjects = append(subjects, s)
		}
	}
	return subjects, nil
}

type dailyReportDocument struct {
	SubjectID        string    `bson:"subject_id"`
	Day              string    `bson:"day"`
	Date             time.Time `bson:"date"`
	BottlesDelivered int64     `bson:"bottles_delivered"`
	Income           float64   `bson:"income"`
	Customers        int       `bson:"customers"`
	CreatedAt        time.Time `bson:"created_at"`
}

// SaveDailyReport saves a daily report, replacing an earlier one for the same day.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	doc := dailyReportDocument{
		SubjectID:        report.SubjectID,
		Day:              report.Date.Format(time.DateOnly),
		Date:             report.Date,
		BottlesDelivered: report.BottlesDelivered,
		Income:           report.Income.InexactFloat64(),
		Customers:        report.Customers,
		CreatedAt:        report.CreatedAt,
	}

	filter := bson.M{"subject_id": doc.SubjectID, "day": doc.Day}
	_, err := r.db.Collection(dailyReportsCollection).ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert daily report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// insertStamped inserts a new document whose timestamp field is assigned by
// the server clock and returns the stored document.
func (r *MongoDBRepository) insertStamped(ctx context.Context, collection string, fields bson.M, stampField string) (bson.Raw, error) {
	update := bson.M{
		"$setOnInsert": fields,
		"$currentDate": bson.M{stampField: bson.M{"$type": "date"}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	return r.db.Collection(collection).
		FindOneAndUpdate(ctx, bson.M{"_id": uuid.NewString()}, update, opts).
		Raw()
}

func childFilter(subjectID, customerID string, window repository.Window) bson.M {
	filter := bson.M{"subject_id": subjectID, "customer_id": customerID}
	if window.IsZero() {
		return filter
	}

	dateRange := bson.M{}
	if !window.From.IsZero() {
		dateRange["$gte"] = window.From
	}
	if !window.To.IsZero() {
		dateRange["$lte"] = window.To
	}
	filter["date"] = dateRange
	return filter
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor, decode func(bson.Raw) (T, error), logger *zap.Logger) ([]T, error) {
	defer func() { _ = cur.Close(ctx) }()

	var out []T
	for cur.Next(ctx) {
		item, err := decode(cur.Current)
		if err != nil {
			logger.Warn("skip undecodable document", zap.Error(err))
			continue
		}
		out = append(out, item)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate cursor: %w", err)
	}
	return out, nil
}

var _ repository.DocumentStore = (*MongoDBRepository)(nil)
