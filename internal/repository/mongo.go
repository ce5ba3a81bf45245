package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/tour-booking/internal/database"
	"github.com/Shivanand-hulikatti/tour-booking/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}}

func findOptions(limit int) *options.FindOptions {
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// MongoBookingRepository stores bookings as documents.
type MongoBookingRepository struct {
	coll *mongo.Collection
}

// NewMongoBookingRepository constructs a MongoBookingRepository.
func NewMongoBookingRepository(db *mongo.Database) *MongoBookingRepository {
	return &MongoBookingRepository{coll: db.Collection(database.BookingsCollection)}
}

func (r *MongoBookingRepository) Create(ctx context.Context, b *model.Booking) error {
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *MongoBookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

func (r *MongoBookingRepository) List(ctx context.Context, f model.BookingFilter) ([]model.Booking, error) {
	filter := bson.M{}
	if f.UserEmail != "" {
		filter["userEmail"] = f.UserEmail
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	cur, err := r.coll.Find(ctx, filter, findOptions(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	var bookings []model.Booking
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepository) Update(ctx context.Context, id string, c model.BookingChanges, now time.Time) (*model.Booking, error) {
	set := bson.M{"updatedAt": now}
	if c.TravelDate != nil {
		set["travelDate"] = *c.TravelDate
	}
	if c.Guests != nil {
		set["guests"] = *c.Guests
	}
	if c.PricePerPerson != nil {
		set["pricePerPerson"] = *c.PricePerPerson
	}
	if c.OriginalTotal != nil {
		set["originalTotal"] = *c.OriginalTotal
	}
	if c.FinalPrice != nil {
		set["finalPrice"] = *c.FinalPrice
	}
	if c.CouponCode != nil {
		set["couponCode"] = *c.CouponCode
	}
	if c.Status != nil {
		set["status"] = *c.Status
	}

	var b model.Booking
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return &b, nil
}

func (r *MongoBookingRepository) MarkPaid(ctx context.Context, id, transactionID string, now time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "paymentStatus": bson.M{"$ne": model.PaymentPaid}},
		bson.M{"$set": bson.M{
			"paymentStatus": model.PaymentPaid,
			"status":        model.BookingConfirmed,
			"transactionId": transactionID,
			"updatedAt":     now,
		}},
	)
	if err != nil {
		return fmt.Errorf("mark booking paid: %w", err)
	}
	if res.ModifiedCount == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrAlreadyPaid
}

func (r *MongoBookingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoBookingRepository) Count(ctx context.Context, status model.BookingStatus) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}

func (r *MongoBookingRepository) MonthlyCounts(ctx context.Context, since time.Time) ([]model.MonthlyCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$createdAt"},
				"month": bson.M{"$month": "$createdAt"},
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("monthly booking counts: %w", err)
	}

	var rows []struct {
		Key struct {
			Year  int `bson:"year"`
			Month int `bson:"month"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode monthly counts: %w", err)
	}

	out := make([]model.MonthlyCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.MonthlyCount{Year: row.Key.Year, Month: row.Key.Month, Count: row.Count})
	}
	return out, nil
}

// MongoPaymentRepository stores payments as documents.
type MongoPaymentRepository struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepository constructs a MongoPaymentRepository.
func NewMongoPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	return &MongoPaymentRepository{coll: db.Collection(database.PaymentsCollection)}
}

// Insert relies on the unique transactionId index created by
// database.EnsureIndexes.
func (r *MongoPaymentRepository) Insert(ctx context.Context, p *model.Payment) error {
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *MongoPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*model.Payment, error) {
	var p model.Payment
	if err := r.coll.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *MongoPaymentRepository) List(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	filter := bson.M{}
	if f.UserEmail != "" {
		filter["userEmail"] = f.UserEmail
	}
	cur, err := r.coll.Find(ctx, filter, findOptions(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	var payments []model.Payment
	if err := cur.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("decode payments: %w", err)
	}
	return payments, nil
}

func (r *MongoPaymentRepository) SumAmount(ctx context.Context) (int64, error) {
	cur, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	})
	if err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	var rows []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode payment sum: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

// MongoUserRepository stores accounts as documents keyed by a unique email.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// NewMongoUserRepository constructs a MongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(database.UsersCollection)}
}

func profileSet(set bson.M, c model.ProfileChanges) {
	for k, v := range profileFields(c) {
		set["profile."+k] = v
	}
}

// Upsert is a single findOneAndUpdate with upsert; identity fields are only
// written through $setOnInsert.
func (r *MongoUserRepository) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	set := bson.M{"updatedAt": u.UpdatedAt}
	profileSet(set, nonEmptyProfile(u.Profile))

	var saved model.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"email": u.Email},
		bson.M{
			"$set": set,
			"$setOnInsert": bson.M{
				"_id":       u.ID,
				"role":      u.Role,
				"createdAt": u.CreatedAt,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &saved, nil
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) List(ctx context.Context) ([]model.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, findOptions(0))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var users []model.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, email string, c model.ProfileChanges, now time.Time) (*model.User, error) {
	set := bson.M{"updatedAt": now}
	profileSet(set, c)

	var u model.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": email}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update user profile: %w", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
