package mg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"glyco/defs"
)

const (
	ReadingsCollection = "readings"
	AlertsCollection   = "alerts"
)

type DocumentStore interface {
	DocByID(ctx context.Context, collection string, id *primitive.ObjectID, doc interface{}) error
	DeleteByID(ctx context.Context, collection string, id *primitive.ObjectID) error
	InsertIfNew(ctx context.Context, collection string, filter bson.M, doc interface{}) (*mongo.UpdateResult, error)
	Upsert(ctx context.Context, collection string, filter bson.M, doc interface{}) (*mongo.UpdateResult, error)
}

type ReadingStore interface {
	WriteReading(ctx context.Context, r *defs.Reading) (*mongo.UpdateResult, error)
	ReadReadings(ctx context.Context, start, end time.Time) ([]defs.Reading, error)
}

type AlertStore interface {
	WriteAlert(ctx context.Context, al *defs.Alert) (*mongo.UpdateResult, error)
	ReadAlerts(ctx context.Context, start, end time.Time) ([]defs.Alert, error)
}

type FileStore interface {
	SaveFile(ctx context.Context, name string, r io.Reader) (string, error)
	ReadFile(ctx context.Context, fid string) (io.Reader, error)
	DeleteFile(ctx context.Context, fid string) error
}

type MongoStore struct {
	Client *mongo.Client
	Logger *zap.Logger

	DBName string
}

func New(ctx context.Context, cfg defs.MongoConfig, logger *zap.Logger) (*MongoStore, error) {
	opts := []*options.ClientOptions{options.Client().ApplyURI(cfg.URI)}
	if cfg.Username != "" {
		opts = append(opts, options.Client().SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		}))
	}

	mongoClient, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongo: %w", err)
	}

	dbName := cfg.DBName
	if dbName == "" {
		dbName = defs.DefaultDBName
	}

	return &MongoStore{
		Client: mongoClient,
		Logger: logger,
		DBName: dbName,
	}, nil
}

func (ms *MongoStore) DocByID(ctx context.Context, collection string, id *primitive.ObjectID, doc interface{}) error {
	sr := ms.Client.Database(ms.DBName).Collection(collection).FindOne(ctx, bson.M{"_id": id})
	return sr.Decode(doc)
}

func (ms *MongoStore) InsertIfNew(ctx context.Context, collection string, filter bson.M, doc interface{}) (*mongo.UpdateResult, error) {
	ms.Logger.Debug(
		"inserting document",
		zap.String("collection", collection),
		zap.Any("filter", filter),
		zap.Any("document", doc),
	)

	res, err := ms.Client.
		Database(ms.DBName).
		Collection(collection).
		UpdateOne(ctx, filter,
			bson.M{"$setOnInsert": doc},
			options.Update().SetUpsert(true),
		)
	if err != nil {
		return nil, fmt.Errorf("unable to insert if new: %w", err)
	}

	return res, err
}

func (ms *MongoStore) Upsert(ctx context.Context, collection string, filter bson.M, doc interface{}) (*mongo.UpdateResult, error) {
	ms.Logger.Debug(
		"upserting document",
		zap.String("collection", collection),
		zap.Any("document", doc),
	)

	res, err := ms.Client.
		Database(ms.DBName).
		Collection(collection).
		UpdateOne(ctx, filter,
			bson.M{"$set": doc},
			options.Update().SetUpsert(true),
		)
	if err != nil {
		ms.Logger.Debug(
			"unable to upsert document",
			zap.String("collection", collection),
			zap.Any("document", doc),
			zap.Error(err),
		)
		return nil, fmt.Errorf("unable to upsert document: %w", err)
	}

	return res, err
}

func (ms *MongoStore) DeleteByID(ctx context.Context, collection string, id *primitive.ObjectID) error {
	ms.Logger.Debug(
		"deleting document by id",
		zap.String("collection", collection),
		zap.String("id", id.Hex()),
	)
	_, err := ms.Client.Database(ms.DBName).Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (ms *MongoStore) getEventsBetween(ctx context.Context, collection string, start, end time.Time, slicePtr interface{}) error {
	ms.Logger.Debug(
		"reading events",
		zap.String("collection", collection),
		zap.Time("start", start),
		zap.Time("end", end),
	)

	findOptions := options.Find()
	findOptions.SetSort(bson.D{primitive.E{Key: "time", Value: 1}})

	cur, err := ms.Client.
		Database(ms.DBName).
		Collection(collection).
		Find(ctx, bson.M{
			"time": bson.M{
				"$gte": primitive.NewDateTimeFromTime(start),
				"$lte": primitive.NewDateTimeFromTime(end),
			},
		}, findOptions)
	if err != nil {
		ms.Logger.Debug(
			"unable to read events",
			zap.String("collection", collection),
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Error(err),
		)
		return fmt.Errorf("unable to read events: %w", err)
	}

	return cur.All(ctx, slicePtr)
}

// WriteReading inserts a sample keyed by its time. Re-ingesting the same
// window is therefore idempotent.
func (ms *MongoStore) WriteReading(ctx context.Context, r *defs.Reading) (*mongo.UpdateResult, error) {
	filter := bson.M{"time": r.Time}
	return ms.InsertIfNew(ctx, ReadingsCollection, filter, r)
}

func (ms *MongoStore) ReadReadings(ctx context.Context, start, end time.Time) ([]defs.Reading, error) {
	var rs []defs.Reading
	if err := ms.getEventsBetween(ctx, ReadingsCollection, start, end, &rs); err != nil {
		return nil, fmt.Errorf("unable to read readings: %w", err)
	}
	return rs, nil
}

func (ms *MongoStore) WriteAlert(ctx context.Context, al *defs.Alert) (*mongo.UpdateResult, error) {
	filter := bson.M{}
	if al.ID != nil {
		filter["_id"] = al.ID
	} else {
		filter["time"] = al.Time
	}
	return ms.Upsert(ctx, AlertsCollection, filter, al)
}

func (ms *MongoStore) ReadAlerts(ctx context.Context, start, end time.Time) ([]defs.Alert, error) {
	var alerts []defs.Alert
	if err := ms.getEventsBetween(ctx, AlertsCollection, start, end, &alerts); err != nil {
		return nil, fmt.Errorf("unable to read alerts: %w", err)
	}
	return alerts, nil
}

// SaveFile stores a generated report in GridFS and returns its id.
func (ms *MongoStore) SaveFile(ctx context.Context, name string, r io.Reader) (string, error) {
	db := ms.Client.Database(ms.DBName)
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return "", fmt.Errorf("unable to create a GridFS bucket: %w", err)
	}

	oid, err := bucket.UploadFromStream(name, r)
	if err != nil {
		return "", fmt.Errorf("unable to upload to stream: %w", err)
	}

	return oid.Hex(), nil
}

func (ms *MongoStore) ReadFile(ctx context.Context, fid string) (io.Reader, error) {
	db := ms.Client.Database(ms.DBName)
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, fmt.Errorf("unable to create a GridFS bucket: %w", err)
	}

	oid, err := primitive.ObjectIDFromHex(fid)
	if err != nil {
		return nil, fmt.Errorf("unable to create objectId from hex: %w", err)
	}

	var buf bytes.Buffer
	_, err = bucket.DownloadToStream(oid, &buf)
	if err != nil {
		return nil, fmt.Errorf("unable to download to stream: %w", err)
	}

	return &buf, nil
}

func (ms *MongoStore) DeleteFile(ctx context.Context, fid string) error {
	db := ms.Client.Database(ms.DBName)
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return fmt.Errorf("unable to create a GridFS bucket: %w", err)
	}

	oid, err := primitive.ObjectIDFromHex(fid)
	if err != nil {
		return fmt.Errorf("unable to create objectId from hex: %w", err)
	}

	return bucket.Delete(oid)
}
