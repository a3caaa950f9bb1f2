package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
)

// GridFSStore keeps images in a MongoDB GridFS bucket and serves them back
// through the images endpoint.
type GridFSStore struct {
	DB     *mongo.Database
	Bucket string
}

// NewMongoClient connects and pings within ten seconds.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func NewGridFSStore(client *mongo.Client, dbName, bucket string) *GridFSStore {
	return &GridFSStore{DB: client.Database(dbName), Bucket: bucket}
}

func (s *GridFSStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.DB, options.GridFSBucket().SetName(s.Bucket))
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(dl); err != nil {
			return nil, err
		}
		if err := b.SetReadDeadline(dl); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *GridFSStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (Object, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return Object{}, fmt.Errorf("gridfs: open bucket: %w", err)
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: contentType}})
	id, err := b.UploadFromStream(key, r, opts)
	if err != nil {
		return Object{}, fmt.Errorf("gridfs: upload %s: %w", key, err)
	}

	return Object{
		Backend:     BackendGridFS,
		Bucket:      s.Bucket,
		Path:        key,
		ContentType: contentType,
		Size:        size,
		FileID:      id.Hex(),
	}, nil
}

// Open streams a stored file. The caller closes the reader.
func (s *GridFSStore) Open(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, "", appErrors.NotFoundf("image %q not found", fileID)
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("gridfs: open bucket: %w", err)
	}

	stream, err := b.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", appErrors.NotFoundf("image %q not found", fileID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("gridfs: open %s: %w", fileID, err)
	}

	contentType := "application/octet-stream"
	if f := stream.GetFile(); f != nil && f.Metadata != nil {
		if ct, ok := f.Metadata.Lookup("content_type").StringValueOK(); ok {
			contentType = ct
		}
	}
	return stream, contentType, nil
}
