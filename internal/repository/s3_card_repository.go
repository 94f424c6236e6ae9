package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"seven-oz-loyalty/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// S3API is the subset of the S3 client used by the card repository.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3CardRepository implements CardRepository with one JSON object per card.
type S3CardRepository struct {
	client S3API
	bucket string
	prefix string
	logger zerolog.Logger
}

// NewS3CardRepository creates a new S3-backed card repository.
func NewS3CardRepository(client S3API, bucket, prefix string, logger zerolog.Logger) *S3CardRepository {
	return &S3CardRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With().Str("repository", "card-s3").Logger(),
	}
}

// objectKey escapes the user id so arbitrary ids map to a single key segment.
func (r *S3CardRepository) objectKey(userID model.UserID) string {
	return r.prefix + url.PathEscape(userID.String()) + ".json"
}

// FindByUserID retrieves a card by user id.
func (r *S3CardRepository) FindByUserID(ctx context.Context, userID model.UserID) (model.StampCard, error) {
	key := r.objectKey(userID)

	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return model.StampCard{}, ErrCardNotFound
		}
		r.logger.Error().
			Err(err).
			Str("bucket", r.bucket).
			Str("key", key).
			Msg("failed to get card object")
		return model.StampCard{}, fmt.Errorf("failed to get card object (bucket=%s, key=%s): %w", r.bucket, key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return model.StampCard{}, fmt.Errorf("failed to read card object %s: %w", key, err)
	}

	return decodeCard(data)
}

// Insert writes the card with If-None-Match so an existing object is kept.
func (r *S3CardRepository) Insert(ctx context.Context, card model.StampCard) error {
	err := r.put(ctx, card, aws.String("*"))
	if err != nil && isS3PreconditionFailed(err) {
		return ErrCardExists
	}
	return err
}

// Replace overwrites the card object.
func (r *S3CardRepository) Replace(ctx context.Context, card model.StampCard) error {
	return r.put(ctx, card, nil)
}

func (r *S3CardRepository) put(ctx context.Context, card model.StampCard, ifNoneMatch *string) error {
	data, err := json.Marshal(newCardDocument(card))
	if err != nil {
		return fmt.Errorf("failed to encode card: %w", err)
	}

	key := r.objectKey(card.UserID)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		IfNoneMatch: ifNoneMatch,
	})
	if err != nil {
		if ifNoneMatch != nil && isS3PreconditionFailed(err) {
			return err
		}
		r.logger.Error().
			Err(err).
			Str("bucket", r.bucket).
			Str("key", key).
			Msg("failed to put card object")
		return fmt.Errorf("failed to put card object (bucket=%s, key=%s): %w", r.bucket, key, err)
	}

	return nil
}

func isS3NotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func isS3PreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}
