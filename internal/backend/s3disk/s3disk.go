// Package s3disk implements a backend disk on Amazon S3 or any S3 compatible
// service. Directories are key prefixes; MakeDirectory writes a "dir/" marker
// object so empty folders survive listing.
package s3disk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	models "medialib/internal/domain/models/media"
)

// maxBatchSize is the S3 limit for one DeleteObjects request.
const maxBatchSize = 1000

const defaultMaxRetries = 10

// Config describes one S3 disk.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	ForcePathStyle  bool
	MaxRetries      int
	// URL overrides the public base url (CDN, custom domain).
	URL string
}

// Client is the subset of *s3.Client the disk uses.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	PutObjectAcl(ctx context.Context, params *s3.PutObjectAclInput, optFns ...func(*s3.Options)) (*s3.PutObjectAclOutput, error)
	s3.ListObjectsV2APIClient
}

// Disk stores objects in one bucket under an optional key prefix.
type Disk struct {
	client  Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
	baseURL string
}

// New builds an S3 client from cfg and wraps it in a Disk.
func New(ctx context.Context, cfg Config) (*Disk, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 disk: bucket is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	if cfg.Region != "" {
		configOptions = append(configOptions, awsConfig.WithRegion(cfg.Region))
	}

	// Static credentials when given, default chain otherwise
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = defaultBaseURL(cfg)
	}

	return &Disk{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  normalizePrefix(cfg.Prefix),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// NewWithClient wraps an existing client. presign may be nil, which disables
// TemporaryURL.
func NewWithClient(client Client, presign *s3.PresignClient, bucket, prefix, baseURL string) *Disk {
	return &Disk{
		client:  client,
		presign: presign,
		bucket:  bucket,
		prefix:  normalizePrefix(prefix),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func defaultBaseURL(cfg Config) string {
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func (d *Disk) key(p string) string {
	return d.prefix + strings.Trim(p, "/")
}

func (d *Disk) dirKey(p string) string {
	key := d.key(p)
	if key == "" {
		return ""
	}
	return key + "/"
}

func acl(v models.Visibility) types.ObjectCannedACL {
	if v == models.VisibilityPrivate {
		return types.ObjectCannedACLPrivate
	}
	return types.ObjectCannedACLPublicRead
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &notFound) || errors.As(err, &noSuchKey)
}

// Exists is true for an object at path or for any object below path/.
func (d *Disk) Exists(ctx context.Context, p string) (bool, error) {
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(p)),
	})
	if err == nil {
		return true, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("head object: %w", err)
	}

	page, err := d.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(d.bucket),
		Prefix:  aws.String(d.dirKey(p)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("list objects: %w", err)
	}
	return len(page.Contents) > 0, nil
}

func (d *Disk) Put(ctx context.Context, p string, data []byte, visibility models.Visibility) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(d.key(p)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           acl(visibility),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (d *Disk) Get(ctx context.Context, p string) ([]byte, error) {
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(p)),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

func (d *Disk) Delete(ctx context.Context, p string) error {
	_, err := d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(p)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// DeleteDirectory removes every object below path/, marker included.
func (d *Disk) DeleteDirectory(ctx context.Context, p string) error {
	prefix := d.dirKey(p)
	if prefix == "" || prefix == d.prefix {
		return fmt.Errorf("refusing to delete the disk root")
	}

	keys, err := d.list(ctx, prefix)
	if err != nil {
		return err
	}
	return d.deleteKeys(ctx, keys)
}

func (d *Disk) MakeDirectory(ctx context.Context, p string, visibility models.Visibility) error {
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(d.bucket),
		Key:           aws.String(d.dirKey(p)),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
		ACL:           acl(visibility),
	})
	if err != nil {
		return fmt.Errorf("put directory marker: %w", err)
	}
	return nil
}

// Move copies the object at from, or every object below from/, to the same
// relative keys below to, then deletes the originals.
func (d *Disk) Move(ctx context.Context, from, to string) error {
	srcKey, dstKey := d.key(from), d.key(to)
	if srcKey == dstKey {
		return nil
	}

	keys, err := d.list(ctx, d.dirKey(from))
	if err != nil {
		return err
	}
	if _, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(srcKey),
	}); err == nil {
		keys = append(keys, srcKey)
	} else if !isNotFound(err) {
		return fmt.Errorf("head object: %w", err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("move %s: %w", from, &types.NoSuchKey{})
	}

	for _, key := range keys {
		target := dstKey + strings.TrimPrefix(key, srcKey)
		if err := d.copy(ctx, key, target); err != nil {
			return err
		}
	}
	return d.deleteKeys(ctx, keys)
}

func (d *Disk) copy(ctx context.Context, src, dst string) error {
	source := (&url.URL{Path: d.bucket + "/" + src}).EscapedPath()
	_, err := d.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(d.bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(source),
	})
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// SetVisibility changes the ACL of the object at path, or of every object
// below path/ when path is a directory.
func (d *Disk) SetVisibility(ctx context.Context, p string, visibility models.Visibility) error {
	keys, err := d.list(ctx, d.dirKey(p))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		keys = []string{d.key(p)}
	}

	for _, key := range keys {
		_, err := d.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
			Bucket: aws.String(d.bucket),
			Key:    aws.String(key),
			ACL:    acl(visibility),
		})
		if err != nil {
			return fmt.Errorf("put object acl %s: %w", key, err)
		}
	}
	return nil
}

func (d *Disk) URL(p string) (string, error) {
	return d.baseURL + "/" + (&url.URL{Path: d.key(p)}).EscapedPath(), nil
}

func (d *Disk) TemporaryURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	if d.presign == nil {
		return "", fmt.Errorf("s3 disk: presigning is not configured")
	}
	req, err := d.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key(p)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}
	return req.URL, nil
}

func (d *Disk) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(d.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(d.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

// deleteKeys removes keys in batches of maxBatchSize.
func (d *Disk) deleteKeys(ctx context.Context, keys []string) error {
	for i := 0; i < len(keys); i += maxBatchSize {
		end := min(i+maxBatchSize, len(keys))

		objects := make([]types.ObjectIdentifier, 0, end-i)
		for _, key := range keys[i:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		out, err := d.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(d.bucket),
			Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("delete objects: %d failed, first %s: %s",
				len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}
