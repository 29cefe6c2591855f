package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config configures an S3Store.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // custom endpoint for S3-compatible services
	AccessKey string
	SecretKey string
	PathStyle bool
}

func (c *S3Config) applyDefaults() {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
}

func (c S3Config) validate() error {
	switch {
	case c.Bucket == "":
		return fmt.Errorf("%w: bucket is required", ErrInvalidConfig)
	case c.AccessKey == "" || c.SecretKey == "":
		return fmt.Errorf("%w: credentials are required", ErrInvalidConfig)
	}
	return nil
}

// Stored describes a part written to object storage.
type Stored struct {
	Key         string
	Filename    string
	ContentType string
	Size        int64
}

// putObjectAPI is the subset of *s3.Client used by the store.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store persists accepted parts to S3-compatible object storage.
type S3Store struct {
	client putObjectAPI
	cfg    S3Config
}

// NewS3Store creates a store from cfg.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return &S3Store{client: s3.New(s3.Options{}, opts...), cfg: cfg}, nil
}

// PutOption configures a single Put call.
type PutOption func(*putOptions)

type putOptions struct {
	key    string
	prefix string
	rules  []Rule
}

// WithKey stores the part under an explicit key.
func WithKey(key string) PutOption {
	return func(o *putOptions) { o.key = key }
}

// WithPrefix places the generated key under prefix.
func WithPrefix(prefix string) PutOption {
	return func(o *putOptions) { o.prefix = prefix }
}

// WithRules checks the part before it is written.
func WithRules(rules ...Rule) PutOption {
	return func(o *putOptions) { o.rules = append(o.rules, rules...) }
}

// Put writes the part to the bucket.
func (s *S3Store) Put(ctx context.Context, p Part, opts ...PutOption) (*Stored, error) {
	o := &putOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if err := Check(p, o.rules...); err != nil {
		return nil, err
	}

	rc, err := p.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	body, ok := rc.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("upload: read part: %w", err)
		}
		body = bytes.NewReader(data)
	}

	key := o.key
	if key == "" {
		key = buildKey(o.prefix, p.Filename())
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(p.Size()),
		ContentType:   aws.String(p.ContentType()),
	})
	if err != nil {
		return nil, wrapS3Error(err)
	}

	return &Stored{
		Key:         key,
		Filename:    p.Filename(),
		ContentType: p.ContentType(),
		Size:        p.Size(),
	}, nil
}

// buildKey returns {prefix}/{uuid}{ext}.
func buildKey(prefix, filename string) string {
	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
