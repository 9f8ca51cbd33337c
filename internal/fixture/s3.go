package fixture

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config configures an S3-compatible fixture bucket.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// S3Store reads fixtures from an S3-compatible bucket using the same layout
// as DirStore, optionally under a key prefix.
type S3Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Store creates a store for cfg. It does not contact the server.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("fixture.NewS3Store: endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("fixture.NewS3Store: access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("fixture.NewS3Store: bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("fixture.NewS3Store: init client: %w", err)
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
	}, nil
}

func (s *S3Store) key(rel string) string {
	if s.prefix == "" {
		return rel
	}
	return s.prefix + "/" + rel
}

// Load fetches both documents for id.
func (s *S3Store) Load(ctx context.Context, id string) (*Scenario, error) {
	if err := validID(id); err != nil {
		return nil, &NotFoundError{ScenarioID: id, Path: id, Err: err}
	}
	ctxData, err := s.get(ctx, id, ContextPath(id))
	if err != nil {
		return nil, err
	}
	expData, err := s.get(ctx, id, ExpectedPath(id))
	if err != nil {
		return nil, err
	}
	return decode(id, ctxData, expData)
}

func (s *S3Store) get(ctx context.Context, id, rel string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(rel), minio.GetObjectOptions{})
	if err != nil {
		return nil, &NotFoundError{ScenarioID: id, Path: rel, Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code != "" {
			err = fmt.Errorf("%s: %s", resp.Code, resp.Message)
		}
		return nil, &NotFoundError{ScenarioID: id, Path: rel, Err: err}
	}
	return data, nil
}

// List returns ids with both documents present in the bucket.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	keys := make(map[string]bool)
	prefix := s.key(expectedDir + "/")
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("fixture.S3Store.List: %w", obj.Err)
		}
		keys[obj.Key] = true
	}

	var ids []string
	prefix = s.key(contextDir + "/")
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("fixture.S3Store.List: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if strings.Contains(name, "/") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		if keys[s.key(ExpectedPath(id))] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
