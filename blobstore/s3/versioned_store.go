package s3

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/foundermatch/annidx/blobstore"
)

// Compile-time check.
var _ blobstore.Store = (*VersionedStore)(nil)

// ErrConcurrentModification is returned by Push when another writer committed
// the same version first.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the interface for DynamoDB operations. *dynamodb.Client
// satisfies it.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// VersionedStore layers explicit versioned publishes on top of an S3 store,
// using a DynamoDB table as the commit log. Each snapshot generation lives
// under its own "vNNNNNNNN/" key prefix; readers only ever observe the prefix
// the commit table points at, so a crashed writer can never publish a torn
// snapshot. Conditional writes give the compare-and-swap semantics S3 lacks,
// so concurrent writers fail cleanly instead of clobbering each other.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 bucket/prefix, e.g. "s3://bucket/recommend"
//   - Sort key: version (number) - monotonically increasing version
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name annidx-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type VersionedStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string

	mu      sync.Mutex
	current uint64 // latest committed version, 0 means none
	staged  uint64 // version writes are staged under, 0 means nothing staged
}

// NewVersionedStore creates a versioned store. baseURI should use the
// "s3://bucket/prefix" format and is used as the partition key.
func NewVersionedStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *VersionedStore {
	return &VersionedStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

func versionPrefix(version uint64) string {
	return fmt.Sprintf("v%08d/", version)
}

// Pull resolves the latest committed version from the commit table. It must
// be called before Read; reads against an unpulled store report ErrNotFound.
func (s *VersionedStore) Pull(ctx context.Context) error {
	version, err := s.latestVersion(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = version
	s.staged = 0
	s.mu.Unlock()

	return nil
}

// Read downloads the named blob from the current committed version.
func (s *VersionedStore) Read(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	if current == 0 {
		return nil, blobstore.ErrNotFound
	}

	return s.s3Store.Read(ctx, versionPrefix(current)+name)
}

// Write stages the named blob under the next version prefix. Staged blobs are
// invisible to readers until Push commits them.
func (s *VersionedStore) Write(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	if s.staged == 0 {
		s.staged = s.current + 1
	}
	staged := s.staged
	s.mu.Unlock()

	return s.s3Store.Write(ctx, versionPrefix(staged)+name, data)
}

// Push atomically commits the staged version with a conditional write. It
// returns ErrConcurrentModification when another writer won the race; the
// caller should Pull and retry the whole save. Push without staged writes is
// a no-op.
func (s *VersionedStore) Push(ctx context.Context) error {
	s.mu.Lock()
	staged := s.staged
	s.mu.Unlock()

	if staged == 0 {
		return nil
	}

	_, err := s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", staged)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}

	s.mu.Lock()
	s.current = staged
	s.staged = 0
	s.mu.Unlock()

	return nil
}

// latestVersion queries the commit table for the newest committed version.
func (s *VersionedStore) latestVersion(ctx context.Context) (uint64, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, nil
	}

	versionAttr, ok := resp.Items[0]["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("invalid version attribute in DynamoDB")
	}

	var version uint64
	if _, err := fmt.Sscanf(versionAttr.Value, "%d", &version); err != nil {
		return 0, fmt.Errorf("failed to parse version: %w", err)
	}

	return version, nil
}
