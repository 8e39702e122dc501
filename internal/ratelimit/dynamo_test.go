package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo evaluates the limiter's two condition expressions against an
// in-memory table.
type fakeDynamo struct {
	mu      sync.Mutex
	items   map[string]map[string]types.AttributeValue
	failErr error
	updates int
	puts    int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func attrInt(t map[string]types.AttributeValue, name string) int64 {
	v, _ := numberOf(t[name])
	return v
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.failErr != nil {
		return nil, f.failErr
	}

	key := in.Key["key"].(*types.AttributeValueMemberS).Value
	cutoff := attrInt(in.ExpressionAttributeValues, ":cutoff")
	limit := attrInt(in.ExpressionAttributeValues, ":limit")

	item, ok := f.items[key]
	if !ok || attrInt(item, "window_start") < cutoff || attrInt(item, "count") >= limit {
		cfe := &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		if ok && in.ReturnValuesOnConditionCheckFailure == types.ReturnValuesOnConditionCheckFailureAllOld {
			cfe.Item = item
		}
		return nil, cfe
	}

	next := attrInt(item, "count") + 1
	item["count"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(next, 10)}
	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{"count": item["count"]}}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failErr != nil {
		return nil, f.failErr
	}

	key := in.Item["key"].(*types.AttributeValueMemberS).Value
	cutoff := attrInt(in.ExpressionAttributeValues, ":cutoff")

	if item, ok := f.items[key]; ok && attrInt(item, "window_start") >= cutoff {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
	}
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func TestDynamoLimiter_FiveThenLimited(t *testing.T) {
	clock := newFakeClock()
	db := newFakeDynamo()
	rl := NewDynamoLimiter(db, "contact-rate-limits", DefaultLimit, DefaultWindow, clock.Now)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := rl.Allow(ctx, "203.0.113.7")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if d.Limited || d.Count != i {
			t.Fatalf("request %d: unexpected decision %+v", i, d)
		}
	}

	clock.Advance(5 * time.Minute)
	d, err := rl.Allow(ctx, "203.0.113.7")
	if err != nil {
		t.Fatalf("6th request: %v", err)
	}
	if !d.Limited {
		t.Fatal("6th request: expected limited")
	}
	if d.Count != 5 {
		t.Errorf("expected count 5, got %d", d.Count)
	}
	if d.RetryAfter != 10*time.Minute {
		t.Errorf("expected RetryAfter 10m, got %v", d.RetryAfter)
	}
	if got := attrInt(db.items["203.0.113.7"], "count"); got != 5 {
		t.Errorf("stored count must not exceed the limit, got %d", got)
	}
}

func TestDynamoLimiter_ResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	db := newFakeDynamo()
	rl := NewDynamoLimiter(db, "contact-rate-limits", DefaultLimit, DefaultWindow, clock.Now)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = rl.Allow(ctx, "ip")
	}

	clock.Advance(DefaultWindow + time.Second)
	d, err := rl.Allow(ctx, "ip")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if d.Limited || d.Count != 1 {
		t.Fatalf("expected a fresh window, got %+v", d)
	}

	item := db.items["ip"]
	if got := attrInt(item, "window_start"); got != clock.Now().UnixMilli() {
		t.Errorf("window_start not reset: %d", got)
	}
	if got := attrInt(item, "expires_at"); got != clock.Now().Add(2*DefaultWindow).Unix() {
		t.Errorf("unexpected expires_at %d", got)
	}
}

func TestDynamoLimiter_BackendError(t *testing.T) {
	db := newFakeDynamo()
	db.failErr = errors.New("throttled")
	rl := NewDynamoLimiter(db, "contact-rate-limits", DefaultLimit, DefaultWindow, nil)

	_, err := rl.Allow(context.Background(), "ip")
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if db.puts != 0 {
		t.Errorf("expected no put after a failed update, got %d", db.puts)
	}
}

func TestDynamoLimiter_LimitedUsesSingleCall(t *testing.T) {
	clock := newFakeClock()
	db := newFakeDynamo()
	rl := NewDynamoLimiter(db, "contact-rate-limits", 1, DefaultWindow, clock.Now)
	ctx := context.Background()

	_, _ = rl.Allow(ctx, "ip")
	db.updates, db.puts = 0, 0

	d, _ := rl.Allow(ctx, "ip")
	if !d.Limited {
		t.Fatal("expected limited")
	}
	if db.updates != 1 || db.puts != 0 {
		t.Errorf("expected 1 update and 0 puts, got %d and %d", db.updates, db.puts)
	}
}
