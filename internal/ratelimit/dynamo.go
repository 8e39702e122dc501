package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of *dynamodb.Client used by DynamoLimiter.
type DynamoAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoLimiter is a Limiter shared by every instance through a DynamoDB
// table. The table's partition key is the string attribute "key"; enable
// TTL on "expires_at" so idle clients are removed by DynamoDB.
type DynamoLimiter struct {
	client DynamoAPI
	table  string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewDynamoLimiter creates a DynamoLimiter. A nil now uses time.Now.
func NewDynamoLimiter(client DynamoAPI, table string, limit int, window time.Duration, now func() time.Time) *DynamoLimiter {
	if now == nil {
		now = time.Now
	}
	return &DynamoLimiter{client: client, table: table, limit: limit, window: window, now: now}
}

var _ Limiter = (*DynamoLimiter)(nil)

var limiterAttrNames = map[string]string{
	"#key":   "key",
	"#count": "count",
	"#start": "window_start",
}

// Allow applies the fixed-window rule with conditional writes. A lost race
// against a concurrent window reset is retried once.
func (l *DynamoLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	for attempt := 0; ; attempt++ {
		now := l.now()
		cutoff := now.Add(-l.window).UnixMilli()

		count, old, err := l.increment(ctx, key, cutoff)
		if err == nil {
			return Decision{Count: count}, nil
		}
		if !isConditionFailed(err) {
			return Decision{}, fmt.Errorf("%w: update item: %w", ErrBackend, err)
		}

		// The increment was refused: the window is full, elapsed, or missing.
		if old != nil {
			start, used := windowOf(old)
			if start >= cutoff && used >= l.limit {
				return Decision{
					Limited:    true,
					Count:      used,
					RetryAfter: time.UnixMilli(start).Add(l.window).Sub(now),
				}, nil
			}
		}

		err = l.startWindow(ctx, key, now, cutoff)
		if err == nil {
			return Decision{Count: 1}, nil
		}
		if !isConditionFailed(err) {
			return Decision{}, fmt.Errorf("%w: put item: %w", ErrBackend, err)
		}
		if attempt > 0 {
			return Decision{Limited: true, Count: l.limit}, nil
		}
	}
}

// increment bumps the count of an open, non-full window. On a failed
// condition it returns the stored item, if any.
func (l *DynamoLimiter) increment(ctx context.Context, key string, cutoff int64) (int, map[string]types.AttributeValue, error) {
	out, err := l.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(l.table),
		Key:                      map[string]types.AttributeValue{"key": &types.AttributeValueMemberS{Value: key}},
		UpdateExpression:         aws.String("SET #count = #count + :one"),
		ConditionExpression:      aws.String("attribute_exists(#key) AND #start >= :cutoff AND #count < :limit"),
		ExpressionAttributeNames: limiterAttrNames,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":    numberAttr(1),
			":cutoff": numberAttr(cutoff),
			":limit":  numberAttr(int64(l.limit)),
		},
		ReturnValues:                        types.ReturnValueUpdatedNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return 0, cfe.Item, err
		}
		return 0, nil, err
	}
	count, _ := numberOf(out.Attributes["count"])
	return int(count), nil, nil
}

// startWindow writes a fresh record when none exists or the stored window elapsed.
func (l *DynamoLimiter) startWindow(ctx context.Context, key string, now time.Time, cutoff int64) error {
	_, err := l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item: map[string]types.AttributeValue{
			"key":          &types.AttributeValueMemberS{Value: key},
			"count":        numberAttr(1),
			"window_start": numberAttr(now.UnixMilli()),
			"expires_at":   numberAttr(now.Add(2 * l.window).Unix()),
		},
		ConditionExpression: aws.String("attribute_not_exists(#key) OR #start < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#key":   "key",
			"#start": "window_start",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": numberAttr(cutoff),
		},
	})
	return err
}

func isConditionFailed(err error) bool {
	var cfe *types.ConditionalCheckFailedException
	return errors.As(err, &cfe)
}

func windowOf(item map[string]types.AttributeValue) (start int64, count int) {
	start, _ = numberOf(item["window_start"])
	c, _ := numberOf(item["count"])
	return start, int(c)
}

func numberAttr(n int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(n, 10)}
}

func numberOf(av types.AttributeValue) (int64, bool) {
	n, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(n.Value, 10, 64)
	return v, err == nil
}
