package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/whisperly-api/internal/domain"
)

// ConfessionRepo provides typed DynamoDB operations for the confessions table.
type ConfessionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewConfessionRepo(client *dynamodb.Client, tableName string) *ConfessionRepo {
	return &ConfessionRepo{client: client, tableName: tableName}
}

func (r *ConfessionRepo) Put(ctx context.Context, c *domain.Confession) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal confession: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ConfessionRepo) Get(ctx context.Context, confessionID string) (*domain.Confession, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("confession_id", confessionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("confession not found: %w", domain.ErrNotFound)
	}
	var c domain.Confession
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListRecent returns up to limit confessions, newest first, via the
// constant-hash feed GSI queried in descending created_at order.
func (r *ConfessionRepo) ListRecent(ctx context.Context, limit int32) ([]domain.Confession, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("feed-created_at-index"),
		KeyConditionExpression:    aws.String("feed = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":f": &types.AttributeValueMemberS{Value: domain.FeedAll}},
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var confessions []domain.Confession
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &confessions); err != nil {
		return nil, err
	}
	return confessions, nil
}

// ToggleReaction flips userID's membership in the category's reactor set as a
// single conditional UpdateItem, so membership can never drift from the
// derived count even under concurrent toggles. Returns the updated confession
// and whether the reaction was added (true) or removed (false).
func (r *ConfessionRepo) ToggleReaction(ctx context.Context, confessionID string, t domain.ReactionType, userID string) (*domain.Confession, bool, error) {
	c, err := r.Get(ctx, confessionID)
	if err != nil {
		return nil, false, err
	}
	add := !c.HasReacted(t, userID)

	// A toggle from the same user racing this one flips membership between
	// our read and write; the condition fails and we retry the other branch.
	for attempt := 0; attempt < 2; attempt++ {
		updated, err := r.applyReaction(ctx, confessionID, t, userID, add)
		if err == nil {
			return updated, add, nil
		}
		if !isConditionalCheckFailed(err) {
			return nil, false, err
		}
		add = !add
	}
	return nil, false, fmt.Errorf("reaction toggle contention on confession %s: %w", confessionID, domain.ErrConflict)
}

func (r *ConfessionRepo) applyReaction(ctx context.Context, confessionID string, t domain.ReactionType, userID string, add bool) (*domain.Confession, error) {
	attr := string(t) + "_users"

	var update, condition string
	if add {
		update = "ADD #u :uid"
		condition = "attribute_exists(confession_id) AND (attribute_not_exists(#u) OR NOT contains(#u, :s))"
	} else {
		update = "DELETE #u :uid"
		condition = "attribute_exists(confession_id) AND contains(#u, :s)"
	}

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("confession_id", confessionID),
		UpdateExpression:         aws.String(update),
		ConditionExpression:      aws.String(condition),
		ExpressionAttributeNames: map[string]string{"#u": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberSS{Value: []string{userID}},
			":s":   &types.AttributeValueMemberS{Value: userID},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, err
	}
	var c domain.Confession
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// AppendReply atomically appends a reply to the confession's reply list and
// returns the updated confession.
func (r *ConfessionRepo) AppendReply(ctx context.Context, confessionID string, reply domain.Reply) (*domain.Confession, error) {
	item, err := attributevalue.MarshalMap(reply)
	if err != nil {
		return nil, fmt.Errorf("marshal reply: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("confession_id", confessionID),
		UpdateExpression:    aws.String("SET replies = list_append(if_not_exists(replies, :empty), :r)"),
		ConditionExpression: aws.String("attribute_exists(confession_id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":r":     &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberM{Value: item}}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if isConditionalCheckFailed(err) {
		return nil, fmt.Errorf("confession not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var c domain.Confession
	if err := attributevalue.UnmarshalMap(out.Attributes, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConfessionRepo) Delete(ctx context.Context, confessionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("confession_id", confessionID),
	})
	return err
}

// Scan returns all confessions for the admin listing.
func (r *ConfessionRepo) Scan(ctx context.Context) ([]domain.Confession, error) {
	var confessions []domain.Confession
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Confession
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		confessions = append(confessions, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return confessions, nil
}
