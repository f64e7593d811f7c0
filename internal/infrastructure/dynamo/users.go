package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/whisperly-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("email-index"),
		KeyConditionExpression:    aws.String("#e = :v"),
		ExpressionAttributeNames:  map[string]string{"#e": "email"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: email}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// ConsumeOTP atomically clears the user's OTP and applies extra updates,
// guarded on the stored code still equaling the presented one. A resend that
// lands between the caller's read and this write changes the stored code, so
// the condition fails instead of consuming a stale OTP.
func (r *UserRepo) ConsumeOTP(ctx context.Context, userID, code string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"otp":         "",
		"otp_expires": int64(0),
		"updated_at":  time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		updates[k] = v
	}
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Values[":code"] = &types.AttributeValueMemberS{Value: code}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("otp = :code"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("invalid OTP: %w", domain.ErrBadRequest)
	}
	return err
}

func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	return err
}

// Scan returns all users. Admin-only listing; the user base is small enough
// that a paginated scan is acceptable here.
func (r *UserRepo) Scan(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.User
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		users = append(users, page...)
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return users, nil
}

// DeleteExpiredUnverified removes every unverified user whose OTP expired
// before cutoff and returns how many were deleted. The filter expression is
// the storage-side form of domain.User.Reapable; verified users are never
// matched regardless of their OTP state.
func (r *UserRepo) DeleteExpiredUnverified(ctx context.Context, cutoff time.Time) (int, error) {
	var keys []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("verified = :f AND otp_expires > :zero AND otp_expires < :now"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":f":    &types.AttributeValueMemberBOOL{Value: false},
				":zero": &types.AttributeValueMemberN{Value: "0"},
				":now":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", cutoff.Unix())},
			},
			ProjectionExpression: aws.String("user_id"),
			ExclusiveStartKey:    startKey,
		})
		if err != nil {
			return 0, err
		}
		for _, item := range out.Items {
			if v, ok := item["user_id"].(*types.AttributeValueMemberS); ok {
				keys = append(keys, strKey("user_id", v.Value))
			}
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return deleteKeys(ctx, keys, func(ctx context.Context, chunk []map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
		reqs := make([]types.WriteRequest, 0, len(chunk))
		for _, k := range chunk {
			reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}})
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: reqs},
		})
		if err != nil {
			return nil, err
		}
		// Throttled deletes come back unprocessed; deleteKeys resends them.
		var unprocessed []map[string]types.AttributeValue
		for _, req := range out.UnprocessedItems[r.tableName] {
			if req.DeleteRequest != nil {
				unprocessed = append(unprocessed, req.DeleteRequest.Key)
			}
		}
		return unprocessed, nil
	})
}
