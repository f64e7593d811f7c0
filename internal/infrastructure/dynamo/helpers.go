package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// updateExpr is a prepared DynamoDB SET expression with its name/value maps.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET
// expression. Fields are processed in sorted order so the expression is
// deterministic across calls.
func buildUpdateExpr(updates map[string]interface{}) (*updateExpr, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ue := &updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
	}
	ue.Expr = "SET "
	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		ue.Names[nameKey] = k
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Values[valueKey] = av
		if i > 0 {
			ue.Expr += ", "
		}
		ue.Expr += fmt.Sprintf("%s = %s", nameKey, valueKey)
	}
	return ue, nil
}

// batchWriteMax is the DynamoDB per-call BatchWriteItem request limit.
const batchWriteMax = 25

// batchDeleteRetries bounds how often one chunk's throttled keys are resent
// before the sweep gives up on them.
const batchDeleteRetries = 3

// batchWriter submits one delete round for keys and returns the keys the
// service reported as unprocessed.
type batchWriter func(ctx context.Context, keys []map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error)

// deleteKeys deletes keys in chunks of batchWriteMax via write, retrying
// unprocessed keys. It returns the number of keys actually accepted; keys
// still unprocessed after the retries are excluded from the count.
func deleteKeys(ctx context.Context, keys []map[string]types.AttributeValue, write batchWriter) (int, error) {
	deleted := 0
	for len(keys) > 0 {
		n := len(keys)
		if n > batchWriteMax {
			n = batchWriteMax
		}
		chunk := keys[:n]
		keys = keys[n:]
		for attempt := 0; len(chunk) > 0 && attempt < batchDeleteRetries; attempt++ {
			unprocessed, err := write(ctx, chunk)
			if err != nil {
				return deleted, err
			}
			deleted += len(chunk) - len(unprocessed)
			chunk = unprocessed
		}
	}
	return deleted, nil
}

// isConditionalCheckFailed reports whether err is a failed ConditionExpression.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
