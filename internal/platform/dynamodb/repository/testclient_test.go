package repository

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TestClient is an in-memory implementation of the DynamoDB client interface for testing.
// It understands the condition and update expressions the repositories issue.
type TestClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
}

// NewTestClient creates a new test client with an empty items map
func NewTestClient() *TestClient {
	return &TestClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func itemKey(key map[string]types.AttributeValue) string {
	pk := key["PK"].(*types.AttributeValueMemberS).Value
	sk := key["SK"].(*types.AttributeValueMemberS).Value
	return pk + "#" + sk
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func resolveName(name string, names map[string]string) string {
	if strings.HasPrefix(name, "#") {
		return names[name]
	}
	return name
}

func scalar(v types.AttributeValue) string {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + tv.Value
	case *types.AttributeValueMemberN:
		return "N:" + tv.Value
	case *types.AttributeValueMemberBOOL:
		return "BOOL:" + strconv.FormatBool(tv.Value)
	}
	return ""
}

// check evaluates a condition made of clauses joined by AND
func (c *TestClient) check(key string, condition *string, names map[string]string, values map[string]types.AttributeValue) bool {
	if condition == nil {
		return true
	}
	existing, exists := c.items[key]
	for _, clause := range strings.Split(*condition, " AND ") {
		clause = strings.TrimSpace(clause)
		switch {
		case clause == "attribute_not_exists(PK)":
			if exists {
				return false
			}
		case clause == "attribute_exists(PK)":
			if !exists {
				return false
			}
		default:
			parts := strings.SplitN(clause, " = ", 2)
			if len(parts) != 2 || !exists {
				return false
			}
			if scalar(existing[resolveName(parts[0], names)]) != scalar(values[parts[1]]) {
				return false
			}
		}
	}
	return true
}

// apply runs a "SET a = :x, ... ADD b :y" update against a copy of the stored item
func (c *TestClient) apply(key string, keyAttrs map[string]types.AttributeValue, update string, names map[string]string, values map[string]types.AttributeValue) {
	item := copyItem(c.items[key])
	for k, v := range keyAttrs {
		item[k] = v
	}
	setPart, addPart, _ := strings.Cut(update, " ADD ")
	setPart = strings.TrimPrefix(setPart, "SET ")
	for _, assignment := range strings.Split(setPart, ",") {
		attr, value, ok := strings.Cut(strings.TrimSpace(assignment), " = ")
		if ok {
			item[resolveName(attr, names)] = values[value]
		}
	}
	if addPart != "" {
		fields := strings.Fields(addPart)
		attr := resolveName(fields[0], names)
		delta, _ := strconv.ParseInt(values[fields[1]].(*types.AttributeValueMemberN).Value, 10, 64)
		var current int64
		if n, ok := item[attr].(*types.AttributeValueMemberN); ok {
			current, _ = strconv.ParseInt(n.Value, 10, 64)
		}
		item[attr] = &types.AttributeValueMemberN{Value: strconv.FormatInt(current+delta, 10)}
	}
	c.items[key] = item
}

// GetItem retrieves an item from the in-memory store
func (c *TestClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, exists := c.items[itemKey(params.Key)]; exists {
		return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
	}
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{}}, nil
}

// PutItem adds or replaces an item in the in-memory store
func (c *TestClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := itemKey(params.Item)
	if !c.check(key, params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	c.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// UpdateItem applies an update expression to an item
func (c *TestClient) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := itemKey(params.Key)
	if !c.check(key, params.ConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	c.apply(key, params.Key, aws.ToString(params.UpdateExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	return &dynamodb.UpdateItemOutput{}, nil
}

var (
	equalPattern      = regexp.MustCompile(`(#\w+) = (:\w+)`)
	beginsWithPattern = regexp.MustCompile(`begins_with\s*\((#\w+),\s*(:\w+)\)`)
)

// Query supports an equality on PK with an optional begins_with on SK
func (c *TestClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	condition := aws.ToString(params.KeyConditionExpression)
	var pk, prefix string
	if m := equalPattern.FindStringSubmatch(condition); m != nil {
		pk = params.ExpressionAttributeValues[m[2]].(*types.AttributeValueMemberS).Value
	}
	if m := beginsWithPattern.FindStringSubmatch(condition); m != nil {
		prefix = params.ExpressionAttributeValues[m[2]].(*types.AttributeValueMemberS).Value
	}

	var items []map[string]types.AttributeValue
	for _, item := range c.items {
		if item["PK"].(*types.AttributeValueMemberS).Value != pk {
			continue
		}
		if strings.HasPrefix(item["SK"].(*types.AttributeValueMemberS).Value, prefix) {
			items = append(items, copyItem(item))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i]["SK"].(*types.AttributeValueMemberS).Value < items[j]["SK"].(*types.AttributeValueMemberS).Value
	})
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

// TransactWriteItems checks every condition before applying any write
func (c *TestClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, w := range params.TransactItems {
		ok := true
		switch {
		case w.Put != nil:
			ok = c.check(itemKey(w.Put.Item), w.Put.ConditionExpression, w.Put.ExpressionAttributeNames, w.Put.ExpressionAttributeValues)
		case w.Update != nil:
			ok = c.check(itemKey(w.Update.Key), w.Update.ConditionExpression, w.Update.ExpressionAttributeNames, w.Update.ExpressionAttributeValues)
		}
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
		if !ok {
			failed = true
			reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
		}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, w := range params.TransactItems {
		switch {
		case w.Put != nil:
			c.items[itemKey(w.Put.Item)] = copyItem(w.Put.Item)
		case w.Update != nil:
			c.apply(itemKey(w.Update.Key), w.Update.Key, aws.ToString(w.Update.UpdateExpression), w.Update.ExpressionAttributeNames, w.Update.ExpressionAttributeValues)
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}
