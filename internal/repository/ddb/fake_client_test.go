package ddb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// errInjected is the generic store failure tests inject to exercise
// fan-out error paths.
var errInjected = errors.New("injected store failure")

// fakeDynamoDB is an in-memory DynamoDBClient covering the subset of
// behavior the repositories rely on: conditional puts, point reads and
// deletes, and key-condition queries with begins_with, BETWEEN and
// attribute_exists filters, on both the primary key and the index.
type fakeDynamoDB struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	putCalls     int
	failPutAt    int // 1-based PutItem call to start failing at; 0 disables
	deleteCalls  int
	failDeleteAt int
}

var _ DynamoDBClient = (*fakeDynamoDB)(nil)

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: make(map[string]map[string]types.AttributeValue)}
}

func stringAttr(av types.AttributeValue) (string, bool) {
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

func storageKey(item map[string]types.AttributeValue) (string, error) {
	pk, ok := stringAttr(item[attrPK])
	if !ok {
		return "", fmt.Errorf("item missing string %s", attrPK)
	}
	sk, ok := stringAttr(item[attrSK])
	if !ok {
		return "", fmt.Errorf("item missing string %s", attrSK)
	}
	return pk + "|" + sk, nil
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.putCalls++
	if f.failPutAt != 0 && f.putCalls >= f.failPutAt {
		return nil, errInjected
	}

	key, err := storageKey(params.Item)
	if err != nil {
		return nil, err
	}

	// attribute_not_exists(PK) and attribute_not_exists(SK) both reduce
	// to "no item under this primary key": a stored item always carries
	// both attributes.
	if cond := aws.ToString(params.ConditionExpression); cond != "" {
		if !strings.HasPrefix(cond, "attribute_not_exists(") {
			return nil, fmt.Errorf("unsupported condition expression %q", cond)
		}
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, err := storageKey(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := f.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleteCalls++
	if f.failDeleteAt != 0 && f.deleteCalls >= f.failDeleteAt {
		return nil, errInjected
	}

	key, err := storageKey(params.Key)
	if err != nil {
		return nil, err
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamoDB) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keyCond := substituteNames(aws.ToString(params.KeyConditionExpression), params.ExpressionAttributeNames)
	clauses := splitClauses(keyCond)

	var filter string
	if params.FilterExpression != nil {
		filter = substituteNames(*params.FilterExpression, params.ExpressionAttributeNames)
	}

	var matched []map[string]types.AttributeValue
	for _, item := range f.items {
		ok := true
		for _, clause := range clauses {
			hit, err := matchClause(item, clause, params.ExpressionAttributeValues)
			if err != nil {
				return nil, err
			}
			if !hit {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if filter != "" {
			hit, err := matchFilter(item, filter)
			if err != nil {
				return nil, err
			}
			if !hit {
				continue
			}
		}
		matched = append(matched, item)
	}

	sortAttr := attrSK
	if params.IndexName != nil {
		sortAttr = attrGSI1SK
	}
	sort.Slice(matched, func(i, j int) bool {
		a, _ := stringAttr(matched[i][sortAttr])
		b, _ := stringAttr(matched[j][sortAttr])
		return a < b
	})
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
			matched[i], matched[j] = matched[j], matched[i]
		}
	}

	return &dynamodb.QueryOutput{Items: matched, Count: int32(len(matched))}, nil
}

// substituteNames resolves #n aliases, longest alias first so #1 never
// clobbers #10.
func substituteNames(expr string, names map[string]string) string {
	aliases := make([]string, 0, len(names))
	for alias := range names {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool { return len(aliases[i]) > len(aliases[j]) })
	for _, alias := range aliases {
		expr = strings.ReplaceAll(expr, alias, names[alias])
	}
	return expr
}

// splitClauses breaks a key condition into its one or two conditions.
// The expression builder parenthesizes each operand; hand-written
// conditions do not, but they also never contain BETWEEN, so splitting
// on the bare AND is safe for them.
func splitClauses(expr string) []string {
	if strings.HasPrefix(expr, "(") {
		parts := strings.Split(expr, ") AND (")
		for i, p := range parts {
			p = strings.TrimPrefix(p, "(")
			p = strings.TrimSuffix(p, ")")
			parts[i] = p
		}
		return parts
	}
	return strings.Split(expr, " AND ")
}

func valueOf(values map[string]types.AttributeValue, placeholder string) (string, error) {
	av, ok := values[placeholder]
	if !ok {
		return "", fmt.Errorf("unbound value placeholder %q", placeholder)
	}
	s, ok := stringAttr(av)
	if !ok {
		return "", fmt.Errorf("placeholder %q is not a string", placeholder)
	}
	return s, nil
}

func matchClause(item map[string]types.AttributeValue, clause string, values map[string]types.AttributeValue) (bool, error) {
	switch {
	case strings.Contains(clause, " BETWEEN "):
		fields := strings.Fields(clause)
		if len(fields) != 5 {
			return false, fmt.Errorf("malformed BETWEEN clause %q", clause)
		}
		lo, err := valueOf(values, fields[2])
		if err != nil {
			return false, err
		}
		hi, err := valueOf(values, fields[4])
		if err != nil {
			return false, err
		}
		v, ok := stringAttr(item[fields[0]])
		return ok && lo <= v && v <= hi, nil

	case strings.HasPrefix(clause, "begins_with"):
		inner := strings.TrimSpace(strings.TrimPrefix(clause, "begins_with"))
		inner = strings.TrimPrefix(inner, "(")
		inner = strings.TrimSuffix(inner, ")")
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			return false, fmt.Errorf("malformed begins_with clause %q", clause)
		}
		prefix, err := valueOf(values, strings.TrimSpace(parts[1]))
		if err != nil {
			return false, err
		}
		v, ok := stringAttr(item[strings.TrimSpace(parts[0])])
		return ok && strings.HasPrefix(v, prefix), nil

	case strings.Contains(clause, "="):
		parts := strings.SplitN(clause, "=", 2)
		want, err := valueOf(values, strings.TrimSpace(parts[1]))
		if err != nil {
			return false, err
		}
		v, ok := stringAttr(item[strings.TrimSpace(parts[0])])
		return ok && v == want, nil
	}
	return false, fmt.Errorf("unsupported clause %q", clause)
}

func matchFilter(item map[string]types.AttributeValue, filter string) (bool, error) {
	if !strings.HasPrefix(filter, "attribute_exists") {
		return false, fmt.Errorf("unsupported filter expression %q", filter)
	}
	attr := strings.TrimSpace(strings.TrimPrefix(filter, "attribute_exists"))
	attr = strings.TrimPrefix(attr, "(")
	attr = strings.TrimSuffix(attr, ")")
	_, present := item[strings.TrimSpace(attr)]
	return present, nil
}

// itemCount reports the number of stored items, for fan-out assertions.
func (f *fakeDynamoDB) itemCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// rawItem exposes a stored item for assertions on the physical layout.
func (f *fakeDynamoDB) rawItem(pk, sk string) (map[string]types.AttributeValue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[pk+"|"+sk]
	return item, ok
}
