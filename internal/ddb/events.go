// Package ddb maps post records stored in DynamoDB, and the stream events that
// carry them, to posts.
package ddb

import (
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
)

// OperationType is the event name of a DynamoDB stream record.
type OperationType string

const (
	OperationInsert OperationType = "INSERT"
	OperationModify OperationType = "MODIFY"
	OperationRemove OperationType = "REMOVE"
)

// PostRecord is the item layout of the posts table: the partition key is the
// post id and the sort key names the search index the post belongs to.
type PostRecord struct {
	ID        string     `dynamodbav:"pk"`
	IndexName string     `dynamodbav:"sk"`
	Object    PostObject `dynamodbav:"object"`
}

// PostObject holds the searchable attributes of a post.
type PostObject struct {
	Title     string    `dynamodbav:"title"`
	Content   string    `dynamodbav:"content"`
	Excerpt   string    `dynamodbav:"excerpt,omitempty"`
	Permalink string    `dynamodbav:"permalink"`
	PostType  string    `dynamodbav:"post_type"`
	Status    string    `dynamodbav:"status"`
	Date      time.Time `dynamodbav:"date"`
}

// NewPostRecord builds the table item for post in the given index.
func NewPostRecord(indexName string, post postsearch.Post) PostRecord {
	return PostRecord{
		ID:        post.ID,
		IndexName: indexName,
		Object: PostObject{
			Title:     post.Title,
			Content:   post.Content,
			Excerpt:   post.Excerpt,
			Permalink: post.Permalink,
			PostType:  post.PostType,
			Status:    post.Status,
			Date:      post.Date,
		},
	}
}

// Post returns the post stored in the record.
func (r PostRecord) Post() postsearch.Post {
	return postsearch.Post{
		ID:        r.ID,
		Title:     r.Object.Title,
		Content:   r.Object.Content,
		Excerpt:   r.Object.Excerpt,
		Permalink: r.Object.Permalink,
		PostType:  r.Object.PostType,
		Status:    r.Object.Status,
		Date:      r.Object.Date,
	}
}

// MarshalPostRecord converts a record into a DynamoDB item.
func MarshalPostRecord(record PostRecord) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal post record")
	}
	return item, nil
}

// UnmarshalPostRecord decodes a stream image (or key set) into a PostRecord.
func UnmarshalPostRecord(image map[string]events.DynamoDBAttributeValue) (PostRecord, error) {
	var record PostRecord
	if err := attributevalue.UnmarshalMap(ConvertImage(image), &record); err != nil {
		return PostRecord{}, errors.Wrap(err, "failed to unmarshal post record")
	}
	return record, nil
}

// ConvertImage converts the attribute values of a Lambda stream event into
// SDK attribute values.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) map[string]types.AttributeValue {
	if image == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		out[k] = convertAttribute(v)
	}
	return out
}

func convertAttribute(v events.DynamoDBAttributeValue) types.AttributeValue {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}
	case events.DataTypeList:
		list := v.List()
		out := make([]types.AttributeValue, 0, len(list))
		for _, item := range list {
			out = append(out, convertAttribute(item))
		}
		return &types.AttributeValueMemberL{Value: out}
	case events.DataTypeMap:
		return &types.AttributeValueMemberM{Value: ConvertImage(v.Map())}
	default:
		return &types.AttributeValueMemberNULL{Value: true}
	}
}
