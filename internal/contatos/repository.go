package contatos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/agendabr/agenda/pkg/logging"
)

// Repository persists Contato records. Lookups return (nil, nil) when no
// record matches, so absence is never an error.
type Repository interface {
	Create(ctx context.Context, f Fields) (*Contato, error)
	Get(ctx context.Context, id string) (*Contato, error)
	Replace(ctx context.Context, id string, f Fields) (*Contato, error)
	Delete(ctx context.Context, id string) (*Contato, error)
	List(ctx context.Context) ([]Contato, error)
}

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// contatoItem is the stored shape. Timestamps are RFC3339Nano strings.
type contatoItem struct {
	ID        string `dynamodbav:"id"`
	Nome      string `dynamodbav:"nome"`
	Sobrenome string `dynamodbav:"sobrenome"`
	Email     string `dynamodbav:"email"`
	Telefone  string `dynamodbav:"telefone"`
	MinhaData string `dynamodbav:"minhadata"`
	CriadoEm  string `dynamodbav:"criadoEm"`
}

// DynamoRepository stores Contato records in a DynamoDB table keyed by id.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	tracer    trace.Tracer
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("contatos: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("contatos: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		tracer:    otel.Tracer("agenda.internal.contatos"),
		logger:    logger,
	}
}

// Create inserts a new record, assigning its identifier and criadoEm.
func (r *DynamoRepository) Create(ctx context.Context, f Fields) (*Contato, error) {
	ctx, span := r.tracer.Start(ctx, "contatos.create")
	defer span.End()

	c := &Contato{
		ID:        uuid.NewString(),
		Nome:      f.Nome,
		Sobrenome: f.Sobrenome,
		Email:     f.Email,
		Telefone:  f.Telefone,
		MinhaData: f.MinhaData,
		CriadoEm:  time.Now().UTC(),
	}

	item, err := attributevalue.MarshalMap(toItem(c))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("contatos: failed to marshal record: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("contatos: failed to persist record: %w", err)
	}
	return c, nil
}

// Get returns the record with the given id, or (nil, nil) when absent.
func (r *DynamoRepository) Get(ctx context.Context, id string) (*Contato, error) {
	ctx, span := r.tracer.Start(ctx, "contatos.get")
	defer span.End()

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       itemKey(id),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("contatos: failed to load record: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return unmarshalItem(out.Item)
}

// Replace overwrites the five editable fields of an existing record,
// preserving its id and criadoEm. Returns (nil, nil) when the record does
// not exist.
func (r *DynamoRepository) Replace(ctx context.Context, id string, f Fields) (*Contato, error) {
	ctx, span := r.tracer.Start(ctx, "contatos.replace")
	defer span.End()

	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	updated := &Contato{
		ID:        existing.ID,
		Nome:      f.Nome,
		Sobrenome: f.Sobrenome,
		Email:     f.Email,
		Telefone:  f.Telefone,
		MinhaData: f.MinhaData,
		CriadoEm:  existing.CriadoEm,
	}

	item, err := attributevalue.MarshalMap(toItem(updated))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("contatos: failed to marshal record: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			// Deleted between the read and the write.
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("contatos: failed to replace record: %w", err)
	}
	return updated, nil
}

// Delete removes the record with the given id and returns it, or (nil, nil)
// when nothing matched.
func (r *DynamoRepository) Delete(ctx context.Context, id string) (*Contato, error) {
	ctx, span := r.tracer.Start(ctx, "contatos.delete")
	defer span.End()

	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          itemKey(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("contatos: failed to delete record: %w", err)
	}
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	return unmarshalItem(out.Attributes)
}

// List returns every record sorted by criadoEm descending.
func (r *DynamoRepository) List(ctx context.Context) ([]Contato, error) {
	ctx, span := r.tracer.Start(ctx, "contatos.list")
	defer span.End()

	var records []Contato
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("contatos: failed to list records: %w", err)
		}
		for _, item := range out.Items {
			c, err := unmarshalItem(item)
			if err != nil {
				return nil, err
			}
			records = append(records, *c)
		}
		if out.LastEvaluatedKey == nil {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CriadoEm.After(records[j].CriadoEm)
	})
	return records, nil
}

func itemKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func toItem(c *Contato) contatoItem {
	return contatoItem{
		ID:        c.ID,
		Nome:      c.Nome,
		Sobrenome: c.Sobrenome,
		Email:     c.Email,
		Telefone:  c.Telefone,
		MinhaData: c.MinhaData.Format(time.RFC3339Nano),
		CriadoEm:  c.CriadoEm.Format(time.RFC3339Nano),
	}
}

func unmarshalItem(attrs map[string]types.AttributeValue) (*Contato, error) {
	var item contatoItem
	if err := attributevalue.UnmarshalMap(attrs, &item); err != nil {
		return nil, fmt.Errorf("contatos: failed to unmarshal record: %w", err)
	}

	minhaData, err := time.Parse(time.RFC3339Nano, item.MinhaData)
	if err != nil {
		return nil, fmt.Errorf("contatos: stored minhadata is invalid: %w", err)
	}
	criadoEm, err := time.Parse(time.RFC3339Nano, item.CriadoEm)
	if err != nil {
		return nil, fmt.Errorf("contatos: stored criadoEm is invalid: %w", err)
	}

	return &Contato{
		ID:        item.ID,
		Nome:      item.Nome,
		Sobrenome: item.Sobrenome,
		Email:     item.Email,
		Telefone:  item.Telefone,
		MinhaData: minhaData,
		CriadoEm:  criadoEm,
	}, nil
}
