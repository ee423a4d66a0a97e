package contatos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/agendabr/agenda/pkg/logging"
)

type mockDynamo struct {
	putInputs    []*dynamodb.PutItemInput
	putErr       error
	getInput     *dynamodb.GetItemInput
	getOutput    *dynamodb.GetItemOutput
	getErr       error
	deleteInput  *dynamodb.DeleteItemInput
	deleteOutput *dynamodb.DeleteItemOutput
	deleteErr    error
	scanOutputs  []*dynamodb.ScanOutput
	scanCalls    int
}

func (m *mockDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInputs = append(m.putInputs, in)
	if m.putErr != nil {
		return nil, m.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.getInput = in
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getOutput != nil {
		return m.getOutput, nil
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.deleteInput = in
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	if m.deleteOutput != nil {
		return m.deleteOutput, nil
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if m.scanCalls >= len(m.scanOutputs) {
		return &dynamodb.ScanOutput{}, nil
	}
	out := m.scanOutputs[m.scanCalls]
	m.scanCalls++
	return out, nil
}

func marshalTestItem(t *testing.T, c *Contato) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(toItem(c))
	if err != nil {
		t.Fatalf("failed to marshal test item: %v", err)
	}
	return item
}

func TestDynamoRepository_CreateAssignsIdentity(t *testing.T) {
	mock := &mockDynamo{}
	repo := NewDynamoRepository(mock, "contatos", logging.Default())

	fields := Fields{
		Nome:      "Ana",
		Email:     "ana@x.com",
		MinhaData: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	c, err := repo.Create(context.Background(), fields)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := uuid.Parse(c.ID); err != nil {
		t.Fatalf("expected UUID identifier, got %q", c.ID)
	}
	if c.CriadoEm.IsZero() {
		t.Fatal("expected criadoEm to be populated")
	}

	if len(mock.putInputs) != 1 {
		t.Fatalf("expected 1 PutItem call, got %d", len(mock.putInputs))
	}
	put := mock.putInputs[0]
	if expr := put.ConditionExpression; expr == nil || *expr != "attribute_not_exists(id)" {
		t.Fatalf("expected condition expression to prevent overwrites, got %v", expr)
	}

	var stored contatoItem
	if err := attributevalue.UnmarshalMap(put.Item, &stored); err != nil {
		t.Fatalf("failed to unmarshal stored item: %v", err)
	}
	if stored.Nome != "Ana" || stored.Email != "ana@x.com" {
		t.Fatalf("unexpected stored item: %+v", stored)
	}
	if stored.Sobrenome != "" || stored.Telefone != "" {
		t.Fatalf("expected optional fields stored as empty strings, got %+v", stored)
	}
}

func TestDynamoRepository_GetAbsent(t *testing.T) {
	repo := NewDynamoRepository(&mockDynamo{}, "contatos", logging.Default())

	c, err := repo.Get(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if c != nil {
		t.Fatalf("expected absent record, got %+v", c)
	}
}

func TestDynamoRepository_GetRoundTrip(t *testing.T) {
	want := &Contato{
		ID:        uuid.NewString(),
		Nome:      "Ana",
		Email:     "ana@x.com",
		MinhaData: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		CriadoEm:  time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	mock := &mockDynamo{}
	repo := NewDynamoRepository(mock, "contatos", logging.Default())
	mock.getOutput = &dynamodb.GetItemOutput{Item: marshalTestItem(t, want)}

	got, err := repo.Get(context.Background(), want.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if got.ID != want.ID || got.Nome != want.Nome || !got.MinhaData.Equal(want.MinhaData) || !got.CriadoEm.Equal(want.CriadoEm) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDynamoRepository_ReplacePreservesIdentity(t *testing.T) {
	existing := &Contato{
		ID:        uuid.NewString(),
		Nome:      "Ana",
		Email:     "ana@x.com",
		MinhaData: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		CriadoEm:  time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	mock := &mockDynamo{getOutput: &dynamodb.GetItemOutput{Item: marshalTestItem(t, existing)}}
	repo := NewDynamoRepository(mock, "contatos", logging.Default())

	updated, err := repo.Replace(context.Background(), existing.ID, Fields{
		Nome:      "Ana B.",
		Telefone:  "555-1234",
		MinhaData: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated record")
	}

	if updated.ID != existing.ID {
		t.Errorf("expected id preserved, got %s", updated.ID)
	}
	if !updated.CriadoEm.Equal(existing.CriadoEm) {
		t.Errorf("expected criadoEm preserved, got %v", updated.CriadoEm)
	}
	// Full replace, not merge.
	if updated.Email != "" || updated.Sobrenome != "" {
		t.Errorf("expected omitted fields cleared, got %+v", updated)
	}
	if updated.Telefone != "555-1234" {
		t.Errorf("expected telefone replaced, got %q", updated.Telefone)
	}

	if len(mock.putInputs) != 1 {
		t.Fatalf("expected 1 PutItem call, got %d", len(mock.putInputs))
	}
	if expr := mock.putInputs[0].ConditionExpression; expr == nil || *expr != "attribute_exists(id)" {
		t.Fatalf("expected existence condition on replace, got %v", expr)
	}
}

func TestDynamoRepository_ReplaceAbsent(t *testing.T) {
	mock := &mockDynamo{}
	repo := NewDynamoRepository(mock, "contatos", logging.Default())

	c, err := repo.Replace(context.Background(), uuid.NewString(), Fields{Nome: "Ana"})
	if err != nil {
		t.Fatalf("Replace returned error: %v", err)
	}
	if c != nil {
		t.Fatalf("expected absent result, got %+v", c)
	}
	if len(mock.putInputs) != 0 {
		t.Fatal("expected no write for absent record")
	}
}

func TestDynamoRepository_DeleteReturnsRemoved(t *testing.T) {
	removed := &Contato{
		ID:        uuid.NewString(),
		Nome:      "Ana",
		Telefone:  "555-1234",
		MinhaData: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		CriadoEm:  time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	mock := &mockDynamo{deleteOutput: &dynamodb.DeleteItemOutput{Attributes: marshalTestItem(t, removed)}}
	repo := NewDynamoRepository(mock, "contatos", logging.Default())

	got, err := repo.Delete(context.Background(), removed.ID)
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if got == nil || got.ID != removed.ID {
		t.Fatalf("expected removed record back, got %+v", got)
	}
	if mock.deleteInput.ReturnValues != types.ReturnValueAllOld {
		t.Fatalf("expected ALL_OLD return values, got %v", mock.deleteInput.ReturnValues)
	}
}

func TestDynamoRepository_DeleteAbsent(t *testing.T) {
	repo := NewDynamoRepository(&mockDynamo{}, "contatos", logging.Default())

	got, err := repo.Delete(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected absent result, got %+v", got)
	}
}

func TestDynamoRepository_ListSortsDescendingAcrossPages(t *testing.T) {
	older := &Contato{ID: uuid.NewString(), Nome: "Antiga", MinhaData: time.Now(), CriadoEm: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &Contato{ID: uuid.NewString(), Nome: "Recente", MinhaData: time.Now(), CriadoEm: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}

	mock := &mockDynamo{scanOutputs: []*dynamodb.ScanOutput{
		{
			Items:            []map[string]types.AttributeValue{marshalTestItem(t, older)},
			LastEvaluatedKey: itemKey(older.ID),
		},
		{
			Items: []map[string]types.AttributeValue{marshalTestItem(t, newer)},
		},
	}}
	repo := NewDynamoRepository(mock, "contatos", logging.Default())

	records, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Nome != "Recente" || records[1].Nome != "Antiga" {
		t.Fatalf("expected descending criadoEm order, got %v then %v", records[0].Nome, records[1].Nome)
	}
	if mock.scanCalls != 2 {
		t.Fatalf("expected paginated scan, got %d calls", mock.scanCalls)
	}
}

func TestDynamoRepository_CreateStorageFailure(t *testing.T) {
	mock := &mockDynamo{putErr: errors.New("throttled")}
	repo := NewDynamoRepository(mock, "contatos", logging.Default())

	_, err := repo.Create(context.Background(), Fields{Nome: "Ana", MinhaData: time.Now()})
	if err == nil {
		t.Fatal("expected storage error to propagate")
	}
}
