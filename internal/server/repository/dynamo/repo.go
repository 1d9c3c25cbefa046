// Package dynamo stores user and token records in a single DynamoDB table.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Miura55/freee-labor-bot/internal/server/repository"
	"github.com/Miura55/freee-labor-bot/internal/shared/models"
)

const (
	userSK  = "PROFILE"
	tokenSK = "TOKEN"
)

// API is the subset of the DynamoDB client used by Repo.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Repo wraps a DynamoDB client and table name.
type Repo struct {
	DB    API
	Table string
}

type userItem struct {
	PK                 string    `dynamodbav:"PK"`
	SK                 string    `dynamodbav:"SK"`
	UserID             string    `dynamodbav:"user_id"`
	EmployeeID         string    `dynamodbav:"employee_id"`
	AwaitingCorrection bool      `dynamodbav:"awaiting_correction"`
	CreatedAt          time.Time `dynamodbav:"created_at"`
	UpdatedAt          time.Time `dynamodbav:"updated_at"`
}

type tokenItem struct {
	PK           string    `dynamodbav:"PK"`
	SK           string    `dynamodbav:"SK"`
	TenantID     string    `dynamodbav:"tenant_id"`
	AccessToken  string    `dynamodbav:"access_token"`
	RefreshToken string    `dynamodbav:"refresh_token"`
	ExpiresAt    time.Time `dynamodbav:"expires_at"`
	UpdatedAt    time.Time `dynamodbav:"updated_at"`
}

// UserKey returns the partition key of a user record.
func UserKey(userID string) string { return "USER#" + userID }

// TokenKey returns the partition key of a tenant's token record.
func TokenKey(tenantID string) string { return "TENANT#" + tenantID }

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// CreateUser inserts a new user record, refusing to overwrite an existing one.
func (r *Repo) CreateUser(ctx context.Context, u models.UserRecord) error {
	now := time.Now().UTC()
	item, err := attributevalue.MarshalMap(userItem{
		PK:                 UserKey(u.UserID),
		SK:                 userSK,
		UserID:             u.UserID,
		EmployeeID:         u.EmployeeID,
		AwaitingCorrection: u.AwaitingCorrection,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		return err
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.Table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if isConditionFailed(err) {
		return repository.ErrAlreadyExists
	}
	return err
}

func (r *Repo) GetUser(ctx context.Context, userID string) (models.UserRecord, error) {
	out, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.Table),
		Key:            key(UserKey(userID), userSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return models.UserRecord{}, err
	}
	if len(out.Item) == 0 {
		return models.UserRecord{}, repository.ErrNotFound
	}
	var it userItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return models.UserRecord{}, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return models.UserRecord{
		UserID:             it.UserID,
		EmployeeID:         it.EmployeeID,
		AwaitingCorrection: it.AwaitingCorrection,
		CreatedAt:          it.CreatedAt,
		UpdatedAt:          it.UpdatedAt,
	}, nil
}

func (r *Repo) SetAwaitingCorrection(ctx context.Context, userID string, awaiting bool) error {
	_, err := r.DB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.Table),
		Key:                 key(UserKey(userID), userSK),
		UpdateExpression:    aws.String("SET awaiting_correction = :a, updated_at = :u"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberBOOL{Value: awaiting},
			":u": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if isConditionFailed(err) {
		return repository.ErrNotFound
	}
	return err
}

func (r *Repo) DeleteUser(ctx context.Context, userID string) error {
	out, err := r.DB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.Table),
		Key:          key(UserKey(userID), userSK),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return err
	}
	if len(out.Attributes) == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *Repo) PutToken(ctx context.Context, t models.BearerToken) error {
	item, err := attributevalue.MarshalMap(tokenItem{
		PK:           TokenKey(t.TenantID),
		SK:           tokenSK,
		TenantID:     t.TenantID,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    t.ExpiresAt.UTC(),
		UpdatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.Table),
		Item:      item,
	})
	return err
}

func (r *Repo) GetToken(ctx context.Context, tenantID string) (models.BearerToken, error) {
	out, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.Table),
		Key:            key(TokenKey(tenantID), tokenSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return models.BearerToken{}, err
	}
	if len(out.Item) == 0 {
		return models.BearerToken{}, repository.ErrNotFound
	}
	var it tokenItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return models.BearerToken{}, fmt.Errorf("decode token %s: %w", tenantID, err)
	}
	return models.BearerToken{
		TenantID:     it.TenantID,
		AccessToken:  it.AccessToken,
		RefreshToken: it.RefreshToken,
		ExpiresAt:    it.ExpiresAt,
		UpdatedAt:    it.UpdatedAt,
	}, nil
}

// Close is a no-op; the DynamoDB client holds no resources to release.
func (r *Repo) Close() error { return nil }

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
