package fakes

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// FakeSTSClient is an in-memory implementation of vault.STSAPI.
type FakeSTSClient struct {
	Account string
	ARN     string
	UserID  string

	Err error

	GetCallerIdentityFunc func(ctx context.Context, params *sts.GetCallerIdentityInput) (*sts.GetCallerIdentityOutput, error)

	IdentityCalls int
}

// NewFakeSTSClient creates a fake reporting a fixed test identity.
func NewFakeSTSClient() *FakeSTSClient {
	return &FakeSTSClient{
		Account: "123456789012",
		ARN:     "arn:aws:iam::123456789012:user/test",
		UserID:  "AIDAFAKEUSER",
	}
}

func (f *FakeSTSClient) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.IdentityCalls++
	if f.GetCallerIdentityFunc != nil {
		return f.GetCallerIdentityFunc(ctx, params)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return &sts.GetCallerIdentityOutput{
		Account: aws.String(f.Account),
		Arn:     aws.String(f.ARN),
		UserId:  aws.String(f.UserID),
	}, nil
}
