package fakes

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cfntypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
)

// FakeStack holds the state of one fake CloudFormation stack.
type FakeStack struct {
	ID           string
	TemplateBody string
	Parameters   map[string]string
	Outputs      map[string]string

	// StatusSequence is consumed one entry per DescribeStacks call; the
	// last entry repeats. This simulates IN_PROGRESS → terminal polling.
	StatusSequence []cfntypes.StackStatus
	statusIndex    int
}

func (s *FakeStack) currentStatus() cfntypes.StackStatus {
	if len(s.StatusSequence) == 0 {
		return cfntypes.StackStatusCreateComplete
	}
	status := s.StatusSequence[s.statusIndex]
	if s.statusIndex < len(s.StatusSequence)-1 {
		s.statusIndex++
	}
	return status
}

// FakeCloudFormationClient is an in-memory implementation of
// stack.CloudFormationAPI.
type FakeCloudFormationClient struct {
	mu sync.Mutex

	// Stacks maps stack names to their fake state.
	Stacks map[string]*FakeStack

	// Errors returned verbatim when set.
	CreateError   error
	UpdateError   error
	DescribeError error

	// Optional per-call overrides.
	CreateStackFunc    func(ctx context.Context, params *cloudformation.CreateStackInput) (*cloudformation.CreateStackOutput, error)
	UpdateStackFunc    func(ctx context.Context, params *cloudformation.UpdateStackInput) (*cloudformation.UpdateStackOutput, error)
	DescribeStacksFunc func(ctx context.Context, params *cloudformation.DescribeStacksInput) (*cloudformation.DescribeStacksOutput, error)
	GetTemplateFunc    func(ctx context.Context, params *cloudformation.GetTemplateInput) (*cloudformation.GetTemplateOutput, error)

	// Call counters. CreateCalls and UpdateCalls are the mutation counters
	// idempotence tests assert on.
	CreateCalls   int
	UpdateCalls   int
	DescribeCalls int
	TemplateCalls int
}

// NewFakeCloudFormationClient creates a fake with no stacks.
func NewFakeCloudFormationClient() *FakeCloudFormationClient {
	return &FakeCloudFormationClient{Stacks: make(map[string]*FakeStack)}
}

func (f *FakeCloudFormationClient) CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++

	if f.CreateStackFunc != nil {
		return f.CreateStackFunc(ctx, params)
	}
	if f.CreateError != nil {
		return nil, f.CreateError
	}

	name := aws.ToString(params.StackName)
	if _, exists := f.Stacks[name]; exists {
		return nil, fmt.Errorf("AlreadyExistsException: Stack [%s] already exists", name)
	}

	parameters := make(map[string]string)
	for _, p := range params.Parameters {
		parameters[aws.ToString(p.ParameterKey)] = aws.ToString(p.ParameterValue)
	}

	stack := &FakeStack{
		ID:           fmt.Sprintf("arn:aws:cloudformation:eu-west-1:123456789012:stack/%s/fake", name),
		TemplateBody: aws.ToString(params.TemplateBody),
		Parameters:   parameters,
		Outputs: map[string]string{
			"vaultBucketName": parameters["paramBucketName"],
			"kmsKeyArn":       "arn:aws:kms:eu-west-1:123456789012:key/fake-" + name,
		},
		StatusSequence: []cfntypes.StackStatus{
			cfntypes.StackStatusCreateInProgress,
			cfntypes.StackStatusCreateComplete,
		},
	}
	f.Stacks[name] = stack

	return &cloudformation.CreateStackOutput{StackId: aws.String(stack.ID)}, nil
}

func (f *FakeCloudFormationClient) UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, _ ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++

	if f.UpdateStackFunc != nil {
		return f.UpdateStackFunc(ctx, params)
	}
	if f.UpdateError != nil {
		return nil, f.UpdateError
	}

	name := aws.ToString(params.StackName)
	stack, exists := f.Stacks[name]
	if !exists {
		return nil, fmt.Errorf("ValidationError: Stack [%s] does not exist", name)
	}
	if stack.TemplateBody == aws.ToString(params.TemplateBody) {
		return nil, fmt.Errorf("ValidationError: No updates are to be performed.")
	}

	stack.TemplateBody = aws.ToString(params.TemplateBody)
	stack.StatusSequence = []cfntypes.StackStatus{
		cfntypes.StackStatusUpdateInProgress,
		cfntypes.StackStatusUpdateComplete,
	}
	stack.statusIndex = 0

	return &cloudformation.UpdateStackOutput{StackId: aws.String(stack.ID)}, nil
}

func (f *FakeCloudFormationClient) DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, _ ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DescribeCalls++

	if f.DescribeStacksFunc != nil {
		return f.DescribeStacksFunc(ctx, params)
	}
	if f.DescribeError != nil {
		return nil, f.DescribeError
	}

	name := aws.ToString(params.StackName)
	stack, exists := f.Stacks[name]
	if !exists {
		return nil, fmt.Errorf("ValidationError: Stack with id %s does not exist", name)
	}

	out := cfntypes.Stack{
		StackName:   aws.String(name),
		StackId:     aws.String(stack.ID),
		StackStatus: stack.currentStatus(),
	}
	for key, value := range stack.Outputs {
		out.Outputs = append(out.Outputs, cfntypes.Output{
			OutputKey:   aws.String(key),
			OutputValue: aws.String(value),
		})
	}

	return &cloudformation.DescribeStacksOutput{Stacks: []cfntypes.Stack{out}}, nil
}

func (f *FakeCloudFormationClient) GetTemplate(ctx context.Context, params *cloudformation.GetTemplateInput, _ ...func(*cloudformation.Options)) (*cloudformation.GetTemplateOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TemplateCalls++

	if f.GetTemplateFunc != nil {
		return f.GetTemplateFunc(ctx, params)
	}

	name := aws.ToString(params.StackName)
	stack, exists := f.Stacks[name]
	if !exists {
		return nil, fmt.Errorf("ValidationError: Stack with id %s does not exist", name)
	}
	return &cloudformation.GetTemplateOutput{TemplateBody: aws.String(stack.TemplateBody)}, nil
}
