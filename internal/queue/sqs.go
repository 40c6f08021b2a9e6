package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/slidegate/review-engine/internal/review"
)

// SQSAPI is the subset of the SQS client the queue uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue transports jobs over an SQS queue. Messages are deleted once
// handed to the caller, so an invocation that dies mid-review loses the job;
// re-submission happens from outside.
type SQSQueue struct {
	client   SQSAPI
	queueURL string
}

// NewSQSQueue creates an SQS-backed queue.
func NewSQSQueue(client SQSAPI, queueURL string) *SQSQueue {
	return &SQSQueue{client: client, queueURL: queueURL}
}

// Enqueue sends the job as one message.
func (q *SQSQueue) Enqueue(ctx context.Context, job review.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal review job: %w", err)
	}
	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(data)),
	})
	if err != nil {
		return fmt.Errorf("sqs send: %w", err)
	}
	return nil
}

// Dequeue long-polls for the next job.
func (q *SQSQueue) Dequeue(ctx context.Context) (review.Job, bool, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   300,
	})
	if err != nil {
		return review.Job{}, false, fmt.Errorf("sqs receive: %w", err)
	}
	if len(out.Messages) == 0 {
		return review.Job{}, false, nil
	}

	msg := out.Messages[0]
	var job review.Job
	if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &job); err != nil {
		return review.Job{}, false, fmt.Errorf("unmarshal review job: %w", err)
	}

	if _, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		return review.Job{}, false, fmt.Errorf("sqs delete: %w", err)
	}
	return job, true, nil
}
