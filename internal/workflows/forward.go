package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/aptscout/internal/core/domain"
)

const (
	activityPostToTable = "PostToTable"
	activityPostToChat  = "PostToChat"
)

// ForwardListingWorkflow posts a matched listing to the table, then to chat.
// A chat failure after the table write is returned without undoing the row.
func ForwardListingWorkflow(ctx workflow.Context, l domain.Listing) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Forwarding listing", "listingID", l.ID, "area", l.Area)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 2 * time.Second,
			MaximumAttempts: 3,
		},
	})

	if err := workflow.ExecuteActivity(ctx, activityPostToTable, l).Get(ctx, nil); err != nil {
		logger.Error("table post failed", "listingID", l.ID, "error", err)
		return err
	}

	if err := workflow.ExecuteActivity(ctx, activityPostToChat, l).Get(ctx, nil); err != nil {
		logger.Warn("chat post failed after table write", "listingID", l.ID, "error", err)
		return err
	}

	logger.Info("Listing forwarded", "listingID", l.ID)
	return nil
}

// WorkflowID is stable per listing so redelivered events start nothing new.
func WorkflowID(listingID string) string {
	return "forward-" + listingID
}

// Starter is the part of client.Client used to start workflows.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// StartForward starts ForwardListingWorkflow for l on taskQueue. A listing
// that was already forwarded is not an error.
func StartForward(ctx context.Context, c Starter, taskQueue string, l *domain.Listing) error {
	_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    WorkflowID(l.ID),
		TaskQueue:             taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, ForwardListingWorkflow, *l)

	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("start forward workflow %s: %w", l.ID, err)
	}
	return nil
}
