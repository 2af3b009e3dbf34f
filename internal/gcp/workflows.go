package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowTrigger starts executions of one configured Cloud Workflow. The
// protection pipeline uses it to hand completed assets to the
// post-protection workflow.
type WorkflowTrigger struct {
	client   *executions.Client
	parent   string
	workflow string
}

func NewWorkflowTrigger(ctx context.Context, projectID, location, workflowID string) (*WorkflowTrigger, error) {
	if projectID == "" || location == "" || workflowID == "" {
		return nil, fmt.Errorf("projectID, location and workflowID must be provided to create a workflow trigger")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowTrigger{
		client:   client,
		parent:   fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
		workflow: workflowID,
	}, nil
}

// Trigger starts one execution with the given argument payload.
func (t *WorkflowTrigger) Trigger(ctx context.Context, argument map[string]interface{}) error {
	payloadBytes, err := json.Marshal(argument)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: t.parent,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := t.client.CreateExecution(ctx, req); err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

func (t *WorkflowTrigger) Close() error {
	return t.client.Close()
}
