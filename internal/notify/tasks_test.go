package notify

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHandleOrderConfirmation(t *testing.T) {
	w := &Worker{Log: zerolog.Nop()}
	task := asynq.NewTask(TaskOrderConfirmation, []byte(`{"orderNumber":"20260901-AAAA1111","status":"paid","totalAmount":80000}`))
	require.NoError(t, w.handleOrderConfirmation(context.Background(), task))
}

func TestHandleOrderConfirmationRejectsBadPayload(t *testing.T) {
	w := &Worker{Log: zerolog.Nop()}

	task := asynq.NewTask(TaskOrderConfirmation, []byte(`{"broken`))
	require.Error(t, w.handleOrderConfirmation(context.Background(), task))

	task = asynq.NewTask(TaskOrderConfirmation, []byte(`{}`))
	require.Error(t, w.handleOrderConfirmation(context.Background(), task))
}

func TestHandleOrderCancellation(t *testing.T) {
	w := &Worker{Log: zerolog.Nop()}
	task := asynq.NewTask(TaskOrderCancellation, []byte(`{"orderNumber":"20260901-BBBB2222","status":"cancelled"}`))
	require.NoError(t, w.handleOrderCancellation(context.Background(), task))
}
