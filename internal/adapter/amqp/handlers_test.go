package amqp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/hookah/internal/adapter/logger"
	"github.com/YelzhanWeb/hookah/internal/domain"
	"github.com/YelzhanWeb/hookah/internal/interfaces"
)

type recordingDispatch struct {
	got []interfaces.ActionCommandMessage
}

func (r *recordingDispatch) ProcessCommand(_ context.Context, msg interfaces.ActionCommandMessage) error {
	r.got = append(r.got, msg)
	return nil
}

func TestHandleAction(t *testing.T) {
	dispatch := &recordingDispatch{}
	h := NewActionHandler(dispatch, logger.Nop())

	body, err := json.Marshal(interfaces.ActionCommandMessage{
		SessionID: "s1", UserID: "user-1", Action: domain.EncodeAction(domain.MarkOut{}),
	})
	require.NoError(t, err)
	require.NoError(t, h.HandleAction(context.Background(), body))
	require.Len(t, dispatch.got, 1)
	assert.Equal(t, domain.KindMarkOut, dispatch.got[0].Action.Type)

	assert.ErrorIs(t, h.HandleAction(context.Background(), []byte("{")), interfaces.ErrPermanent)
	assert.ErrorIs(t, h.HandleAction(context.Background(), []byte(`{"session_id":"s1"}`)), interfaces.ErrPermanent)
	assert.Len(t, dispatch.got, 1)
}

func TestHandleNotification(t *testing.T) {
	var out bytes.Buffer
	h := NewNotificationHandler(logger.Nop(), &out)

	body, err := json.Marshal(interfaces.StatusUpdateMessage{
		SessionID: "s1", Table: "T-4", Action: domain.KindMarkOut,
		OldState: domain.StateReady, NewState: domain.StateOut, ChangedBy: "Alex Runner",
	})
	require.NoError(t, err)
	require.NoError(t, h.HandleNotification(context.Background(), body))
	assert.Equal(t, "Table T-4 (session s1): READY -> OUT via MARK_OUT by Alex Runner\n", out.String())

	assert.Error(t, h.HandleNotification(context.Background(), []byte("nope")))
}
