package relay

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"meet-lab/domain"
	"meet-lab/domain/event"
	"meet-lab/mocks"
	"meet-lab/observability"
)

func newTestRelay(registry *mocks.MockIRegistry) (*Relay, *observability.Monitoring) {
	monitoring := observability.NewMonitoring()
	return NewRelay(slog.Default(), registry, monitoring, time.Second), monitoring
}

func TestRelay_RelaySignal_ToLiveTarget(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	relay, monitoring := newTestRelay(registry)

	payload := json.RawMessage(`{"sdp":"offer"}`)
	registry.EXPECT().Sink("conn-2").Return(sink, true)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, e event.DomainEvent) error {
			direct, ok := e.(event.DirectSignal)
			req.True(ok)
			req.Equal("conn-1", direct.CallerID)
			req.JSONEq(string(payload), string(direct.Data))
			return nil
		})

	relay.RelaySignal("conn-1", "m-1", "conn-2", payload)

	req.Equal(uint64(1), monitoring.GetLatest().SignalsRelayed)
}

func TestRelay_RelaySignal_DeadTargetIsDropped(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockIRegistry(ctrl)
	relay, monitoring := newTestRelay(registry)

	registry.EXPECT().Sink("ghost").Return(nil, false)

	// No retry, no error: the payload is dropped and counted
	relay.RelaySignal("conn-1", "m-1", "ghost", json.RawMessage(`{}`))

	req.Equal(uint64(1), monitoring.GetLatest().SignalsDropped)
}

func TestRelay_Broadcast_ExcludesSender(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	relay, _ := newTestRelay(registry)

	e := event.SignalBroadcast{Meeting: "m-1", FromID: "conn-1", Data: json.RawMessage(`{}`)}

	registry.EXPECT().ConnectionsInRoom(domain.MeetingID("m-1")).
		Return([]string{"conn-1", "conn-2", "conn-3"})
	// conn-1 is excluded so only two sinks are resolved
	registry.EXPECT().Sink("conn-2").Return(sink, true)
	registry.EXPECT().Sink("conn-3").Return(sink, true)
	sink.EXPECT().Consume(gomock.Any(), e).Return(nil).Times(2)

	relay.Broadcast("m-1", e, "conn-1")
}

func TestRelay_ToConnection(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	relay, _ := newTestRelay(registry)

	e := event.MeetingEnded{Meeting: "m-1"}
	registry.EXPECT().Sink("conn-1").Return(sink, true)
	sink.EXPECT().Consume(gomock.Any(), e).Return(nil)

	req.True(relay.ToConnection("conn-1", e))

	registry.EXPECT().Sink("ghost").Return(nil, false)
	req.False(relay.ToConnection("ghost", e))
}
