package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name    string
		from    Status
		event   Event
		want    Status
		illegal bool
	}{
		{name: "staged syncs", from: StatusStaged, event: EventSyncSucceeded, want: StatusSynced},
		{name: "synced re-syncs", from: StatusSynced, event: EventSyncSucceeded, want: StatusSynced},
		{name: "error retries into synced", from: StatusError, event: EventSyncSucceeded, want: StatusSynced},
		{name: "staged fails", from: StatusStaged, event: EventSyncFailed, want: StatusError},
		{name: "synced fails", from: StatusSynced, event: EventSyncFailed, want: StatusError},
		{name: "archived cannot sync", from: StatusArchived, event: EventSyncSucceeded, illegal: true},
		{name: "archived cannot fail a sync", from: StatusArchived, event: EventSyncFailed, illegal: true},
		{name: "reapply re-stages synced", from: StatusSynced, event: EventPricingReapplied, want: StatusStaged},
		{name: "reapply keeps staged", from: StatusStaged, event: EventPricingReapplied, want: StatusStaged},
		{name: "reapply skips error", from: StatusError, event: EventPricingReapplied, illegal: true},
		{name: "reapply skips archived", from: StatusArchived, event: EventPricingReapplied, illegal: true},
		{name: "disable archives staged", from: StatusStaged, event: EventManufacturerDisabled, want: StatusArchived},
		{name: "disable archives synced", from: StatusSynced, event: EventManufacturerDisabled, want: StatusArchived},
		{name: "ingest revives archived", from: StatusArchived, event: EventIngested, want: StatusStaged},
		{name: "ingest re-stages synced", from: StatusSynced, event: EventIngested, want: StatusStaged},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.event)
			if tc.illegal {
				require.Error(t, err)
				require.Equal(t, tc.from, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestTransitionRejectsUnknownEvent(t *testing.T) {
	_, err := Transition(StatusStaged, Event("promoted"))
	require.Error(t, err)
}

func TestImageValidate(t *testing.T) {
	require.NoError(t, Image{Src: "https://cdn.example.com/x100.jpg"}.Validate())
	require.NoError(t, Image{Attachment: "aGVsbG8=", ContentType: "image/jpeg"}.Validate())
	require.Error(t, Image{}.Validate())
	require.Error(t, Image{Src: "https://cdn.example.com/x100.jpg", Attachment: "aGVsbG8="}.Validate())
}
