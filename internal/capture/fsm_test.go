package capture

import "testing"

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle start", from: StateIdle, event: EventStart, want: StateRecording},
		{name: "idle pause invalid", from: StateIdle, event: EventPause, want: StateIdle, wantErr: true},
		{name: "idle resume invalid", from: StateIdle, event: EventResume, want: StateIdle, wantErr: true},
		{name: "recording pause", from: StateRecording, event: EventPause, want: StatePaused},
		{name: "recording silence", from: StateRecording, event: EventSilence, want: StatePaused},
		{name: "recording start invalid", from: StateRecording, event: EventStart, want: StateRecording, wantErr: true},
		{name: "paused resume", from: StatePaused, event: EventResume, want: StateRecording},
		{name: "paused start", from: StatePaused, event: EventStart, want: StateRecording},
		{name: "paused silence invalid", from: StatePaused, event: EventSilence, want: StatePaused, wantErr: true},
		{name: "stop from recording", from: StateRecording, event: EventStop, want: StateIdle},
		{name: "stop from paused", from: StatePaused, event: EventStop, want: StateIdle},
		{name: "stop from idle", from: StateIdle, event: EventStop, want: StateIdle},
		{name: "fail from recording", from: StateRecording, event: EventFail, want: StateIdle},
		{name: "fail from paused", from: StatePaused, event: EventFail, want: StateIdle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.from, tc.event)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %s --(%s)-->", tc.from, tc.event)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	if _, err := Transition(State("bogus"), EventStart); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
