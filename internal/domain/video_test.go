package domain

import "testing"

func TestVideoStatusTerminal(t *testing.T) {
	terminal := map[VideoStatus]bool{
		VideoStatusPending:     false,
		VideoStatusDownloading: false,
		VideoStatusProcessing:  false,
		VideoStatusUploading:   false,
		VideoStatusCompleted:   true,
		VideoStatusFailed:      true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Fatalf("%q.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestVideoStatusValid(t *testing.T) {
	for _, status := range []VideoStatus{
		VideoStatusPending, VideoStatusDownloading, VideoStatusProcessing,
		VideoStatusUploading, VideoStatusCompleted, VideoStatusFailed,
	} {
		if !status.Valid() {
			t.Fatalf("%q should be valid", status)
		}
	}
	if VideoStatus("bogus").Valid() {
		t.Fatal("unknown status should be invalid")
	}
}
