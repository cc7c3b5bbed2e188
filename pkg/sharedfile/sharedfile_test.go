package sharedfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestAppendAdvancesWatermarkAndBroadcasts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_1.xml")
	sf, err := OpenForAppend(path)
	if err != nil {
		t.Fatalf("OpenForAppend: %v", err)
	}
	defer sf.ReleaseFile()

	if wm, closed := sf.Snapshot(); wm != 0 || closed {
		t.Fatalf("initial snapshot = %d, %v", wm, closed)
	}

	done := make(chan struct{})
	go func() {
		wm, closed, err := sf.WaitForChange(context.Background(), 0)
		if err != nil || wm != 5 || closed {
			t.Errorf("WaitForChange = %d, %v, %v", wm, closed, err)
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if err := sf.Append([]byte("hello")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForChange did not wake up after Append")
	}
}

func TestWaitForChangeWakesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_1.xml")
	sf, err := OpenForAppend(path)
	if err != nil {
		t.Fatalf("OpenForAppend: %v", err)
	}
	defer sf.ReleaseFile()

	done := make(chan struct{})
	go func() {
		_, closed, err := sf.WaitForChange(context.Background(), 0)
		if err != nil || !closed {
			t.Errorf("WaitForChange = closed=%v, err=%v", closed, err)
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	sf.Close(nil)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForChange did not wake up after Close")
	}
}

func TestWaitForChangeRespectsContextCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_1.xml")
	sf, err := OpenForAppend(path)
	if err != nil {
		t.Fatalf("OpenForAppend: %v", err)
	}
	defer sf.ReleaseFile()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, _, err := sf.WaitForChange(ctx, 0); err == nil {
		t.Error("expected context deadline error")
	}
}

func TestReadAtSeesAppendedBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_1.xml")
	sf, err := OpenForAppend(path)
	if err != nil {
		t.Fatalf("OpenForAppend: %v", err)
	}
	defer sf.ReleaseFile()

	if err := sf.Append([]byte("hello world")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	buf := make([]byte, 5)
	n, err := sf.ReadAt(buf, 0)
	if err != nil || n != 5 || string(buf) != "hello" {
		t.Fatalf("ReadAt = %q, %d, %v", buf[:n], n, err)
	}
}

func TestOpenForAppendTwiceFailsBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_1.xml")
	sf, err := OpenForAppend(path)
	if err != nil {
		t.Fatalf("OpenForAppend: %v", err)
	}
	defer sf.ReleaseFile()

	if _, err := OpenForAppend(path); err == nil {
		t.Error("expected second OpenForAppend to fail with Busy")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_1.xml")
	sf, err := OpenForAppend(path)
	if err != nil {
		t.Fatalf("OpenForAppend: %v", err)
	}
	defer sf.ReleaseFile()

	sf.Close(nil)
	sf.Close(nil)

	if _, closed := sf.Snapshot(); !closed {
		t.Error("expected closed=true")
	}
}
