package xxlsort

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestMergerNoOpOnEmptyQueue(t *testing.T) {
	dir := t.TempDir()
	destPath := filepath.Join(dir, "out")
	destID := NewFileID(destPath)
	destID.SetAutoUnlink(true)

	src, err := Open(NewFileID(filepath.Join(dir, "unused-src")), WriteCreate)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	arena := newTestArena(t, mergeOutputBufferSize+mergeInputBufferSize)
	m := NewMerger(arena, src, src.Path(), destID)
	var queue []*FileID
	if err := m.Run(&queue); err != nil {
		t.Fatal(err)
	}
	// No runs, no destination write attempted: the path must not exist.
	if _, err := os.Stat(destPath); err == nil {
		t.Fatal("merger must not create a destination file for an empty queue")
	}
}

func TestMergerMergesMultipleRunsSortedAndComplete(t *testing.T) {
	dir := t.TempDir()
	inputPath, keys := buildExternalInput(t, 6000, 48)
	destPath := filepath.Join(dir, "out")

	src, err := Open(NewFileID(inputPath), ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	destID := NewFileID(destPath)
	destID.SetAutoUnlink(true)

	// Force the run-former into several runs.
	rfArena := newTestArena(t, inputBufferSize+outputBufferSize+512*1024)
	rf := NewRunFormer(rfArena, src, inputPath, destID)
	var queue []*FileID
	wroteDirectly, err := rf.Run(&queue)
	if err != nil {
		t.Fatal(err)
	}
	if wroteDirectly || len(queue) < 2 {
		t.Fatalf("expected multiple transient runs, got wroteDirectly=%v len(queue)=%d", wroteDirectly, len(queue))
	}

	// Force the merger into a fan-in smaller than len(queue), so it
	// needs more than one pass.
	mergeArena := newTestArena(t, mergeOutputBufferSize+2*mergeInputBufferSize)
	m := NewMerger(mergeArena, src, inputPath, destID)
	if err := m.Run(&queue); err != nil {
		t.Fatal(err)
	}
	if len(queue) != 0 {
		t.Fatalf("merger must drain the queue, %d runs left", len(queue))
	}

	gotKeys := readAllExternalKeys(t, destPath)
	if len(gotKeys) != len(keys) {
		t.Fatalf("got %d records, want %d", len(gotKeys), len(keys))
	}
	for i := 1; i < len(gotKeys); i++ {
		if bytes.Compare(gotKeys[i-1][:], gotKeys[i][:]) > 0 {
			t.Fatalf("output not sorted at %d", i)
		}
	}
}

func TestMergerForwardsDeferredBodiesAcrossPasses(t *testing.T) {
	dir := t.TempDir()
	inputPath, _ := buildExternalInput(t, 40, 2*1024*1024)
	destPath := filepath.Join(dir, "out")

	src, err := Open(NewFileID(inputPath), ReadOnly)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	destID := NewFileID(destPath)
	destID.SetAutoUnlink(true)

	wantByKey := readAllExternalRecords(t, inputPath)

	// Deferred records barely touch the workspace (no inline body), so
	// the workspace must be cut down to just a few KiB to still force
	// several runs out of only 40 records.
	rfArena := newTestArena(t, inputBufferSize+outputBufferSize+1536)
	rf := NewRunFormer(rfArena, src, inputPath, destID)
	var queue []*FileID
	wroteDirectly, err := rf.Run(&queue)
	if err != nil {
		t.Fatal(err)
	}
	if wroteDirectly || len(queue) < 2 {
		t.Fatalf("expected multiple transient runs with deferred bodies, got wroteDirectly=%v len(queue)=%d", wroteDirectly, len(queue))
	}

	mergeArena := newTestArena(t, mergeOutputBufferSize+2*mergeInputBufferSize)
	m := NewMerger(mergeArena, src, inputPath, destID)
	if err := m.Run(&queue); err != nil {
		t.Fatal(err)
	}

	gotByKey := readAllExternalRecords(t, destPath)
	if len(gotByKey) != len(wantByKey) {
		t.Fatalf("got %d records, want %d", len(gotByKey), len(wantByKey))
	}
	for k, wantBody := range wantByKey {
		gotBody, ok := gotByKey[k]
		if !ok || gotBody != wantBody {
			t.Fatalf("deferred body for key %x did not round-trip through the merger", k[:8])
		}
	}
}
