/**
 * Copyright 2026 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */
package main

import (
	"errors"
	"fmt"
	"testing"

	"huffpack/huffman"
)

func TestRunStoreInMemory(t *testing.T) {
	store := NewRunStoreInMemory(3)

	var runs []*Run
	for i := 0; i < 5; i++ {
		run := NewRun(OP_COMPRESS, fmt.Sprintf("file%d", i), huffman.Metrics{OriginalSize: i})
		if err := store.Save(run); err != nil {
			t.Fatal(err)
		}
		runs = append(runs, run)
	}

	list, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("store keeps %d runs, want 3", len(list))
	}
	for i, want := range []string{"file4", "file3", "file2"} {
		if list[i].Filename != want {
			t.Errorf("list[%d] = %s, want %s", i, list[i].Filename, want)
		}
	}

	if _, err := store.FindByID(runs[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("evicted run: got %v, want ErrNotFound", err)
	}
	if r, err := store.FindByID(runs[4].ID); err != nil || r != runs[4] {
		t.Errorf("newest run: got %v, %v", r, err)
	}

	// saving a known run again does not duplicate it
	if err := store.Save(runs[4]); err != nil {
		t.Fatal(err)
	}
	if list, _ := store.List(); len(list) != 3 || list[0] != runs[4] {
		t.Errorf("resave changed the history: %v", list)
	}
}

func TestNewRunIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		run := NewRun(OP_DECOMPRESS, "x", huffman.Metrics{})
		if run.ID == "" || seen[run.ID] {
			t.Fatalf("bad or repeated run id %q", run.ID)
		}
		seen[run.ID] = true
	}
}

func TestFeed(t *testing.T) {
	f := NewFeed()

	a, cancel_a := f.Subscribe()
	b, cancel_b := f.Subscribe()
	if f.Subscribers() != 2 {
		t.Fatalf("%d subscribers, want 2", f.Subscribers())
	}

	run := NewRun(OP_COMPRESS, "x", huffman.Metrics{})
	f.Broadcast(RunEvent{Type: "run", Run: run})

	for _, ch := range []<-chan RunEvent{a, b} {
		event := <-ch
		if event.Run != run {
			t.Fatalf("got %+v", event)
		}
	}

	cancel_a()
	cancel_a()
	if _, ok := <-a; ok {
		t.Fatal("channel is still open after cancel")
	}
	if f.Subscribers() != 1 {
		t.Fatalf("%d subscribers, want 1", f.Subscribers())
	}

	// nobody reads b: Broadcast must not block
	for i := 0; i < 100; i++ {
		f.Broadcast(RunEvent{Type: "run", Run: run})
	}
	if len(b) != cap(b) {
		t.Fatalf("b holds %d events, want %d", len(b), cap(b))
	}
	cancel_b()
	if f.Subscribers() != 0 {
		t.Fatalf("%d subscribers, want 0", f.Subscribers())
	}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
