package gitlab

import (
	"testing"

	"telegram-repo-notifier/internal/domain/model"
)

func TestDecodeNoteHook(t *testing.T) {
	payload := []byte(`{
		"user": {"username": "alice", "name": "Alice"},
		"project": {"id": 42, "name": "app", "path_with_namespace": "group/app"},
		"object_attributes": {
			"id": 901,
			"note": "@bob please look at this",
			"noteable_type": "MergeRequest",
			"noteable_id": 5500,
			"url": "https://gitlab.example.com/group/app/-/merge_requests/7#note_901"
		},
		"merge_request": {
			"id": 5500,
			"iid": 7,
			"title": "Add retries",
			"author": {"username": "bob", "name": "Bob"},
			"assignees": [{"username": "carol", "name": "Carol"}],
			"reviewers": [{"username": "dave", "name": "Dave"}]
		}
	}`)

	d := NewDecoder()
	got, err := d.Decode("Note Hook", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev, ok := got.(*model.NoteEvent)
	if !ok {
		t.Fatalf("got %T, want *model.NoteEvent", got)
	}

	if ev.ProjectID != "42" || ev.ProjectName != "group/app" {
		t.Errorf("project = %q/%q", ev.ProjectID, ev.ProjectName)
	}
	if ev.Author.Username != "alice" {
		t.Errorf("author = %q, want alice", ev.Author.Username)
	}
	if ev.NoteableType != "MergeRequest" || ev.NoteableID != 5500 {
		t.Errorf("noteable = %q/%d", ev.NoteableType, ev.NoteableID)
	}
	if !ev.HasTarget {
		t.Fatal("target must be set from the embedded merge request")
	}
	if ev.Target.Author.Username != "bob" {
		t.Errorf("target author = %q, want bob", ev.Target.Author.Username)
	}
	if !ev.Target.HasAssignee("carol") || !ev.Target.HasReviewer("dave") {
		t.Error("embedded roster not carried over")
	}
}

func TestDecodeNoteHookWithoutTarget(t *testing.T) {
	payload := []byte(`{
		"user": {"username": "alice"},
		"project": {"id": 42, "path_with_namespace": "group/app"},
		"object_attributes": {"id": 902, "note": "commit comment", "noteable_type": "Commit"}
	}`)

	got, err := NewDecoder().Decode("Note Hook", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := got.(*model.NoteEvent)
	if ev.HasTarget {
		t.Error("a commit comment has no merge request or issue target")
	}
}

func TestDecodeMergeRequestHook(t *testing.T) {
	payload := []byte(`{
		"user": {"username": "alice"},
		"project": {"id": 42, "path_with_namespace": "group/app"},
		"object_attributes": {
			"id": 5500,
			"iid": 7,
			"title": "Add retries",
			"url": "https://gitlab.example.com/group/app/-/merge_requests/7",
			"action": "approved",
			"source_branch": "feat/retries",
			"target_branch": "main",
			"author": {"username": "bob", "name": "Bob"}
		},
		"assignees": [{"username": "carol"}],
		"reviewers": [{"username": "dave"}]
	}`)

	got, err := NewDecoder().Decode("Merge Request Hook", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := got.(*model.MergeRequestEvent)

	if ev.Action != model.MergeActionOther || ev.RawAction != "approved" {
		t.Errorf("action = %q raw %q", ev.Action, ev.RawAction)
	}
	if ev.MR.IID != 7 || ev.MR.Author.Username != "bob" {
		t.Errorf("mr = iid %d author %q", ev.MR.IID, ev.MR.Author.Username)
	}
	// Roster comes from the top level of this hook kind.
	if !ev.MR.HasAssignee("carol") || !ev.MR.HasReviewer("dave") {
		t.Error("top-level roster not carried over")
	}
	if ev.SourceBranch != "feat/retries" || ev.TargetBranch != "main" {
		t.Errorf("branches = %q -> %q", ev.SourceBranch, ev.TargetBranch)
	}
}

func TestNormalizeMergeAction(t *testing.T) {
	cases := map[string]model.MergeAction{
		"open":     model.MergeActionOpen,
		"update":   model.MergeActionUpdate,
		"merge":    model.MergeActionMerge,
		"close":    model.MergeActionOther,
		"approved": model.MergeActionOther,
	}
	for raw, want := range cases {
		if got := normalizeMergeAction(raw); got != want {
			t.Errorf("normalizeMergeAction(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestDecodePipelineHook(t *testing.T) {
	payload := []byte(`{
		"project": {"id": 42, "path_with_namespace": "group/app"},
		"object_attributes": {
			"id": 321,
			"status": "failed",
			"ref": "feat/retries",
			"url": "https://gitlab.example.com/group/app/-/pipelines/321"
		},
		"merge_requests": [
			{"iid": 7, "title": "Add retries", "author": {"username": "bob"}}
		]
	}`)

	got, err := NewDecoder().Decode("Pipeline Hook", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := got.(*model.PipelineEvent)

	if ev.Status != model.PipelineFailed || ev.PipelineID != 321 {
		t.Errorf("pipeline = %q id %d", ev.Status, ev.PipelineID)
	}
	if len(ev.MergeRequests) != 1 || ev.MergeRequests[0].Author.Username != "bob" {
		t.Fatalf("merge requests = %+v", ev.MergeRequests)
	}
}

func TestDecodePipelineHookLegacySingleMR(t *testing.T) {
	payload := []byte(`{
		"project": {"id": 42, "path_with_namespace": "group/app"},
		"object_attributes": {"id": 322, "status": "success"},
		"merge_request": {"iid": 9, "author": {"username": "carol"}}
	}`)

	got, err := NewDecoder().Decode("Pipeline Hook", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := got.(*model.PipelineEvent)
	if len(ev.MergeRequests) != 1 || ev.MergeRequests[0].IID != 9 {
		t.Fatalf("merge requests = %+v", ev.MergeRequests)
	}
}

func TestDecodeIssueHook(t *testing.T) {
	payload := []byte(`{
		"user": {"username": "alice"},
		"project": {"id": 42, "path_with_namespace": "group/app"},
		"object_attributes": {
			"id": 800,
			"iid": 15,
			"title": "Crash on startup",
			"action": "open",
			"author": {"username": "bob"}
		},
		"assignees": [{"username": "erin"}],
		"labels": [{"title": "bug"}, {"title": "p1"}]
	}`)

	got, err := NewDecoder().Decode("Issue Hook", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := got.(*model.IssueEvent)

	if ev.Action != model.IssueActionOpen {
		t.Errorf("action = %q", ev.Action)
	}
	if !ev.Issue.HasAssignee("erin") {
		t.Error("assignee not carried over")
	}
	if len(ev.Labels) != 2 || ev.Labels[0] != "bug" {
		t.Errorf("labels = %v", ev.Labels)
	}
}

func TestDecodeUnhandledAndMalformed(t *testing.T) {
	d := NewDecoder()

	got, err := d.Decode("Push Hook", []byte(`{}`))
	if got != nil || err != nil {
		t.Errorf("push hook: got (%v, %v), want (nil, nil)", got, err)
	}

	if _, err := d.Decode("Note Hook", []byte(`not json`)); err == nil {
		t.Error("malformed payload must fail")
	}
}
